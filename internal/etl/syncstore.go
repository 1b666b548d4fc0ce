/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package etl

import (
	"context"
	"time"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// SyncLogStore persists SyncLog rows across a sync attempt's lifetime.
type SyncLogStore interface {
	// Start inserts log with status RUNNING under the ID the caller set.
	Start(ctx context.Context, log *etlmodel.SyncLog) error
	// Finish updates an already-started log row with its final status,
	// counters, and timing.
	Finish(ctx context.Context, log *etlmodel.SyncLog) error
	// LastSuccessfulSync returns the start time of the most recent
	// COMPLETED sync log for tableName, or the zero time if none exists.
	LastSuccessfulSync(ctx context.Context, tableName string) (time.Time, error)
}

// WatermarkStore persists the incremental-sync watermark for a table across
// process restarts (spec ambiguity #2).
type WatermarkStore interface {
	// GetWatermark returns the persisted watermark for tableName, or ok=false
	// if none has been recorded yet.
	GetWatermark(ctx context.Context, tableName string) (watermark time.Time, ok bool, err error)
	// SetWatermark upserts the watermark for tableName.
	SetWatermark(ctx context.Context, tableName string, watermark time.Time) error
}
