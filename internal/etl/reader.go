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

// ReadOpts configures a single SourceReader.ReadBatch call.
type ReadOpts struct {
	// BatchSize is the maximum number of rows to return.
	BatchSize int
	// Offset is the number of rows to skip; used for full-sync pagination.
	Offset int
	// IncrementalField, when set, is the column incremental reads filter
	// and order on.
	IncrementalField string
	// Watermark is the exclusive lower bound applied to IncrementalField
	// ("IncrementalField > Watermark").
	Watermark time.Time
	// ExtraFilters are additional descriptor-declared filters merged with
	// the table's own Filters.
	ExtraFilters map[string]any
	// OrderBy overrides the default ordering column.
	OrderBy string
}

// ReadResult is the outcome of one ReadBatch call.
type ReadResult struct {
	Rows    []etlmodel.Row
	HasMore bool
	Success bool
	Err     error
}

// BatchFunc is invoked by ReadAll for each page of rows read.
type BatchFunc func(ctx context.Context, rows []etlmodel.Row) error

// SourceReader streams rows from the source database for a logical table,
// honoring filter predicates and either offset-based or incremental
// watermark-based pagination.
type SourceReader interface {
	// ReadBatch returns one page of rows for table under opts. A
	// connectivity failure that survives retries is reported via
	// ReadResult.Success=false rather than a returned error, so the
	// scheduler can continue with other tables; a non-nil error return is
	// reserved for configuration problems (unknown table).
	ReadBatch(ctx context.Context, table etlmodel.TableDescriptor, opts ReadOpts) (ReadResult, error)

	// ReadAll drives ReadBatch with growing Offset until a page returns
	// fewer than opts.BatchSize rows, invoking onBatch for each page.
	ReadAll(ctx context.Context, table etlmodel.TableDescriptor, opts ReadOpts, onBatch BatchFunc) error
}
