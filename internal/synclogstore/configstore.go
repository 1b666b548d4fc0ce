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

package synclogstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// SyncConfiguration reads the sync_configurations row for table, returning
// (zero value, false, nil) when no row has been recorded for it yet —
// callers fall back to the table descriptor's own defaults in that case.
func (s *Store) SyncConfiguration(ctx context.Context, table string) (etlmodel.SyncConfiguration, bool, error) {
	query := `SELECT table_name, sync_interval_minutes, batch_size, max_retries, timeout_seconds, status
		FROM sync_configurations WHERE table_name = $1`
	var cfg etlmodel.SyncConfiguration
	var status string
	err := s.pool.QueryRow(ctx, query, table).Scan(
		&cfg.TableName, &cfg.SyncIntervalMinutes, &cfg.BatchSize, &cfg.MaxRetries, &cfg.TimeoutSeconds, &status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return etlmodel.SyncConfiguration{}, false, nil
	}
	if err != nil {
		return etlmodel.SyncConfiguration{}, false, fmt.Errorf("synclogstore: sync configuration: %w", err)
	}
	cfg.Status = etlmodel.SyncConfigStatus(status)
	return cfg, true, nil
}

// UpsertSyncConfiguration inserts or replaces the sync_configurations row
// keyed on table_name.
func (s *Store) UpsertSyncConfiguration(ctx context.Context, cfg etlmodel.SyncConfiguration) error {
	query := `INSERT INTO sync_configurations (
		table_name, sync_interval_minutes, batch_size, max_retries, timeout_seconds, status
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (table_name) DO UPDATE SET
		sync_interval_minutes = EXCLUDED.sync_interval_minutes,
		batch_size = EXCLUDED.batch_size,
		max_retries = EXCLUDED.max_retries,
		timeout_seconds = EXCLUDED.timeout_seconds,
		status = EXCLUDED.status`
	_, err := s.pool.Exec(ctx, query,
		cfg.TableName, cfg.SyncIntervalMinutes, cfg.BatchSize, cfg.MaxRetries, cfg.TimeoutSeconds, string(cfg.Status),
	)
	if err != nil {
		return fmt.Errorf("synclogstore: upsert sync configuration: %w", err)
	}
	return nil
}
