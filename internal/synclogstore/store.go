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

// Package synclogstore persists data_sync_logs rows and the supplemented
// sync_watermarks table that lets incremental sync survive a restart.
package synclogstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/pgutil"
)

// Store implements etl.SyncLogStore and etl.WatermarkStore against
// data_sync_logs and sync_watermarks.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ etl.SyncLogStore   = (*Store)(nil)
	_ etl.WatermarkStore = (*Store)(nil)
)

// New creates a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Start inserts log with status RUNNING.
func (s *Store) Start(ctx context.Context, log *etlmodel.SyncLog) error {
	metadata := pgutil.MarshalJSONB(log.Metadata)

	query := `INSERT INTO data_sync_logs (
		id, sync_type, table_name, operation, records_processed,
		records_success, records_failed, start_time, status, metadata
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := s.pool.Exec(ctx, query,
		log.ID, log.SyncType, log.TableName, string(log.Operation),
		log.RecordsProcessed, log.RecordsSuccess, log.RecordsFailed,
		log.StartTime, string(log.Status), metadata,
	)
	if err != nil {
		return fmt.Errorf("synclogstore: start sync log: %w", err)
	}
	return nil
}

// Finish updates an already-started log row with its final state.
func (s *Store) Finish(ctx context.Context, log *etlmodel.SyncLog) error {
	query := `UPDATE data_sync_logs SET
		records_processed = $2, records_success = $3, records_failed = $4,
		end_time = $5, duration_ms = $6, status = $7, error_message = $8
		WHERE id = $1`

	res, err := s.pool.Exec(ctx, query,
		log.ID, log.RecordsProcessed, log.RecordsSuccess, log.RecordsFailed,
		pgutil.NullTime(log.EndTime), log.DurationMS, string(log.Status), pgutil.NullString(log.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("synclogstore: finish sync log: %w", err)
	}
	if res.RowsAffected() == 0 {
		return etlmodel.ErrSyncLogNotFound
	}
	return nil
}

// LastSuccessfulSync returns the start_time of the most recent COMPLETED
// sync log for tableName, or the zero time if none exists.
func (s *Store) LastSuccessfulSync(ctx context.Context, tableName string) (time.Time, error) {
	query := `SELECT start_time FROM data_sync_logs
		WHERE table_name = $1 AND operation = $2 AND status = $3
		ORDER BY start_time DESC LIMIT 1`

	var startTime time.Time
	err := s.pool.QueryRow(ctx, query, tableName, string(etlmodel.OperationSync), string(etlmodel.StatusCompleted)).Scan(&startTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("synclogstore: last successful sync: %w", err)
	}
	return startTime, nil
}

// LogsBefore returns every data_sync_logs row with start_time earlier than
// cutoff, oldest first, for archiving ahead of DeleteLogsBefore.
func (s *Store) LogsBefore(ctx context.Context, cutoff time.Time) ([]etlmodel.SyncLog, error) {
	query := `SELECT id, sync_type, table_name, operation, records_processed,
		records_success, records_failed, start_time, end_time, duration_ms,
		status, COALESCE(error_message, ''), metadata
		FROM data_sync_logs WHERE start_time < $1 ORDER BY start_time ASC`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("synclogstore: logs before: %w", err)
	}
	defer rows.Close()

	var logs []etlmodel.SyncLog
	for rows.Next() {
		var (
			l        etlmodel.SyncLog
			op       string
			status   string
			endTime  *time.Time
			metadata []byte
		)
		if err := rows.Scan(&l.ID, &l.SyncType, &l.TableName, &op,
			&l.RecordsProcessed, &l.RecordsSuccess, &l.RecordsFailed,
			&l.StartTime, &endTime, &l.DurationMS, &status, &l.ErrorMessage, &metadata,
		); err != nil {
			return nil, fmt.Errorf("synclogstore: scan log: %w", err)
		}
		l.EndTime = pgutil.TimeOrZero(endTime)
		l.Operation = etlmodel.SyncOperation(op)
		l.Status = etlmodel.SyncStatus(status)
		l.Metadata = pgutil.UnmarshalJSONB(metadata)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("synclogstore: logs before: %w", err)
	}
	return logs, nil
}

// DeleteLogsBefore removes every data_sync_logs row with start_time earlier
// than cutoff and reports how many rows were deleted.
func (s *Store) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM data_sync_logs WHERE start_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("synclogstore: delete logs before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetWatermark returns the persisted watermark for tableName.
func (s *Store) GetWatermark(ctx context.Context, tableName string) (time.Time, bool, error) {
	var watermark time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT watermark_value FROM sync_watermarks WHERE table_name = $1`, tableName,
	).Scan(&watermark)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("synclogstore: get watermark: %w", err)
	}
	return watermark, true, nil
}

// SetWatermark upserts the watermark for tableName.
func (s *Store) SetWatermark(ctx context.Context, tableName string, watermark time.Time) error {
	query := `INSERT INTO sync_watermarks (table_name, watermark_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_name) DO UPDATE SET
			watermark_value = EXCLUDED.watermark_value,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, tableName, watermark, time.Now()); err != nil {
		return fmt.Errorf("synclogstore: set watermark: %w", err)
	}
	return nil
}
