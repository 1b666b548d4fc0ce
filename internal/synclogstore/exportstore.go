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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// CreateExport inserts a new data_exports row in PENDING status and
// stamps its ID if the caller left it blank.
func (s *Store) CreateExport(ctx context.Context, exp etlmodel.DataExport) (etlmodel.DataExport, error) {
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	if exp.Status == "" {
		exp.Status = etlmodel.ExportPending
	}
	query := `INSERT INTO data_exports (id, status, progress_percentage, format, created_at, expires_at, file_uri)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.pool.Exec(ctx, query,
		exp.ID, string(exp.Status), exp.ProgressPercentage, string(exp.Format), exp.CreatedAt, exp.ExpiresAt, exp.FileURI,
	)
	if err != nil {
		return etlmodel.DataExport{}, fmt.Errorf("synclogstore: create export: %w", err)
	}
	return exp, nil
}

// GetExport reads one data_exports row by ID.
func (s *Store) GetExport(ctx context.Context, id string) (etlmodel.DataExport, error) {
	query := `SELECT id, status, progress_percentage, format, created_at, expires_at, COALESCE(file_uri, '')
		FROM data_exports WHERE id = $1`
	var exp etlmodel.DataExport
	var status, format string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&exp.ID, &status, &exp.ProgressPercentage, &format, &exp.CreatedAt, &exp.ExpiresAt, &exp.FileURI,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return etlmodel.DataExport{}, fmt.Errorf("synclogstore: export %q: %w", id, err)
	}
	if err != nil {
		return etlmodel.DataExport{}, fmt.Errorf("synclogstore: get export: %w", err)
	}
	exp.Status = etlmodel.ExportStatus(status)
	exp.Format = etlmodel.ExportFormat(format)
	return exp, nil
}

// UpdateExportProgress advances an in-flight export's status and
// percentage, and records fileURI once the export completes.
func (s *Store) UpdateExportProgress(ctx context.Context, id string, status etlmodel.ExportStatus, percentage int, fileURI string) error {
	query := `UPDATE data_exports SET status = $2, progress_percentage = $3, file_uri = NULLIF($4, '') WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, string(status), percentage, fileURI)
	if err != nil {
		return fmt.Errorf("synclogstore: update export progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("synclogstore: export %q not found", id)
	}
	return nil
}

// ExpiredExports returns every data_exports row whose expires_at has
// passed and is not already marked EXPIRED, for the cleanup job to sweep.
func (s *Store) ExpiredExports(ctx context.Context) ([]etlmodel.DataExport, error) {
	query := `SELECT id, status, progress_percentage, format, created_at, expires_at, COALESCE(file_uri, '')
		FROM data_exports WHERE expires_at <= now() AND status != $1`
	rows, err := s.pool.Query(ctx, query, string(etlmodel.ExportExpired))
	if err != nil {
		return nil, fmt.Errorf("synclogstore: expired exports: %w", err)
	}
	defer rows.Close()

	var out []etlmodel.DataExport
	for rows.Next() {
		var exp etlmodel.DataExport
		var status, format string
		if err := rows.Scan(&exp.ID, &status, &exp.ProgressPercentage, &format, &exp.CreatedAt, &exp.ExpiresAt, &exp.FileURI); err != nil {
			return nil, fmt.Errorf("synclogstore: scan export: %w", err)
		}
		exp.Status = etlmodel.ExportStatus(status)
		exp.Format = etlmodel.ExportFormat(format)
		out = append(out, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("synclogstore: expired exports: %w", err)
	}
	return out, nil
}

// MarkExportsExpired transitions every row ExpiredExports would return to
// EXPIRED, returning how many rows changed.
func (s *Store) MarkExportsExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE data_exports SET status = $1 WHERE expires_at <= now() AND status != $1`,
		string(etlmodel.ExportExpired))
	if err != nil {
		return 0, fmt.Errorf("synclogstore: mark exports expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
