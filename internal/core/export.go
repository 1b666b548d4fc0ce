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

package core

import (
	"context"
	"fmt"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

var _ etlmodel.ExportRequester = (*Manager)(nil)

// RequestExport records a new data_exports row in PENDING status. File
// generation is an external collaborator's job; CoreManager only tracks
// the row's lifecycle for callers to poll.
func (m *Manager) RequestExport(ctx context.Context, exp etlmodel.DataExport) (etlmodel.DataExport, error) {
	created, err := m.logStore.CreateExport(ctx, exp)
	if err != nil {
		return etlmodel.DataExport{}, fmt.Errorf("core: request export: %w", err)
	}
	return created, nil
}

// ExportStatus reads the current lifecycle state of a previously requested
// export.
func (m *Manager) ExportStatus(ctx context.Context, id string) (etlmodel.DataExport, error) {
	exp, err := m.logStore.GetExport(ctx, id)
	if err != nil {
		return etlmodel.DataExport{}, fmt.Errorf("core: export status: %w", err)
	}
	return exp, nil
}

// UpdateExportProgress lets the external export generator report progress
// back through CoreManager rather than writing to data_exports directly.
func (m *Manager) UpdateExportProgress(ctx context.Context, id string, status etlmodel.ExportStatus, percentage int, fileURI string) error {
	if err := m.logStore.UpdateExportProgress(ctx, id, status, percentage, fileURI); err != nil {
		return fmt.Errorf("core: update export progress: %w", err)
	}
	return nil
}

// expireOldExports transitions past-expiry data_exports rows to EXPIRED,
// called from RunCleanup alongside the other non-fatal sweep steps.
func (m *Manager) expireOldExports(ctx context.Context) error {
	expired, err := m.logStore.MarkExportsExpired(ctx)
	if err != nil {
		return fmt.Errorf("expire exports: %w", err)
	}
	if expired > 0 {
		m.log.Infow("expired data_exports rows", "count", expired)
	}
	return nil
}
