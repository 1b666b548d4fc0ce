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
	"time"

	"github.com/wagerflow/etlcore/internal/scheduler"
)

// RunCleanup runs the weekly maintenance pass: orphan-row deletes, target
// table ANALYZE, data_sync_logs archival/pruning, and the data_cache expiry
// sweep. Satisfies scheduler.JobRunner. Individual steps are non-fatal by
// design (matching the teacher's cold-purge behavior) so one failing step
// does not prevent the others from running; failures are logged and the
// first one is returned once every step has had a chance to run.
func (m *Manager) RunCleanup(ctx context.Context) error {
	var firstErr error
	note := func(step string, err error) {
		if err == nil {
			return
		}
		m.log.Errorw("cleanup step failed (non-fatal)", "step", step, "error", err)
		if firstErr == nil {
			firstErr = fmt.Errorf("core: cleanup step %q: %w", step, err)
		}
	}

	note("orphan_cleanup", m.runOrphanCleanup(ctx))
	note("analyze_tables", m.analyzeTables(ctx))
	note("archive_sync_logs", m.archiveOldSyncLogs(ctx))
	note("expire_exports", m.expireOldExports(ctx))

	if _, err := m.PurgeExpiredCache(ctx); err != nil {
		note("purge_expired_cache", err)
	}

	m.mu.Lock()
	m.lastCleanup = time.Now()
	m.mu.Unlock()

	m.trackRun(scheduler.KindCleanup, firstErr)
	return firstErr
}

// runOrphanCleanup executes every operator-supplied DELETE statement in
// orphanCleanupSQL. A statement's failure is logged and does not prevent
// the remaining statements from running.
func (m *Manager) runOrphanCleanup(ctx context.Context) error {
	var firstErr error
	for _, stmt := range m.orphanCleanupSQL {
		tag, err := m.targetPool.Exec(ctx, stmt)
		if err != nil {
			m.log.Warnw("orphan cleanup statement failed", "statement", stmt, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.log.Infow("orphan cleanup statement applied", "rowsAffected", tag.RowsAffected())
	}
	return firstErr
}

// analyzeTables runs ANALYZE against every enabled table's target, keeping
// the query planner's statistics fresh after large sync batches.
func (m *Manager) analyzeTables(ctx context.Context) error {
	tables, err := m.provider.Tables(ctx)
	if err != nil {
		return fmt.Errorf("resolve tables: %w", err)
	}

	var firstErr error
	for _, table := range tables {
		if !table.Enabled {
			continue
		}
		if _, err := m.targetPool.Exec(ctx, fmt.Sprintf("ANALYZE %s", table.TargetTable)); err != nil {
			m.log.Warnw("analyze failed", "table", table.TargetTable, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// archiveOldSyncLogs cold-archives data_sync_logs rows older than the
// configured retention window (if an archiver is wired) and deletes them
// from the target database.
func (m *Manager) archiveOldSyncLogs(ctx context.Context) error {
	settings, err := m.provider.DataSyncSettings(ctx)
	if err != nil {
		settings = defaultDataSyncSettings()
	}
	cutoff := time.Now().Add(-settings.LogRetention())

	if m.archiver != nil {
		logs, err := m.logStore.LogsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("load logs for archival: %w", err)
		}
		if err := m.archiver.ArchiveLogs(ctx, logs); err != nil {
			return fmt.Errorf("archive logs: %w", err)
		}
	}

	deleted, err := m.logStore.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old logs: %w", err)
	}
	m.log.Infow("pruned data_sync_logs", "cutoff", cutoff, "deleted", deleted)
	return nil
}

// PurgeExpiredCache sweeps expired data_cache rows. Exposed standalone so
// it can also run ahead of the weekly cleanup fire (e.g. from a CLI
// command) without pulling in the rest of RunCleanup.
func (m *Manager) PurgeExpiredCache(ctx context.Context) (int64, error) {
	if m.cleaner == nil {
		return 0, nil
	}
	deleted, err := m.cleaner.PurgeExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired cache: %w", err)
	}
	return deleted, nil
}
