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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/scheduler"
)

// PoolStatus mirrors the subset of pgxpool.Stat callers care about without
// exposing the pgxpool type through the core package's API.
type PoolStatus struct {
	Healthy       bool
	TotalConns    int32
	AcquiredConns int32
	IdleConns     int32
}

// TableStatus is one table's last-known sync_configurations state, per the
// supplemented per-table status surface.
type TableStatus struct {
	TableName  string
	Enabled    bool
	LastSynced time.Time

	BatchSize    int
	MaxRetries   int
	ConfigStatus etlmodel.SyncConfigStatus
}

// Status is the full point-in-time snapshot CoreManager.Status returns.
type Status struct {
	Initialized bool

	SourcePool PoolStatus
	TargetPool PoolStatus

	RunningJobs []scheduler.JobKind

	TotalFires  map[scheduler.JobKind]int64
	TotalErrors map[scheduler.JobKind]int64

	LastFullSync        Summary
	LastIncrementalSync Summary
	LastCleanup         time.Time

	Tables []TableStatus
}

// Status reports a snapshot of the manager's health, scheduler state, and
// per-table sync status, for an HTTP health endpoint or CLI diagnostics.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	st := Status{
		Initialized:         m.initialized,
		RunningJobs:         m.scheduler.RunningKinds(),
		LastFullSync:        m.lastFull,
		LastIncrementalSync: m.lastIncr,
		LastCleanup:         m.lastCleanup,
		TotalFires:          copyCounters(m.totalFires),
		TotalErrors:         copyCounters(m.totalErrors),
	}
	m.mu.Unlock()

	st.SourcePool = poolStatus(ctx, m.sourcePool)
	st.TargetPool = poolStatus(ctx, m.targetPool)

	tables, err := m.provider.Tables(ctx)
	if err != nil {
		return st, err
	}
	for _, table := range tables {
		lastSynced, _ := m.logStore.LastSuccessfulSync(ctx, table.SourceTable)
		ts := TableStatus{
			TableName:  table.SourceTable,
			Enabled:    table.Enabled,
			LastSynced: lastSynced,
		}
		if cfg, ok, _ := m.logStore.SyncConfiguration(ctx, table.SourceTable); ok {
			ts.BatchSize = cfg.BatchSize
			ts.MaxRetries = cfg.MaxRetries
			ts.ConfigStatus = cfg.Status
		}
		st.Tables = append(st.Tables, ts)
	}

	return st, nil
}

func poolStatus(ctx context.Context, pool *pgxpool.Pool) PoolStatus {
	healthy := pool.Ping(ctx) == nil
	stat := pool.Stat()
	return PoolStatus{
		Healthy:       healthy,
		TotalConns:    stat.TotalConns(),
		AcquiredConns: stat.AcquiredConns(),
		IdleConns:     stat.IdleConns(),
	}
}

func copyCounters(src map[scheduler.JobKind]int64) map[scheduler.JobKind]int64 {
	dst := make(map[scheduler.JobKind]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
