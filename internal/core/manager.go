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

// Package core implements CoreManager, the process-wide facade that owns
// table sync, the cron scheduler, analytics generation, and cleanup, and
// exposes a small set of orchestration methods to callers (HTTP handlers,
// CLI commands) that never reach into its collaborators directly.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wagerflow/etlcore/internal/analytics"
	"github.com/wagerflow/etlcore/internal/archive"
	"github.com/wagerflow/etlcore/internal/cache"
	"github.com/wagerflow/etlcore/internal/configprovider"
	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/events"
	"github.com/wagerflow/etlcore/internal/scheduler"
	"github.com/wagerflow/etlcore/internal/synclogstore"
	"github.com/wagerflow/etlcore/pkg/metrics"
)

// Metrics groups the per-component Prometheus metric structs Manager wires
// into its collaborators. Any field may be nil.
type Metrics struct {
	Sync      *metrics.SyncMetrics
	Analytics *metrics.AnalyticsMetrics
	Scheduler *metrics.SchedulerMetrics
}

// Config wires a Manager to its collaborators. SourcePool, TargetPool,
// Provider and valid SchedulerConfig cron schedules are required; the other
// fields degrade gracefully when left zero-valued.
type Config struct {
	SourcePool *pgxpool.Pool
	TargetPool *pgxpool.Pool

	Provider configprovider.ConfigProvider

	// Archiver cold-archives data_sync_logs rows during cleanup before
	// they are deleted. May be nil, in which case cleanup deletes without
	// archiving.
	Archiver *archive.Archiver
	// Publisher emits sync.completed / analytics.upserted events. Defaults
	// to events.NoopPublisher when nil.
	Publisher events.Publisher
	// AnalyticsCache short-circuits recomputation of a just-generated
	// analytics row. May be nil (caching becomes a no-op).
	AnalyticsCache analytics.Cache

	// OrphanCleanupSQL is a list of operator-supplied DELETE statements run
	// during RunCleanup to remove target-side rows whose foreign key no
	// longer resolves (e.g. rows in a commissions table whose
	// external_user_id has no corresponding affiliate). The exact join is
	// deployment-schema-specific and is not guessed at; see DESIGN.md.
	OrphanCleanupSQL []string

	Metrics Metrics

	SchedulerConfig scheduler.Config

	Log *zap.SugaredLogger
}

// Summary is one RunFullSync/RunIncrementalSync call's aggregated outcome
// across every table it touched. scheduler.JobRunner's methods return only
// error (a Go method can't overload on return type to also hand back a
// summary), so Manager stores the most recent summary per mode and exposes
// it through Status instead.
type Summary struct {
	Mode             etl.SyncMode
	StartedAt        time.Time
	FinishedAt       time.Time
	TablesAttempted  int
	TablesSucceeded  int
	RecordsProcessed int
	RecordsSuccess   int
	RecordsFailed    int
	Errors           []string
}

// Manager is the CoreManager facade (C7).
type Manager struct {
	sourcePool *pgxpool.Pool
	targetPool *pgxpool.Pool

	provider       configprovider.ConfigProvider
	logStore       *synclogstore.Store
	analyticsStore *analytics.PostgresStore
	analyticsCache analytics.Cache
	archiver       *archive.Archiver
	cleaner        *cache.Cleaner
	pub            events.Publisher

	orphanCleanupSQL []string

	metrics Metrics
	log     *zap.SugaredLogger

	scheduler *scheduler.Scheduler

	mu           sync.Mutex
	initialized  bool
	lastFull     Summary
	lastIncr     Summary
	lastCleanup  time.Time
	totalFires   map[scheduler.JobKind]int64
	totalErrors  map[scheduler.JobKind]int64
}

// New builds a Manager. RunFullSync, RunIncrementalSync, SyncTable, and
// RunCleanup work without Initialize; Initialize checks both pools and
// starts the scheduler.
func New(cfg Config) (*Manager, error) {
	if cfg.SourcePool == nil || cfg.TargetPool == nil {
		return nil, fmt.Errorf("core: source and target pools are required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("core: config provider is required")
	}
	log := cfg.Log
	if log == nil {
		nop, _ := zap.NewDevelopment()
		log = nop.Sugar()
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = events.NoopPublisher{}
	}

	m := &Manager{
		sourcePool:       cfg.SourcePool,
		targetPool:       cfg.TargetPool,
		provider:         cfg.Provider,
		logStore:         synclogstore.New(cfg.TargetPool),
		analyticsStore:   analytics.NewPostgresStore(cfg.TargetPool),
		analyticsCache:   cfg.AnalyticsCache,
		archiver:         cfg.Archiver,
		cleaner:          cache.New(cfg.TargetPool),
		pub:              pub,
		orphanCleanupSQL: cfg.OrphanCleanupSQL,
		metrics:          cfg.Metrics,
		log:              log,
		totalFires:       make(map[scheduler.JobKind]int64),
		totalErrors:      make(map[scheduler.JobKind]int64),
	}

	sched, err := scheduler.New(cfg.SchedulerConfig, m, log, cfg.Metrics.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("core: build scheduler: %w", err)
	}
	m.scheduler = sched

	return m, nil
}

var _ scheduler.JobRunner = (*Manager)(nil)

// Initialize tests both database connections and starts the scheduler.
// Re-entry after a successful call is a no-op, matching spec.md §9's
// singleton-manager requirement.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	if err := m.sourcePool.Ping(ctx); err != nil {
		return fmt.Errorf("core: source pool unreachable: %w", err)
	}
	if err := m.targetPool.Ping(ctx); err != nil {
		return fmt.Errorf("core: target pool unreachable: %w", err)
	}

	m.scheduler.Start()
	m.initialized = true
	m.log.Info("core manager initialized")
	return nil
}

// Stop performs a graceful shutdown: it stops the scheduler (which blocks
// until any in-flight fire completes) and closes both pools.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()

	if initialized {
		m.scheduler.Stop()
	}
	if err := m.pub.Close(); err != nil {
		m.log.Warnw("event publisher close failed", "error", err)
	}
	m.sourcePool.Close()
	m.targetPool.Close()
	return ctx.Err()
}

// trackRun records one fire of kind for Status's cumulative counters,
// incrementing totalErrors too when err is non-nil.
func (m *Manager) trackRun(kind scheduler.JobKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalFires[kind]++
	if err != nil {
		m.totalErrors[kind]++
	}
}

// buildSyncer assembles a TableSyncer wired to this Manager's pools and
// resilience settings.
func (m *Manager) buildSyncer(retry dbresilience.RetryConfig) *etl.TableSyncer {
	reader := sourceReader(m.sourcePool, retry)
	writer := targetWriter(m.targetPool, retry)
	return etl.NewTableSyncer(reader, writer, m.logStore, m.logStore)
}
