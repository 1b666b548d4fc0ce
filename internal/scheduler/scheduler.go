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

// Package scheduler drives the three recurring ETL job kinds — fullSync,
// incrementalSync, cleanup — on cron expressions bound to a single
// timezone, enforcing at-most-one-running-instance per kind.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wagerflow/etlcore/pkg/metrics"
)

// JobKind names one of the Scheduler's three recurring job kinds.
type JobKind string

// Supported job kinds.
const (
	KindFullSync        JobKind = "fullSync"
	KindIncrementalSync JobKind = "incrementalSync"
	KindCleanup         JobKind = "cleanup"
)

// JobRunner performs the actual work for each job kind. internal/core.Manager
// implements this interface in production; tests substitute a fake.
type JobRunner interface {
	RunFullSync(ctx context.Context) error
	RunIncrementalSync(ctx context.Context) error
	RunCleanup(ctx context.Context) error
}

// Config holds the three cron schedules, all evaluated in Location.
type Config struct {
	FullSyncSchedule        string
	IncrementalSyncSchedule string
	CleanupSchedule         string
	Location                *time.Location
}

// DefaultConfig matches spec.md §4.5's default schedules in the tier-0
// America/Sao_Paulo timezone.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return Config{
		FullSyncSchedule:        "0 2 * * *",
		IncrementalSyncSchedule: "*/15 * * * *",
		CleanupSchedule:         "0 3 * * 0",
		Location:                loc,
	}
}

// Scheduler owns the cron runner and the at-most-one-per-kind guard.
type Scheduler struct {
	cron    *cron.Cron
	runner  JobRunner
	log     *zap.SugaredLogger
	metrics *metrics.SchedulerMetrics

	mu      sync.Mutex
	running map[JobKind]bool
	wg      sync.WaitGroup
}

// New builds a Scheduler wired to runner, registering all three cron
// triggers. Call Start to begin firing. m may be nil, in which case no
// Prometheus metrics are recorded.
func New(cfg Config, runner JobRunner, log *zap.SugaredLogger, m *metrics.SchedulerMetrics) (*Scheduler, error) {
	s := &Scheduler{
		runner:  runner,
		log:     log,
		metrics: m,
		running: make(map[JobKind]bool),
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithLocation(cfg.Location), cron.WithParser(parser))

	jobs := []struct {
		kind     JobKind
		schedule string
		fn       func(ctx context.Context) error
	}{
		{KindFullSync, cfg.FullSyncSchedule, runner.RunFullSync},
		{KindIncrementalSync, cfg.IncrementalSyncSchedule, runner.RunIncrementalSync},
		{KindCleanup, cfg.CleanupSchedule, runner.RunCleanup},
	}

	for _, j := range jobs {
		kind, fn := j.kind, j.fn
		if _, err := s.cron.AddFunc(j.schedule, func() { s.fire(kind, fn) }); err != nil {
			return nil, fmt.Errorf("scheduler: register %s schedule %q: %w", kind, j.schedule, err)
		}
	}

	return s, nil
}

// Start begins firing scheduled jobs. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop ceases future fires immediately, then waits until every currently
// running job kind has finished before returning.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.wg.Wait()
}

// fire runs fn for kind unless an instance of kind is already running, in
// which case the fire is logged and dropped (spec.md §4.5's
// at-most-one-per-kind rule; independent kinds may overlap).
func (s *Scheduler) fire(kind JobKind, fn func(ctx context.Context) error) {
	s.mu.Lock()
	if s.running[kind] {
		s.mu.Unlock()
		s.log.Warnw("dropping job fire: already running", "kind", kind)
		if s.metrics != nil {
			s.metrics.DroppedTotal.WithLabelValues(string(kind)).Inc()
		}
		return
	}
	s.running[kind] = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[kind] = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	if s.metrics != nil {
		s.metrics.FiresTotal.WithLabelValues(string(kind)).Inc()
	}

	s.log.Infow("job started", "kind", kind)
	if err := fn(context.Background()); err != nil {
		s.log.Errorw("job failed", "kind", kind, "error", err)
		if s.metrics != nil {
			s.metrics.FailuresTotal.WithLabelValues(string(kind)).Inc()
		}
		return
	}
	s.log.Infow("job completed", "kind", kind)
}

// RunningKinds reports which job kinds are currently executing, for
// diagnostics (CoreManager.Status).
func (s *Scheduler) RunningKinds() []JobKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []JobKind
	for k, running := range s.running {
		if running {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
