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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics holds Prometheus metrics for the cron-driven job
// scheduler, keyed by job kind ("fullSync", "incrementalSync", "cleanup").
type SchedulerMetrics struct {
	// FiresTotal counts every cron fire that was actually run.
	FiresTotal *prometheus.CounterVec
	// DroppedTotal counts fires skipped because a job of the same kind was
	// already running.
	DroppedTotal *prometheus.CounterVec
	// FailuresTotal counts fires whose JobRunner method returned an error.
	FailuresTotal *prometheus.CounterVec
}

// NewSchedulerMetrics creates and registers all Prometheus metrics for the
// scheduler.
func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		FiresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_scheduler_fires_total",
			Help: "Total number of cron fires executed, by job kind",
		}, []string{"kind"}),
		DroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_scheduler_dropped_total",
			Help: "Total number of cron fires dropped because a job of the same kind was already running",
		}, []string{"kind"}),
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_scheduler_failures_total",
			Help: "Total number of cron fires whose job returned an error",
		}, []string{"kind"}),
	}
}
