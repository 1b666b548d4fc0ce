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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics holds Prometheus metrics for TableSyncer runs.
type SyncMetrics struct {
	// RunDurationSeconds tracks the duration of one SyncTable call.
	RunDurationSeconds *prometheus.HistogramVec
	// RecordsProcessedTotal counts rows read across all syncs.
	RecordsProcessedTotal *prometheus.CounterVec
	// RecordsFailedTotal counts rows rejected or skipped across all syncs.
	RecordsFailedTotal *prometheus.CounterVec
	// ErrorsTotal counts sync failures by table.
	ErrorsTotal *prometheus.CounterVec
	// LastRunTimestamp records the timestamp of the last sync per table.
	LastRunTimestamp *prometheus.GaugeVec
}

// NewSyncMetrics creates and registers all Prometheus metrics for table sync.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{
		RunDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etlcore_sync_run_duration_seconds",
			Help:    "Duration of a TableSyncer.SyncTable run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"table", "mode"}),
		RecordsProcessedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_sync_records_processed_total",
			Help: "Total number of rows processed by table sync",
		}, []string{"table", "mode"}),
		RecordsFailedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_sync_records_failed_total",
			Help: "Total number of rows rejected or skipped by table sync",
		}, []string{"table", "mode"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_sync_errors_total",
			Help: "Total number of failed table sync runs",
		}, []string{"table"}),
		LastRunTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "etlcore_sync_last_run_timestamp",
			Help: "Unix timestamp of the last sync run, per table",
		}, []string{"table"}),
	}
}

// RecordRun observes one SyncTable run's duration and record counts.
func (m *SyncMetrics) RecordRun(table, mode string, d time.Duration, processed, failed int, err error) {
	m.RunDurationSeconds.WithLabelValues(table, mode).Observe(d.Seconds())
	m.RecordsProcessedTotal.WithLabelValues(table, mode).Add(float64(processed))
	m.RecordsFailedTotal.WithLabelValues(table, mode).Add(float64(failed))
	m.LastRunTimestamp.WithLabelValues(table).SetToCurrentTime()
	if err != nil {
		m.ErrorsTotal.WithLabelValues(table).Inc()
	}
}
