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

// AnalyticsMetrics holds Prometheus metrics for AnalyticsEngine runs.
type AnalyticsMetrics struct {
	// RunDurationSeconds tracks rollup generation latency by entity kind
	// ("user" or "affiliate").
	RunDurationSeconds *prometheus.HistogramVec
	// RollupsGeneratedTotal counts successfully generated rollup rows.
	RollupsGeneratedTotal *prometheus.CounterVec
	// CacheHitsTotal / CacheMissesTotal track the result cache's
	// effectiveness.
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	// CPAQualifiedTotal counts users whose CPA qualification flipped true.
	CPAQualifiedTotal prometheus.Counter
}

// NewAnalyticsMetrics creates and registers all Prometheus metrics for the
// analytics engine.
func NewAnalyticsMetrics() *AnalyticsMetrics {
	return &AnalyticsMetrics{
		RunDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etlcore_analytics_run_duration_seconds",
			Help:    "Duration of one analytics rollup generation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"entity"}),
		RollupsGeneratedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "etlcore_analytics_rollups_generated_total",
			Help: "Total number of analytics rollup rows generated",
		}, []string{"entity"}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "etlcore_analytics_cache_hits_total",
			Help: "Total number of analytics result cache hits",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "etlcore_analytics_cache_misses_total",
			Help: "Total number of analytics result cache misses",
		}),
		CPAQualifiedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "etlcore_analytics_cpa_qualified_total",
			Help: "Total number of users newly marked CPA-qualified",
		}),
	}
}

// RecordRun observes one rollup generation's duration.
func (m *AnalyticsMetrics) RecordRun(entity string, d time.Duration) {
	m.RunDurationSeconds.WithLabelValues(entity).Observe(d.Seconds())
	m.RollupsGeneratedTotal.WithLabelValues(entity).Inc()
}

// RecordCacheResult increments the hit or miss counter.
func (m *AnalyticsMetrics) RecordCacheResult(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}
