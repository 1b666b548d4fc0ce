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

// Package configprovider defines the recognized remote/static configuration
// surface and its concrete sources.
package configprovider

import "time"

// defaultLogRetentionDays is used when DataSyncSettings.LogRetentionDays is
// unset (zero), so cleanup always has a bound even on a bare-defaults config.
const defaultLogRetentionDays = 90

// DataSyncSettings controls the ETL scheduler and table-sync behavior.
type DataSyncSettings struct {
	SyncIntervalMinutes int      `yaml:"syncIntervalMinutes" json:"sync_interval_minutes"`
	BatchSize           int      `yaml:"batchSize" json:"batch_size"`
	MaxRetryAttempts    int      `yaml:"maxRetryAttempts" json:"max_retry_attempts"`
	EnableRealTime      bool     `yaml:"enableRealTime" json:"enable_real_time"`
	SyncTables          []string `yaml:"syncTables" json:"sync_tables"`
	// LogRetentionDays is the weekly cleanup job's data_sync_logs
	// retention window (spec's logRetentionDays); not one of spec.md §6's
	// named setting fields, so it is carried here alongside the rest of
	// the sync-scheduling configuration rather than its own top-level key.
	LogRetentionDays int `yaml:"logRetentionDays" json:"log_retention_days"`
}

// LogRetention returns LogRetentionDays as a duration, falling back to
// defaultLogRetentionDays when unset.
func (d DataSyncSettings) LogRetention() time.Duration {
	days := d.LogRetentionDays
	if days <= 0 {
		days = defaultLogRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// AnalyticsSettings controls the AnalyticsEngine's rollup and caching behavior.
type AnalyticsSettings struct {
	RetentionDays           int      `yaml:"retentionDays" json:"retention_days"`
	AggregationIntervals    []string `yaml:"aggregationIntervals" json:"aggregation_intervals"`
	EnableRealTimeAnalytics bool     `yaml:"enableRealTimeAnalytics" json:"enable_real_time_analytics"`
	CacheDurationMinutes    int      `yaml:"cacheDurationMinutes" json:"cache_duration_minutes"`
}

// CacheTTL returns CacheDurationMinutes as a time.Duration.
func (a AnalyticsSettings) CacheTTL() time.Duration {
	return time.Duration(a.CacheDurationMinutes) * time.Minute
}

// ExportSettings controls data-export generation (spec.md §2 DataExport).
type ExportSettings struct {
	MaxFileSizeMB      int      `yaml:"maxFileSizeMb" json:"max_file_size_mb"`
	RetentionDays      int      `yaml:"retentionDays" json:"retention_days"`
	AllowedFormats     []string `yaml:"allowedFormats" json:"allowed_formats"`
	CompressionEnabled bool     `yaml:"compressionEnabled" json:"compression_enabled"`
}

// CPALevelAmounts is the per-level MLM commission payout table, level_1
// through level_5.
type CPALevelAmounts struct {
	Level1 float64 `yaml:"level1" json:"level_1"`
	Level2 float64 `yaml:"level2" json:"level_2"`
	Level3 float64 `yaml:"level3" json:"level_3"`
	Level4 float64 `yaml:"level4" json:"level_4"`
	Level5 float64 `yaml:"level5" json:"level_5"`
}

// AsArray returns the five payout levels in level-1..level-5 order, the
// shape internal/analytics.Config.CPAPayouts expects.
func (c CPALevelAmounts) AsArray() [5]float64 {
	return [5]float64{c.Level1, c.Level2, c.Level3, c.Level4, c.Level5}
}

// DefaultCPALevelAmounts matches spec.md §6's default payout table.
func DefaultCPALevelAmounts() CPALevelAmounts {
	return CPALevelAmounts{Level1: 50, Level2: 20, Level3: 5, Level4: 5, Level5: 5}
}

// CPACriterion is one named-metric threshold test, e.g. {type: "bet_count",
// value: 10, enabled: true}.
type CPACriterion struct {
	Type    string  `yaml:"type" json:"type"`
	Value   float64 `yaml:"value" json:"value"`
	Enabled bool    `yaml:"enabled" json:"enabled"`
}

// CPACriteriaGroup is a set of criteria combined with Operator (AND/OR).
type CPACriteriaGroup struct {
	Operator string         `yaml:"operator" json:"operator"`
	Criteria []CPACriterion `yaml:"criteria" json:"criteria"`
}

// CPAValidationRules is cpa_validation_rules: one or more groups combined
// with GroupOperator across groups. Kept independent of
// internal/analytics.RuleSet (same shape, different package) so that
// internal/configprovider never imports internal/analytics; internal/core
// converts between the two at wiring time.
type CPAValidationRules struct {
	Groups        []CPACriteriaGroup `yaml:"groups" json:"groups"`
	GroupOperator string             `yaml:"groupOperator" json:"group_operator"`
}

// DefaultCPAValidationRules matches spec.md §4.6's default rule set.
func DefaultCPAValidationRules() CPAValidationRules {
	return CPAValidationRules{
		GroupOperator: "AND",
		Groups: []CPACriteriaGroup{{
			Operator: "AND",
			Criteria: []CPACriterion{
				{Type: "total_deposits", Value: 30, Enabled: true},
				{Type: "bet_count", Value: 10, Enabled: true},
				{Type: "total_bets", Value: 100, Enabled: true},
				{Type: "days_active", Value: 3, Enabled: true},
			},
		}},
	}
}
