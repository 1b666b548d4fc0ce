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

	"github.com/wagerflow/etlcore/internal/analytics"
	"github.com/wagerflow/etlcore/internal/configprovider"
	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/sourcedb"
	"github.com/wagerflow/etlcore/internal/targetdb"
)

// sourceQueryTimeout and targetQueryTimeout match spec.md §5's 60s/120s
// per-query budgets for source reads and target writes.
const (
	sourceQueryTimeout = 60 * time.Second
	targetQueryTimeout = 120 * time.Second
)

// defaultDataSyncSettings is used when the configured provider cannot be
// reached, so a transient config-service outage degrades to the package's
// built-in batch size and retry count rather than failing the fire outright.
func defaultDataSyncSettings() configprovider.DataSyncSettings {
	return configprovider.DataSyncSettings{
		SyncIntervalMinutes: 15,
		BatchSize:           500,
		MaxRetryAttempts:    3,
	}
}

func sourceReader(pool *pgxpool.Pool, retry dbresilience.RetryConfig) etl.SourceReader {
	return sourcedb.New(pool, retry, sourceQueryTimeout)
}

func targetWriter(pool *pgxpool.Pool, retry dbresilience.RetryConfig) etl.TargetWriter {
	return targetdb.New(pool, retry)
}

// cpaRuleSet converts a configprovider.CPAValidationRules (the config
// surface's shape) into an analytics.RuleSet (the engine's shape). The two
// packages define structurally identical but distinct types so that
// internal/configprovider never imports internal/analytics; this is the
// one place that bridges them.
func cpaRuleSet(src configprovider.CPAValidationRules) analytics.RuleSet {
	groups := make([]analytics.CriteriaGroup, len(src.Groups))
	for i, g := range src.Groups {
		criteria := make([]analytics.Criterion, len(g.Criteria))
		for j, c := range g.Criteria {
			criteria[j] = analytics.Criterion{
				Type:    analytics.CriterionType(c.Type),
				Value:   c.Value,
				Enabled: c.Enabled,
			}
		}
		groups[i] = analytics.CriteriaGroup{
			Operator: analytics.GroupOperator(g.Operator),
			Criteria: criteria,
		}
	}
	return analytics.RuleSet{
		Groups:        groups,
		GroupOperator: analytics.GroupOperator(src.GroupOperator),
	}
}

// analyticsConfig builds an analytics.Config for the current settings
// snapshot, used to construct a fresh analytics.Engine per run so config
// changes take effect on the next fire without restarting the process
// (spec.md §9's dynamic-configuration note).
func (m *Manager) analyticsConfig(ctx context.Context) (analytics.Config, error) {
	cfg := analytics.DefaultConfig()

	rules, err := m.provider.CPAValidationRules(ctx)
	if err == nil {
		cfg.CPARules = cpaRuleSet(rules)
	}

	levels, err := m.provider.CPALevelAmounts(ctx)
	if err == nil {
		cfg.CPAPayouts = levels.AsArray()
	}

	settings, err := m.provider.AnalyticsSettings(ctx)
	if err == nil && settings.CacheDurationMinutes > 0 {
		cfg.CacheTTL = settings.CacheTTL()
	}

	return cfg, nil
}
