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

	"github.com/wagerflow/etlcore/internal/analytics"
	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/events"
)

// buildAnalyticsEngine constructs a fresh Engine from the current config
// snapshot. Built per call (rather than once at startup) so CPA rule and
// payout changes take effect on the next call.
func (m *Manager) buildAnalyticsEngine(ctx context.Context) (*analytics.Engine, error) {
	cfg, err := m.analyticsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("core: build analytics config: %w", err)
	}
	reader := sourceReader(m.sourcePool, dbresilience.DefaultRetryConfig())
	return analytics.NewEngine(reader, m.analyticsStore, m.analyticsCache, cfg), nil
}

// GenerateUserAnalytics computes and persists the (userID, periodType,
// period containing refDate) rollup and publishes an analytics.upserted
// event when real-time analytics publishing is enabled.
func (m *Manager) GenerateUserAnalytics(ctx context.Context, userID string, periodType etlmodel.PeriodType, refDate time.Time) (*etlmodel.UserAnalytics, error) {
	engine, err := m.buildAnalyticsEngine(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row, err := engine.GenerateUserAnalytics(ctx, userID, periodType, refDate)
	if m.metrics.Analytics != nil {
		m.metrics.Analytics.RecordRun("user", time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("core: generate user analytics: %w", err)
	}

	settings, err := m.provider.AnalyticsSettings(ctx)
	if err == nil && settings.EnableRealTimeAnalytics {
		_ = m.pub.Publish(events.Event{
			Type:      events.TypeAnalyticsUpserted,
			Timestamp: time.Now(),
			EntityID:  userID,
			Payload:   row,
		})
	}

	return row, nil
}

// GenerateAffiliateAnalytics computes and persists the per-affiliate
// rollup for the period containing refDate.
func (m *Manager) GenerateAffiliateAnalytics(ctx context.Context, affiliateID string, periodType etlmodel.PeriodType, refDate time.Time, users []etlmodel.Row, usersTable analytics.TableColumns) (*etlmodel.AffiliateAnalytics, error) {
	engine, err := m.buildAnalyticsEngine(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row, err := engine.GenerateAffiliateAnalytics(ctx, affiliateID, periodType, refDate, users, usersTable)
	if m.metrics.Analytics != nil {
		m.metrics.Analytics.RecordRun("affiliate", time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("core: generate affiliate analytics: %w", err)
	}

	settings, err := m.provider.AnalyticsSettings(ctx)
	if err == nil && settings.EnableRealTimeAnalytics {
		_ = m.pub.Publish(events.Event{
			Type:      events.TypeAnalyticsUpserted,
			Timestamp: time.Now(),
			EntityID:  affiliateID,
			Payload:   row,
		})
	}

	return row, nil
}
