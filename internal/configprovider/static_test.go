/*
Copyright 2026.
*/

package configprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagerflow/etlcore/internal/tableconfig"
)

const sampleYAML = `
dataSyncSettings:
  syncIntervalMinutes: 15
  batchSize: 500
  maxRetryAttempts: 3
  enableRealTime: false
  syncTables: ["users", "deposits"]
analyticsSettings:
  retentionDays: 365
  aggregationIntervals: ["daily", "weekly"]
  enableRealTimeAnalytics: false
  cacheDurationMinutes: 10
exportSettings:
  maxFileSizeMb: 100
  retentionDays: 30
  allowedFormats: ["csv", "parquet"]
  compressionEnabled: true
tables:
  users:
    sourceTable: users
    targetTable: users
    primaryKey: id
    incrementalField: updated_at
    externalKeyColumn: external_user_id
    enabled: true
    fieldMapping:
      id: external_user_id
      email: email
`

func TestLoadStaticProvider_ParsesSettingsAndTables(t *testing.T) {
	p, err := NewStaticProviderFromBytes([]byte(sampleYAML), tableconfig.NewValidator())
	require.NoError(t, err)

	ctx := context.Background()
	sync, err := p.DataSyncSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, sync.BatchSize)
	assert.Equal(t, []string{"users", "deposits"}, sync.SyncTables)

	analytics, err := p.AnalyticsSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, analytics.CacheDurationMinutes)

	td, err := p.Table(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "external_user_id", td.ExternalKeyColumn)
}

func TestLoadStaticProvider_DefaultsCPAWhenAbsent(t *testing.T) {
	p, err := NewStaticProviderFromBytes([]byte(sampleYAML), nil)
	require.NoError(t, err)

	levels, err := p.CPALevelAmounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCPALevelAmounts(), levels)

	rules, err := p.CPAValidationRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCPAValidationRules(), rules)
}

func TestLoadStaticProvider_UnknownTableReturnsErrTableNotConfigured(t *testing.T) {
	p, err := NewStaticProviderFromBytes([]byte(sampleYAML), nil)
	require.NoError(t, err)

	_, err = p.Table(context.Background(), "nonexistent")
	require.ErrorIs(t, err, ErrTableNotConfigured)
}

func TestLoadStaticProvider_RejectsInvalidTableDescriptor(t *testing.T) {
	bad := `
tables:
  broken:
    sourceTable: broken
    targetTable: broken
    fieldMapping: {}
`
	_, err := NewStaticProviderFromBytes([]byte(bad), tableconfig.NewValidator())
	require.Error(t, err)
}

func TestLoadStaticProvider_MissingFileErrors(t *testing.T) {
	_, err := LoadStaticProvider("/nonexistent/path/config.yaml", nil)
	require.Error(t, err)
}
