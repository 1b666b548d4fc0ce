/*
Copyright 2026.
*/

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client)
}

func TestRedisCache_SetThenGetRoundTrips(t *testing.T) {
	cache := newTestRedisCache(t)
	key := etlmodel.AnalyticsKey{EntityID: "u1", PeriodType: etlmodel.PeriodDaily, PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	row := etlmodel.UserAnalytics{UserID: "u1", TotalDeposits: 42.5, CPAQualified: true}

	cache.SetUserAnalytics(context.Background(), key, row, time.Minute)

	cached, ok := cache.GetUserAnalytics(context.Background(), key)
	require.True(t, ok)
	assert.Equal(t, row.UserID, cached.UserID)
	assert.Equal(t, row.TotalDeposits, cached.TotalDeposits)
	assert.True(t, cached.CPAQualified)
}

func TestRedisCache_GetMissReturnsFalse(t *testing.T) {
	cache := newTestRedisCache(t)
	key := etlmodel.AnalyticsKey{EntityID: "missing", PeriodType: etlmodel.PeriodDaily, PeriodStart: time.Now()}

	_, ok := cache.GetUserAnalytics(context.Background(), key)
	assert.False(t, ok)
}

func TestRedisCache_DistinctPeriodsDoNotCollide(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()
	k1 := etlmodel.AnalyticsKey{EntityID: "u1", PeriodType: etlmodel.PeriodDaily, PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	k2 := etlmodel.AnalyticsKey{EntityID: "u1", PeriodType: etlmodel.PeriodDaily, PeriodStart: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}

	cache.SetUserAnalytics(ctx, k1, etlmodel.UserAnalytics{TotalDeposits: 1}, time.Minute)
	cache.SetUserAnalytics(ctx, k2, etlmodel.UserAnalytics{TotalDeposits: 2}, time.Minute)

	c1, ok1 := cache.GetUserAnalytics(ctx, k1)
	c2, ok2 := cache.GetUserAnalytics(ctx, k2)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, 1.0, c1.TotalDeposits)
	assert.Equal(t, 2.0, c2.TotalDeposits)
}
