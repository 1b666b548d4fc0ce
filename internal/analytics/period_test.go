/*
Copyright 2026.
*/

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

func TestResolvePeriod_Daily(t *testing.T) {
	ref := time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC)
	start, end, err := ResolvePeriod(etlmodel.PeriodDaily, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), end)
}

func TestResolvePeriod_WeeklyMondayStart(t *testing.T) {
	// 2025-06-11 is a Wednesday.
	ref := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	start, end, err := ResolvePeriod(etlmodel.PeriodWeekly, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), end)
}

func TestResolvePeriod_WeeklyHandlesSunday(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) // Sunday
	start, end, err := ResolvePeriod(etlmodel.PeriodWeekly, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), end)
}

func TestResolvePeriod_Monthly(t *testing.T) {
	ref := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	start, end, err := ResolvePeriod(etlmodel.PeriodMonthly, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestResolvePeriod_Yearly(t *testing.T) {
	ref := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	start, end, err := ResolvePeriod(etlmodel.PeriodYearly, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestResolvePeriod_UnknownTypeErrors(t *testing.T) {
	_, _, err := ResolvePeriod("FORTNIGHT", time.Now())
	assert.Error(t, err)
}
