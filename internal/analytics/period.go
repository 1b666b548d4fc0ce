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

// Package analytics computes period-bucketed user and affiliate rollups
// (C6, AnalyticsEngine).
package analytics

import (
	"fmt"
	"time"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// ResolvePeriod truncates refDate to the start of the period named by
// periodType and extends it to the corresponding period end, both in UTC.
func ResolvePeriod(periodType etlmodel.PeriodType, refDate time.Time) (start, end time.Time, err error) {
	ref := refDate.UTC()

	switch periodType {
	case etlmodel.PeriodDaily:
		start = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)

	case etlmodel.PeriodWeekly:
		weekday := int(ref.Weekday())
		// ISO week starts Monday; time.Sunday == 0, so treat it as day 7.
		if weekday == 0 {
			weekday = 7
		}
		dayStart := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		start = dayStart.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case etlmodel.PeriodMonthly:
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)

	case etlmodel.PeriodYearly:
		start = time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("analytics: unknown period type %q", periodType)
	}

	if !end.After(start) {
		// Can only happen from a bug in the arithmetic above; spec.md §7
		// treats this as an InvariantViolation rather than a silent write.
		return time.Time{}, time.Time{}, fmt.Errorf("%w: period_end %s <= period_start %s", etlmodel.ErrInvariantViolation, end, start)
	}

	return start, end, nil
}
