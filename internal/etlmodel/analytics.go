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

package etlmodel

import "time"

// PeriodType is the bucket granularity of an analytics rollup row.
type PeriodType string

// Supported period types.
const (
	PeriodDaily   PeriodType = "DAILY"
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodYearly  PeriodType = "YEARLY"
)

// UserAnalytics is one period-bucketed rollup for a single user, unique on
// (UserID, PeriodType, PeriodStart). It maps to the user_analytics table.
type UserAnalytics struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	PeriodType PeriodType `json:"periodType"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`

	// Deposit metrics.
	TotalDeposits     float64   `json:"totalDeposits"`
	DepositCount      int       `json:"depositCount"`
	FirstDepositDate  time.Time `json:"firstDepositDate"`
	LastDepositDate   time.Time `json:"lastDepositDate"`
	AvgDepositAmount  float64   `json:"avgDepositAmount"`

	// Bet metrics.
	TotalBets     float64   `json:"totalBets"`
	BetCount      int       `json:"betCount"`
	FirstBetDate  time.Time `json:"firstBetDate"`
	LastBetDate   time.Time `json:"lastBetDate"`
	AvgBetAmount  float64   `json:"avgBetAmount"`

	// Activity metrics (heuristic — see internal/analytics package docs).
	DaysActive             int `json:"daysActive"`
	SessionsCount          int `json:"sessionsCount"`
	TotalSessionMinutes    int `json:"totalSessionMinutes"`

	// Result metrics.
	TotalWins   float64 `json:"totalWins"`
	TotalLosses float64 `json:"totalLosses"`
	NetResult   float64 `json:"netResult"`

	// CPA metrics.
	CPAQualified         bool      `json:"cpaQualified"`
	CPAQualificationDate time.Time `json:"cpaQualificationDate"`
	CPAAmount            float64   `json:"cpaAmount"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// AffiliateAnalytics is one period-bucketed rollup for a single affiliate,
// unique on (AffiliateID, PeriodType, PeriodStart). It maps to the
// affiliate_analytics table.
type AffiliateAnalytics struct {
	ID            string     `json:"id"`
	AffiliateID   string     `json:"affiliateId"`
	PeriodType    PeriodType `json:"periodType"`
	PeriodStart   time.Time  `json:"periodStart"`
	PeriodEnd     time.Time  `json:"periodEnd"`

	TotalUsers       int `json:"totalUsers"`
	NewUsers         int `json:"newUsers"`
	ActiveUsers      int `json:"activeUsers"`
	CPAQualifiedUsers int `json:"cpaQualifiedUsers"`

	TotalRevenue     float64 `json:"totalRevenue"`
	TotalCommissions float64 `json:"totalCommissions"`

	// MLMLevels holds per-level (1..5) user counts and commission sums.
	MLMLevels [5]MLMLevelStats `json:"mlmLevels"`

	ConversionRate float64 `json:"conversionRate"`
	RetentionRate  float64 `json:"retentionRate"`
	AvgUserValue   float64 `json:"avgUserValue"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// MLMLevelStats is the per-level user count and commission sum within an
// AffiliateAnalytics row. Levels are 1-indexed in spec terms but stored
// 0-indexed in the MLMLevels array (MLMLevels[0] == level 1).
type MLMLevelStats struct {
	UserCount        int     `json:"userCount"`
	CommissionAmount float64 `json:"commissionAmount"`
}

// AnalyticsKey identifies an analytics rollup row's uniqueness tuple.
type AnalyticsKey struct {
	EntityID    string
	PeriodType  PeriodType
	PeriodStart time.Time
}
