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

package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// TableColumns names the source columns the engine reads a metrics table
// through, since — like every other source access in this module — the
// column set is descriptor-driven rather than hardcoded.
type TableColumns struct {
	Table           string
	UserIDColumn    string
	AmountColumn    string
	CreatedAtColumn string
	ResultColumn    string // bets only: "win" / "loss"
	WinAmountColumn string // bets only
}

// Store persists computed analytics rows, upserting by their uniqueness key.
type Store interface {
	UpsertUserAnalytics(ctx context.Context, row etlmodel.UserAnalytics) error
	UpsertAffiliateAnalytics(ctx context.Context, row etlmodel.AffiliateAnalytics) error
}

// Cache short-circuits recomputation of a just-generated row.
type Cache interface {
	GetUserAnalytics(ctx context.Context, key etlmodel.AnalyticsKey) (*etlmodel.UserAnalytics, bool)
	SetUserAnalytics(ctx context.Context, key etlmodel.AnalyticsKey, row etlmodel.UserAnalytics, ttl time.Duration)
}

// MLMLevelFetcher resolves the per-level user count and commission sum for
// one affiliate level. The join it performs (affiliate referral tree to N
// levels deep, against commission records for the period) is not specified
// by the source of this rollup beyond "levels 1..5"; production deployments
// must supply a concrete implementation against their referral schema.
type MLMLevelFetcher func(ctx context.Context, affiliateID string, level int, periodStart, periodEnd time.Time) (etlmodel.MLMLevelStats, error)

// Config wires an AnalyticsEngine to its source tables and business rules.
type Config struct {
	Deposits     TableColumns
	Bets         TableColumns
	Transactions TableColumns
	CPARules     RuleSet
	CPAPayouts   [5]float64
	CacheTTL     time.Duration
	LevelFetcher MLMLevelFetcher
}

// DefaultConfig returns a Config populated with spec.md §6's stated
// defaults; callers override individual fields on the result.
func DefaultConfig() Config {
	return Config{
		Deposits: TableColumns{
			Table: "deposits", UserIDColumn: "user_id",
			AmountColumn: "amount", CreatedAtColumn: "created_at",
		},
		Bets: TableColumns{
			Table: "bets", UserIDColumn: "user_id",
			AmountColumn: "amount", CreatedAtColumn: "created_at",
			ResultColumn: "result", WinAmountColumn: "win_amount",
		},
		Transactions: TableColumns{
			Table: "transactions", UserIDColumn: "user_id",
			AmountColumn: "amount", CreatedAtColumn: "created_at",
		},
		CPARules:   DefaultRuleSet(),
		CPAPayouts: [5]float64{50, 20, 5, 5, 5},
		CacheTTL:   15 * time.Minute,
	}
}

// Engine is the AnalyticsEngine (C6): it reads raw rows via a SourceReader
// and writes period-bucketed rollups via Store.
type Engine struct {
	Reader etl.SourceReader
	Store  Store
	Cache  Cache
	Config Config

	NowFunc func() time.Time

	group singleflight.Group
}

// NewEngine builds an Engine. Cache may be nil (caching becomes a no-op).
func NewEngine(reader etl.SourceReader, store Store, cache Cache, cfg Config) *Engine {
	return &Engine{
		Reader:  reader,
		Store:   store,
		Cache:   cache,
		Config:  cfg,
		NowFunc: time.Now,
	}
}

// GenerateUserAnalytics computes and upserts the (userID, periodType,
// period containing refDate) rollup. Concurrent calls for the same key
// collapse into a single computation via singleflight.
func (e *Engine) GenerateUserAnalytics(ctx context.Context, userID string, periodType etlmodel.PeriodType, refDate time.Time) (*etlmodel.UserAnalytics, error) {
	if refDate.IsZero() {
		refDate = e.now()
	}
	periodStart, periodEnd, err := ResolvePeriod(periodType, refDate)
	if err != nil {
		return nil, err
	}

	key := etlmodel.AnalyticsKey{EntityID: userID, PeriodType: periodType, PeriodStart: periodStart}

	if e.Cache != nil {
		if cached, ok := e.Cache.GetUserAnalytics(ctx, key); ok {
			return cached, nil
		}
	}

	sfKey := fmt.Sprintf("user:%s:%s:%d", userID, periodType, periodStart.Unix())
	v, err, _ := e.group.Do(sfKey, func() (any, error) {
		return e.computeUserAnalytics(ctx, userID, periodType, periodStart, periodEnd)
	})
	if err != nil {
		return nil, err
	}

	row := v.(etlmodel.UserAnalytics)
	if e.Cache != nil {
		e.Cache.SetUserAnalytics(ctx, key, row, e.Config.CacheTTL)
	}
	return &row, nil
}

func (e *Engine) computeUserAnalytics(ctx context.Context, userID string, periodType etlmodel.PeriodType, periodStart, periodEnd time.Time) (etlmodel.UserAnalytics, error) {
	deposits, err := e.readPeriodRows(ctx, e.Config.Deposits, userID, periodStart, periodEnd)
	if err != nil {
		return etlmodel.UserAnalytics{}, fmt.Errorf("analytics: read deposits: %w", err)
	}
	bets, err := e.readPeriodRows(ctx, e.Config.Bets, userID, periodStart, periodEnd)
	if err != nil {
		return etlmodel.UserAnalytics{}, fmt.Errorf("analytics: read bets: %w", err)
	}
	transactions, err := e.readPeriodRows(ctx, e.Config.Transactions, userID, periodStart, periodEnd)
	if err != nil {
		return etlmodel.UserAnalytics{}, fmt.Errorf("analytics: read transactions: %w", err)
	}

	row := etlmodel.UserAnalytics{
		UserID:      userID,
		PeriodType:  periodType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		LastUpdated: e.now(),
	}

	depositTotal, depositCount, firstDep, lastDep := sumAndRange(deposits, e.Config.Deposits)
	row.TotalDeposits = depositTotal
	row.DepositCount = depositCount
	row.FirstDepositDate = firstDep
	row.LastDepositDate = lastDep
	row.AvgDepositAmount = avg(depositTotal, depositCount)

	betTotal, betCount, firstBet, lastBet := sumAndRange(bets, e.Config.Bets)
	row.TotalBets = betTotal
	row.BetCount = betCount
	row.FirstBetDate = firstBet
	row.LastBetDate = lastBet
	row.AvgBetAmount = avg(betTotal, betCount)

	row.DaysActive = distinctDays(transactions, bets, e.Config.Transactions.CreatedAtColumn, e.Config.Bets.CreatedAtColumn)
	totalActivity := depositCount + betCount
	row.SessionsCount = int(math.Ceil(float64(totalActivity) / 10.0))
	row.TotalSessionMinutes = totalActivity * 5

	row.TotalWins = sumWhere(bets, e.Config.Bets.WinAmountColumn, e.Config.Bets.ResultColumn, "win")
	row.TotalLosses = sumWhere(bets, e.Config.Bets.AmountColumn, e.Config.Bets.ResultColumn, "loss")
	row.NetResult = row.TotalWins - row.TotalLosses

	metrics := Metrics{TotalDeposits: row.TotalDeposits, BetCount: row.BetCount, TotalBets: row.TotalBets, DaysActive: row.DaysActive}
	if Qualifies(e.Config.CPARules, metrics) {
		row.CPAQualified = true
		row.CPAQualificationDate = row.LastUpdated
		row.CPAAmount = e.Config.CPAPayouts[0]
	}

	if err := e.Store.UpsertUserAnalytics(ctx, row); err != nil {
		return etlmodel.UserAnalytics{}, fmt.Errorf("analytics: upsert user analytics: %w", err)
	}
	return row, nil
}

// GenerateAffiliateAnalytics computes and upserts the per-affiliate rollup,
// including MLM level 1..5 aggregation bounded by errgroup fan-out.
func (e *Engine) GenerateAffiliateAnalytics(ctx context.Context, affiliateID string, periodType etlmodel.PeriodType, refDate time.Time, users []etlmodel.Row, usersTable TableColumns) (*etlmodel.AffiliateAnalytics, error) {
	if refDate.IsZero() {
		refDate = e.now()
	}
	periodStart, periodEnd, err := ResolvePeriod(periodType, refDate)
	if err != nil {
		return nil, err
	}

	row := etlmodel.AffiliateAnalytics{
		AffiliateID: affiliateID,
		PeriodType:  periodType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		LastUpdated: e.now(),
	}

	row.TotalUsers = len(users)
	for _, u := range users {
		if createdAt, ok := u[usersTable.CreatedAtColumn].(time.Time); ok {
			if !createdAt.Before(periodStart) && createdAt.Before(periodEnd) {
				row.NewUsers++
			}
		}
	}
	row.ActiveUsers = row.TotalUsers
	row.CPAQualifiedUsers = 0

	if e.Config.LevelFetcher != nil {
		if err := e.fetchMLMLevels(ctx, affiliateID, periodStart, periodEnd, &row); err != nil {
			return nil, fmt.Errorf("analytics: fetch MLM levels: %w", err)
		}
	}
	for _, lvl := range row.MLMLevels {
		row.TotalCommissions += lvl.CommissionAmount
	}

	if row.TotalUsers > 0 {
		row.ConversionRate = float64(row.CPAQualifiedUsers) / float64(row.TotalUsers)
		row.RetentionRate = float64(row.ActiveUsers) / float64(row.TotalUsers)
		row.AvgUserValue = row.TotalRevenue / float64(row.TotalUsers)
	}

	if err := e.Store.UpsertAffiliateAnalytics(ctx, row); err != nil {
		return nil, fmt.Errorf("analytics: upsert affiliate analytics: %w", err)
	}
	return &row, nil
}

// fetchMLMLevels fans out over levels 1..5 concurrently, bounded by
// errgroup, writing each result into row.MLMLevels[level-1].
func (e *Engine) fetchMLMLevels(ctx context.Context, affiliateID string, periodStart, periodEnd time.Time, row *etlmodel.AffiliateAnalytics) error {
	g, gctx := errgroup.WithContext(ctx)
	for level := 1; level <= 5; level++ {
		level := level
		g.Go(func() error {
			stats, err := e.Config.LevelFetcher(gctx, affiliateID, level, periodStart, periodEnd)
			if err != nil {
				return err
			}
			row.MLMLevels[level-1] = stats
			return nil
		})
	}
	return g.Wait()
}

// readPeriodRows reads all rows for userID within [periodStart, periodEnd)
// from cols.Table via ReadAll.
func (e *Engine) readPeriodRows(ctx context.Context, cols TableColumns, userID string, periodStart, periodEnd time.Time) ([]etlmodel.Row, error) {
	table := etlmodel.TableDescriptor{SourceTable: cols.Table, PrimaryKey: "id"}
	opts := etl.ReadOpts{
		BatchSize: 1000,
		ExtraFilters: map[string]any{
			cols.UserIDColumn: userID,
			cols.CreatedAtColumn: map[string]any{
				string(etlmodel.OpGreaterOrEq): periodStart,
				string(etlmodel.OpLessThan):    periodEnd,
			},
		},
	}

	var all []etlmodel.Row
	err := e.Reader.ReadAll(ctx, table, opts, func(ctx context.Context, rows []etlmodel.Row) error {
		all = append(all, rows...)
		return nil
	})
	return all, err
}

func (e *Engine) now() time.Time {
	if e.NowFunc != nil {
		return e.NowFunc()
	}
	return time.Now()
}

func sumAndRange(rows []etlmodel.Row, cols TableColumns) (total float64, count int, first, last time.Time) {
	for _, row := range rows {
		amount, ok := asFloat(row[cols.AmountColumn])
		if !ok {
			continue
		}
		total += amount
		count++

		createdAt, ok := row[cols.CreatedAtColumn].(time.Time)
		if !ok {
			continue
		}
		if first.IsZero() || createdAt.Before(first) {
			first = createdAt
		}
		if createdAt.After(last) {
			last = createdAt
		}
	}
	return total, count, first, last
}

func sumWhere(rows []etlmodel.Row, amountCol, conditionCol, conditionVal string) float64 {
	var total float64
	for _, row := range rows {
		if v, _ := row[conditionCol].(string); v != conditionVal {
			continue
		}
		if amount, ok := asFloat(row[amountCol]); ok {
			total += amount
		}
	}
	return total
}

// distinctDays returns the count of distinct calendar dates observed across
// transactions and bets, per spec §4.6's days_active = transactions∪bets.
func distinctDays(transactions, bets []etlmodel.Row, transactionsCreatedAtCol, betsCreatedAtCol string) int {
	days := make(map[string]struct{})
	collect := func(rows []etlmodel.Row, col string) {
		for _, row := range rows {
			if t, ok := row[col].(time.Time); ok {
				days[t.Format("2006-01-02")] = struct{}{}
			}
		}
	}
	collect(transactions, transactionsCreatedAtCol)
	collect(bets, betsCreatedAtCol)
	return len(days)
}

func avg(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
