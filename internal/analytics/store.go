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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/pgutil"
)

// PostgresStore implements Store against user_analytics/affiliate_analytics,
// upserting on each table's (entity, period_type, period_start) unique key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// UpsertUserAnalytics inserts or replaces the row identified by
// (user_id, period_type, period_start).
func (s *PostgresStore) UpsertUserAnalytics(ctx context.Context, row etlmodel.UserAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	query := `INSERT INTO user_analytics (
		id, user_id, period_type, period_start, period_end,
		total_deposits, deposit_count, first_deposit_date, last_deposit_date, avg_deposit_amount,
		total_bets, bet_count, first_bet_date, last_bet_date, avg_bet_amount,
		days_active, sessions_count, total_session_minutes,
		total_wins, total_losses, net_result,
		cpa_qualified, cpa_qualification_date, cpa_amount, last_updated
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	ON CONFLICT (user_id, period_type, period_start) DO UPDATE SET
		period_end = EXCLUDED.period_end,
		total_deposits = EXCLUDED.total_deposits,
		deposit_count = EXCLUDED.deposit_count,
		first_deposit_date = EXCLUDED.first_deposit_date,
		last_deposit_date = EXCLUDED.last_deposit_date,
		avg_deposit_amount = EXCLUDED.avg_deposit_amount,
		total_bets = EXCLUDED.total_bets,
		bet_count = EXCLUDED.bet_count,
		first_bet_date = EXCLUDED.first_bet_date,
		last_bet_date = EXCLUDED.last_bet_date,
		avg_bet_amount = EXCLUDED.avg_bet_amount,
		days_active = EXCLUDED.days_active,
		sessions_count = EXCLUDED.sessions_count,
		total_session_minutes = EXCLUDED.total_session_minutes,
		total_wins = EXCLUDED.total_wins,
		total_losses = EXCLUDED.total_losses,
		net_result = EXCLUDED.net_result,
		cpa_qualified = EXCLUDED.cpa_qualified,
		cpa_qualification_date = EXCLUDED.cpa_qualification_date,
		cpa_amount = EXCLUDED.cpa_amount,
		last_updated = EXCLUDED.last_updated`

	_, err := s.pool.Exec(ctx, query,
		row.ID, row.UserID, string(row.PeriodType), row.PeriodStart, row.PeriodEnd,
		row.TotalDeposits, row.DepositCount, pgutil.NullTime(row.FirstDepositDate), pgutil.NullTime(row.LastDepositDate), row.AvgDepositAmount,
		row.TotalBets, row.BetCount, pgutil.NullTime(row.FirstBetDate), pgutil.NullTime(row.LastBetDate), row.AvgBetAmount,
		row.DaysActive, row.SessionsCount, row.TotalSessionMinutes,
		row.TotalWins, row.TotalLosses, row.NetResult,
		row.CPAQualified, pgutil.NullTime(row.CPAQualificationDate), row.CPAAmount, row.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("analytics: upsert user_analytics: %w", err)
	}
	return nil
}

// UpsertAffiliateAnalytics inserts or replaces the row identified by
// (affiliate_id, period_type, period_start).
func (s *PostgresStore) UpsertAffiliateAnalytics(ctx context.Context, row etlmodel.AffiliateAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	query := `INSERT INTO affiliate_analytics (
		id, affiliate_id, period_type, period_start, period_end,
		total_users, new_users, active_users, cpa_qualified_users,
		total_revenue, total_commissions,
		mlm_level_1_users, mlm_level_1_commission,
		mlm_level_2_users, mlm_level_2_commission,
		mlm_level_3_users, mlm_level_3_commission,
		mlm_level_4_users, mlm_level_4_commission,
		mlm_level_5_users, mlm_level_5_commission,
		conversion_rate, retention_rate, avg_user_value, last_updated
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	ON CONFLICT (affiliate_id, period_type, period_start) DO UPDATE SET
		period_end = EXCLUDED.period_end,
		total_users = EXCLUDED.total_users,
		new_users = EXCLUDED.new_users,
		active_users = EXCLUDED.active_users,
		cpa_qualified_users = EXCLUDED.cpa_qualified_users,
		total_revenue = EXCLUDED.total_revenue,
		total_commissions = EXCLUDED.total_commissions,
		mlm_level_1_users = EXCLUDED.mlm_level_1_users,
		mlm_level_1_commission = EXCLUDED.mlm_level_1_commission,
		mlm_level_2_users = EXCLUDED.mlm_level_2_users,
		mlm_level_2_commission = EXCLUDED.mlm_level_2_commission,
		mlm_level_3_users = EXCLUDED.mlm_level_3_users,
		mlm_level_3_commission = EXCLUDED.mlm_level_3_commission,
		mlm_level_4_users = EXCLUDED.mlm_level_4_users,
		mlm_level_4_commission = EXCLUDED.mlm_level_4_commission,
		mlm_level_5_users = EXCLUDED.mlm_level_5_users,
		mlm_level_5_commission = EXCLUDED.mlm_level_5_commission,
		conversion_rate = EXCLUDED.conversion_rate,
		retention_rate = EXCLUDED.retention_rate,
		avg_user_value = EXCLUDED.avg_user_value,
		last_updated = EXCLUDED.last_updated`

	l := row.MLMLevels
	_, err := s.pool.Exec(ctx, query,
		row.ID, row.AffiliateID, string(row.PeriodType), row.PeriodStart, row.PeriodEnd,
		row.TotalUsers, row.NewUsers, row.ActiveUsers, row.CPAQualifiedUsers,
		row.TotalRevenue, row.TotalCommissions,
		l[0].UserCount, l[0].CommissionAmount,
		l[1].UserCount, l[1].CommissionAmount,
		l[2].UserCount, l[2].CommissionAmount,
		l[3].UserCount, l[3].CommissionAmount,
		l[4].UserCount, l[4].CommissionAmount,
		row.ConversionRate, row.RetentionRate, row.AvgUserValue, row.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("analytics: upsert affiliate_analytics: %w", err)
	}
	return nil
}
