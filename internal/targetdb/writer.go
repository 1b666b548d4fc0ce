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

// Package targetdb implements TargetWriter against a PostgreSQL-compatible
// target database using pgx.
package targetdb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
)

const uniqueViolationSQLState = "23505"

// Writer implements etl.TargetWriter against a pgxpool.Pool.
type Writer struct {
	pool    *pgxpool.Pool
	breaker *dbresilience.Breaker
	retry   dbresilience.RetryConfig
}

var _ etl.TargetWriter = (*Writer)(nil)

// New creates a Writer.
func New(pool *pgxpool.Pool, retry dbresilience.RetryConfig) *Writer {
	return &Writer{
		pool:    pool,
		breaker: dbresilience.New("target-db"),
		retry:   retry,
	}
}

// LoadBatch writes rows to table.TargetTable inside one transaction. Each
// row is looked up by table.ExternalKeyColumn to decide insert vs update,
// and is written inside its own savepoint; a unique-constraint violation on
// an individual row rolls back only that row's savepoint and is counted as
// skipped rather than failing the batch, matching the "duplicate source
// record replayed by an at-least-once upstream" case named in spec.md §4.3 —
// earlier inserts in the same batch still reach the final commit. Any other
// database error aborts the outer transaction.
func (w *Writer) LoadBatch(ctx context.Context, table etlmodel.TableDescriptor, rows []etlmodel.Row) (etlmodel.WriterStats, error) {
	var stats etlmodel.WriterStats
	if len(rows) == 0 {
		return stats, nil
	}

	err := w.breaker.DoWithRetry(ctx, "load_batch:"+table.TargetTable, w.retry, func(ctx context.Context) error {
		stats = etlmodel.WriterStats{}

		tx, err := w.pool.Begin(ctx)
		if err != nil {
			return &etlmodel.ConnectivityError{Op: "begin", Err: err}
		}
		defer func() { _ = tx.Rollback(ctx) }()

		for _, row := range rows {
			outcome, writeErr := w.writeRowInSavepoint(ctx, tx, table, row)
			switch {
			case writeErr == nil:
				switch outcome {
				case outcomeInserted:
					stats.Inserted++
				case outcomeUpdated:
					stats.Updated++
				}
				stats.Loaded++
			case isUniqueViolation(writeErr):
				stats.Skipped++
				stats.Errors = append(stats.Errors, writeErr.Error())
			default:
				return &etlmodel.IntegrityError{Op: "write row", Err: writeErr}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return &etlmodel.ConnectivityError{Op: "commit", Err: err}
		}
		return nil
	})

	if err != nil {
		var integrityErr *etlmodel.IntegrityError
		if errors.As(err, &integrityErr) {
			return etlmodel.WriterStats{}, err
		}
		return stats, err
	}
	return stats, nil
}

type writeOutcome int

const (
	outcomeInserted writeOutcome = iota
	outcomeUpdated
)

// writeRowInSavepoint runs writeRow inside a nested transaction (pgx issues
// SAVEPOINT/RELEASE/ROLLBACK TO SAVEPOINT under tx.Begin/Commit/Rollback). A
// unique-constraint violation on one row only unwinds its own savepoint, so
// the outer transaction stays valid and earlier inserts in the same batch
// still survive the final commit — a duplicate row does not abort the whole
// batch the way a bare statement failure would.
func (w *Writer) writeRowInSavepoint(ctx context.Context, tx pgx.Tx, table etlmodel.TableDescriptor, row etlmodel.Row) (writeOutcome, error) {
	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin savepoint: %w", err)
	}

	outcome, writeErr := w.writeRow(ctx, savepoint, table, row)
	if writeErr != nil {
		_ = savepoint.Rollback(ctx)
		return outcome, writeErr
	}

	if err := savepoint.Commit(ctx); err != nil {
		return outcome, fmt.Errorf("release savepoint: %w", err)
	}
	return outcome, nil
}

// writeRow looks up row's external key in table.TargetTable and inserts or
// updates accordingly.
func (w *Writer) writeRow(ctx context.Context, tx pgx.Tx, table etlmodel.TableDescriptor, row etlmodel.Row) (writeOutcome, error) {
	externalKeyCol := table.ExternalKeyColumn
	externalKeyVal, hasKey := row[externalKeyCol]
	if !hasKey {
		return 0, fmt.Errorf("row missing external key column %q", externalKeyCol)
	}

	cols, vals := columnsAndValues(row)

	var exists bool
	checkQuery := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)", table.TargetTable, externalKeyCol)
	if err := tx.QueryRow(ctx, checkQuery, externalKeyVal).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check existing row: %w", err)
	}

	if exists {
		setClauses := make([]string, 0, len(cols))
		args := make([]any, 0, len(cols)+1)
		for i, col := range cols {
			if col == externalKeyCol {
				continue
			}
			args = append(args, vals[i])
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		setClauses = append(setClauses, "updated_at = now()")
		args = append(args, externalKeyVal)
		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
			table.TargetTable, joinClauses(setClauses), externalKeyCol, len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	placeholders := make([]string, len(cols))
	args := make([]any, len(vals))
	copy(args, vals)
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.TargetTable, joinClauses(cols), joinClauses(placeholders))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return 0, err
	}
	return outcomeInserted, nil
}

// columnsAndValues returns row's writable columns in deterministic sorted
// order, excluding the RecordMapper-attached metadata keys that have no
// corresponding target table column.
func columnsAndValues(row etlmodel.Row) ([]string, []any) {
	cols := make([]string, 0, len(row))
	for col := range row {
		if col == etlmodel.MetadataKey || col == etlmodel.UniqueFieldsKey {
			continue
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	vals := make([]any, len(cols))
	for i, col := range cols {
		vals[i] = row[col]
	}
	return cols, vals
}

func joinClauses(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationSQLState
	}
	return false
}
