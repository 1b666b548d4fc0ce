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

// Package sourcedb implements SourceReader against a PostgreSQL-compatible
// source database using pgx. Query composition is entirely schema-driven:
// every filter value is bound as a parameter, never interpolated.
package sourcedb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/pgutil"
)

// Reader implements etl.SourceReader against a pgxpool.Pool.
type Reader struct {
	pool         *pgxpool.Pool
	breaker      *dbresilience.Breaker
	retry        dbresilience.RetryConfig
	queryTimeout time.Duration
}

var _ etl.SourceReader = (*Reader)(nil)

// New creates a Reader. queryTimeout bounds each individual ReadBatch query
// (spec: 60s for source reads); retry governs connectivity-failure retry.
func New(pool *pgxpool.Pool, retry dbresilience.RetryConfig, queryTimeout time.Duration) *Reader {
	return &Reader{
		pool:         pool,
		breaker:      dbresilience.New("source-db"),
		retry:        retry,
		queryTimeout: queryTimeout,
	}
}

// ReadBatch returns one page of rows for table under opts.
func (r *Reader) ReadBatch(ctx context.Context, table etlmodel.TableDescriptor, opts etl.ReadOpts) (etl.ReadResult, error) {
	if table.SourceTable == "" {
		return etl.ReadResult{}, etlmodel.ErrTableNotConfigured
	}

	query, args := buildSelectQuery(table, opts)

	var rows []etlmodel.Row
	err := r.breaker.DoWithRetry(ctx, "read_batch:"+table.SourceTable, r.retry, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()

		pgRows, queryErr := r.pool.Query(qctx, query, args...)
		if queryErr != nil {
			return &etlmodel.ConnectivityError{Op: "query", Err: queryErr}
		}
		defer pgRows.Close()

		collected, scanErr := collectRows(pgRows)
		if scanErr != nil {
			return &etlmodel.ConnectivityError{Op: "scan", Err: scanErr}
		}
		rows = collected
		return pgRows.Err()
	})

	if err != nil {
		return etl.ReadResult{Success: false, Err: err}, nil
	}

	return etl.ReadResult{
		Rows:    rows,
		HasMore: opts.BatchSize > 0 && len(rows) == opts.BatchSize,
		Success: true,
	}, nil
}

// ReadAll drives ReadBatch with growing Offset until a page returns fewer
// rows than opts.BatchSize.
func (r *Reader) ReadAll(ctx context.Context, table etlmodel.TableDescriptor, opts etl.ReadOpts, onBatch etl.BatchFunc) error {
	offset := opts.Offset
	for {
		pageOpts := opts
		pageOpts.Offset = offset

		result, err := r.ReadBatch(ctx, table, pageOpts)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("sourcedb: read batch at offset %d: %w", offset, result.Err)
		}
		if len(result.Rows) == 0 {
			return nil
		}

		if err := onBatch(ctx, result.Rows); err != nil {
			return fmt.Errorf("sourcedb: batch callback at offset %d: %w", offset, err)
		}

		if !result.HasMore {
			return nil
		}
		offset += len(result.Rows)
	}
}

// buildSelectQuery composes a parameterized SELECT for table under opts.
// Filter values are never interpolated: every clause binds through
// pgutil.QueryBuilder.
func buildSelectQuery(table etlmodel.TableDescriptor, opts etl.ReadOpts) (string, []any) {
	qb := &pgutil.QueryBuilder{}

	applyFilters(qb, table.Filters)
	applyFilters(qb, opts.ExtraFilters)

	incremental := opts.IncrementalField != "" && !opts.Watermark.IsZero()
	if incremental {
		qb.Add(opts.IncrementalField+" > $?", opts.Watermark)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE 1=1%s", table.SourceTable, qb.Where())

	orderBy := opts.OrderBy
	if orderBy == "" {
		if incremental {
			orderBy = opts.IncrementalField
		} else {
			orderBy = table.PrimaryKey
		}
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy + " ASC"
	}

	if opts.BatchSize > 0 {
		query = qb.AppendPagination(query, opts.BatchSize, opts.Offset)
	}

	return query, qb.Args()
}

// applyFilters appends clauses for each entry in filters. Each value is
// one of: a scalar (col = ?), a list ([]any, col IN (...)), or a map
// representing {operator: value} (col <op> ?). Columns are visited in sorted
// order so the generated SQL and argument order are deterministic across
// calls despite Go's randomized map iteration.
func applyFilters(qb *pgutil.QueryBuilder, filters map[string]any) {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		switch v := filters[col].(type) {
		case map[string]any:
			ops := make([]string, 0, len(v))
			for opName := range v {
				ops = append(ops, opName)
			}
			sort.Strings(ops)
			for _, opName := range ops {
				op := etlmodel.FilterOperator(opName).SQL()
				if op == "" {
					op = "="
				}
				qb.Add(fmt.Sprintf("%s %s $?", col, op), v[opName])
			}
		case []any:
			appendInClause(qb, col, v)
		case []string:
			vals := make([]any, len(v))
			for i, s := range v {
				vals[i] = s
			}
			appendInClause(qb, col, vals)
		default:
			qb.Add(col+" = $?", v)
		}
	}
}

func appendInClause(qb *pgutil.QueryBuilder, col string, values []any) {
	qb.AddIn(col, values)
}

// collectRows drains pgRows into etlmodel.Row values keyed by column name,
// using pgx's generic value decoding so the reader stays schema-agnostic.
func collectRows(pgRows pgx.Rows) ([]etlmodel.Row, error) {
	fields := pgRows.FieldDescriptions()
	var rows []etlmodel.Row
	for pgRows.Next() {
		values, err := pgRows.Values()
		if err != nil {
			return nil, err
		}
		row := make(etlmodel.Row, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		rows = append(rows, row)
	}
	return rows, pgRows.Err()
}
