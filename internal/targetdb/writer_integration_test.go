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

package targetdb

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/wagerflow/etlcore/internal/dbresilience"
	"github.com/wagerflow/etlcore/internal/etlmodel"
)

var testConnStr string

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("etlcore_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	testConnStr, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

// freshTargetPool connects to the shared container and gives the test an
// empty users_target table, dropped on cleanup.
func freshTargetPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed test in short mode")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testConnStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS users_target (
		external_user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		updated_at TIMESTAMPTZ
	)`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE users_target`)
		pool.Close()
	})

	return pool
}

var usersTargetDescriptor = etlmodel.TableDescriptor{
	TargetTable:       "users_target",
	ExternalKeyColumn: "external_user_id",
}

// TestWriter_LoadBatch_DuplicateRowSkippedWithoutAbortingBatch exercises the
// seed case from spec.md §4.3 step 4: a batch with one fresh row and one row
// that collides with an existing unique constraint reports {inserted:1,
// skipped:1} and the fresh insert still commits. Without per-row savepoints
// the duplicate's 23505 would abort the whole transaction and roll the fresh
// insert back too.
func TestWriter_LoadBatch_DuplicateRowSkippedWithoutAbortingBatch(t *testing.T) {
	pool := freshTargetPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO users_target (external_user_id, email) VALUES ('existing-1', 'dup@example.com')`)
	require.NoError(t, err)

	w := New(pool, dbresilience.DefaultRetryConfig())

	rows := []etlmodel.Row{
		{"external_user_id": "fresh-1", "email": "fresh@example.com"},
		{"external_user_id": "dup-2", "email": "dup@example.com"},
	}

	stats, err := w.LoadBatch(ctx, usersTargetDescriptor, rows)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Inserted)
	require.Equal(t, 0, stats.Updated)
	require.Equal(t, 1, stats.Skipped)
	require.Len(t, stats.Errors, 1)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM users_target WHERE external_user_id = 'fresh-1'`).Scan(&count))
	require.Equal(t, 1, count, "fresh row must survive the commit despite the sibling row's unique violation")

	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM users_target WHERE external_user_id = 'dup-2'`).Scan(&count))
	require.Equal(t, 0, count)
}

func TestWriter_LoadBatch_UpdateSetsUpdatedAt(t *testing.T) {
	pool := freshTargetPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO users_target (external_user_id, email) VALUES ('existing-1', 'old@example.com')`)
	require.NoError(t, err)

	w := New(pool, dbresilience.DefaultRetryConfig())
	rows := []etlmodel.Row{
		{"external_user_id": "existing-1", "email": "new@example.com"},
	}

	stats, err := w.LoadBatch(ctx, usersTargetDescriptor, rows)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Updated)

	var email string
	var updatedAt *string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT email, updated_at::text FROM users_target WHERE external_user_id = 'existing-1'`,
	).Scan(&email, &updatedAt))
	require.Equal(t, "new@example.com", email)
	require.NotNil(t, updatedAt)
}
