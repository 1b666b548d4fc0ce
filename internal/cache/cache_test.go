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

package cache

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
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

// freshPool connects to the shared container and gives the test an empty
// data_cache table, dropped on cleanup.
func freshPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed test in short mode")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testConnStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS data_cache (
		cache_key TEXT PRIMARY KEY,
		cache_data JSONB NOT NULL,
		ttl_seconds INT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE data_cache`)
		pool.Close()
	})

	return pool
}

func TestCleaner_PurgeExpiredDeletesOnlyPastRows(t *testing.T) {
	pool := freshPool(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := pool.Exec(ctx, `INSERT INTO data_cache (cache_key, cache_data, ttl_seconds, expires_at) VALUES
		('expired-1', '{}', 60, $1),
		('expired-2', '{}', 60, $2),
		('fresh', '{}', 60, $3)`,
		now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour))
	require.NoError(t, err)

	c := New(pool)
	removed, err := c.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	var remaining int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM data_cache`).Scan(&remaining)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)
}

func TestCleaner_PurgeExpiredIsIdempotent(t *testing.T) {
	pool := freshPool(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := pool.Exec(ctx, `INSERT INTO data_cache (cache_key, cache_data, ttl_seconds, expires_at)
		VALUES ('expired', '{}', 60, $1)`, now.Add(-time.Hour))
	require.NoError(t, err)

	c := New(pool)
	first, err := c.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)

	second, err := c.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), second)
}
