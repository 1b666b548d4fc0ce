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

package migrations

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-logr/zapr"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
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

// freshDB creates a new database within the shared container so each test
// migrates its own empty schema.
func freshDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dbName := fmt.Sprintf("test_%d", time.Now().UnixNano())

	admin, err := sql.Open("pgx", testConnStr)
	require.NoError(t, err)
	_, err = admin.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err)
	require.NoError(t, admin.Close())

	connStr := replaceDBName(testConnStr, dbName)
	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		mainDB, err := sql.Open("pgx", testConnStr)
		if err == nil {
			_, _ = mainDB.Exec(fmt.Sprintf("DROP DATABASE %s WITH (FORCE)", dbName))
			_ = mainDB.Close()
		}
	})

	return db, connStr
}

func replaceDBName(connStr, newDB string) string {
	qIdx := len(connStr)
	for i, c := range connStr {
		if c == '?' {
			qIdx = i
			break
		}
	}
	slashIdx := 0
	for i := qIdx - 1; i >= 0; i-- {
		if connStr[i] == '/' {
			slashIdx = i
			break
		}
	}
	return connStr[:slashIdx+1] + newDB + connStr[qIdx:]
}

func testLogger() zap.Config {
	return zap.NewDevelopmentConfig()
}

func TestMigrationFS_ContainsMigrations(t *testing.T) {
	entries, err := MigrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 14, "should have at least 14 migration files (7 up + 7 down)")

	expected := []string{
		"000001_create_data_sync_logs.up.sql",
		"000001_create_data_sync_logs.down.sql",
		"000004_create_data_cache.up.sql",
		"000007_create_data_exports.up.sql",
	}
	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "migration %s should be embedded", name)
	}
}

func TestNewMigrator_InvalidConnection(t *testing.T) {
	zapLog, err := testLogger().Build()
	require.NoError(t, err)

	_, err = NewMigrator("postgres://invalid:5432/nonexistent?sslmode=disable&connect_timeout=1", zapr.NewLogger(zapLog))
	assert.Error(t, err, "should fail with invalid connection")
}

func TestMigrator_UpDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, connStr := freshDB(t)
	zapLog, err := testLogger().Build()
	require.NoError(t, err)

	mg, err := NewMigrator(connStr, zapr.NewLogger(zapLog))
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	require.NoError(t, mg.Up())

	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(7), v)
	assert.False(t, dirty)

	// idempotent
	require.NoError(t, mg.Up())

	require.NoError(t, mg.Down())
}

func TestMigrator_TablesExist(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, connStr := freshDB(t)
	zapLog, err := testLogger().Build()
	require.NoError(t, err)

	mg, err := NewMigrator(connStr, zapr.NewLogger(zapLog))
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	require.NoError(t, mg.Up())

	for _, table := range []string{
		"data_sync_logs", "sync_watermarks", "sync_configurations",
		"data_cache", "user_analytics", "affiliate_analytics", "data_exports",
	} {
		var exists bool
		err := db.QueryRow(`SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = $1 AND n.nspname = 'public'
		)`, table).Scan(&exists)
		require.NoError(t, err, "checking table %s", table)
		assert.True(t, exists, "table %s should exist", table)
	}
}

func TestMigrator_ConstraintsEnforced(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, connStr := freshDB(t)
	zapLog, err := testLogger().Build()
	require.NoError(t, err)

	mg, err := NewMigrator(connStr, zapr.NewLogger(zapLog))
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	require.NoError(t, mg.Up())

	now := time.Now().UTC()

	_, err = db.Exec(`INSERT INTO data_sync_logs (
		id, sync_type, table_name, operation, records_processed, records_success, records_failed,
		start_time, status
	) VALUES ('log-1', 'FULL', 'deposits', 'SYNC', 10, 5, 10, $1, 'COMPLETED')`, now)
	assert.Error(t, err, "records_success + records_failed > records_processed should violate the check constraint")

	_, err = db.Exec(`INSERT INTO data_sync_logs (
		id, sync_type, table_name, operation, records_processed, records_success, records_failed,
		start_time, status
	) VALUES ('log-2', 'FULL', 'deposits', 'SYNC', 10, 8, 2, $1, 'COMPLETED')`, now)
	assert.NoError(t, err)

	_, err = db.Exec(`INSERT INTO data_exports (id, status, format, expires_at) VALUES (gen_random_uuid(), 'MADE_UP', 'CSV', $1)`, now)
	assert.Error(t, err, "an unrecognized status should violate the check constraint")
}

func TestMigrator_CleanTeardown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, connStr := freshDB(t)
	zapLog, err := testLogger().Build()
	require.NoError(t, err)

	mg, err := NewMigrator(connStr, zapr.NewLogger(zapLog))
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	require.NoError(t, mg.Up())
	require.NoError(t, mg.Down())

	for _, table := range []string{"data_sync_logs", "user_analytics", "data_exports"} {
		var exists bool
		err := db.QueryRow(`SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = $1 AND n.nspname = 'public'
		)`, table).Scan(&exists)
		require.NoError(t, err, "checking table %s after down", table)
		assert.False(t, exists, "table %s should not exist after down migration", table)
	}
}
