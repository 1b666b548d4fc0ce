/*
Copyright 2026.
*/

package sourcedb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/etlmodel"
)

func usersTable() etlmodel.TableDescriptor {
	return etlmodel.TableDescriptor{
		SourceTable:      "users",
		PrimaryKey:       "id",
		IncrementalField: "updated_at",
	}
}

func TestBuildSelectQuery_FullSyncOrdersByPrimaryKey(t *testing.T) {
	query, args := buildSelectQuery(usersTable(), etl.ReadOpts{BatchSize: 100})
	assert.Contains(t, query, "FROM users WHERE 1=1")
	assert.Contains(t, query, "ORDER BY id ASC")
	assert.Contains(t, query, "LIMIT $1")
	assert.Equal(t, []any{100}, args)
}

func TestBuildSelectQuery_IncrementalFiltersAndOrdersByWatermarkField(t *testing.T) {
	watermark := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildSelectQuery(usersTable(), etl.ReadOpts{
		BatchSize:        50,
		IncrementalField: "updated_at",
		Watermark:        watermark,
	})
	assert.Contains(t, query, "updated_at > $1")
	assert.Contains(t, query, "ORDER BY updated_at ASC")
	assert.Equal(t, []any{watermark, 50}, args)
}

func TestBuildSelectQuery_ScalarListAndOperatorFilters(t *testing.T) {
	table := usersTable()
	table.Filters = map[string]any{
		"status":  "active",
		"country": []any{"BR", "PT"},
		"balance": map[string]any{"gte": 10},
	}

	query, args := buildSelectQuery(table, etl.ReadOpts{})
	assert.Contains(t, query, "balance >= $1")
	assert.Contains(t, query, "country IN ($2, $3)")
	assert.Contains(t, query, "status = $4")
	assert.Equal(t, []any{10, "BR", "PT", "active"}, args)
}

func TestBuildSelectQuery_EmptyInListNeverMatches(t *testing.T) {
	table := usersTable()
	table.Filters = map[string]any{"country": []any{}}

	query, _ := buildSelectQuery(table, etl.ReadOpts{})
	assert.Contains(t, query, "1=0")
}

func TestBuildSelectQuery_ExplicitOrderByOverridesDefault(t *testing.T) {
	query, _ := buildSelectQuery(usersTable(), etl.ReadOpts{OrderBy: "email"})
	assert.Contains(t, query, "ORDER BY email ASC")
}
