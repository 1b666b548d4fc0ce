/*
Copyright 2026.
*/

package targetdb

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

func TestColumnsAndValues_ExcludesMetadataKeys(t *testing.T) {
	row := etlmodel.Row{
		"external_user_id":       int64(1),
		"email":                  "a@example.com",
		etlmodel.MetadataKey:     etlmodel.ETLMetadata{SourceTable: "users"},
		etlmodel.UniqueFieldsKey: []string{"external_user_id"},
	}

	cols, vals := columnsAndValues(row)
	assert.Equal(t, []string{"email", "external_user_id"}, cols)
	assert.Equal(t, []any{"a@example.com", int64(1)}, vals)
}

func TestJoinClauses(t *testing.T) {
	assert.Equal(t, "", joinClauses(nil))
	assert.Equal(t, "a", joinClauses([]string{"a"}))
	assert.Equal(t, "a, b, c", joinClauses([]string{"a", "b", "c"}))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: uniqueViolationSQLState}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
