/*
Copyright 2026.
*/

package synclogstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wagerflow/etlcore/internal/pgutil"
)

func TestMarshalJSONB_EmptyReturnsEmptyObject(t *testing.T) {
	data := pgutil.MarshalJSONB(nil)
	assert.Equal(t, "{}", string(data))
}

func TestMarshalJSONB_NonEmpty(t *testing.T) {
	data := pgutil.MarshalJSONB(map[string]string{"batchSize": "500"})
	assert.JSONEq(t, `{"batchSize":"500"}`, string(data))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, pgutil.NullString(""))
	v := pgutil.NullString("boom")
	if assert.NotNil(t, v) {
		assert.Equal(t, "boom", *v)
	}
}
