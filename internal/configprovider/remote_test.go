/*
Copyright 2026.
*/

package configprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteSampleJSON = `{
  "data_sync_settings": {"batch_size": 250},
  "analytics_settings": {"cache_duration_minutes": 20},
  "tables": {
    "users": {
      "sourceTable": "users",
      "targetTable": "users",
      "primaryKey": "id",
      "externalKeyColumn": "external_user_id",
      "fieldMapping": {"id": "external_user_id"}
    }
  }
}`

func newTestServer(t *testing.T, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRemoteProvider_FetchesAndParsesRemoteConfig(t *testing.T) {
	srv := newTestServer(t, remoteSampleJSON)
	defer srv.Close()

	p := NewRemoteProvider(srv.URL, []byte("secret"), "etl-worker", newTestRedisClient(t))

	sync, err := p.DataSyncSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, sync.BatchSize)

	td, err := p.Table(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "external_user_id", td.ExternalKeyColumn)
}

func TestRemoteProvider_CachesWithinTTL(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(remoteSampleJSON))
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL, []byte("secret"), "etl-worker", newTestRedisClient(t), WithCacheTTL(time.Minute))

	_, err := p.DataSyncSettings(context.Background())
	require.NoError(t, err)
	_, err = p.DataSyncSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}

func TestRemoteProvider_FallsBackToRedisOnFetchFailure(t *testing.T) {
	srv := newTestServer(t, remoteSampleJSON)
	redisClient := newTestRedisClient(t)

	p := NewRemoteProvider(srv.URL, []byte("secret"), "etl-worker", redisClient, WithCacheTTL(20*time.Millisecond))
	_, err := p.DataSyncSettings(context.Background())
	require.NoError(t, err)

	srv.Close()
	time.Sleep(30 * time.Millisecond)

	sync, err := p.DataSyncSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, sync.BatchSize)
}
