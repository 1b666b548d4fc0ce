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
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

const defaultKeyPrefix = "etlcore:analytics:"

// RedisCache implements Cache on top of a Redis client, keyed by the
// (user, period type, period start) tuple so concurrent analytics
// requests for the same window can be served without recomputation.
type RedisCache struct {
	client     goredis.UniversalClient
	keyPrefix  string
	ownsClient bool
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client. The caller retains ownership
// and is responsible for closing it.
func NewRedisCache(client goredis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, keyPrefix: defaultKeyPrefix}
}

// NewRedisCacheFromAddrs dials a fresh client and verifies it with a PING.
// Close shuts the client down.
func NewRedisCacheFromAddrs(addrs []string, password string, db int) (*RedisCache, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("analytics: redis cache requires at least one address")
	}
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("analytics: redis cache connect: %w", err)
	}

	return &RedisCache{client: client, keyPrefix: defaultKeyPrefix, ownsClient: true}, nil
}

func (c *RedisCache) userKey(key etlmodel.AnalyticsKey) string {
	return fmt.Sprintf("%suser:{%s}:%s:%d", c.keyPrefix, key.EntityID, key.PeriodType, key.PeriodStart.Unix())
}

// GetUserAnalytics returns the cached row for key, if present and unexpired.
func (c *RedisCache) GetUserAnalytics(ctx context.Context, key etlmodel.AnalyticsKey) (*etlmodel.UserAnalytics, bool) {
	data, err := c.client.Get(ctx, c.userKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var row etlmodel.UserAnalytics
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, false
	}
	return &row, true
}

// SetUserAnalytics caches row under key for ttl. Failures are swallowed:
// the cache is a speed optimization, never a correctness dependency, so a
// write error here must not fail the analytics computation that produced
// row.
func (c *RedisCache) SetUserAnalytics(ctx context.Context, key etlmodel.AnalyticsKey, row etlmodel.UserAnalytics, ttl time.Duration) {
	data, err := json.Marshal(row)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.userKey(key), data, ttl).Err()
}

// Close shuts down the underlying client if this Cache created it.
func (c *RedisCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
