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

// Package cache purges expired rows from the data_cache table. It exists
// alongside internal/analytics.RedisCache (a different, Redis-backed cache):
// data_cache is a target-database table other core components write
// arbitrary cached payloads into, and this package is only responsible for
// sweeping it once entries pass their expiry.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Cleaner deletes expired data_cache rows. Both the weekly cleanup job and
// CoreManager.PurgeExpiredCache call PurgeExpired; the query is idempotent
// so the two call paths may coexist without coordination.
type Cleaner struct {
	pool *pgxpool.Pool
}

// New creates a Cleaner against pool.
func New(pool *pgxpool.Pool) *Cleaner {
	return &Cleaner{pool: pool}
}

// PurgeExpired deletes every data_cache row whose expires_at is at or
// before now, returning the number of rows removed.
func (c *Cleaner) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM data_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("cache: purge expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
