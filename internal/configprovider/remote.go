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

package configprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/tableconfig"
)

const defaultRemoteCacheTTL = 5 * time.Minute

// remoteClaims is the bearer token RemoteProvider presents to the remote
// config service on every poll.
type remoteClaims struct {
	jwt.RegisteredClaims
	Service string `json:"svc"`
}

// RemoteProvider polls a remote HTTP config service, authenticating with a
// signed JWT bearer token and caching the parsed response in Redis so a
// config-service outage degrades to stale-but-serving rather than failing
// every lookup (grounded on ee/pkg/license/validator.go's cache-with-TTL
// shape, with a Redis-backed fallback tier behind the in-process cache since
// this config is shared across every etlcore process, not held by one).
type RemoteProvider struct {
	baseURL    string
	httpClient *http.Client
	signingKey []byte
	serviceTag string

	redis     goredis.UniversalClient
	validator *tableconfig.Validator

	mu       sync.RWMutex
	cached   document
	cacheExp time.Time
	cacheTTL time.Duration
}

var _ ConfigProvider = (*RemoteProvider)(nil)

// RemoteProviderOption configures a RemoteProvider.
type RemoteProviderOption func(*RemoteProvider)

// WithHTTPClient overrides the default HTTP client (10s timeout).
func WithHTTPClient(c *http.Client) RemoteProviderOption {
	return func(p *RemoteProvider) { p.httpClient = c }
}

// WithTableValidator validates every table descriptor fetched from the
// remote service before Tables/Table returns it.
func WithTableValidator(v *tableconfig.Validator) RemoteProviderOption {
	return func(p *RemoteProvider) { p.validator = v }
}

// WithCacheTTL overrides the default 5-minute cache TTL. Production
// callers should instead derive this from AnalyticsSettings.
// CacheDurationMinutes once the first successful fetch returns it.
func WithCacheTTL(ttl time.Duration) RemoteProviderOption {
	return func(p *RemoteProvider) { p.cacheTTL = ttl }
}

// NewRemoteProvider constructs a RemoteProvider. baseURL is the config
// service root (e.g. "https://config.internal"); signingKey signs the
// bearer token sent with every poll; redisClient caches the last good
// response so a failed fetch can still be served from it. A read after the
// in-process cache expires waits on the HTTP fetch.
func NewRemoteProvider(baseURL string, signingKey []byte, serviceTag string, redisClient goredis.UniversalClient, opts ...RemoteProviderOption) *RemoteProvider {
	p := &RemoteProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		signingKey: signingKey,
		serviceTag: serviceTag,
		redis:      redisClient,
		cacheTTL:   defaultRemoteCacheTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const remoteConfigCacheKey = "etlcore:configprovider:remote"

func (p *RemoteProvider) current(ctx context.Context) (document, error) {
	p.mu.RLock()
	if time.Now().Before(p.cacheExp) {
		doc := p.cached
		p.mu.RUnlock()
		return doc, nil
	}
	p.mu.RUnlock()

	doc, err := p.fetch(ctx)
	if err != nil {
		if cached, ok := p.fromRedis(ctx); ok {
			return cached, nil
		}
		return document{}, err
	}

	p.mu.Lock()
	p.cached = doc
	p.cacheExp = time.Now().Add(p.cacheTTL)
	p.mu.Unlock()

	p.toRedis(ctx, doc)
	return doc, nil
}

func (p *RemoteProvider) fetch(ctx context.Context) (document, error) {
	token, err := p.signToken()
	if err != nil {
		return document{}, fmt.Errorf("configprovider: sign bearer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/config", nil)
	if err != nil {
		return document{}, fmt.Errorf("configprovider: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return document{}, fmt.Errorf("configprovider: remote fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return document{}, fmt.Errorf("configprovider: remote fetch: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return document{}, fmt.Errorf("configprovider: read remote response: %w", err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return document{}, fmt.Errorf("configprovider: parse remote response: %w", err)
	}

	if p.validator != nil {
		for name, td := range doc.Tables {
			if err := p.validator.Validate(td); err != nil {
				return document{}, fmt.Errorf("configprovider: table %q: %w", name, err)
			}
		}
	}

	return doc, nil
}

func (p *RemoteProvider) signToken() (string, error) {
	now := time.Now()
	claims := remoteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Service: p.serviceTag,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}

func (p *RemoteProvider) fromRedis(ctx context.Context) (document, bool) {
	if p.redis == nil {
		return document{}, false
	}
	data, err := p.redis.Get(ctx, remoteConfigCacheKey).Bytes()
	if err != nil {
		return document{}, false
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, false
	}
	return doc, true
}

func (p *RemoteProvider) toRedis(ctx context.Context, doc document) {
	if p.redis == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	_ = p.redis.Set(ctx, remoteConfigCacheKey, data, p.cacheTTL*4).Err()
}

func (p *RemoteProvider) DataSyncSettings(ctx context.Context) (DataSyncSettings, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return DataSyncSettings{}, err
	}
	return doc.DataSync, nil
}

func (p *RemoteProvider) AnalyticsSettings(ctx context.Context) (AnalyticsSettings, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return AnalyticsSettings{}, err
	}
	return doc.Analytics, nil
}

func (p *RemoteProvider) ExportSettings(ctx context.Context) (ExportSettings, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return ExportSettings{}, err
	}
	return doc.Export, nil
}

func (p *RemoteProvider) CPALevelAmounts(ctx context.Context) (CPALevelAmounts, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return CPALevelAmounts{}, err
	}
	if doc.CPALevels == (CPALevelAmounts{}) {
		return DefaultCPALevelAmounts(), nil
	}
	return doc.CPALevels, nil
}

func (p *RemoteProvider) CPAValidationRules(ctx context.Context) (CPAValidationRules, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return CPAValidationRules{}, err
	}
	if len(doc.CPARules.Groups) == 0 {
		return DefaultCPAValidationRules(), nil
	}
	return doc.CPARules, nil
}

func (p *RemoteProvider) Tables(ctx context.Context) (map[string]etlmodel.TableDescriptor, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]etlmodel.TableDescriptor, len(doc.Tables))
	for k, v := range doc.Tables {
		out[k] = v
	}
	return out, nil
}

func (p *RemoteProvider) Table(ctx context.Context, name string) (etlmodel.TableDescriptor, error) {
	doc, err := p.current(ctx)
	if err != nil {
		return etlmodel.TableDescriptor{}, err
	}
	td, ok := doc.Tables[name]
	if !ok {
		return etlmodel.TableDescriptor{}, fmt.Errorf("configprovider: table %q: %w", name, ErrTableNotConfigured)
	}
	return td, nil
}
