package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"togglehub/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrFeatureNotFound = errors.New("feature not found")
	ErrUnauthorized    = errors.New("invalid API key")
)

// Attributes is the evaluation context sent with a check. Keys are matched
// against the condition fields configured for the feature.
type Attributes map[string]any

type Option func(*ToggleClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *ToggleClient) { c.httpClient = hc }
}

// WithCacheTTL keeps check results in a local cache for the given duration.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *ToggleClient) { c.cacheTTL = ttl }
}

func WithRetries(n int) Option {
	return func(c *ToggleClient) { c.retries = n }
}

type cachedValue struct {
	value     bool
	expiresAt time.Time
}

type ToggleClient struct {
	addr       string
	apiKey     string
	httpClient *http.Client
	retries    int
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]cachedValue
}

func NewToggleClient(addr, apiKey string, opts ...Option) *ToggleClient {
	c := &ToggleClient{
		addr:       addr,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retries:    2,
		cache:      make(map[string]cachedValue),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check evaluates the feature on the server and returns whether it is
// enabled for the given attributes.
func (c *ToggleClient) Check(ctx context.Context, featureKey string, attrs Attributes) (bool, error) {
	cacheKey := c.cacheKey(featureKey, attrs)
	if c.cacheTTL > 0 {
		if v, ok := c.cached(cacheKey); ok {
			return v, nil
		}
	}

	value, err := c.checkWithRetry(ctx, featureKey, attrs)
	if err != nil {
		return false, err
	}

	if c.cacheTTL > 0 {
		c.store(cacheKey, value)
	}
	return value, nil
}

// IsEnabled is Check with errors swallowed: any failure reads as disabled.
func (c *ToggleClient) IsEnabled(ctx context.Context, featureKey string, attrs Attributes) bool {
	value, err := c.Check(ctx, featureKey, attrs)
	if err != nil {
		logger.Warn("feature check failed", zap.String("key", featureKey), zap.Error(err))
		return false
	}
	return value
}

func (c *ToggleClient) checkWithRetry(ctx context.Context, featureKey string, attrs Attributes) (bool, error) {
	backoff := 100 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff + jitter):
			}
			backoff *= 2
		}

		value, retryable, err := c.doCheck(ctx, featureKey, attrs)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !retryable {
			return false, err
		}
	}
	return false, lastErr
}

func (c *ToggleClient) doCheck(ctx context.Context, featureKey string, attrs Attributes) (value bool, retryable bool, err error) {
	body, err := json.Marshal(attrs)
	if err != nil {
		return false, false, err
	}

	url := fmt.Sprintf("%s/v1/check/%s", c.addr, featureKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, false, ErrFeatureNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, false, ErrUnauthorized
	case http.StatusTooManyRequests:
		return false, true, errors.New("rate limited")
	default:
		return false, resp.StatusCode >= 500, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var res struct {
		Value bool `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return false, false, err
	}
	return res.Value, false, nil
}

func (c *ToggleClient) cacheKey(featureKey string, attrs Attributes) string {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return featureKey
	}
	return featureKey + ":" + string(raw)
}

func (c *ToggleClient) cached(key string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cache[key]
	if !ok || time.Now().After(v.expiresAt) {
		return false, false
	}
	return v.value, true
}

func (c *ToggleClient) store(key string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedValue{value: value, expiresAt: time.Now().Add(c.cacheTTL)}
}
