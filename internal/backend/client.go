// Package backend is the HTTP client for the notary backend service.
//
// The backend owns jobs, availability configuration, accounts and billing.
// Every call here is a thin, typed wrapper over one REST endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"notaryportal/internal/metrics"
)

const (
	headerAPIKey         = "x-api-key"
	headerUserID         = "X-User-Id"
	headerIdempotencyKey = "Idempotency-Key"

	cachePrefix = "notary:"
)

// Options configure a Client.
type Options struct {
	BaseURL string
	// AuthURL serves /session, /login and /logout; defaults to BaseURL.
	AuthURL string
	APIKey  string
	Timeout time.Duration
	Retry   RetryConfig
	// RatePerSecond limits outgoing calls; zero disables limiting.
	RatePerSecond float64
	Burst         int
	Logger        zerolog.Logger
}

// Client calls the notary backend.
type Client struct {
	baseURL    string
	authURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
	log        zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client from options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.AuthURL == "" {
		opts.AuthURL = opts.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		authURL:    strings.TrimRight(opts.AuthURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    limiter,
		retry:      opts.Retry,
		log:        opts.Logger.With().Str("component", "backend").Logger(),
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// call describes one backend request.
type call struct {
	op             string
	method         string
	url            string
	userID         string
	idempotencyKey string
	body           any
	out            any
	retry          bool
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) authEndpoint(path string) string {
	return c.authURL + path
}

func (c *Client) execute(ctx context.Context, cl call) error {
	if !cl.retry {
		return c.once(ctx, cl)
	}
	return c.withRetry(ctx, cl.op, func() error {
		return c.once(ctx, cl)
	})
}

func (c *Client) once(ctx context.Context, cl call) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveBackend(cl.op, started, err) }()

	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body *bytes.Reader
	if cl.body != nil {
		data, mErr := json.Marshal(cl.body)
		if mErr != nil {
			return mErr
		}
		body = bytes.NewReader(data)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, cl.method, cl.url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, cl.method, cl.url, http.NoBody)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.addHeaders(req, cl.userID)
	if cl.idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, cl.idempotencyKey)
	}

	return c.do(req, cl.out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, userID string) {
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}
}

func (c *Client) get(ctx context.Context, op, url, userID string, out any) error {
	return c.execute(ctx, call{op: op, method: http.MethodGet, url: url, userID: userID, out: out, retry: true})
}

func (c *Client) send(ctx context.Context, op, method, url, userID string, body, out any) error {
	return c.execute(ctx, call{op: op, method: method, url: url, userID: userID, body: body, out: out})
}

func (c *Client) cacheEnabled() bool {
	return c.redis != nil && c.cacheTTL > 0
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if !c.cacheEnabled() {
		return false
	}
	val, err := c.redis.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		metrics.IncCache(false)
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCache(false)
		return false
	}
	metrics.IncCache(true)
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if !c.cacheEnabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cachePrefix+key, data, c.cacheTTL).Err(); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate drops cached entries; patterns may use Redis glob syntax.
func (c *Client) Invalidate(ctx context.Context, patterns ...string) {
	if c.redis == nil {
		return
	}
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			_ = c.redis.Del(ctx, cachePrefix+pattern).Err()
			continue
		}
		iter := c.redis.Scan(ctx, 0, cachePrefix+pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.log.Debug().Err(err).Str("pattern", pattern).Msg("cache scan failed")
			continue
		}
		if len(keys) > 0 {
			_ = c.redis.Del(ctx, keys...).Err()
		}
	}
}

// HealthCheck checks if the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/healthz"), http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req, "")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}
