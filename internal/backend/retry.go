package backend

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"notaryportal/internal/metrics"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
		},
	}
}

func (r RetryConfig) delay(attempt int) time.Duration {
	if len(r.RetryDelays) == 0 {
		return 0
	}
	if attempt < len(r.RetryDelays) {
		return r.RetryDelays[attempt]
	}
	return r.RetryDelays[len(r.RetryDelays)-1]
}

// retryable reports whether a failed call is worth repeating:
// transport failures, 429 and 5xx. Cancellation and other 4xx are final.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if httpErr, ok := AsHTTPError(err); ok {
		return httpErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// withRetry runs fn until it succeeds, fails permanently or retries run out.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	maxRetries := c.retry.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxRetries {
			break
		}

		delay := c.retry.delay(attempt)
		if httpErr, ok := AsHTTPError(err); ok && httpErr.RetryAfter > 0 {
			delay = httpErr.RetryAfter
		}

		c.log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("delay", delay).
			Msg("backend call failed, retrying")
		metrics.IncBackendRetry(op)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
