package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// StatusError is returned for a non-200 response that was not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// maxErrorBody caps how much of an error response ends up in a message.
const maxErrorBody = 512

// RateLimitedClient wraps http.Client with rate limiting
type RateLimitedClient struct {
	client      *http.Client
	rateLimiter *rateLimiter
	maxRetries  int
}

type rateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	// 60 req/min = refill 1 token every second, burst of 10 seconds worth
	burst := max(requestsPerMinute/6, 1)
	return &rateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		refillRate: time.Minute / time.Duration(requestsPerMinute),
		lastRefill: time.Now(),
	}
}

func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		rl.mu.Lock()

		now := time.Now()
		elapsed := now.Sub(rl.lastRefill)
		tokensToAdd := int(elapsed / rl.refillRate)
		if tokensToAdd > 0 {
			rl.tokens = min(rl.tokens+tokensToAdd, rl.maxTokens)
			rl.lastRefill = now
		}

		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		waitTime := rl.refillRate
		rl.mu.Unlock()
		if err := sleep(ctx, waitTime); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewRateLimitedClient creates a client limited to requestsPerMinute.
// Every request is bounded by timeout; maxRetries = 0 disables retries.
func NewRateLimitedClient(requestsPerMinute int, timeout time.Duration, maxRetries int) *RateLimitedClient {
	return &RateLimitedClient{
		client: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: newRateLimiter(requestsPerMinute),
		maxRetries:  maxRetries,
	}
}

// Do executes an HTTP request with rate limiting and retries on 429 and 5xx
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 100 * time.Millisecond
			if errors.Is(lastErr, errRateLimited) {
				backoff = time.Duration(1<<(attempt-1)) * time.Second
			}
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = redactURL(err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			resp.Body.Close()
			lastErr = errRateLimited
			continue
		}

		if resp.StatusCode >= 500 && attempt < c.maxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

var errRateLimited = errors.New("rate limited (429)")

// redactURL drops the query string from transport errors; it carries the API token.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		}
	}
	return err
}

// Get performs a rate-limited GET request and returns the body of a 200 response
func (c *RateLimitedClient) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}
