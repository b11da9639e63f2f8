package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is the shared retry/backoff/rate-limit policy injected into
// every provider probe. Safe for concurrent use by the worker pool.
type Client struct {
	httpClient     *http.Client
	limiters       map[string]*rate.Limiter
	limitersMu     sync.RWMutex
	rateLimit      int
	retryAttempts  int
	maxBodyBytes   int64
	circuitBreaker *CircuitBreaker
	rng            *rand.Rand
	rngMu          sync.Mutex
}

// CircuitBreaker stops hammering a provider host once it keeps failing.
type CircuitBreaker struct {
	mu            sync.Mutex
	failureCounts map[string]int
	lastFailure   map[string]time.Time
	threshold     int
	resetTimeout  time.Duration
}

const (
	backoffBase    = 250 * time.Millisecond
	backoffCeiling = 5 * time.Second
)

// NewClient builds a probe client. timeout is per-request in seconds,
// rateLimit caps requests per second per provider host (0 = unlimited),
// retryAttempts bounds retries on transient network errors.
func NewClient(timeout int, rateLimit int, retryAttempts int, maxBodyMB int) *Client {
	if retryAttempts < 0 {
		retryAttempts = 0
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   50,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: time.Duration(timeout) * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			// S3 signals wrong-region buckets with a redirect; the probe
			// classifies it, so never follow.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiters:      make(map[string]*rate.Limiter),
		rateLimit:     rateLimit,
		retryAttempts: retryAttempts,
		maxBodyBytes:  int64(maxBodyMB) * 1024 * 1024,
		circuitBreaker: &CircuitBreaker{
			failureCounts: make(map[string]int),
			lastFailure:   make(map[string]time.Time),
			threshold:     10,
			resetTimeout:  30 * time.Second,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// providerKey folds vhost-style bucket endpoints into one key per
// provider so that rate limiting and circuit breaking apply per
// provider, not per candidate hostname.
func providerKey(host string) string {
	for _, suffix := range []string{"amazonaws.com", "googleapis.com", "core.windows.net"} {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return suffix
		}
	}
	return host
}

func (c *Client) getRateLimiter(host string) *rate.Limiter {
	if c.rateLimit <= 0 {
		return nil
	}
	host = providerKey(host)

	c.limitersMu.RLock()
	limiter, exists := c.limiters[host]
	c.limitersMu.RUnlock()

	if exists {
		return limiter
	}

	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()

	if limiter, exists := c.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(c.rateLimit), 1)
	c.limiters[host] = limiter
	return limiter
}

func (c *Client) backoff(attempt int) time.Duration {
	base := backoffBase << uint(attempt)
	if base > backoffCeiling {
		base = backoffCeiling
	}
	c.rngMu.Lock()
	jitter := time.Duration(c.rng.Int63n(int64(base)))
	c.rngMu.Unlock()
	return base/2 + jitter/2
}

// Get issues a GET and returns the response plus its (size-capped) body.
// Transient network errors and 503 throttling are retried with short
// jittered backoff; any other status is terminal and returned as-is.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	host := providerKey(req.URL.Host)

	if c.circuitBreaker.isOpen(host) {
		return nil, nil, fmt.Errorf("circuit breaker open for host: %s", host)
	}

	if limiter := c.getRateLimiter(host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter cancelled: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
			log.Debugf("retrying %s (attempt %d/%d)", url, attempt, c.retryAttempts)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			c.circuitBreaker.recordFailure(host)
			continue
		}

		body, err := c.readBody(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			c.circuitBreaker.recordFailure(host)
			continue
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			// SlowDown from the provider; counts against the breaker
			// whether or not retry budget remains.
			c.circuitBreaker.recordFailure(host)
			if attempt < c.retryAttempts {
				continue
			}
			return resp, body, nil
		}

		c.circuitBreaker.recordSuccess(host)
		return resp, body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no attempt completed")
	}
	return nil, nil, fmt.Errorf("request failed after %d attempts: %w", c.retryAttempts+1, lastErr)
}

func (c *Client) readBody(body io.ReadCloser) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, c.maxBodyBytes))
}

func (cb *CircuitBreaker) isOpen(host string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if lastFail, exists := cb.lastFailure[host]; exists {
		if time.Since(lastFail) > cb.resetTimeout {
			delete(cb.failureCounts, host)
			delete(cb.lastFailure, host)
			return false
		}
	}

	return cb.failureCounts[host] >= cb.threshold
}

func (cb *CircuitBreaker) recordFailure(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCounts[host]++
	cb.lastFailure[host] = time.Now()
}

func (cb *CircuitBreaker) recordSuccess(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	delete(cb.failureCounts, host)
	delete(cb.lastFailure, host)
}

// IsHostNotFound reports whether an error indicates the hostname does
// not resolve or nothing accepts connections there. For vhost-style
// bucket endpoints this is indistinguishable from "bucket does not
// exist" at this layer.
func IsHostNotFound(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
