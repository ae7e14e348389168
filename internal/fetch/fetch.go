// Package fetch downloads upstream plugin artifacts for clients that cannot
// follow a redirect to the release host, keeping recent bodies in memory.
//
// Concurrent misses for the same URL are not deduplicated: each one counts
// against the caller's direct download limit and performs its own request.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dprint/plugins/internal/cache"
	"github.com/dprint/plugins/internal/clock"
	"github.com/dprint/plugins/internal/metrics"
	"github.com/dprint/plugins/internal/ratelimit"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// MaxBodySize is the largest artifact that is fetched and cached.
const MaxBodySize = 10 * 1024 * 1024

const (
	bodyCacheSize     = 50
	tooLargeCacheSize = 1000
)

var (
	directLimit = ratelimit.Options{Limit: 10, Window: 5 * time.Minute}
	cachedLimit = ratelimit.Options{Limit: 20, Window: time.Minute}
)

// Error is a failed fetch that maps onto an HTTP response.
type Error struct {
	StatusCode int
	Message    string
	Header     http.Header
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch failed with status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is an *Error with the same status and message,
// so errors.Is matches the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.StatusCode == e.StatusCode && t.Message == e.Message
}

// Sentinels for errors.Is. FetchCached returns a fresh copy of them.
var (
	ErrTooManyRequests = &Error{StatusCode: http.StatusTooManyRequests, Message: "Too many requests"}
	ErrTooLarge        = &Error{StatusCode: http.StatusRequestEntityTooLarge, Message: "Response body exceeds 10MB limit"}
)

func newError(sentinel *Error) *Error {
	return &Error{StatusCode: sentinel.StatusCode, Message: sentinel.Message, Header: http.Header{}}
}

type Cacher struct {
	client        *retryablehttp.Client
	log           logrus.FieldLogger
	directLimiter *ratelimit.Limiter
	cachedLimiter *ratelimit.Limiter
	bodies        *cache.Cache[string, []byte]
	tooLarge      *cache.Set[string]
}

type Option func(*Cacher)

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Cacher) {
		c.log = log
	}
}

// WithRetryMax sets how often failed upstream requests (connection errors
// and 5xx responses) are retried.
func WithRetryMax(n int) Option {
	return func(c *Cacher) {
		c.client.RetryMax = n
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cacher) {
		c.client.HTTPClient = hc
	}
}

func newRetryableClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 2
	client.HTTPClient.Timeout = 3 * time.Minute
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

func New(c clock.Clock, opts ...Option) *Cacher {
	cacher := &Cacher{
		client:        newRetryableClient(),
		log:           logrus.StandardLogger(),
		directLimiter: ratelimit.New(c, directLimit),
		cachedLimiter: ratelimit.New(c, cachedLimit),
		bodies:        cache.New[string, []byte](bodyCacheSize),
		tooLarge:      cache.NewSet[string](tooLargeCacheSize),
	}
	for _, opt := range opts {
		opt(cacher)
	}
	return cacher
}

func recordRateLimited(ctx context.Context, limiter string) {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagLimiter, limiter))
	stats.Record(ctx, metrics.CounterRateLimited.M(1))
}

// FetchCached returns the body stored at url, downloading it when it is not
// cached yet. hostname identifies the client for rate limiting. Errors that
// correspond to an HTTP status are returned as *Error.
func (c *Cacher) FetchCached(ctx context.Context, url, hostname string) ([]byte, error) {
	if body, ok := c.bodies.Get(url); ok {
		if !c.cachedLimiter.Allow(hostname) {
			recordRateLimited(ctx, "cached")
			return nil, newError(ErrTooManyRequests)
		}
		return body, nil
	}

	if !c.directLimiter.Allow(hostname) {
		recordRateLimited(ctx, "direct")
		return nil, newError(ErrTooManyRequests)
	}

	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}
	c.bodies.Set(url, body)
	return body, nil
}

// IsKnownTooLarge reports whether url exceeded MaxBodySize on a previous
// fetch. It is informational only; every fetch checks the size again.
func (c *Cacher) IsKnownTooLarge(url string) bool {
	return c.tooLarge.Has(url)
}

func (c *Cacher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.log.WithField("url", url).Info("fetching upstream file")
	stats.Record(ctx, metrics.CounterUpstreamFetches.M(1))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Header:     resp.Header.Clone(),
		}
	}

	if resp.ContentLength > MaxBodySize {
		return nil, c.rejectTooLarge(ctx, cancel, url)
	}

	// read one byte past the limit so an oversized body is detected without
	// transferring the rest of it
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, c.rejectTooLarge(ctx, cancel, url)
	}
	return body, nil
}

func (c *Cacher) rejectTooLarge(ctx context.Context, cancel context.CancelFunc, url string) error {
	cancel()
	c.tooLarge.Insert(url)
	stats.Record(ctx, metrics.CounterPayloadTooLarge.M(1))
	c.log.WithField("url", url).Warn("upstream file exceeds size limit")
	return newError(ErrTooLarge)
}
