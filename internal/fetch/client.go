// Package fetch provides the polite HTTP client every source adapter goes
// through: per-host request spacing, bounded retries with exponential
// backoff, and anti-bot block detection.
package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/telemetry"
	"github.com/vagahub/engine/internal/textnorm"
)

// Outcome classifies a finished fetch.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeBlocked
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// blockMarkers are matched against the normalized response body.
var blockMarkers = []string{
	"verify you are human",
	"cloudflare",
	"turnstile",
	"captcha",
}

// Config controls client behavior.
type Config struct {
	UserAgent       string
	Timeout         time.Duration
	MaxRetries      int
	InitialBackoff  time.Duration
	MinHostInterval time.Duration
}

// Request describes one outbound call.
type Request struct {
	URL     string
	Method  string
	Body    []byte
	Headers http.Header
	// BlockedOnUnauthorized treats 401 as a block, for tenanted APIs that
	// answer challenges with Unauthorized.
	BlockedOnUnauthorized bool
}

// Response is the classified result of a fetch.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Outcome    Outcome
	Duration   time.Duration
}

// Client fetches pages through a Colly collector with politeness rules
// applied. Transport-level failures that survive every retry are returned
// as errors; HTTP-level failures come back as a classified Response.
type Client struct {
	cfg           Config
	limiter       *HostLimiter
	baseCollector *colly.Collector
	logger        *zap.Logger
	sleep         func(context.Context, time.Duration) error
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	return &Client{
		cfg:           cfg,
		limiter:       NewHostLimiter(cfg.MinHostInterval),
		baseCollector: c,
		logger:        logger,
		sleep:         sleepCtx,
	}
}

// Get fetches a URL with the default politeness rules.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	return c.Do(ctx, Request{URL: url, Method: http.MethodGet})
}

// Do executes the request, retrying transient failures with exponential
// backoff. Blocked and non-retryable HTTP failures return a nil error and
// a Response carrying the classification.
func (c *Client) Do(ctx context.Context, request Request) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			telemetry.ObserveFetchRetry(request.URL)
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return Response{}, err
			}
		}
		if err := c.limiter.Wait(ctx, request.URL); err != nil {
			return Response{}, err
		}

		response, err := c.attempt(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return Response{}, err
			}
			lastErr = err
			c.logger.Warn("fetch attempt failed",
				zap.String("url", request.URL),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		if c.retryableStatus(response.StatusCode) && attempt < c.cfg.MaxRetries {
			lastErr = fmt.Errorf("status %d", response.StatusCode)
			c.logger.Warn("fetch got retryable status",
				zap.String("url", request.URL),
				zap.Int("status", response.StatusCode),
				zap.Int("attempt", attempt+1))
			continue
		}

		response.Outcome = c.classify(request, response)
		telemetry.ObserveFetch(request.URL, response.Outcome.String(), len(response.Body))
		return response, nil
	}
	telemetry.ObserveFetch(request.URL, OutcomeFailed.String(), 0)
	return Response{}, fmt.Errorf("fetch %s: retries exhausted: %w", request.URL, lastErr)
}

func (c *Client) attempt(ctx context.Context, request Request) (Response, error) {
	var (
		response Response
		fetchErr error
		gotBody  bool
	)
	start := time.Now()

	collector := c.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		response = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
		gotBody = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil && r.StatusCode != 0 {
			response = Response{
				URL:        request.URL,
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
			}
			gotBody = true
		}
	})

	done := make(chan error, 1)
	go func() {
		if request.Method == http.MethodPost {
			done <- collector.PostRaw(request.URL, request.Body)
		} else {
			done <- collector.Visit(request.URL)
		}
	}()

	select {
	case <-ctx.Done():
		return Response{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		// An HTTP error status still produced a usable response; only a
		// transport-level failure leaves nothing to classify.
		if gotBody {
			return response, nil
		}
		if err != nil {
			return Response{}, fmt.Errorf("fetch visit: %w", err)
		}
		if fetchErr != nil {
			return Response{}, fmt.Errorf("fetch response: %w", fetchErr)
		}
		return response, nil
	}
}

func (c *Client) classify(request Request, response Response) Outcome {
	switch {
	case response.StatusCode == http.StatusForbidden,
		response.StatusCode == http.StatusTooManyRequests:
		return OutcomeBlocked
	case response.StatusCode == http.StatusUnauthorized && request.BlockedOnUnauthorized:
		return OutcomeBlocked
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return OutcomeFailed
	}
	normalized := textnorm.Normalize(string(response.Body))
	for _, marker := range blockMarkers {
		if strings.Contains(normalized, marker) {
			return OutcomeBlocked
		}
	}
	return OutcomeOK
}

func (c *Client) retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// backoff doubles per attempt from the initial value, with up to 20%
// jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.InitialBackoff << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
