package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"f1-pitwall/internal/shared/httpclient"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://api.openf1.org/v1"
	DefaultInterval       = 400 * time.Millisecond
	DefaultMaxRetries     = 3
	DefaultThrottleBudget = 5
	defaultRetryDelay     = time.Second
	defaultThrottleStep   = 2 * time.Second
	maxBodyBytes          = 64 << 20
)

// Client serialises every OpenF1 call through one FIFO queue drained by a
// single goroutine. Requests are spaced by at least the configured interval
// and retried with separate budgets for failures and 429 throttling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authorizer
	limiter    *rate.Limiter

	maxRetries     int
	throttleBudget int
	retryDelay     time.Duration
	throttleStep   time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	now            func() time.Time

	mu    sync.Mutex
	queue []*queuedRequest
	wake  chan struct{}

	base     context.Context
	stop     context.CancelFunc
	drained  chan struct{}
	closeOne sync.Once

	m *metrics.OpenF1ClientMetrics
}

type queuedRequest struct {
	ctx    context.Context
	url    string
	method string
	header http.Header
	result chan fetchResult
}

// RequestOption adjusts a single queued request.
type RequestOption func(*queuedRequest)

// WithMethod overrides the HTTP method. The default is GET.
func WithMethod(method string) RequestOption {
	return func(r *queuedRequest) { r.method = method }
}

// WithHeader adds a header to the request. It is applied after the default
// and authorization headers, so it can override them.
func WithHeader(key, value string) RequestOption {
	return func(r *queuedRequest) { r.header.Add(key, value) }
}

type fetchResult struct {
	body []byte
	err  error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) { c.auth = a }
}

// WithInterval sets the minimum spacing between upstream requests.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetries sets the budget for non-429 failures per request.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithThrottleBudget sets how many 429 responses a request tolerates.
func WithThrottleBudget(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.throttleBudget = n
		}
	}
}

// WithBackoff overrides the failure retry delay and the per-429 backoff step.
func WithBackoff(retryDelay, throttleStep time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = retryDelay
		c.throttleStep = throttleStep
	}
}

// WithSleep replaces the context-aware sleep used between retries.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New starts the drain loop. Call Close to stop it.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, stop := context.WithCancel(context.Background())
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: tunedTransport(),
			Timeout:   30 * time.Second,
		},
		auth:           noAuth{},
		limiter:        rate.NewLimiter(rate.Every(DefaultInterval), 1),
		maxRetries:     DefaultMaxRetries,
		throttleBudget: DefaultThrottleBudget,
		retryDelay:     defaultRetryDelay,
		throttleStep:   defaultThrottleStep,
		sleep:          sleepContext,
		now:            time.Now,
		wake:           make(chan struct{}, 1),
		base:           base,
		stop:           stop,
		drained:        make(chan struct{}),
		m:              metrics.GetOpenF1Client(),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.drain()
	return c
}

func tunedTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Close stops the drain loop. Queued requests settle with ErrClientClosed and
// an in-flight request is cancelled.
func (c *Client) Close() {
	c.closeOne.Do(func() {
		c.stop()
		<-c.drained
	})
}

// Fetch queues a request for endpoint and decodes the JSON response into out.
// Endpoints starting with "http" are used as-is, anything else is appended
// to the base URL.
func (c *Client) Fetch(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	body, err := c.FetchRaw(ctx, endpoint, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.m.Errors.WithLabelValues("decode").Inc()
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// FetchRaw queues a request and returns the raw JSON body.
func (c *Client) FetchRaw(ctx context.Context, endpoint string, opts ...RequestOption) ([]byte, error) {
	req := &queuedRequest{
		ctx:    ctx,
		url:    c.resolve(endpoint),
		method: http.MethodGet,
		header: make(http.Header),
		result: make(chan fetchResult, 1),
	}
	for _, opt := range opts {
		opt(req)
	}
	if !c.enqueue(req) {
		return nil, ErrClientClosed
	}

	select {
	case res := <-req.result:
		return res.body, res.err
	case <-ctx.Done():
		// the drain loop skips requests whose context is already done
		return nil, ctx.Err()
	}
}

func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func (c *Client) enqueue(req *queuedRequest) bool {
	c.mu.Lock()
	if c.base.Err() != nil {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, req)
	c.m.QueueDepth.Set(float64(len(c.queue)))
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *Client) pop() *queuedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	req := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.m.QueueDepth.Set(float64(len(c.queue)))
	return req
}

// Pending returns the number of requests waiting in the queue.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Client) drain() {
	defer close(c.drained)
	for {
		req := c.pop()
		if req == nil {
			select {
			case <-c.wake:
				continue
			case <-c.base.Done():
				c.failPending()
				return
			}
		}

		if err := req.ctx.Err(); err != nil {
			req.result <- fetchResult{err: err}
			continue
		}
		if c.base.Err() != nil {
			req.result <- fetchResult{err: ErrClientClosed}
			continue
		}

		ctx, cancel := context.WithCancel(req.ctx)
		release := context.AfterFunc(c.base, cancel)
		body, err := c.execute(ctx, req)
		release()
		cancel()

		if err != nil && c.base.Err() != nil && req.ctx.Err() == nil {
			err = ErrClientClosed
		}
		req.result <- fetchResult{body: body, err: err}
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.m.QueueDepth.Set(0)
	c.mu.Unlock()
	for _, req := range pending {
		req.result <- fetchResult{err: ErrClientClosed}
	}
}

// execute runs one queued request through the retry policy. Non-429 failures
// and 429 responses draw from separate budgets so throttling never abandons a
// request before its failure budget is spent.
func (c *Client) execute(ctx context.Context, queued *queuedRequest) ([]byte, error) {
	target := queued.url
	failures, throttled := 0, 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.attempt(ctx, queued)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if IsStatus(err, http.StatusTooManyRequests) {
			throttled++
			wait := c.throttleStep * time.Duration(throttled)
			if retryAfter > wait {
				wait = retryAfter
			}
			if throttled > c.throttleBudget {
				c.m.Errors.WithLabelValues("rate_limited").Inc()
				return nil, &RateLimitError{
					Retryable:  true,
					RetryAfter: c.now().Add(wait),
					Reason:     "too many requests",
					Attempts:   failures + throttled,
					URL:        target,
				}
			}
			c.m.Retries.WithLabelValues("throttled").Inc()
			logs.Warn("openf1 rate limit hit, backing off", "url", target, "throttled", throttled, "wait", wait.String())
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if IsStatus(err, http.StatusUnauthorized) {
			c.auth.Invalidate()
		}
		failures++
		if failures >= c.maxRetries {
			c.m.Errors.WithLabelValues("exhausted").Inc()
			logs.Error("openf1 request failed", "url", target, "attempts", failures, "error", err)
			return nil, err
		}
		c.m.Retries.WithLabelValues("failure").Inc()
		logs.Warn("openf1 request failed, retrying", "url", target, "attempt", failures, "max", c.maxRetries, "error", err)
		if err := c.sleep(ctx, c.retryDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) attempt(ctx context.Context, queued *queuedRequest) ([]byte, time.Duration, error) {
	target := queued.url
	req, err := http.NewRequestWithContext(ctx, queued.method, target, nil)
	if err != nil {
		return nil, 0, err
	}
	httpclient.ApplyDefaultHeaders(req)
	c.auth.Authorize(ctx, req)
	for key, values := range queued.header {
		req.Header[key] = values
	}

	logs.Debug("openf1 fetch", "method", queued.method, "url", target)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.m.Requests.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, 0, err
	}
	defer resp.Body.Close()
	c.m.Requests.WithLabelValues(statusClass(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), URL: target}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, parseRetryAfter(resp.Header.Get("Retry-After"), c.now()), apiErr
		}
		return nil, 0, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return nil, 0, errors.New("response body is not valid JSON")
	}
	return body, 0, nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// parseRetryAfter accepts delta seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type noAuth struct{}

func (noAuth) Authorize(context.Context, *http.Request) {}
func (noAuth) Invalidate()                              {}
