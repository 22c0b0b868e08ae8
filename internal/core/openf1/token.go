package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"f1-pitwall/internal/shared/httpclient"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenSafetyMargin renews the token this long before it actually expires.
	tokenSafetyMargin   = 10 * time.Second
	defaultTokenTTL     = time.Hour
	// tokenFailureBackoff holds off new exchanges after a failed one.
	tokenFailureBackoff = 30 * time.Second
)

// ErrTokenBackoff wraps the last exchange error while new exchanges are held off.
var ErrTokenBackoff = errors.New("openf1 token exchange backing off")

// Authorizer decorates outgoing requests with credentials.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request)
	Invalidate()
}

// Credentials configure a TokenSource. Username and Password take precedence;
// APIKey is the static fallback.
type Credentials struct {
	AuthURL  string
	Username string
	Password string
	APIKey   string
}

// TokenSource lazily exchanges credentials for a bearer token and caches it
// with its absolute expiry.
type TokenSource struct {
	creds      Credentials
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	expiry      time.Time
	lastErr     error
	failedUntil time.Time
}

func NewTokenSource(creds Credentials, httpClient *http.Client) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenSource{
		creds:      creds,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

func (ts *TokenSource) hasCredentials() bool {
	return ts.creds.Username != "" && ts.creds.Password != ""
}

// Token returns a valid bearer token, fetching a new one when the cached token
// is missing or within the safety margin of its expiry. It returns "" and no
// error when no username/password are configured.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if !ts.hasCredentials() {
		return "", nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry.Add(-tokenSafetyMargin)) {
		return ts.token, nil
	}

	if ts.lastErr != nil && ts.now().Before(ts.failedUntil) {
		return "", fmt.Errorf("%w: %w", ErrTokenBackoff, ts.lastErr)
	}

	token, expiry, err := ts.fetch(ctx)
	if err != nil {
		ts.token = ""
		if ctx.Err() == nil {
			ts.lastErr = err
			ts.failedUntil = ts.now().Add(tokenFailureBackoff)
		}
		return "", err
	}
	ts.token = token
	ts.expiry = expiry
	ts.lastErr = nil
	ts.failedUntil = time.Time{}
	logs.Debug("openf1 token refreshed", "expires_at", expiry.Format(time.RFC3339))
	return token, nil
}

// Invalidate drops the cached token so the next call re-authenticates.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expiry = time.Time{}
	ts.mu.Unlock()
}

// Authorize sets the Authorization header. A failed exchange falls back to the
// API key, or leaves the request unauthenticated.
func (ts *TokenSource) Authorize(ctx context.Context, req *http.Request) {
	token, err := ts.Token(ctx)
	switch {
	case errors.Is(err, ErrTokenBackoff):
		logs.Debug("openf1 token exchange backing off, using fallback auth", "error", err)
	case err != nil:
		metrics.GetOpenF1Client().Errors.WithLabelValues("token").Inc()
		logs.Warn("openf1 token exchange failed, using fallback auth", "error", err)
	}
	if token == "" {
		token = ts.creds.APIKey
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (ts *TokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	metrics.GetOpenF1Client().TokenFetch.Inc()

	form := url.Values{}
	form.Set("username", ts.creds.Username)
	form.Set("password", ts.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.creds.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpclient.ApplyDefaultHeaders(req)

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", time.Time{}, &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), URL: ts.creds.AuthURL}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, errors.New("token response carried no access_token")
	}

	return tr.AccessToken, ts.expiryFor(tr), nil
}

// expiryFor resolves the absolute expiry: expires_in (number or numeric
// string), then the JWT exp claim, then a one hour default.
func (ts *TokenSource) expiryFor(tr tokenResponse) time.Time {
	now := ts.now()
	if secs, ok := parseExpiresIn(tr.ExpiresIn); ok {
		return now.Add(time.Duration(secs) * time.Second)
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return now.Add(defaultTokenTTL)
}

func parseExpiresIn(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return int64(secs), true
}
