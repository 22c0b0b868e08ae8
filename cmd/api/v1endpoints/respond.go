package v1endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"f1-pitwall/internal/core/openf1"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"
)

const (
	minYear = 1950
	maxYear = 2100
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, endpoint string, status int, category, msg string) {
	metrics.GetAPI().Errors.WithLabelValues(endpoint, category).Inc()
	writeJSON(w, status, errorBody{Error: msg})
}

// writeUpstreamError maps OpenF1 failures onto gateway statuses.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	if rl := openf1.GetRateLimitError(err); rl != nil {
		if rl.Retryable {
			secs := int(time.Until(rl.RetryAfter).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
		logs.Warn("upstream rate limited", "endpoint", endpoint, "path", r.URL.Path, "error", err)
		writeError(w, endpoint, http.StatusServiceUnavailable, "rate_limited", "upstream rate limited, try again later")
		return
	}
	var apiErr *openf1.APIError
	if errors.As(err, &apiErr) {
		logs.Warn("upstream error", "endpoint", endpoint, "path", r.URL.Path, "status", apiErr.StatusCode)
		writeError(w, endpoint, http.StatusBadGateway, "upstream", apiErr.Error())
		return
	}
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		writeError(w, endpoint, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	}
	logs.FromContext(r.Context()).Error("request failed", "endpoint", endpoint, "path", r.URL.Path, "error", err)
	writeError(w, endpoint, http.StatusInternalServerError, "internal", "internal error")
}

// parseYear reads the {year} path value.
func parseYear(r *http.Request) (int, error) {
	raw := r.PathValue("year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	if year < minYear || year > maxYear {
		return 0, fmt.Errorf("year %d out of range %d-%d", year, minYear, maxYear)
	}
	return year, nil
}

func observe(endpoint string, start time.Time) {
	metrics.GetAPI().Requests.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
