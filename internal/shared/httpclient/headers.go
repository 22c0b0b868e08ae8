package httpclient

import "net/http"

const APP_VERSION = "1.0"

// DefaultHeaders returns the headers sent with every upstream request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "f1-pitwall/" + APP_VERSION,
		"Accept":     "application/json",
	}
}

// ApplyDefaultHeaders sets any default header the request does not already carry.
func ApplyDefaultHeaders(req *http.Request) {
	for key, value := range DefaultHeaders() {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
}
