package middleware

import (
	"net/http"

	"f1-pitwall/internal/shared/logs"
)

type MiddlewareConstructor func(http.Handler) http.Handler

// Chain composes constructors; the first one is the outermost.
func Chain(constructors ...MiddlewareConstructor) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		handler := h
		for i := len(constructors) - 1; i >= 0; i-- {
			handler = constructors[i](handler)
		}
		return handler
	}
}

// Group registers routes behind a shared middleware chain.
type Group struct {
	mux  *http.ServeMux
	wrap func(http.Handler) http.Handler
}

func NewGroup(mux *http.ServeMux, constructors ...MiddlewareConstructor) *Group {
	return &Group{
		mux:  mux,
		wrap: Chain(constructors...),
	}
}

func (g *Group) Handle(pattern string, h http.Handler) {
	g.mux.Handle(pattern, g.wrap(h))
}

func (g *Group) HandleFunc(pattern string, fn func(http.ResponseWriter, *http.Request)) {
	g.Handle(pattern, http.HandlerFunc(fn))
}

// Recoverer turns a handler panic into a 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logs.Error("panic in http handler", "error", rec, "method", r.Method, "path", r.URL.Path)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
