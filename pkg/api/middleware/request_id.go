package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// contextKey scopes context values set by this package.
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the request id between client and server.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen caps client-supplied ids.
const maxRequestIDLen = 64

// GetRequestID returns the request id stored on the request context,
// or "" when the RequestID middleware did not run.
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// sanitizeRequestID keeps [A-Za-z0-9._-] and drops everything else, so
// client ids cannot smuggle markup or control characters into logs.
func sanitizeRequestID(id string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		case c == '-', c == '_', c == '.':
			return c
		}
		return -1
	}, id)
}

// RequestID tags every request with an id for log correlation. A
// client-supplied X-Request-ID is kept after truncation and
// sanitization; otherwise a fresh UUID is assigned. The id is echoed
// on the response and stored on the request context.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if len(id) > maxRequestIDLen {
				id = id[:maxRequestIDLen]
			}
			id = sanitizeRequestID(id)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
