package middleware

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultRequestTimeout bounds a request, including the provider and store calls it makes
	DefaultRequestTimeout = 30 * time.Second
)

const timeoutBody = `{"success":false,"error":"Request Timeout","message":"The request took too long"}`

// Timeout enforces a timeout on request handlers. Paths with one of the
// streamPrefixes are long-lived and exempt.
func Timeout(timeout time.Duration, streamPrefixes ...string) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range streamPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			limited.ServeHTTP(w, r)
		})
	}
}
