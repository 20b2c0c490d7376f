package middleware

import "net/http"

// DefaultMaxRequestSize fits a profile with a full-length bio, or an ID token
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects declared bodies above maxBytes up front and caps
// undeclared (chunked) ones while they are read. Non-positive sizes select
// DefaultMaxRequestSize.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				RespondError(w, r, http.StatusRequestEntityTooLarge, "Request body is too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
