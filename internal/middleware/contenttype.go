package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires a JSON media type on requests that carry a body.
// Bodiless calls such as sign-out and back navigation need none.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Content-Type")
		if header == "" {
			RespondError(w, r, http.StatusBadRequest, "Content-Type header is required", nil)
			return
		}
		mediaType, _, err := mime.ParseMediaType(header)
		if err != nil || mediaType != "application/json" {
			RespondError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
