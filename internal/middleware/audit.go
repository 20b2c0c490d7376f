package middleware

import (
	"net/http"
	"strings"

	logpkg "github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/request"
	"go.uber.org/zap"
)

const authPathPrefix = "/api/v1/auth/"

// Audit logs rejected credentials, requests made without a session and
// rate limit hits, keyed by client address
func Audit(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			event := auditEvent(r.URL.Path, wrapped.statusCode)
			if event == "" {
				return
			}
			log.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			)
		})
	}
}

func auditEvent(path string, status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate_limit_violation"
	case http.StatusUnauthorized, http.StatusForbidden:
		if strings.HasPrefix(path, authPathPrefix) {
			return "sign_in_rejected"
		}
		return "session_required"
	default:
		return ""
	}
}
