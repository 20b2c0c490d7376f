package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// probePaths are polled by orchestrators and scrapers; they log at debug
var probePaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Logging writes one http_request entry per request and counts its status.
// Server errors log at error level and client errors at warn.
func Logging(log *zap.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			status := wrapped.statusCode
			rec.RecordHTTPStatus(status)

			if ce := log.Check(requestLevel(r.URL.Path, status), "http_request"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.Int("status_code", status),
					zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				)
			}
		})
	}
}

func requestLevel(path string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case probePaths[path]:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
