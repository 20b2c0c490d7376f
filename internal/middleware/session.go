package middleware

import (
	"net/http"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"github.com/emrepbu/loginflow/internal/request"
	"go.uber.org/zap"
)

// SessionReader exposes the session user stream
type SessionReader interface {
	CurrentUser() observable.Readable[*models.User]
}

// RequireSession rejects requests while nobody is signed in and otherwise
// attaches the session user snapshot to the request context
func RequireSession(session SessionReader, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := session.CurrentUser().Get()
			if user == nil {
				RespondError(w, r, http.StatusUnauthorized, models.DefaultUnauthorizedMessage, log)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}
