// Package request carries per-request values shared by middleware and handlers.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/emrepbu/loginflow/internal/models"
)

type sessionUserKey struct{}

// ClientIP returns the address sign-in attempts are limited by: the first
// valid entry of X-Forwarded-For, else a valid X-Real-IP, else the host of
// RemoteAddr. Entries that are not IP addresses are skipped so a forged
// header cannot mint unlimited rate-limit keys.
func ClientIP(r *http.Request) string {
	for _, entry := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parseIP(entry); ip != "" {
			return ip
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// WithUser returns a context carrying the session user snapshot
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, sessionUserKey{}, user)
}

// UserFromContext returns the session user attached by RequireSession, or nil
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(sessionUserKey{}).(*models.User)
	return u
}

// UserID returns the id of the attached session user, or ""
func UserID(r *http.Request) string {
	if u := UserFromContext(r); u != nil {
		return u.ID
	}
	return ""
}
