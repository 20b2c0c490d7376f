package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultFrontendOrigin = "http://localhost:3000"

// AllowedOrigins parses a comma-separated origin list, dropping blanks and
// duplicates. An empty list yields the local development origin.
func AllowedOrigins(frontendURL string) []string {
	var origins []string
	seen := map[string]bool{}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	if len(origins) == 0 {
		origins = []string{defaultFrontendOrigin}
	}
	return origins
}

// CORS allows the configured frontend origins to call the API with credentials
func CORS(frontendURL string, log *zap.Logger) func(http.Handler) http.Handler {
	origins := AllowedOrigins(frontendURL)
	log.Info("cors_configured", zap.Strings("allowed_origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "traceparent"},
	})
	return c.Handler
}
