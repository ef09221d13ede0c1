// Package middleware provides HTTP middleware for the portfolio server.
package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// Origins derives the allowed CORS origins from the configured frontend URL.
// Development allows any origin.
func Origins(frontendURL string, isDev bool) []string {
	if isDev {
		return []string{"*"}
	}
	frontendURL = strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if frontendURL == "" || strings.HasPrefix(frontendURL, "/") {
		return nil
	}
	return []string{frontendURL}
}

// CORS returns middleware that handles CORS headers for the content and
// assistant APIs. The visitor cookie only travels to explicitly listed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Add("Vary", "Origin")
			}

			explicit := origin != "" && slices.Contains(allowedOrigins, origin)
			if origin != "" && (explicit || wildcard) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
				w.Header().Set("Access-Control-Max-Age", "600")
				// Credentials with a wildcard-echoed origin would enable CSRF.
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
