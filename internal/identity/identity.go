// Package identity provides anonymous per-browser visitor identity.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"time"
)

const (
	VisitorCookieName = "portfolio_visitor_id"
	visitorCookieAge  = 365 * 24 * time.Hour
)

type contextKey int

const visitorIDKey contextKey = iota

var visitorIDPattern = regexp.MustCompile(`^v_[a-f0-9]{32}$`)

// Toucher records that a visitor was seen.
type Toucher interface {
	TouchVisitor(ctx context.Context, visitorID string, seen time.Time) error
}

// VisitorIDFromContext extracts the visitor ID from the request context.
func VisitorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(visitorIDKey).(string); ok {
		return v
	}
	return ""
}

// WithVisitorID returns a copy of ctx carrying visitorID.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

func generateVisitorID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate visitor id: %w", err)
	}
	return "v_" + hex.EncodeToString(buf), nil
}

// IsValidVisitorID reports whether id has the shape this package issues.
func IsValidVisitorID(id string) bool {
	return visitorIDPattern.MatchString(id)
}

func getOrCreateVisitorID(w http.ResponseWriter, r *http.Request, isDev bool) (id string, created bool, err error) {
	if c, cookieErr := r.Cookie(VisitorCookieName); cookieErr == nil && IsValidVisitorID(c.Value) {
		id = c.Value
	} else {
		id, err = generateVisitorID()
		if err != nil {
			return "", false, err
		}
		created = true
	}

	// Refresh on every request so the expiry slides.
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieAge.Seconds()),
		Expires:  time.Now().Add(visitorCookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
	return id, created, nil
}

// Middleware assigns every request a visitor ID backed by a cookie and records
// the visit. Failing to record the visit does not fail the request.
func Middleware(toucher Toucher, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID, created, err := getOrCreateVisitorID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish visitor identity"}`, http.StatusInternalServerError)
				return
			}

			if toucher != nil {
				if err := toucher.TouchVisitor(r.Context(), visitorID, time.Now()); err != nil {
					slog.Warn("Failed to record visitor", "visitor_id", visitorID, "error", err)
				}
			}
			if created {
				slog.Debug("New visitor", "visitor_id", visitorID, "ip", IPFromRequest(r))
			}

			next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), visitorID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
