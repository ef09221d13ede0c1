package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	visitedTodayCookie = "visitor_today"
	visitDateLayout    = "2006-01-02"
)

// VisitorHandler maintains the site visitor counter.
type VisitorHandler struct {
	*Handler
	now func() time.Time
}

// NewVisitorHandler creates a visitor counter handler.
func NewVisitorHandler(base *Handler) *VisitorHandler {
	return &VisitorHandler{Handler: base, now: time.Now}
}

// RegisterRoutes registers visitor counter routes.
func (h *VisitorHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/visitors", func(r chi.Router) {
		r.Get("/", h.GetCount)
		r.Post("/", h.RecordVisit)
	})
}

type visitorCountResponse struct {
	Count   int64 `json:"count"`
	Counted bool  `json:"counted"`
}

// GetCount returns the counter without changing it.
func (h *VisitorHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.VisitorCount(r.Context())
	if err != nil {
		slog.Error("Failed to read visitor count", "error", err)
		Error(w, http.StatusInternalServerError, "failed to read visitor count")
		return
	}
	JSON(w, http.StatusOK, visitorCountResponse{Count: n})
}

// RecordVisit increments the counter at most once per calendar day per browser.
func (h *VisitorHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	today := now.Format(visitDateLayout)

	if c, err := r.Cookie(visitedTodayCookie); err == nil && c.Value == today {
		h.GetCount(w, r)
		return
	}

	n, err := h.repo.IncrementVisitorCount(r.Context())
	if err != nil {
		slog.Error("Failed to increment visitor count", "error", err)
		Error(w, http.StatusInternalServerError, "failed to record visit")
		return
	}

	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	http.SetCookie(w, &http.Cookie{
		Name:     visitedTodayCookie,
		Value:    today,
		Path:     "/",
		Expires:  midnight,
		HttpOnly: true,
		Secure:   !h.isDev,
		SameSite: http.SameSiteLaxMode,
	})
	JSON(w, http.StatusOK, visitorCountResponse{Count: n, Counted: true})
}
