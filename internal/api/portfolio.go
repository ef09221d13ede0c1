package api

import (
	"log/slog"
	"net/http"

	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
	"github.com/ashureev/portfolio/internal/skills"
	"github.com/go-chi/chi/v5"
)

// PortfolioHandler serves the content snapshot and the views derived from it.
type PortfolioHandler struct {
	*Handler
}

// NewPortfolioHandler creates a portfolio handler.
func NewPortfolioHandler(base *Handler) *PortfolioHandler {
	return &PortfolioHandler{Handler: base}
}

// RegisterRoutes registers portfolio routes.
func (h *PortfolioHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/portfolio", func(r chi.Router) {
		r.Get("/", h.GetPortfolio)
		r.Get("/skills", h.GetSkills)
		r.Get("/sections/{section}", h.GetSection)
		r.Get("/links", h.GetLinks)
	})
}

// GetPortfolio returns the whole snapshot.
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	state := h.content.Load(r.Context())
	if state.Error != nil {
		Error(w, http.StatusServiceUnavailable, content.UnavailableMessage)
		return
	}
	JSON(w, http.StatusOK, state.Data)
}

// GetSkills returns a skill frequency table. The view query parameter selects
// combined (default), experience or works.
func (h *PortfolioHandler) GetSkills(w http.ResponseWriter, r *http.Request) {
	snap, err := h.content.Fetch(r.Context())
	if err != nil {
		Error(w, http.StatusServiceUnavailable, content.ViewError(content.ViewSkills))
		return
	}

	view := skills.ParseView(r.URL.Query().Get("view"))
	table := skills.ForSnapshot(snap, view)
	if table == nil {
		table = []domain.SkillFrequency{}
	}
	JSON(w, http.StatusOK, table)
}

// GetSection returns one section rendered as assistant context text.
func (h *PortfolioHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, ok := domain.ParseSection(chi.URLParam(r, "section"))
	if !ok {
		Error(w, http.StatusNotFound, "unknown section")
		return
	}

	snap, err := h.content.Fetch(r.Context())
	if err != nil {
		Error(w, http.StatusServiceUnavailable, content.UnavailableMessage)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(grounding.FormatSection(snap, section))); err != nil {
		slog.Debug("Failed to write section", "section", section, "error", err)
	}
}

// GetLinks returns every link in the snapshot grouped by kind.
func (h *PortfolioHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	snap, err := h.content.Fetch(r.Context())
	if err != nil {
		Error(w, http.StatusServiceUnavailable, content.UnavailableMessage)
		return
	}
	JSON(w, http.StatusOK, grounding.ExtractLinks(snap))
}
