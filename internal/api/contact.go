package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ashureev/portfolio/internal/contact"
	"github.com/ashureev/portfolio/internal/identity"
	"github.com/go-chi/chi/v5"
)

const maxContactBodySize = 64 << 10

// ContactHandler accepts contact form submissions.
type ContactHandler struct {
	service *contact.Service
}

// NewContactHandler creates a contact handler.
func NewContactHandler(service *contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

// RegisterRoutes registers the contact route.
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/contact", h.Submit)
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBodySize)

	var sub contact.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.service.Submit(r.Context(), sub, identity.VisitorIDFromContext(r.Context())); err != nil {
		if contact.IsValidationError(err) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		Error(w, http.StatusInternalServerError, contact.MsgFailed)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": contact.MsgSent})
}
