package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/portfolio/internal/identity"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// HandlerConfig tunes request limits.
type HandlerConfig struct {
	RequestsPerWindow  int
	WindowDuration     time.Duration
	MaxRequestBodySize int64
}

// Handler serves the assistant HTTP API.
type Handler struct {
	service     *Service
	rateLimiter *RateLimiter
	maxBody     int64
	log         ConversationLogger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *Service, cfg HandlerConfig, conversationLogger ConversationLogger) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = 10
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = time.Minute
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	return &Handler{
		service:     service,
		rateLimiter: NewRateLimiter(cfg.RequestsPerWindow, cfg.WindowDuration),
		maxBody:     cfg.MaxRequestBodySize,
		log:         conversationLogger,
	}
}

// RegisterRoutes registers the assistant routes. The identity middleware must
// run first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/agent", func(r chi.Router) {
		r.Post("/session", h.HandleOpen)
		r.Get("/session", h.HandleStatus)
		r.Delete("/session", h.HandleReset)
		r.Post("/chat", h.HandleChat)
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Close()
	if err := h.log.Close(); err != nil {
		slog.Warn("failed to close conversation logger", "error", err)
	}
}

// HandleOpen handles POST /api/agent/session.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.service.Open(r.Context(), visitorID)
	if err != nil {
		if view == nil {
			writeError(w, statusFor(err), UserMessage(err))
			return
		}
		writeJSON(w, statusFor(err), view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStatus handles GET /api/agent/session.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, h.service.Status(r.Context(), visitorID))
}

// HandleReset handles DELETE /api/agent/session.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.Reset(r.Context(), visitorID); err != nil {
		writeError(w, statusFor(err), UserMessage(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChat handles POST /api/agent/chat. The reply streams as SSE "message"
// events followed by one "done" event; a failure after streaming started is
// sent as an "error" event.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !h.rateLimiter.Allow(visitorID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	slog.Info("Agent chat request", "visitor_id", visitorID, "message_length", len(req.Message))
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		VisitorID:  visitorID,
		SessionID:  h.sessionID(r, visitorID),
		Channel:    "chat_http",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Message,
		Meta:       map[string]any{"request_id": reqID},
	})

	started := false
	writeFailed := false
	emit := func(fragment string) {
		if writeFailed {
			return
		}
		if !started {
			startSSE(w)
			started = true
		}
		if err := writeSSEJSON(w, "message", fragmentEvent{Text: fragment}); err != nil {
			slog.Warn("failed to write SSE message event", "error", err)
			writeFailed = true
			return
		}
		flusher.Flush()
	}

	reply, err := h.service.Send(r.Context(), visitorID, req.Message, emit)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		if !started {
			writeError(w, statusFor(err), UserMessage(err))
			return
		}
		if writeErr := writeSSEJSON(w, "error", errorEvent{Error: UserMessage(err)}); writeErr != nil {
			slog.Warn("failed to write SSE error event", "error", writeErr)
		}
		flusher.Flush()
		return
	}

	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		VisitorID:  visitorID,
		SessionID:  h.sessionID(r, visitorID),
		Channel:    "chat_http",
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: reply.AssistantMessage.Text,
		Meta: map[string]any{
			"request_id": reqID,
			"tools_used": reply.ToolsUsed,
		},
	})

	if !started {
		startSSE(w)
	}
	if err := writeSSEJSON(w, "done", reply); err != nil {
		slog.Warn("failed to write SSE done event", "error", err)
		return
	}
	flusher.Flush()
}

func (h *Handler) sessionID(r *http.Request, visitorID string) string {
	if view := h.service.Status(r.Context(), visitorID); view.Session != nil {
		return view.Session.ID
	}
	return "none"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrNotReady), errors.Is(err, ErrLimitReached):
		return http.StatusConflict
	case errors.Is(err, ErrCredentialMissing), errors.Is(err, ErrContentUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func startSSE(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func writeSSEJSON(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return writeSSE(w, event, string(data))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEvent{Error: msg})
}
