package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/portfolio/internal/identity"
	"github.com/coder/websocket"
)

const wsWriteTimeout = 10 * time.Second

// WebSocketHandler serves the assistant over a WebSocket. Frames on one
// connection are handled in order, so a visitor cannot interleave sends.
type WebSocketHandler struct {
	service       *Service
	rateLimiter   *RateLimiter
	log           ConversationLogger
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the WebSocket handler. It shares the HTTP
// handler's rate limiter and transcript logger.
func NewWebSocketHandler(h *Handler, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		service:       h.service,
		rateLimiter:   h.rateLimiter,
		log:           h.log,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsMessage is both the inbound and outbound frame.
type wsMessage struct {
	Type    string       `json:"type"`
	Message string       `json:"message,omitempty"`
	Text    string       `json:"text,omitempty"`
	Session *SessionView `json:"session,omitempty"`
	Reply   *Reply       `json:"reply,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Frame types.
const (
	wsOpen     = "open"
	wsChat     = "chat"
	wsReset    = "reset"
	wsStatus   = "status"
	wsSession  = "session"
	wsFragment = "fragment"
	wsDone     = "done"
	wsError    = "error"
)

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()

	slog.Info("Assistant WebSocket connected", "visitor_id", visitorID, "ip", identity.IPFromRequest(r))
	h.readLoop(r.Context(), ws, visitorID)
	slog.Info("Assistant WebSocket closed", "visitor_id", visitorID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, visitorID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				slog.Debug("WebSocket closed by client", "visitor_id", visitorID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "visitor_id", visitorID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !h.write(ctx, ws, wsMessage{Type: wsError, Error: "invalid message"}) {
				return
			}
			continue
		}

		if !h.dispatch(ctx, ws, visitorID, msg) {
			return
		}
	}
}

// dispatch handles one frame and reports whether the connection is still usable.
func (h *WebSocketHandler) dispatch(ctx context.Context, ws *websocket.Conn, visitorID string, msg wsMessage) bool {
	switch msg.Type {
	case wsOpen:
		view, err := h.service.Open(ctx, visitorID)
		if view == nil {
			return h.write(ctx, ws, wsMessage{Type: wsError, Error: UserMessage(err)})
		}
		return h.write(ctx, ws, wsMessage{Type: wsSession, Session: view})

	case wsStatus:
		return h.write(ctx, ws, wsMessage{Type: wsSession, Session: h.service.Status(ctx, visitorID)})

	case wsReset:
		if err := h.service.Reset(ctx, visitorID); err != nil {
			return h.write(ctx, ws, wsMessage{Type: wsError, Error: UserMessage(err)})
		}
		return h.write(ctx, ws, wsMessage{Type: wsSession, Session: h.service.Status(ctx, visitorID)})

	case wsChat:
		return h.chat(ctx, ws, visitorID, msg.Message)

	default:
		return h.write(ctx, ws, wsMessage{Type: wsError, Error: "unknown message type"})
	}
}

func (h *WebSocketHandler) chat(ctx context.Context, ws *websocket.Conn, visitorID, text string) bool {
	if !h.rateLimiter.Allow(visitorID) {
		return h.write(ctx, ws, wsMessage{Type: wsError, Error: "rate limit exceeded"})
	}

	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		VisitorID:  visitorID,
		Channel:    "chat_ws",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: text,
	})

	alive := true
	reply, err := h.service.Send(ctx, visitorID, text, func(fragment string) {
		if alive {
			alive = h.write(ctx, ws, wsMessage{Type: wsFragment, Text: fragment})
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		return h.write(ctx, ws, wsMessage{Type: wsError, Error: UserMessage(err)})
	}

	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		VisitorID:  visitorID,
		Channel:    "chat_ws",
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: reply.AssistantMessage.Text,
		Meta:       map[string]any{"tools_used": reply.ToolsUsed},
	})
	return alive && h.write(ctx, ws, wsMessage{Type: wsDone, Reply: reply})
}

func (h *WebSocketHandler) write(ctx context.Context, ws *websocket.Conn, msg wsMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("Failed to marshal WebSocket frame", "error", err)
		return true
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
		return false
	}
	return true
}
