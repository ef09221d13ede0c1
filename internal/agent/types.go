// Package agent implements the portfolio assistant: the gateway to the language
// model backend, the per-visitor conversation state machine, and its HTTP and
// WebSocket transports.
package agent

import (
	"github.com/ashureev/portfolio/internal/domain"
)

// State is the lifecycle of one visitor's assistant.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateSending       State = "sending"
	StateError         State = "error"
)

// ChatRequest is the body of POST /api/agent/chat and of a WebSocket "chat" frame.
type ChatRequest struct {
	Message string `json:"message"`
}

// SessionView is what the transports report about a visitor's conversation.
type SessionView struct {
	State       State                `json:"state"`
	Session     *domain.ChatSession  `json:"session,omitempty"`
	Stats       *domain.SessionStats `json:"stats,omitempty"`
	MaxMessages int                  `json:"maxMessages"`
	Restored    bool                 `json:"restored,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Reply is the outcome of one successful turn.
type Reply struct {
	UserMessage      domain.ChatMessage  `json:"userMessage"`
	AssistantMessage domain.ChatMessage  `json:"assistantMessage"`
	Stats            domain.SessionStats `json:"stats"`
	ToolsUsed        []string            `json:"toolsUsed,omitempty"`
}

// fragmentEvent is the payload of an SSE "message" event.
type fragmentEvent struct {
	Text string `json:"text"`
}

// errorEvent is the payload of an SSE "error" event.
type errorEvent struct {
	Error string `json:"error"`
}
