package agent

import (
	"context"
	"iter"
)

// ToolCall is a backend request to resolve a function locally.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the local answer to a ToolCall.
type ToolResult struct {
	ID     string
	Name   string
	Result SectionResult
}

// Fragment is one element of a streamed reply: text, a tool call, or both.
type Fragment struct {
	Text      string
	ToolCalls []ToolCall
}

// Conversation is one open multi-turn exchange with the backend.
// A stream is finite and cannot be restarted.
type Conversation interface {
	Send(ctx context.Context, text string) iter.Seq2[Fragment, error]
	SendToolResults(ctx context.Context, results []ToolResult) iter.Seq2[Fragment, error]
}

// Backend opens conversations primed with a grounding preamble and the
// assistant's greeting.
type Backend interface {
	Open(ctx context.Context, preamble, greeting string) (Conversation, error)
}
