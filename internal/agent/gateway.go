package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
)

// toolRoundSeparator joins the first reply and the reply after tool results.
const toolRoundSeparator = "\n\n"

// Gateway mediates between a visitor's conversation and the backend.
type Gateway struct {
	backend Backend
	now     func() time.Time
	logger  *slog.Logger
}

// NewGateway creates a gateway. A nil backend means no credential is configured.
func NewGateway(backend Backend, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{backend: backend, now: time.Now, logger: logger}
}

// Enabled reports whether a backend is configured.
func (g *Gateway) Enabled() bool {
	return g.backend != nil
}

// CreateSession opens a backend conversation grounded on snap.
func (g *Gateway) CreateSession(ctx context.Context, snap *domain.ContentSnapshot) (Conversation, error) {
	if g.backend == nil {
		return nil, ErrCredentialMissing
	}
	if snap == nil {
		return nil, ErrContentUnavailable
	}

	conv, err := g.backend.Open(ctx, grounding.Preamble(snap, g.now()), grounding.Greeting(snap))
	if err != nil {
		return nil, fmt.Errorf("%w: open conversation: %w", ErrBackend, err)
	}
	return conv, nil
}

// StreamStats is filled in by Stream as it runs.
type StreamStats struct {
	Fragments int
	ToolsUsed []string
}

// Stream submits text and yields the reply as text fragments.
//
// If the first reply requests portfolio sections, they are resolved against
// snap and sent back for exactly one more round, whose text follows a blank
// line. Tool requests in that second round are ignored. When ctx ends the
// sequence stops without an error.
func (g *Gateway) Stream(ctx context.Context, conv Conversation, text string, snap *domain.ContentSnapshot, stats *StreamStats) iter.Seq2[string, error] {
	if stats == nil {
		stats = &StreamStats{}
	}
	return func(yield func(string, error) bool) {
		if conv == nil {
			yield("", ErrNotReady)
			return
		}

		var calls []ToolCall
		ok := g.consume(ctx, conv.Send(ctx, text), stats, yield, func(tc []ToolCall) {
			calls = append(calls, tc...)
		})
		if !ok || len(calls) == 0 {
			return
		}

		results := g.resolve(calls, snap)
		for _, r := range results {
			if r.Name == ToolPortfolioContext {
				stats.ToolsUsed = append(stats.ToolsUsed, r.Name)
			}
		}

		if !yield(toolRoundSeparator, nil) {
			return
		}
		g.consume(ctx, conv.SendToolResults(ctx, results), stats, yield, func(tc []ToolCall) {
			g.logger.Warn("Ignoring tool calls after the tool round", "count", len(tc), "name", tc[0].Name)
		})
	}
}

// consume forwards text fragments to yield and tool calls to onCalls. It
// returns false when iteration must stop.
func (g *Gateway) consume(ctx context.Context, seq iter.Seq2[Fragment, error], stats *StreamStats,
	yield func(string, error) bool, onCalls func([]ToolCall)) bool {
	for frag, err := range seq {
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			yield("", fmt.Errorf("%w: %w", ErrBackend, err))
			return false
		}
		if len(frag.ToolCalls) > 0 {
			onCalls(frag.ToolCalls)
		}
		if frag.Text == "" {
			continue
		}
		stats.Fragments++
		if !yield(frag.Text, nil) {
			return false
		}
	}
	return ctx.Err() == nil
}

// resolve answers every call, so the backend history never ends on an
// unanswered function call.
func (g *Gateway) resolve(calls []ToolCall, snap *domain.ContentSnapshot) []ToolResult {
	if snap == nil {
		g.logger.Warn("Tool call without a cached snapshot", "count", len(calls))
	}
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		var res SectionResult
		if call.Name == ToolPortfolioContext {
			res = ResolveSection(snap, call)
			g.logger.Debug("Resolved tool call", "name", call.Name, "args", call.Args, "success", res.Success)
		} else {
			g.logger.Warn("Unknown tool call", "name", call.Name)
			res = SectionResult{Success: false, Error: errUnknownTool + call.Name}
		}
		results = append(results, ToolResult{ID: call.ID, Name: call.Name, Result: res})
	}
	return results
}

// Send runs Stream to completion and returns the whole reply.
func (g *Gateway) Send(ctx context.Context, conv Conversation, text string, snap *domain.ContentSnapshot) (string, error) {
	return Accumulate(g.Stream(ctx, conv, text, snap, nil))
}

// Accumulate concatenates a fragment sequence, stopping at the first error.
func Accumulate(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
