package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiBackend opens conversations on the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiBackend creates a backend. An empty apiKey yields ErrCredentialMissing.
func NewGeminiBackend(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrCredentialMissing
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger.Info("Gemini backend ready", "model", model)
	return &GeminiBackend{client: client, model: model, logger: logger}, nil
}

func portfolioTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        ToolPortfolioContext,
			Description: "Get one section of the portfolio owner's data: personal info, skills, experiences, works, social profiles, intro, contact, or everything.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"section": {
						Type:        genai.TypeString,
						Description: "The portfolio section to retrieve.",
						Enum:        ToolSectionNames(),
					},
				},
				Required: []string{"section"},
			},
		}},
	}
}

// Open starts a chat whose history is the preamble followed by the greeting.
func (b *GeminiBackend) Open(ctx context.Context, preamble, greeting string) (Conversation, error) {
	history := []*genai.Content{
		genai.NewContentFromText(preamble, genai.RoleUser),
		genai.NewContentFromText(greeting, genai.RoleModel),
	}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{portfolioTool()},
	}

	chat, err := b.client.Chats.Create(ctx, b.model, config, history)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &geminiConversation{chat: chat, logger: b.logger}, nil
}

type geminiConversation struct {
	chat   *genai.Chat
	logger *slog.Logger
}

func (c *geminiConversation) Send(ctx context.Context, text string) iter.Seq2[Fragment, error] {
	return c.stream(ctx, *genai.NewPartFromText(text))
}

func (c *geminiConversation) SendToolResults(ctx context.Context, results []ToolResult) iter.Seq2[Fragment, error] {
	parts := make([]genai.Part, 0, len(results))
	for _, r := range results {
		part := genai.NewPartFromFunctionResponse(r.Name, r.Result.Map())
		part.FunctionResponse.ID = r.ID
		parts = append(parts, *part)
	}
	return c.stream(ctx, parts...)
}

func (c *geminiConversation) stream(ctx context.Context, parts ...genai.Part) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		for resp, err := range c.chat.SendMessageStream(ctx, parts...) {
			if err != nil {
				yield(Fragment{}, fmt.Errorf("gemini stream: %w", err))
				return
			}
			frag := fragmentFromResponse(resp)
			if frag.Text == "" && len(frag.ToolCalls) == 0 {
				continue
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

func fragmentFromResponse(resp *genai.GenerateContentResponse) Fragment {
	var frag Fragment
	if resp == nil || len(resp.Candidates) == 0 {
		return frag
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return frag
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		frag.Text += part.Text
		if fc := part.FunctionCall; fc != nil {
			frag.ToolCalls = append(frag.ToolCalls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}
	return frag
}

var _ Backend = (*GeminiBackend)(nil)
