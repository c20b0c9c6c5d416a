package completion

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/roach88/conclave/internal/model"
)

// defaultAnthropicMaxTokens is required by the Messages API.
const defaultAnthropicMaxTokens = 4096

// Anthropic completes through the Messages API. The schema instructions are
// the system prompt; the answer is the JSON object found in the text blocks
// of the reply.
type Anthropic struct {
	client    *anthropic.Client
	maxTokens int64
}

// NewAnthropic creates an Anthropic completer. The API key is read from
// ANTHROPIC_API_KEY unless given as an option.
func NewAnthropic(maxTokens int64, opts ...option.RequestOption) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Result, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    anthropicMessages(req.Messages),
		MaxTokens:   maxTokens(req, a.maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.Schema.Instructions()}},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Result{}, transportError("anthropic", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	raw := text.String()
	res, err := req.Schema.Validate(extractJSON(raw))
	if err != nil {
		return Result{}, &ResponseError{Provider: "anthropic", Raw: raw, Err: err}
	}
	return res, nil
}

// anthropicMessages converts the history. System-role entries become user
// turns so they keep their position; the API requires the first turn to come
// from the user.
func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs)+1)
	for _, m := range msgs {
		switch m.Role {
		case model.RoleAssistant:
			if len(out) == 0 {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("Begin.")))
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(out) == 0 {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("Begin.")))
	}
	return out
}
