package completion

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/roach88/conclave/internal/model"
)

// OpenAI completes through the Chat Completions API in JSON-object mode.
// The API key is read from OPENAI_API_KEY unless given as an option.
type OpenAI struct {
	client    *openai.Client
	maxTokens int64
}

// NewOpenAI creates an OpenAI completer. The SDK's own retries are disabled;
// retrying is governed by RetryPolicy.
func NewOpenAI(maxTokens int64, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, maxTokens: maxTokens}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, req Request) (Result, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    openAIMessages(withInstructions(req)),
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if n := maxTokens(req, o.maxTokens); n > 0 {
		params.MaxCompletionTokens = openai.Int(n)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Result{}, transportError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, &ResponseError{Provider: "openai", Err: errors.New("no choices returned")}
	}

	raw := resp.Choices[0].Message.Content
	res, err := req.Schema.Validate(extractJSON(raw))
	if err != nil {
		return Result{}, &ResponseError{Provider: "openai", Raw: raw, Err: err}
	}
	return res, nil
}

func openAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func maxTokens(req Request, fallback int64) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
