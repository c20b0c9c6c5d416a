package completion

import (
	"context"

	"github.com/roach88/conclave/internal/model"
)

// Message is one entry of the history sent to the collaborator.
type Message = model.Message

// Request is one completion call.
type Request struct {
	Messages    []Message
	Schema      Schema
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Completer maps a message history and a response schema to a validated
// structured answer.
type Completer interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (Result, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// withInstructions returns the history prefixed by a system message that
// describes the response schema.
func withInstructions(req Request) []Message {
	out := make([]Message, 0, len(req.Messages)+1)
	out = append(out, Message{Role: model.RoleSystem, Content: req.Schema.Instructions()})
	return append(out, req.Messages...)
}
