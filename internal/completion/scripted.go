package completion

import (
	"context"
	"fmt"
	"sync"
)

// Scripted answers from a queue of canned JSON replies, in order. Each reply
// is validated against the request's schema exactly like a provider reply.
// It records every request it receives.
//
// Thread-safety: safe for concurrent use; concurrent callers consume replies
// in arrival order.
type Scripted struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	requests []Request
}

// NewScripted creates a completer that answers with replies in order.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: append([]string(nil), replies...)}
}

// WithFallback sets the reply used once the queue is empty. Without one, an
// empty queue fails with ErrScriptExhausted.
func (s *Scripted) WithFallback(reply string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = reply
	return s
}

// Push appends replies to the queue.
func (s *Scripted) Push(replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Complete implements Completer.
func (s *Scripted) Complete(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	var raw string
	switch {
	case len(s.replies) > 0:
		raw = s.replies[0]
		s.replies = s.replies[1:]
	case s.fallback != "":
		raw = s.fallback
	default:
		n := len(s.requests)
		s.mu.Unlock()
		return Result{}, fmt.Errorf("request %d: %w", n, ErrScriptExhausted)
	}
	s.mu.Unlock()

	res, err := req.Schema.Validate([]byte(raw))
	if err != nil {
		return Result{}, &ResponseError{Provider: "scripted", Raw: raw, Err: err}
	}
	return res, nil
}

// Requests returns the requests received so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Remaining returns how many queued replies are left.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}
