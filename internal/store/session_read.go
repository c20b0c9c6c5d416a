package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/conclave/internal/model"
)

// read runs a query through the session writer and returns its value.
func read[T any](ctx context.Context, s *Session, fn func(ctx context.Context, q querier) (T, error)) (T, error) {
	var out T
	err := s.do(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		out, err = fn(ctx, db)
		return err
	})
	return out, err
}

// Agent loads an agent by primary key.
func (s *Session) Agent(ctx context.Context, id string) (*model.Agent, error) {
	return read(ctx, s, func(ctx context.Context, q querier) (*model.Agent, error) {
		return loadAgent(ctx, q, id)
	})
}

// Meeting loads a meeting by primary key.
func (s *Session) Meeting(ctx context.Context, id string) (*model.Meeting, error) {
	return read(ctx, s, func(ctx context.Context, q querier) (*model.Meeting, error) {
		return loadMeeting(ctx, q, id)
	})
}

// Chat loads a chat by primary key.
func (s *Session) Chat(ctx context.Context, id string) (*model.Chat, error) {
	return read(ctx, s, func(ctx context.Context, q querier) (*model.Chat, error) {
		return loadChat(ctx, q, id)
	})
}

// History returns an agent's conversation history in ascending creation
// order, relabeled from the agent's point of view.
func (s *Session) History(ctx context.Context, agentID string) ([]model.Message, error) {
	entries, err := read(ctx, s, func(ctx context.Context, q querier) ([]model.AuthoredChat, error) {
		return listHistory(ctx, q, agentID)
	})
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", agentID, err)
	}
	return model.Relabel(agentID, entries), nil
}

// Transcript returns a meeting's chats with their authors, oldest first.
func (s *Session) Transcript(ctx context.Context, meetingID string) ([]model.AuthoredChat, error) {
	return read(ctx, s, func(ctx context.Context, q querier) ([]model.AuthoredChat, error) {
		return listTranscript(ctx, q, meetingID)
	})
}

// CountMemberships returns how many join rows link agentID and meetingID.
func (s *Session) CountMemberships(ctx context.Context, agentID, meetingID string) (int, error) {
	return read(ctx, s, func(ctx context.Context, q querier) (int, error) {
		return countMemberships(ctx, q, agentID, meetingID)
	})
}
