package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/conclave/internal/model"
)

// All list queries order by creation time, then insertion order (rowid), so
// results are identical across reads and replays.

const (
	agentColumns   = "a.agent_id, a.agent_name, a.base_name, a.agent_backstory, a.model, a.temperature, a.created_at"
	meetingColumns = "m.meeting_id, m.meeting_name, m.created_at"
	chatColumns    = "c.chat_id, c.agent_id, c.meeting_id, c.content, c.created_at"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func scanAgent(row scanner) (*model.Agent, error) {
	var a model.Agent
	var backstory sql.NullString
	var created int64
	if err := row.Scan(&a.ID, &a.Name, &a.BaseName, &backstory, &a.Model, &a.Temperature, &created); err != nil {
		return nil, err
	}
	a.Backstory = backstory.String
	a.CreatedAt = fromNanos(created)
	return &a, nil
}

func scanMeeting(row scanner) (*model.Meeting, error) {
	var m model.Meeting
	var created int64
	if err := row.Scan(&m.ID, &m.Name, &created); err != nil {
		return nil, err
	}
	m.CreatedAt = fromNanos(created)
	return &m, nil
}

func scanChat(row scanner) (*model.Chat, error) {
	var c model.Chat
	var meetingID, content sql.NullString
	var created int64
	if err := row.Scan(&c.ID, &c.AgentID, &meetingID, &content, &created); err != nil {
		return nil, err
	}
	c.MeetingID = meetingID.String
	c.Content = content.String
	c.CreatedAt = fromNanos(created)
	return &c, nil
}

// queryList runs query and scans every row with scan.
// Returns an empty slice (not nil) when no rows match.
func queryList[T any](ctx context.Context, q querier, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, classify(fmt.Errorf("scan: %w", err))
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate: %w", err))
	}
	return out, nil
}

// queryOne runs query and scans its single row.
// Returns ErrNotFound if there is no row.
func queryOne[T any](ctx context.Context, q querier, scan func(scanner) (T, error), what, query string, args ...any) (T, error) {
	item, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		var zero T
		return zero, classify(fmt.Errorf("%s: %w", what, err))
	}
	return item, nil
}

func loadAgent(ctx context.Context, q querier, id string) (*model.Agent, error) {
	return queryOne(ctx, q, scanAgent, "agent "+id,
		"SELECT "+agentColumns+" FROM agent a WHERE a.agent_id = ?", id)
}

func loadMeeting(ctx context.Context, q querier, id string) (*model.Meeting, error) {
	return queryOne(ctx, q, scanMeeting, "meeting "+id,
		"SELECT "+meetingColumns+" FROM meeting m WHERE m.meeting_id = ?", id)
}

func loadChat(ctx context.Context, q querier, id string) (*model.Chat, error) {
	return queryOne(ctx, q, scanChat, "chat "+id,
		"SELECT "+chatColumns+" FROM chat c WHERE c.chat_id = ?", id)
}

func listAgents(ctx context.Context, q querier) ([]*model.Agent, error) {
	return queryList(ctx, q, scanAgent,
		"SELECT "+agentColumns+" FROM agent a ORDER BY a.created_at ASC, a.rowid ASC")
}

func listMeetings(ctx context.Context, q querier) ([]*model.Meeting, error) {
	return queryList(ctx, q, scanMeeting,
		"SELECT "+meetingColumns+" FROM meeting m ORDER BY m.created_at ASC, m.rowid ASC")
}

func listMeetingChats(ctx context.Context, q querier, meetingID string) ([]*model.Chat, error) {
	return queryList(ctx, q, scanChat, `
		SELECT `+chatColumns+`
		FROM chat c
		WHERE c.meeting_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC
	`, meetingID)
}

func listAgentChats(ctx context.Context, q querier, agentID string) ([]*model.Chat, error) {
	return queryList(ctx, q, scanChat, `
		SELECT `+chatColumns+`
		FROM chat c
		WHERE c.agent_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC
	`, agentID)
}

func listMeetingAgents(ctx context.Context, q querier, meetingID string) ([]*model.Agent, error) {
	return queryList(ctx, q, scanAgent, `
		SELECT `+agentColumns+`
		FROM agent a
		JOIN agents_by_meeting j ON j.agent_id = a.agent_id
		WHERE j.meeting_id = ?
		ORDER BY j.created_at ASC, j.rowid ASC
	`, meetingID)
}

func listAgentMeetings(ctx context.Context, q querier, agentID string) ([]*model.Meeting, error) {
	return queryList(ctx, q, scanMeeting, `
		SELECT `+meetingColumns+`
		FROM meeting m
		JOIN agents_by_meeting j ON j.meeting_id = m.meeting_id
		WHERE j.agent_id = ?
		ORDER BY j.created_at ASC, j.rowid ASC
	`, agentID)
}

func scanAuthoredChat(row scanner) (model.AuthoredChat, error) {
	var e model.AuthoredChat
	var meetingID, content, backstory sql.NullString
	var chatCreated, agentCreated int64
	if err := row.Scan(
		&e.Chat.ID, &e.Chat.AgentID, &meetingID, &content, &chatCreated,
		&e.Author.ID, &e.Author.Name, &e.Author.BaseName, &backstory,
		&e.Author.Model, &e.Author.Temperature, &agentCreated,
	); err != nil {
		return model.AuthoredChat{}, err
	}
	e.Chat.MeetingID = meetingID.String
	e.Chat.Content = content.String
	e.Chat.CreatedAt = fromNanos(chatCreated)
	e.Author.Backstory = backstory.String
	e.Author.CreatedAt = fromNanos(agentCreated)
	return e, nil
}

// listHistory returns every chat of every meeting agentID belongs to, with
// its author, in history order.
func listHistory(ctx context.Context, q querier, agentID string) ([]model.AuthoredChat, error) {
	return queryList(ctx, q, scanAuthoredChat, `
		SELECT `+chatColumns+`, `+agentColumns+`
		FROM chat c
		JOIN agents_by_meeting j ON j.meeting_id = c.meeting_id
		JOIN agent a ON a.agent_id = c.agent_id
		WHERE j.agent_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC
	`, agentID)
}

// listTranscript returns the chats of one meeting with their authors.
func listTranscript(ctx context.Context, q querier, meetingID string) ([]model.AuthoredChat, error) {
	return queryList(ctx, q, scanAuthoredChat, `
		SELECT `+chatColumns+`, `+agentColumns+`
		FROM chat c
		JOIN agent a ON a.agent_id = c.agent_id
		WHERE c.meeting_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC
	`, meetingID)
}

func countMemberships(ctx context.Context, q querier, agentID, meetingID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM agents_by_meeting
		WHERE agent_id = ? AND meeting_id = ?
	`, agentID, meetingID).Scan(&count)
	if err != nil {
		return 0, classify(fmt.Errorf("count memberships: %w", err))
	}
	return count, nil
}

// Agent loads an agent by primary key.
func (s *Store) Agent(ctx context.Context, id string) (*model.Agent, error) {
	return loadAgent(ctx, s.db, id)
}

// Meeting loads a meeting by primary key.
func (s *Store) Meeting(ctx context.Context, id string) (*model.Meeting, error) {
	return loadMeeting(ctx, s.db, id)
}

// Chat loads a chat by primary key.
func (s *Store) Chat(ctx context.Context, id string) (*model.Chat, error) {
	return loadChat(ctx, s.db, id)
}

// Agents returns every agent in creation order.
func (s *Store) Agents(ctx context.Context) ([]*model.Agent, error) {
	return listAgents(ctx, s.db)
}

// Meetings returns every meeting in creation order.
func (s *Store) Meetings(ctx context.Context) ([]*model.Meeting, error) {
	return listMeetings(ctx, s.db)
}

// MeetingChats returns the chats linked to a meeting in history order.
func (s *Store) MeetingChats(ctx context.Context, meetingID string) ([]*model.Chat, error) {
	return listMeetingChats(ctx, s.db, meetingID)
}

// MeetingAgents returns the members of a meeting in join order.
func (s *Store) MeetingAgents(ctx context.Context, meetingID string) ([]*model.Agent, error) {
	return listMeetingAgents(ctx, s.db, meetingID)
}

// AgentMeetings returns the meetings an agent belongs to in join order.
func (s *Store) AgentMeetings(ctx context.Context, agentID string) ([]*model.Meeting, error) {
	return listAgentMeetings(ctx, s.db, agentID)
}

// History returns an agent's conversation history: the chats of every
// meeting the agent belongs to, oldest first, relabeled from its point of view.
func (s *Store) History(ctx context.Context, agentID string) ([]model.Message, error) {
	entries, err := listHistory(ctx, s.db, agentID)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", agentID, err)
	}
	return model.Relabel(agentID, entries), nil
}

// Transcript returns a meeting's chats with their authors, oldest first.
func (s *Store) Transcript(ctx context.Context, meetingID string) ([]model.AuthoredChat, error) {
	return listTranscript(ctx, s.db, meetingID)
}

// CountMemberships returns how many join rows link agentID and meetingID.
func (s *Store) CountMemberships(ctx context.Context, agentID, meetingID string) (int, error) {
	return countMemberships(ctx, s.db, agentID, meetingID)
}
