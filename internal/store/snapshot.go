package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/conclave/internal/model"
)

// Snapshot is the full content of a store in storage order.
type Snapshot struct {
	Agents      []*model.Agent      `json:"agents"`
	Meetings    []*model.Meeting    `json:"meetings"`
	Chats       []*model.Chat       `json:"chats"`
	Memberships []*model.Membership `json:"memberships"`
}

func scanMembership(row scanner) (*model.Membership, error) {
	var m model.Membership
	var created int64
	if err := row.Scan(&m.AgentID, &m.MeetingID, &created); err != nil {
		return nil, err
	}
	m.CreatedAt = fromNanos(created)
	return &m, nil
}

func listChats(ctx context.Context, q querier) ([]*model.Chat, error) {
	return queryList(ctx, q, scanChat,
		"SELECT "+chatColumns+" FROM chat c ORDER BY c.created_at ASC, c.rowid ASC")
}

func listMemberships(ctx context.Context, q querier) ([]*model.Membership, error) {
	return queryList(ctx, q, scanMembership, `
		SELECT agent_id, meeting_id, created_at
		FROM agents_by_meeting
		ORDER BY created_at ASC, rowid ASC
	`)
}

// readSnapshot reads every table inside one read transaction so the
// snapshot is consistent.
func readSnapshot(ctx context.Context, db *sql.DB) (Snapshot, error) {
	var snap Snapshot
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return snap, classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if snap.Agents, err = listAgents(ctx, tx); err != nil {
		return snap, fmt.Errorf("snapshot agents: %w", err)
	}
	if snap.Meetings, err = listMeetings(ctx, tx); err != nil {
		return snap, fmt.Errorf("snapshot meetings: %w", err)
	}
	if snap.Chats, err = listChats(ctx, tx); err != nil {
		return snap, fmt.Errorf("snapshot chats: %w", err)
	}
	if snap.Memberships, err = listMemberships(ctx, tx); err != nil {
		return snap, fmt.Errorf("snapshot memberships: %w", err)
	}
	return snap, nil
}

// Snapshot returns every record in the store.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	return readSnapshot(ctx, s.db)
}

// Snapshot returns every record in the session's store.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return read(ctx, s, func(ctx context.Context, _ querier) (Snapshot, error) {
		return readSnapshot(ctx, s.store.db)
	})
}

// MarshalSnapshot renders snap as indented JSON with a trailing newline.
// HTML escaping is disabled so chat content is written verbatim.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
