package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/conclave/internal/model"
)

// maxSuffixAttempts bounds how many suffixes are drawn for one agent name
// before giving up with ErrUniqueViolation.
const maxSuffixAttempts = 16

// Create persists a new record and returns it once committed.
//
// A missing primary key is generated, unset fields receive their defaults
// (creation time from the session clock, agent model and temperature), and
// an agent's display name receives a suffix not yet used in the store. The
// insert commits before Create returns, so a fresh reader of the same store
// observes the record.
//
// Errors wrap ErrUniqueViolation, ErrReferentialViolation or
// ErrStoreUnavailable. They are not retried.
func Create[T model.Record](ctx context.Context, s *Session, rec T) (T, error) {
	restore := snapshotRecord(rec)
	err := s.do(ctx, func(ctx context.Context, db *sql.DB) error {
		err := inTx(ctx, db, func(tx *sql.Tx) error {
			return s.insert(ctx, tx, rec)
		})
		if err != nil {
			return err
		}
		s.mirrorCreated(rec, collectionKey{})
		return nil
	})
	if err != nil {
		restore()
		var zero T
		return zero, fmt.Errorf("create %s: %w", rec.Descriptor().Name, err)
	}

	s.logger.Debug("record created", "table", rec.Descriptor().Name, "key", rec.Key())
	return rec, nil
}

// insert writes rec inside the caller's transaction. It fills the key and
// defaults in place; callers restore rec with snapshotRecord on failure.
func (s *Session) insert(ctx context.Context, q querier, rec model.Record) error {
	t := rec.Descriptor()

	if t.KeyColumn() != "" && rec.Key() == "" {
		rec.SetKey(s.ids.Generate())
	}
	rec.ApplyDefaults(s.clock.Now())

	if sx, ok := rec.(model.Suffixed); ok {
		if err := s.assignSuffix(ctx, q, sx); err != nil {
			return err
		}
	}

	if _, err := q.ExecContext(ctx, insertSQL(t), rec.Values()...); err != nil {
		return classify(err)
	}
	return nil
}

// assignSuffix draws name suffixes until the display name is unused.
func (s *Session) assignSuffix(ctx context.Context, q querier, rec model.Suffixed) error {
	t := rec.Descriptor()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", t.Name, rec.NameColumn())

	for i := 0; i < maxSuffixAttempts; i++ {
		rec.ApplySuffix(s.suffix())

		var count int
		if err := q.QueryRowContext(ctx, query, rec.DisplayName()).Scan(&count); err != nil {
			return classify(fmt.Errorf("check name: %w", err))
		}
		if count == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: no free name suffix for %q after %d attempts",
		ErrUniqueViolation, rec.DisplayName(), maxSuffixAttempts)
}

// setChatRef points a chat's foreign key column at target.
// Returns ErrNotFound if the chat does not exist.
func setChatRef(ctx context.Context, q querier, chatID, column, target string) error {
	result, err := q.ExecContext(ctx,
		fmt.Sprintf("UPDATE chat SET %s = ? WHERE chat_id = ?", column),
		target, chatID,
	)
	if err != nil {
		return classify(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classify(fmt.Errorf("rows affected: %w", err))
	}
	if rows == 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	return nil
}

// joinMeeting inserts the membership of agentID in meetingID.
// Uses ON CONFLICT DO NOTHING: a repeated join writes no second row.
// Returns whether a new row was inserted.
func (s *Session) joinMeeting(ctx context.Context, q querier, agentID, meetingID string) (bool, error) {
	m := &model.Membership{AgentID: agentID, MeetingID: meetingID}
	m.ApplyDefaults(s.clock.Now())

	result, err := q.ExecContext(ctx, insertSQL(model.MembershipTable)+`
		ON CONFLICT(agent_id, meeting_id) DO NOTHING`,
		m.Values()...,
	)
	if err != nil {
		return false, classify(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, classify(fmt.Errorf("rows affected: %w", err))
	}
	return rows > 0, nil
}

// snapshotRecord captures rec and returns a func that puts it back, undoing
// the key, defaults, suffix and relationship fields a failed write filled in.
func snapshotRecord(rec model.Record) func() {
	switch r := rec.(type) {
	case *model.Agent:
		before := *r
		return func() { *r = before }
	case *model.Meeting:
		before := *r
		return func() { *r = before }
	case *model.Chat:
		before := *r
		return func() { *r = before }
	case *model.Membership:
		before := *r
		return func() { *r = before }
	}
	key := rec.Key()
	return func() { rec.SetKey(key) }
}

// errNoKey reports an attempt to use an unsaved record as a relationship owner.
var errNoKey = errors.New("owner has not been persisted")
