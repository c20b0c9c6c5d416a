package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/roach88/conclave/internal/model"
)

// Relationship names.
const (
	RelMeetingChats  = "meeting.chats"
	RelMeetingAgents = "meeting.agents"
	RelAgentMeetings = "agent.meetings"
	RelAgentChats    = "agent.chats"
)

type collectionKey struct {
	rel   string
	owner string
}

// Collection is the ordered set of entities related to one owner through one
// relationship.
//
// Append and Extend persist the linkage and commit before the in-memory
// sequence changes; there is no separate save step. A collection is loaded
// from the store on first access and shared by every caller of the session,
// and the inverse side of a many-to-many relationship is kept in step.
//
// A repeated many-to-many Append writes no second join row, but the item
// still appears twice in Items.
type Collection[T model.Record] struct {
	name  string
	owner model.Record
	sess  *Session

	// prepare fills the relationship field of an item that is inserted by
	// Append rather than by Create.
	prepare func(item T)
	link    func(ctx context.Context, tx *sql.Tx, item T) error
	// after runs once the linkage has committed.
	after func(item T)

	mu    sync.Mutex
	items []T
}

// Name returns the relationship name, e.g. "meeting.chats".
func (c *Collection[T]) Name() string {
	return c.name
}

// Owner returns the owning entity.
func (c *Collection[T]) Owner() model.Record {
	return c.owner
}

// Items returns a snapshot of the in-memory sequence.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the length of the in-memory sequence.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Collection[T]) push(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Append links item to the owner and commits.
//
// An item that was never persisted is inserted in the same transaction.
// On failure nothing is linked, the in-memory sequence is unchanged, and an
// item inserted by this call is left exactly as it was passed in. Items
// persisted earlier by Create stay persisted.
//
// The in-memory sequences are updated on the session writer right after the
// commit, so concurrent appends land in commit order.
func (c *Collection[T]) Append(ctx context.Context, item T) error {
	unsaved := item.Descriptor().KeyColumn() != "" && item.Key() == ""
	var restore func()
	if unsaved {
		restore = snapshotRecord(item)
	}

	err := c.sess.do(ctx, func(ctx context.Context, db *sql.DB) error {
		err := inTx(ctx, db, func(tx *sql.Tx) error {
			if unsaved {
				if c.prepare != nil {
					c.prepare(item)
				}
				if err := c.sess.insert(ctx, tx, item); err != nil {
					return err
				}
			}
			return c.link(ctx, tx, item)
		})
		if err != nil {
			return err
		}

		if unsaved {
			c.sess.mirrorCreated(item, collectionKey{c.name, c.owner.Key()})
		}
		c.push(item)
		if c.after != nil {
			c.after(item)
		}
		return nil
	})
	if err != nil {
		if restore != nil {
			restore()
		}
		return fmt.Errorf("append to %s of %s: %w", c.name, c.owner.Key(), err)
	}

	c.sess.logger.Debug("relationship appended",
		"relationship", c.name, "owner", c.owner.Key(), "item", item.Key())
	return nil
}

// Extend appends items one at a time. It stops at the first failure: items
// before it stay linked, and the error names the failing index.
func (c *Collection[T]) Extend(ctx context.Context, items ...T) error {
	for i, item := range items {
		if err := c.Append(ctx, item); err != nil {
			return fmt.Errorf("extend item %d: %w", i, err)
		}
	}
	return nil
}

// cached returns the session's collection for key, or nil.
func cached[T model.Record](s *Session, key collectionKey) *Collection[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[key]; ok {
		return c.(*Collection[T])
	}
	return nil
}

// forget drops a cached collection so the next access reloads it.
func (s *Session) forget(rel, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collectionKey{rel, owner})
}

// mirrorCreated adds a newly created chat to the cached collections of its
// author and meeting, except skip.
func (s *Session) mirrorCreated(rec model.Record, skip collectionKey) {
	chat, ok := rec.(*model.Chat)
	if !ok {
		return
	}
	for _, key := range []collectionKey{{RelAgentChats, chat.AgentID}, {RelMeetingChats, chat.MeetingID}} {
		if key.owner == "" || key == skip {
			continue
		}
		if c := cached[*model.Chat](s, key); c != nil {
			c.push(chat)
		}
	}
}

// bindCollection returns the session's collection for (rel, owner), loading
// it from the store on first access.
func bindCollection[T model.Record](
	ctx context.Context,
	s *Session,
	rel string,
	owner model.Record,
	load func(ctx context.Context, q querier, ownerID string) ([]T, error),
	configure func(c *Collection[T]),
) (*Collection[T], error) {
	if owner.Key() == "" {
		return nil, fmt.Errorf("%s: %w", rel, errNoKey)
	}

	key := collectionKey{rel, owner.Key()}
	if c := cached[T](s, key); c != nil {
		return c, nil
	}

	// Load and register in one writer op, so no commit falls between the
	// load and the first push.
	var c *Collection[T]
	err := s.do(ctx, func(ctx context.Context, db *sql.DB) error {
		if existing := cached[T](s, key); existing != nil {
			c = existing
			return nil
		}
		items, err := load(ctx, db, owner.Key())
		if err != nil {
			return err
		}
		c = &Collection[T]{name: rel, owner: owner, sess: s, items: items}
		configure(c)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.collections[key] = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s of %s: %w", rel, owner.Key(), err)
	}
	return c, nil
}

// MeetingChats returns the chats of meeting m (one-to-many via chat.meeting_id).
func (s *Session) MeetingChats(ctx context.Context, m *model.Meeting) (*Collection[*model.Chat], error) {
	return bindCollection(ctx, s, RelMeetingChats, m, listMeetingChats, func(c *Collection[*model.Chat]) {
		c.prepare = func(chat *model.Chat) { chat.MeetingID = m.ID }
		c.link = func(ctx context.Context, tx *sql.Tx, chat *model.Chat) error {
			return setChatRef(ctx, tx, chat.ID, "meeting_id", m.ID)
		}
		c.after = func(chat *model.Chat) {
			prev := chat.MeetingID
			chat.MeetingID = m.ID
			if prev != "" && prev != m.ID {
				s.forget(RelMeetingChats, prev)
			}
		}
	})
}

// AgentChats returns the chats authored by agent a (one-to-many via chat.agent_id).
func (s *Session) AgentChats(ctx context.Context, a *model.Agent) (*Collection[*model.Chat], error) {
	return bindCollection(ctx, s, RelAgentChats, a, listAgentChats, func(c *Collection[*model.Chat]) {
		c.prepare = func(chat *model.Chat) { chat.AgentID = a.ID }
		c.link = func(ctx context.Context, tx *sql.Tx, chat *model.Chat) error {
			return setChatRef(ctx, tx, chat.ID, "agent_id", a.ID)
		}
		c.after = func(chat *model.Chat) {
			prev := chat.AgentID
			chat.AgentID = a.ID
			if prev != "" && prev != a.ID {
				s.forget(RelAgentChats, prev)
			}
		}
	})
}

// MeetingAgents returns the members of meeting m (many-to-many via agents_by_meeting).
func (s *Session) MeetingAgents(ctx context.Context, m *model.Meeting) (*Collection[*model.Agent], error) {
	return bindCollection(ctx, s, RelMeetingAgents, m, listMeetingAgents, func(c *Collection[*model.Agent]) {
		c.link = func(ctx context.Context, tx *sql.Tx, a *model.Agent) error {
			_, err := s.joinMeeting(ctx, tx, a.ID, m.ID)
			return err
		}
		c.after = func(a *model.Agent) {
			if inv := cached[*model.Meeting](s, collectionKey{RelAgentMeetings, a.ID}); inv != nil {
				inv.push(m)
			}
		}
	})
}

// AgentMeetings returns the meetings agent a belongs to (many-to-many via agents_by_meeting).
func (s *Session) AgentMeetings(ctx context.Context, a *model.Agent) (*Collection[*model.Meeting], error) {
	return bindCollection(ctx, s, RelAgentMeetings, a, listAgentMeetings, func(c *Collection[*model.Meeting]) {
		c.link = func(ctx context.Context, tx *sql.Tx, m *model.Meeting) error {
			_, err := s.joinMeeting(ctx, tx, a.ID, m.ID)
			return err
		}
		c.after = func(m *model.Meeting) {
			if inv := cached[*model.Agent](s, collectionKey{RelMeetingAgents, m.ID}); inv != nil {
				inv.push(a)
			}
		}
	})
}
