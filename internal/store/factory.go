package store

import (
	"context"

	"github.com/roach88/conclave/internal/model"
)

// Factory constructs and persists one entity kind through a bound session.
// F is the kind's field set, T the record it produces.
type Factory[F any, T model.Record] struct {
	sess  *Session
	build func(F) T
}

// Bind pairs a constructor with a session. Every record the factory creates
// is written by that session and is committed when New returns.
func Bind[F any, T model.Record](s *Session, build func(F) T) Factory[F, T] {
	return Factory[F, T]{sess: s, build: build}
}

// New builds a record from fields and persists it.
// On error no record is returned and nothing was written.
func (f Factory[F, T]) New(ctx context.Context, fields F) (T, error) {
	return Create(ctx, f.sess, f.build(fields))
}

// Session returns the bound session.
func (f Factory[F, T]) Session() *Session {
	return f.sess
}

// Factories are the session-bound constructors of every entity kind.
type Factories struct {
	Agent   Factory[model.AgentFields, *model.Agent]
	Meeting Factory[model.MeetingFields, *model.Meeting]
	Chat    Factory[model.ChatFields, *model.Chat]
}

// NewFactories binds a constructor for each entity kind to s.
func NewFactories(s *Session) Factories {
	return Factories{
		Agent:   Bind(s, model.NewAgent),
		Meeting: Bind(s, model.NewMeeting),
		Chat:    Bind(s, model.NewChat),
	}
}
