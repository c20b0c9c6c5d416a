package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/conclave/internal/model"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// op is one unit of store work executed by the session writer.
type op struct {
	fn     func(ctx context.Context, db *sql.DB) error
	ctx    context.Context
	result chan error
}

// Session is the single owner of store access for one orchestration run.
//
// Every read and write is executed by the session's writer goroutine, one at
// a time, in submission order. Callers block until their operation has run;
// a write has committed by the time its method returns.
//
// Thread-safety model:
//   - all methods are safe from any goroutine
//   - operations never run concurrently against the store
//   - a submitted operation always runs to completion; context cancellation
//     is honoured only while waiting to submit
type Session struct {
	store  *Store
	owned  bool
	clock  Clock
	ids    IDGenerator
	suffix func() string
	logger *slog.Logger

	ops       chan op
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	collections map[collectionKey]any
}

// NewSession starts a session on an open store. The caller keeps ownership
// of st and must close it after closing the session.
func NewSession(st *Store, opts ...Option) *Session {
	return newSession(st, false, opts)
}

func newSession(st *Store, owned bool, opts []Option) *Session {
	o := newOptions(opts)
	s := &Session{
		store:       st,
		owned:       owned,
		clock:       o.clock,
		ids:         o.ids,
		suffix:      o.suffix,
		logger:      o.logger,
		ops:         make(chan op),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		collections: make(map[collectionKey]any),
	}
	go s.run()
	return s
}

// run is the writer loop.
func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case o := <-s.ops:
			// Detach from cancellation: a started commit is never abandoned.
			o.result <- o.fn(context.WithoutCancel(o.ctx), s.store.db)
		case <-s.done:
			return
		}
	}
}

// do submits fn to the writer loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	result := make(chan error, 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	case s.ops <- op{fn: fn, ctx: ctx, result: result}:
	}
	return <-result
}

// inTx runs fn in a transaction and commits it.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Close stops the writer loop. If the session owns its store (Initialize),
// the store is closed too. Close is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		if s.owned {
			err = s.store.Close()
		}
	})
	return err
}

// Store returns the store the session operates on.
func (s *Session) Store() *Store {
	return s.store
}

// Registry returns the schema registry of the session's store.
func (s *Session) Registry() *model.Registry {
	return s.store.registry
}

// Ping verifies the store can still be reached.
func (s *Session) Ping(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context, _ *sql.DB) error {
		return s.store.ping(ctx)
	})
}
