package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// deterministicOptions returns options that make keys, timestamps and name
// suffixes reproducible.
func deterministicOptions() []Option {
	return []Option{
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequenceGenerator()),
		WithSuffixFunc(testutil.CountingSuffix()),
	}
}

// createTestSession initializes a store in a temp dir and returns a session
// owning it, plus the database path for reopening.
func createTestSession(t *testing.T, opts ...Option) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	sess, _, err := Initialize(dir, "test", append(deterministicOptions(), opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess, filepath.Join(dir, "test.db")
}

func createTestAgent(t *testing.T, f Factories, name string) *model.Agent {
	t.Helper()
	a, err := f.Agent.New(context.Background(), model.AgentFields{Name: name})
	require.NoError(t, err)
	return a
}

func createTestMeeting(t *testing.T, f Factories, name string) *model.Meeting {
	t.Helper()
	m, err := f.Meeting.New(context.Background(), model.MeetingFields{Name: name})
	require.NoError(t, err)
	return m
}

// reopen opens a fresh store handle on path, independent of any session.
func reopen(t *testing.T, path string) *Store {
	t.Helper()
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func chatIDs(chats []*model.Chat) []string {
	ids := make([]string, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
	}
	return ids
}
