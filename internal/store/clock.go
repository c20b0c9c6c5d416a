package store

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock stamps records with their creation time.
type Clock interface {
	Now() time.Time
}

// MonotonicClock is a UTC wall clock that never returns the same instant
// twice. Creation order and timestamp order therefore agree for every
// record written through one clock.
//
// Thread-safety: safe for concurrent use.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewMonotonicClock creates a clock starting at the current time.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{}
}

// Now returns the current UTC time, or one nanosecond after the previously
// returned instant if the wall clock has not advanced.
func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

// IDGenerator generates primary keys for new records.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 keys.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength   = 4
)

// RandomSuffix returns a random 4-character alphanumeric name suffix.
func RandomSuffix() string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
