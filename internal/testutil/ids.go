package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates deterministic UUID-shaped keys in sequence:
// 00000000-0000-7000-8000-000000000001, ...000002, and so on.
//
// Satisfies store.IDGenerator. The same scenario with the same generator
// produces byte-identical stores and transcripts.
//
// Thread-safety: safe for concurrent use.
type SequenceGenerator struct {
	mu sync.Mutex
	n  int
}

// NewSequenceGenerator creates a generator whose first key ends in 1.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Generate returns the next key.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}

// SuffixSequence returns a name-suffix function that yields suffixes in
// order and then repeats the last one. With no suffixes it yields "0000".
func SuffixSequence(suffixes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(suffixes) == 0 {
			return "0000"
		}
		s := suffixes[min(i, len(suffixes)-1)]
		i++
		return s
	}
}

// CountingSuffix returns a name-suffix function yielding "0001", "0002", ...
func CountingSuffix() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%04d", n)
	}
}
