package store

import (
	"log/slog"

	"github.com/roach88/conclave/internal/model"
)

// Option configures a store or a session.
type Option func(*options)

type options struct {
	registry *model.Registry
	clock    Clock
	ids      IDGenerator
	suffix   func() string
	logger   *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		registry: model.DefaultRegistry(),
		ids:      UUIDv7Generator{},
		suffix:   RandomSuffix,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = NewMonotonicClock()
	}
	return o
}

// WithRegistry replaces the default entity registry.
func WithRegistry(r *model.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithClock sets the clock used for creation timestamps.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator sets the primary key generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithSuffixFunc sets the generator of agent name suffixes.
func WithSuffixFunc(fn func() string) Option {
	return func(o *options) { o.suffix = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
