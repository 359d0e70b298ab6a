package stream

import (
	"slices"

	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
)

// Option configures Open and the iterators.
type Option func(*options)

type options struct {
	mode      Mode
	chunkSize int
	wait      bool
	log       *logger.Logger
	metrics   *observability.StreamMetrics
}

func newOptions(opts []Option) *options {
	o := &options{mode: Binary, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.chunkSize <= 0 {
		o.chunkSize = DefaultChunkSize
	}
	if o.log == nil {
		o.log = logger.WithComponent("stream")
	}
	return o
}

// forced appends options that must win over the caller's.
func forced(opts []Option, extra ...Option) []Option {
	return append(slices.Clip(opts), extra...)
}

// WithMode sets binary or text mode. The default is Binary.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithText is shorthand for WithMode(Text).
func WithText() Option {
	return WithMode(Text)
}

// WithWaitForCompletion makes Close block until the producer has returned.
func WithWaitForCompletion(wait bool) Option {
	return func(o *options) { o.wait = wait }
}

// WithChunkSize sets the iterator chunk size: bytes in binary mode,
// characters in text mode.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithLogger sets the logger used for producer failures and stream lifecycle.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records stream instruments.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithConfig applies a loaded Config. An unparseable mode leaves the mode unchanged.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if m, err := ParseMode(cfg.Mode); err == nil {
			o.mode = m
		}
		if cfg.ChunkSize > 0 {
			o.chunkSize = cfg.ChunkSize
		}
		o.wait = cfg.WaitForCompletion
	}
}
