package archive

import (
	"io/fs"

	"github.com/kbukum/pullpipe/logger"
)

// Filter decides whether an entry is included. rel is slash separated and
// relative to the archive root. Returning false for a directory skips it
// entirely.
type Filter func(rel string, d fs.DirEntry) bool

// Option configures an archive producer.
type Option func(*options)

type options struct {
	prefix string
	filter Filter
	log    *logger.Logger
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("archive")
	}
	return o
}

// WithPrefix places every entry under prefix inside the archive.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithFilter restricts the archived entries.
func WithFilter(f Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}
