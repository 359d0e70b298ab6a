package conduit

import (
	"errors"
	"io"
	"os"
	"sync"
	"syscall"

	apperrors "github.com/kbukum/pullpipe/errors"
)

// DefaultCapacity is reported when the platform cannot be asked for the pipe size.
const DefaultCapacity = 64 * 1024

// Conduit is a connected read/write pair backed by one os.Pipe.
type Conduit struct {
	r, w *os.File

	rOnce, wOnce sync.Once
	rErr, wErr   error

	capOnce  sync.Once
	capacity int
}

// Open creates a new conduit.
func Open() (*Conduit, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, apperrors.ConduitUnavailable(err)
	}
	return &Conduit{r: r, w: w}, nil
}

// Reader returns the read end.
func (c *Conduit) Reader() *os.File { return c.r }

// Writer returns the write end.
func (c *Conduit) Writer() *os.File { return c.w }

// Capacity returns the kernel buffer size of the pipe.
func (c *Conduit) Capacity() int {
	c.capOnce.Do(func() {
		c.capacity = DefaultCapacity
		if n, err := pipeSize(c.w); err == nil && n > 0 {
			c.capacity = n
		}
	})
	return c.capacity
}

// CloseWriter closes the write end. Later calls return the first result.
func (c *Conduit) CloseWriter() error {
	c.wOnce.Do(func() { c.wErr = ignoreClosed(c.w.Close()) })
	return c.wErr
}

// CloseReader closes the read end. Later calls return the first result.
func (c *Conduit) CloseReader() error {
	c.rOnce.Do(func() { c.rErr = ignoreClosed(c.r.Close()) })
	return c.rErr
}

// Close closes both ends.
func (c *Conduit) Close() error {
	return errors.Join(c.CloseWriter(), c.CloseReader())
}

// IsBroken reports whether err means the other end of the conduit is gone:
// EPIPE on write, or an operation on an already closed end.
func IsBroken(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		apperrors.HasCode(err, apperrors.ErrCodeBrokenConduit)
}

// A producer may close the raw write end itself through Writer.Unwrap.
func ignoreClosed(err error) error {
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
