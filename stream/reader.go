package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kbukum/pullpipe/conduit"
	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
)

const readBufferSize = 32 * 1024

// Reader is the consumer side of a stream. It owns the read end of the
// conduit; one goroutine may read from it at a time.
type Reader struct {
	id        string
	mode      Mode
	chunkSize int
	wait      bool

	conduit *conduit.Conduit
	buf     *bufio.Reader
	failure failureSlot
	done    chan struct{}
	cancel  context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	read      atomic.Int64

	log     *logger.Logger
	metrics *observability.StreamMetrics
}

// Open starts producer on its own goroutine and returns a Reader over its
// output. The producer's context is canceled when the Reader is closed.
func Open(ctx context.Context, producer ProducerFunc, opts ...Option) (*Reader, error) {
	if producer == nil {
		return nil, apperrors.InvalidInput("producer", "must not be nil")
	}
	o := newOptions(opts)

	c, err := conduit.Open()
	if err != nil {
		o.log.Error("opening conduit failed", logger.ErrorFields("open", err))
		return nil, err
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	r := &Reader{
		id:        id,
		mode:      o.mode,
		chunkSize: o.chunkSize,
		wait:      o.wait,
		conduit:   c,
		buf:       bufio.NewReaderSize(c.Reader(), readBufferSize),
		done:      make(chan struct{}),
		cancel:    cancel,
		log:       o.log.WithFields(map[string]any{logger.FieldStreamID: id, logger.FieldMode: o.mode.String()}),
		metrics:   o.metrics,
	}

	r.metrics.RecordOpened(ctx, r.mode.String())
	go r.run(ctx, producer, newWriter(c.Writer(), o.mode))
	return r, nil
}

// ID returns the stream's identifier, used in log lines.
func (r *Reader) ID() string { return r.id }

// Mode returns the stream mode.
func (r *Reader) Mode() Mode { return r.mode }

// ChunkSize returns the configured iterator chunk size.
func (r *Reader) ChunkSize() int { return r.chunkSize }

// Read implements io.Reader. A recorded producer failure replaces io.EOF and
// may be returned together with n > 0.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, apperrors.StreamClosed()
	}
	n, err := r.buf.Read(p)
	r.read.Add(int64(n))
	return n, r.check(err)
}

// ReadChunk reads exactly n bytes, blocking until they arrive or the producer
// finishes. Only the last chunk may be shorter. At end of stream it returns
// (nil, io.EOF).
func (r *Reader) ReadChunk(n int) ([]byte, error) {
	if n <= 0 {
		return nil, apperrors.InvalidInput("n", "chunk size must be positive")
	}
	if r.closed.Load() {
		return nil, apperrors.StreamClosed()
	}

	chunk := make([]byte, n)
	m, err := io.ReadFull(r.buf, chunk)
	r.read.Add(int64(m))
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	err = r.check(err)
	if m == 0 {
		return nil, err
	}
	return chunk[:m], err
}

// ReadString reads n characters from a text stream. UTF-8 sequences are
// never split; invalid bytes are passed through unchanged and count as one
// character each. At end of stream it returns ("", io.EOF).
func (r *Reader) ReadString(n int) (string, error) {
	if r.mode != Text {
		return "", apperrors.ModeMismatch("ReadString", Text.String())
	}
	if n <= 0 {
		return "", apperrors.InvalidInput("n", "chunk size must be positive")
	}
	if r.closed.Load() {
		return "", apperrors.StreamClosed()
	}

	var sb strings.Builder
	var err error
	for range n {
		var ch rune
		var size int
		ch, size, err = r.buf.ReadRune()
		if err != nil {
			break
		}
		if ch == utf8.RuneError && size == 1 {
			_ = r.buf.UnreadRune()
			b, _ := r.buf.ReadByte()
			sb.WriteByte(b)
		} else {
			sb.WriteRune(ch)
		}
		r.read.Add(int64(size))
	}

	if errors.Is(err, io.EOF) && sb.Len() > 0 {
		err = nil
	}
	return sb.String(), r.check(err)
}

// ReadLine reads one line from a text stream, including the trailing
// newline. A final line without newline is returned with a nil error. At end
// of stream it returns ("", io.EOF).
func (r *Reader) ReadLine() (string, error) {
	if r.mode != Text {
		return "", apperrors.ModeMismatch("ReadLine", Text.String())
	}
	if r.closed.Load() {
		return "", apperrors.StreamClosed()
	}

	line, err := r.buf.ReadString('\n')
	r.read.Add(int64(len(line)))
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return line, r.check(err)
}

// Err returns the recorded producer failure without blocking, or nil.
func (r *Reader) Err() error {
	return r.failure.load()
}

// Done is closed when the producer goroutine has exited.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the producer has exited and returns its recorded failure.
func (r *Reader) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.failure.load()
	case <-ctx.Done():
		return apperrors.Timeout("producer exit", ctx.Err())
	}
}

// Close releases the read end. It is safe to call more than once. In
// wait-for-completion mode it also waits for the producer to exit; the read
// end is closed first so a producer blocked on a full pipe is released.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.closeErr = r.conduit.CloseReader()
		r.cancel()

		r.metrics.RecordClosed(context.Background(), r.mode.String(), r.read.Load())
		r.log.Debug("stream closed", map[string]any{logger.FieldBytes: r.read.Load()})
	})
	if r.wait {
		<-r.done
	}
	return r.closeErr
}

// check replaces a read result with the recorded failure, if any.
func (r *Reader) check(err error) error {
	if f := r.failure.load(); f != nil {
		return f
	}
	if err != nil && r.closed.Load() && errors.Is(err, os.ErrClosed) {
		return apperrors.StreamClosed()
	}
	return err
}
