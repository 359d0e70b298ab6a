package stream

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/kbukum/pullpipe/conduit"
	apperrors "github.com/kbukum/pullpipe/errors"
)

// Writer is the write end handed to a producer. It is not safe for
// concurrent use.
type Writer struct {
	f       *os.File
	mode    Mode
	offset  int64
	written int64
	err     error

	// pending holds the start of a UTF-8 sequence cut off by the last write.
	pending  [utf8.UTFMax]byte
	npending int
}

func newWriter(f *os.File, mode Mode) *Writer {
	return &Writer{f: f, mode: mode}
}

// Write writes p to the conduit, blocking while the pipe is full. Once the
// consumer has gone away every write fails with a BROKEN_CONDUIT error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.f.Write(p)
	w.advance(p[:n])
	if err != nil {
		if conduit.IsBroken(err) {
			err = apperrors.BrokenConduit(err)
		}
		w.err = err
	}
	return n, err
}

// WriteString writes s.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Tell returns the current offset: bytes written in binary mode, characters
// in text mode. Characters are counted the way Reader.ReadString reads them:
// each invalid byte is one character, and a sequence cut off at the end of a
// write is counted once the write that completes it arrives.
func (w *Writer) Tell() int64 {
	return w.offset
}

// Seek only answers position queries, Seek(0, io.SeekCurrent).
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return w.offset, nil
	}
	return 0, apperrors.NotSeekable(offset, whence)
}

// Written returns the number of bytes accepted by the conduit.
func (w *Writer) Written() int64 {
	return w.written
}

// Mode returns the stream mode.
func (w *Writer) Mode() Mode {
	return w.mode
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Unwrap returns the raw write end for producers that need an *os.File.
// Bytes written through it bypass Tell and Written.
func (w *Writer) Unwrap() *os.File {
	return w.f
}

func (w *Writer) advance(p []byte) {
	w.written += int64(len(p))
	if w.mode == Binary {
		w.offset += int64(len(p))
		return
	}

	buf := p
	if w.npending > 0 {
		buf = append(w.pending[:w.npending:w.npending], p...)
		w.npending = 0
	}
	for len(buf) > 0 {
		if !utf8.FullRune(buf) {
			w.npending = copy(w.pending[:], buf)
			return
		}
		_, size := utf8.DecodeRune(buf)
		w.offset++
		buf = buf[size:]
	}
}
