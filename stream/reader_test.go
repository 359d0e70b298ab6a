package stream

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
)

const grace = 5 * time.Second

func writeAll(data []byte, step int) ProducerFunc {
	return func(_ context.Context, w *Writer) error {
		for len(data) > 0 {
			n := min(step, len(data))
			if _, err := w.Write(data[:n]); err != nil {
				return err
			}
			data = data[n:]
		}
		return nil
	}
}

// endless writes until the consumer goes away.
func endless(_ context.Context, w *Writer) error {
	buf := bytes.Repeat([]byte("x"), 4096)
	for {
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func waitDone(t *testing.T, r *Reader) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(grace):
		t.Fatal("producer did not finish")
	}
}

func TestOpen_NilProducer(t *testing.T) {
	_, err := Open(context.Background(), nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestReader_EmptyProducer(t *testing.T) {
	r, err := Open(context.Background(), func(context.Context, *Writer) error { return nil })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("Read = (%d, %v), want (0, EOF)", n, err)
	}
	chunk, err := r.ReadChunk(8)
	if chunk != nil || err != io.EOF {
		t.Errorf("ReadChunk = (%v, %v), want (nil, EOF)", chunk, err)
	}
	waitDone(t, r)
	if r.Err() != nil {
		t.Errorf("Err = %v, want nil", r.Err())
	}
}

func TestReader_ReadAllFidelity(t *testing.T) {
	data := randomBytes(t, 300*1024)
	r, err := Open(context.Background(), writeAll(data, 1000))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read %d bytes, want %d identical bytes", len(got), len(data))
	}
}

func TestReader_ReadChunkSizes(t *testing.T) {
	data := randomBytes(t, 100*1024+17)
	for _, size := range []int{1, 7, 4096, 32768, 200000} {
		r, err := Open(context.Background(), writeAll(data, 3000))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}

		var got []byte
		var chunks int
		for {
			chunk, err := r.ReadChunk(size)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("size %d: ReadChunk: %v", size, err)
			}
			if len(chunk) != size && len(got)+len(chunk) != len(data) {
				t.Fatalf("size %d: short chunk of %d before end", size, len(chunk))
			}
			got = append(got, chunk...)
			chunks++
		}
		r.Close()

		if !bytes.Equal(got, data) {
			t.Errorf("size %d: data mismatch", size)
		}
		if want := (len(data) + size - 1) / size; chunks != want {
			t.Errorf("size %d: got %d chunks, want %d", size, chunks, want)
		}
	}
}

func TestReader_ReadChunkInvalidSize(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("abc"), 3))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadChunk(0); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestReader_FailureAfterPartialData(t *testing.T) {
	sentinel := errors.New("disk on fire")
	r, err := Open(context.Background(), func(_ context.Context, w *Writer) error {
		if _, err := w.WriteString("partial"); err != nil {
			return err
		}
		return sentinel
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if string(got) != "partial" {
		t.Errorf("got %q, want %q", got, "partial")
	}
	if err != sentinel {
		t.Fatalf("expected the producer's own error, got %v", err)
	}

	// Replayed on every later read.
	for range 3 {
		if _, err := r.Read(make([]byte, 4)); err != sentinel {
			t.Errorf("replay: got %v, want %v", err, sentinel)
		}
	}
	if _, err := r.ReadChunk(4); err != sentinel {
		t.Errorf("ReadChunk replay: got %v", err)
	}
	if r.Err() != sentinel {
		t.Errorf("Err = %v, want sentinel", r.Err())
	}
	if err := r.Wait(context.Background()); err != sentinel {
		t.Errorf("Wait = %v, want sentinel", err)
	}
}

func TestReader_FailureWithoutData(t *testing.T) {
	sentinel := errors.New("no data")
	r, err := Open(context.Background(), func(context.Context, *Writer) error { return sentinel })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	chunk, err := r.ReadChunk(10)
	if chunk != nil || !errors.Is(err, sentinel) {
		t.Errorf("ReadChunk = (%q, %v), want (nil, sentinel)", chunk, err)
	}
}

func TestReader_ProducerPanic(t *testing.T) {
	r, err := Open(context.Background(), func(context.Context, *Writer) error { panic("kaboom") })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, err = io.ReadAll(r)
	if !apperrors.HasCode(err, apperrors.ErrCodeProducerPanic) {
		t.Fatalf("expected PRODUCER_PANIC, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["panic"] != "kaboom" {
		t.Errorf("panic detail = %v", appErr.Details["panic"])
	}
	if _, ok := appErr.Details["stack"]; !ok {
		t.Error("expected stack detail")
	}
}

func TestReader_CloseIdempotent(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("hello"), 5), WithWaitForCompletion(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := range 3 {
		if err := r.Close(); err != nil {
			t.Errorf("Close #%d: %v", i+1, err)
		}
	}
}

func TestReader_ReadAfterClose(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("hello"), 5))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Close()

	if _, err := r.Read(make([]byte, 5)); !apperrors.HasCode(err, apperrors.ErrCodeStreamClosed) {
		t.Errorf("Read after Close: %v", err)
	}
	if _, err := r.ReadChunk(5); !apperrors.HasCode(err, apperrors.ErrCodeStreamClosed) {
		t.Errorf("ReadChunk after Close: %v", err)
	}
}

func TestReader_AbandonmentStopsProducer(t *testing.T) {
	r, err := Open(context.Background(), endless)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.ReadChunk(1024); err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	waitDone(t, r)
	if r.Err() != nil {
		t.Errorf("abandonment must not be recorded as failure, got %v", r.Err())
	}
}

func TestReader_CloseUndrainedWaitMode(t *testing.T) {
	r, err := Open(context.Background(), endless, WithWaitForCompletion(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()

	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(grace):
		t.Fatal("Close deadlocked on an undrained producer")
	}
	select {
	case <-r.Done():
	default:
		t.Error("wait mode Close returned before the producer exited")
	}
}

func TestReader_CloseCancelsProducerContext(t *testing.T) {
	started := make(chan struct{})
	r, err := Open(context.Background(), func(ctx context.Context, _ *Writer) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
		t.Fatalf("Wait = %v, want TIMEOUT", err)
	}

	r.Close()
	waitDone(t, r)
	if r.Err() != nil {
		t.Errorf("cancel after Close must count as abandonment, got %v", r.Err())
	}
}

func TestReader_ParentContextCancelIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, err := Open(ctx, func(ctx context.Context, _ *Writer) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	cancel()
	if _, err := io.ReadAll(r); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReader_LargeStream(t *testing.T) {
	const total = 10 * 1024 * 1024
	const writeSize = 10 * 1024
	const chunkSize = 32 * 1024

	r, err := Open(context.Background(), func(_ context.Context, w *Writer) error {
		block := bytes.Repeat([]byte{0xAB}, writeSize)
		for remaining := total; remaining > 0; remaining -= writeSize {
			n := min(writeSize, remaining)
			if _, err := w.Write(block[:n]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var read, chunks int
	for {
		chunk, err := r.ReadChunk(chunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadChunk: %v", err)
		}
		if len(chunk) != chunkSize {
			t.Fatalf("chunk %d has %d bytes", chunks, len(chunk))
		}
		read += len(chunk)
		chunks++
	}
	if read != total {
		t.Errorf("read %d bytes, want %d", read, total)
	}
	if chunks != total/chunkSize {
		t.Errorf("got %d chunks, want %d", chunks, total/chunkSize)
	}
}

func TestReader_ReadString(t *testing.T) {
	text := "héllo wörld 日本語 🎉!"
	r, err := Open(context.Background(), writeAll([]byte(text), 1), WithText())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var parts []string
	for {
		s, err := r.ReadString(3)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		parts = append(parts, s)
	}
	if got := strings.Join(parts, ""); got != text {
		t.Errorf("got %q, want %q", got, text)
	}
	for i, p := range parts[:len(parts)-1] {
		if n := len([]rune(p)); n != 3 {
			t.Errorf("part %d %q has %d characters", i, p, n)
		}
	}
}

func TestReader_ReadStringInvalidBytes(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("a\xffb"), 3), WithText())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	s, err := r.ReadString(2)
	if err != nil || s != "a\xff" {
		t.Fatalf("ReadString = (%q, %v), want (%q, nil)", s, err, "a\xff")
	}
	s, err = r.ReadString(2)
	if err != nil || s != "b" {
		t.Fatalf("ReadString = (%q, %v), want (%q, nil)", s, err, "b")
	}
	if _, err = r.ReadString(2); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReader_ModeMismatch(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("x\n"), 2))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadString(1); !apperrors.HasCode(err, apperrors.ErrCodeModeMismatch) {
		t.Errorf("ReadString on binary: %v", err)
	}
	if _, err := r.ReadLine(); !apperrors.HasCode(err, apperrors.ErrCodeModeMismatch) {
		t.Errorf("ReadLine on binary: %v", err)
	}
}

func TestReader_ReadLine(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("one\ntwo\n\nlast"), 3), WithText())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	want := []string{"one\n", "two\n", "\n", "last"}
	for i, w := range want {
		line, err := r.ReadLine()
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if line != w {
			t.Errorf("line %d = %q, want %q", i, line, w)
		}
	}
	if _, err := r.ReadLine(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReader_Identity(t *testing.T) {
	r, err := Open(context.Background(), writeAll(nil, 1), WithText(), WithChunkSize(10))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.ID() == "" {
		t.Error("expected stream id")
	}
	if r.Mode() != Text {
		t.Errorf("Mode = %v", r.Mode())
	}
	if r.ChunkSize() != 10 {
		t.Errorf("ChunkSize = %d", r.ChunkSize())
	}
}

// syncBuffer guards a bytes.Buffer shared with the producer goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestReader_LogsFailureAndAbandonment(t *testing.T) {
	var out syncBuffer
	log := logger.NewWithWriter(&out, "debug")

	failing, err := Open(context.Background(), func(context.Context, *Writer) error {
		return errors.New("boom")
	}, WithLogger(log))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	waitDone(t, failing)
	failing.Close()

	abandoned, err := Open(context.Background(), endless, WithLogger(log))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	abandoned.Close()
	waitDone(t, abandoned)

	logs := out.String()
	for _, want := range []string{
		`"level":"error"`,
		`"message":"producer failed"`,
		`"error":"boom"`,
		`"stream_id":"` + failing.ID() + `"`,
		`"message":"consumer went away, producer stopped"`,
		`"stream_id":"` + abandoned.ID() + `"`,
		`"message":"stream closed"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s\n%s", want, logs)
		}
	}
}

func TestReader_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := observability.NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewStreamMetrics: %v", err)
	}

	r, err := Open(context.Background(), writeAll([]byte("0123456789"), 4),
		WithMetrics(metrics), WithWaitForCompletion(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	r.Close()

	failed, err := Open(context.Background(), func(context.Context, *Writer) error {
		return errors.New("nope")
	}, WithMetrics(metrics), WithWaitForCompletion(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	failed.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	want := map[string]int64{
		"stream.opened":            2,
		"stream.active":            0,
		"stream.bytes_written":     10,
		"stream.bytes_read":        10,
		"stream.producer.failures": 1,
	}
	for name, v := range want {
		if sums[name] != v {
			t.Errorf("%s = %d, want %d", name, sums[name], v)
		}
	}
}
