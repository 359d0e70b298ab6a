package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestChunks_Fidelity(t *testing.T) {
	data := randomBytes(t, 70*1024)
	for _, size := range []int{1000, 32 * 1024, 1 << 20} {
		var got []byte
		for chunk, err := range Chunks(context.Background(), writeAll(data, 777), WithChunkSize(size)) {
			if err != nil {
				t.Fatalf("size %d: %v", size, err)
			}
			got = append(got, chunk...)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("size %d: data mismatch", size)
		}
	}
}

func TestChunks_Empty(t *testing.T) {
	for range Chunks(context.Background(), func(context.Context, *Writer) error { return nil }) {
		t.Fatal("empty producer yielded a chunk")
	}
}

func TestChunks_FailureYieldedOnce(t *testing.T) {
	sentinel := errors.New("bad block")
	producer := func(_ context.Context, w *Writer) error {
		if _, err := w.WriteString("abcdefgh"); err != nil {
			return err
		}
		return sentinel
	}

	var chunks []string
	var errs []error
	for chunk, err := range Chunks(context.Background(), producer, WithChunkSize(3)) {
		chunks = append(chunks, string(chunk))
		errs = append(errs, err)
	}

	if len(errs) == 0 || errs[len(errs)-1] != sentinel {
		t.Fatalf("expected the last pair to carry the failure, got %v", errs)
	}
	for _, err := range errs[:len(errs)-1] {
		if err != nil {
			t.Errorf("failure yielded more than once: %v", errs)
		}
	}
	if got := strings.Join(chunks, ""); !strings.HasPrefix("abcdefgh", got) {
		t.Errorf("chunks %q are not a prefix of the written data", got)
	}
}

func TestChunks_EarlyBreakDoesNotHang(t *testing.T) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for _, err := range Chunks(context.Background(), endless, WithChunkSize(1024)) {
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			break
		}
	}()

	select {
	case <-finished:
	case <-time.After(grace):
		t.Fatal("breaking out of Chunks hung")
	}
}

func TestTextChunks_MultibyteBoundaries(t *testing.T) {
	text := strings.Repeat("aé日🎉", 500)
	for _, size := range []int{1, 2, 3, 5, 64} {
		var sb strings.Builder
		var count int
		for chunk, err := range TextChunks(context.Background(), writeAll([]byte(text), 7), WithChunkSize(size)) {
			if err != nil {
				t.Fatalf("size %d: %v", size, err)
			}
			if !utf8.ValidString(chunk) {
				t.Fatalf("size %d: chunk %q splits a character", size, chunk)
			}
			if n := utf8.RuneCountInString(chunk); n > size {
				t.Fatalf("size %d: chunk has %d characters", size, n)
			}
			sb.WriteString(chunk)
			count++
		}
		if sb.String() != text {
			t.Errorf("size %d: text mismatch", size)
		}
		if want := (utf8.RuneCountInString(text) + size - 1) / size; count != want {
			t.Errorf("size %d: got %d chunks, want %d", size, count, want)
		}
	}
}

func TestLines_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"terminated", "a\nb\nc\n", []string{"a\n", "b\n", "c\n"}},
		{"unterminated tail", "a\nb", []string{"a\n", "b"}},
		{"blank lines", "\n\nx\n", []string{"\n", "\n", "x\n"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for line, err := range Lines(context.Background(), writeAll([]byte(tt.input), 2)) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got = append(got, line)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if strings.Join(got, "") != tt.input {
				t.Errorf("joined lines %q differ from input %q", strings.Join(got, ""), tt.input)
			}
		})
	}
}

func TestLines_ForcesTextMode(t *testing.T) {
	var n int
	for _, err := range Lines(context.Background(), writeAll([]byte("x\n"), 2), WithMode(Binary)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Errorf("got %d lines, want 1", n)
	}
}

func TestChunkIterator(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("abcdefg"), 2))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it := NewChunkIterator(r, 3)
	defer it.Close()

	var got []string
	for {
		chunk, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, string(chunk))
	}
	if strings.Join(got, ",") != "abc,def,g" {
		t.Errorf("got %v", got)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("exhausted iterator returned ok=%v err=%v", ok, err)
	}
}

func TestChunkIterator_Failure(t *testing.T) {
	sentinel := errors.New("broken")
	r, err := Open(context.Background(), func(context.Context, *Writer) error { return sentinel })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it := NewChunkIterator(r, 0)
	defer it.Close()

	if _, ok, err := it.Next(context.Background()); ok || err != sentinel {
		t.Fatalf("Next = (ok=%v, %v), want sentinel", ok, err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("after failure: ok=%v err=%v", ok, err)
	}
}

func TestLineIterator(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("one\ntwo"), 3), WithText())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it := NewLineIterator(r)
	defer it.Close()

	var got []string
	for {
		line, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, line)
	}
	if strings.Join(got, "|") != "one\n|two" {
		t.Errorf("got %q", got)
	}
}

func TestLineIterator_CanceledContext(t *testing.T) {
	r, err := Open(context.Background(), writeAll([]byte("x\n"), 2), WithText())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it := NewLineIterator(r)
	defer it.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok, err := it.Next(ctx); ok || !errors.Is(err, context.Canceled) {
		t.Errorf("Next = (ok=%v, %v), want context.Canceled", ok, err)
	}
}
