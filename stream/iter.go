package stream

import (
	"context"
	"io"
	"iter"
)

// Chunks runs producer and yields its output in binary chunks of the
// configured size (WithChunkSize, default 32 KiB). On failure the pair
// (partial, err) is yielded once and iteration stops.
func Chunks(ctx context.Context, producer ProducerFunc, opts ...Option) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		r, err := Open(ctx, producer, forced(opts, WithMode(Binary), WithWaitForCompletion(true))...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.Close()

		for {
			chunk, err := r.ReadChunk(r.chunkSize)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(chunk, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// TextChunks is Chunks for text: each chunk holds the configured number of
// characters.
func TextChunks(ctx context.Context, producer ProducerFunc, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r, err := Open(ctx, producer, forced(opts, WithMode(Text), WithWaitForCompletion(true))...)
		if err != nil {
			yield("", err)
			return
		}
		defer r.Close()

		for {
			chunk, err := r.ReadString(r.chunkSize)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(chunk, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Lines runs producer in text mode and yields its output line by line, each
// line including its trailing newline.
func Lines(ctx context.Context, producer ProducerFunc, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r, err := Open(ctx, producer, forced(opts, WithMode(Text), WithWaitForCompletion(true))...)
		if err != nil {
			yield("", err)
			return
		}
		defer r.Close()

		for {
			line, err := r.ReadLine()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(line, err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// ChunkIterator pulls binary chunks from a Reader.
type ChunkIterator struct {
	r    *Reader
	size int
	done bool
}

// NewChunkIterator returns an iterator over r. A size <= 0 uses the
// Reader's chunk size.
func NewChunkIterator(r *Reader, size int) *ChunkIterator {
	if size <= 0 {
		size = r.chunkSize
	}
	return &ChunkIterator{r: r, size: size}
}

// Next returns the next chunk. Returns (nil, false, nil) when exhausted. A
// failure is returned once together with any partial chunk.
func (it *ChunkIterator) Next(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}
	chunk, err := it.r.ReadChunk(it.size)
	if err == io.EOF {
		it.done = true
		return nil, false, nil
	}
	if err != nil {
		it.done = true
		return chunk, false, err
	}
	return chunk, true, nil
}

// Close closes the underlying Reader.
func (it *ChunkIterator) Close() error { return it.r.Close() }

// LineIterator pulls lines from a text Reader.
type LineIterator struct {
	r    *Reader
	done bool
}

// NewLineIterator returns an iterator over the lines of r.
func NewLineIterator(r *Reader) *LineIterator {
	return &LineIterator{r: r}
}

// Next returns the next line.
func (it *LineIterator) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if it.done {
		return "", false, nil
	}
	line, err := it.r.ReadLine()
	if err == io.EOF {
		it.done = true
		return "", false, nil
	}
	if err != nil {
		it.done = true
		return line, false, err
	}
	return line, true, nil
}

// Close closes the underlying Reader.
func (it *LineIterator) Close() error { return it.r.Close() }
