// Package stream turns push-style producers into pull-style readers.
//
// A producer is a function that writes its output to a sink and returns when
// it is done. Open runs the producer on its own goroutine, connected to the
// caller through an OS pipe, and hands back a Reader:
//
//	r, err := stream.Open(ctx, func(ctx context.Context, w *stream.Writer) error {
//		return tw.WriteTo(w)
//	})
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	_, err = io.Copy(dst, r)
//
// The pipe's fixed capacity gives natural backpressure: the producer blocks
// while the consumer is not reading.
//
// # Failures
//
// A producer error, or a recovered panic, is recorded and replayed verbatim
// on every later read, so errors.Is against the producer's own error works on
// the consumer side. End-of-stream is never reported for a failed producer.
//
// Closing the Reader before the producer finishes releases the read end. The
// producer's next write fails with a broken-conduit error and the producer is
// expected to return. That exit is abandonment, not failure, and is only
// logged at debug level.
//
// # Iterators
//
// Chunks, TextChunks and Lines wrap Open in range-over-func iterators:
//
//	for line, err := range stream.Lines(ctx, producer) {
//		if err != nil {
//			return err
//		}
//		fmt.Print(line)
//	}
//
// Breaking out of the loop closes the stream and waits for the producer.
// Each range runs the producer anew.
//
// NewChunkIterator and NewLineIterator offer the same reads through the
// Next(ctx) (T, bool, error) / Close() contract.
package stream
