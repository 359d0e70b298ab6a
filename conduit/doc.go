// Package conduit wraps an anonymous OS pipe as the bounded channel between a
// stream producer and its consumer.
//
// Writes block once the kernel buffer is full, which is the only
// backpressure the stream needs. Closing the write end signals end-of-stream
// to the reader; closing the read end makes pending and future writes fail
// with EPIPE. Each end closes at most once.
package conduit
