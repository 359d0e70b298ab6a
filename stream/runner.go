package stream

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pullpipe/conduit"
	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
)

// ProducerFunc writes a stream's content to w and returns when done.
// A non-nil error is delivered to the consumer.
type ProducerFunc func(ctx context.Context, w *Writer) error

// failureSlot holds the producer's error. Written once by the runner before
// the write end is closed.
type failureSlot struct {
	p atomic.Pointer[error]
}

func (s *failureSlot) store(err error) { s.p.Store(&err) }

func (s *failureSlot) load() error {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the producer. Order matters: failure is stored, then the
// write end is closed, then done is closed.
func (r *Reader) run(ctx context.Context, producer ProducerFunc, w *Writer) {
	defer close(r.done)

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanProduce, trace.WithAttributes(
		attribute.String(observability.AttrStreamID, r.id),
		attribute.String(observability.AttrStreamMode, r.mode.String()),
	))
	defer span.End()

	err := invoke(ctx, producer, w)

	outcome := observability.OutcomeCompleted
	fields := logger.StreamFields(r.id, r.mode.String(), w.Written())
	switch {
	case err == nil:
	case r.abandoned(err, w):
		outcome = observability.OutcomeAbandoned
		r.log.Debug("consumer went away, producer stopped", logger.Merge(fields, logger.ErrorFields("produce", err)))
	default:
		outcome = observability.OutcomeFailed
		r.failure.store(err)
		observability.SetSpanError(ctx, err)
		failed := logger.Merge(fields, logger.ErrorFields("produce", err))
		if appErr, ok := apperrors.AsAppError(err); ok {
			failed[logger.FieldCode] = string(appErr.Code)
		}
		r.log.Error("producer failed", failed)
	}

	if cerr := r.conduit.CloseWriter(); cerr != nil {
		r.log.Warn("closing write end failed", logger.Merge(fields, logger.ErrorFields("close_writer", cerr)))
	}

	d := time.Since(start)
	span.SetAttributes(
		attribute.Int64(observability.AttrBytesWritten, w.Written()),
		attribute.String(observability.AttrOutcome, outcome),
	)
	r.metrics.RecordProducer(ctx, r.mode.String(), outcome, w.Written(), d)
	if outcome == observability.OutcomeCompleted {
		r.log.Debug("producer finished", logger.Merge(fields, logger.DurationFields("produce", d)))
	}
}

// abandoned reports whether err is the producer noticing the consumer left.
func (r *Reader) abandoned(err error, w *Writer) bool {
	if conduit.IsBroken(err) || conduit.IsBroken(w.Err()) {
		return true
	}
	return r.closed.Load() && errors.Is(err, context.Canceled)
}

func invoke(ctx context.Context, producer ProducerFunc, w *Writer) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = apperrors.ProducerPanic(v, debug.Stack())
		}
	}()
	return producer(ctx, w)
}
