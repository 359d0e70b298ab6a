package process

import (
	"context"

	"github.com/kbukum/pullpipe/conduit"
	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/stream"
)

const stderrTailSize = 1024

// Producer exposes the standard output of cmd as a stream. A non-zero exit
// becomes a PRODUCER_FAILED error carrying the exit code and the tail of
// stderr. When the consumer closes the stream the process is terminated and
// the writer's broken-conduit error is returned.
func Producer(cmd Command) stream.ProducerFunc {
	return func(ctx context.Context, w *stream.Writer) error {
		result, err := Stream(ctx, cmd, w)
		if werr := w.Err(); werr != nil && conduit.IsBroken(werr) {
			return werr
		}
		if err == nil {
			return nil
		}
		if result == nil {
			return apperrors.InvalidInput("binary", err.Error())
		}
		return apperrors.ProducerFailed(err).WithDetails(map[string]any{
			"command":   cmd.String(),
			"exit_code": result.ExitCode,
			"stderr":    result.StderrTail(stderrTailSize),
		})
	}
}
