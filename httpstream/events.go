package httpstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/server"
	"github.com/kbukum/pullpipe/stream"
)

// Server-sent event names written by Events.
const (
	EventOpen  = "open"
	EventLine  = "line"
	EventError = "error"
	EventDone  = "done"
)

// EventsHandler returns a gin handler that streams the Source built by
// factory as server-sent events, one event per line.
func EventsHandler(factory Factory, opts ...stream.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, err := factory(c)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if err := Events(c, src, opts...); err != nil {
			_ = c.Error(err)
		}
	}
}

// Events runs src.Producer in text mode and writes every line as a "line"
// event. The stream ends with a "done" event, or an "error" event carrying
// the JSON error body. src.ContentType is ignored.
func Events(c *gin.Context, src *Source, opts ...stream.Option) error {
	log := logger.WithComponent("httpstream")

	ctx := context.WithoutCancel(c.Request.Context())
	r, err := stream.Open(ctx, src.Producer, append(slices.Clip(opts), stream.WithText(), stream.WithWaitForCompletion(true))...)
	if err != nil {
		server.RespondWithError(c, err)
		return err
	}
	defer r.Close()

	// Event streams outlive the server's write timeout.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", logger.ErrorFields("set_write_deadline", err))
	}

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	h.Set(StreamIDHeader, r.ID())
	c.Status(http.StatusOK)

	if err := writeEvent(c, EventOpen, r.ID()); err != nil {
		return err
	}

	for {
		line, err := r.ReadLine()
		if line != "" {
			if werr := writeEvent(c, EventLine, strings.TrimRight(line, "\r\n")); werr != nil {
				log.Debug("client went away", logger.Merge(
					logger.StreamFields(r.ID(), r.Mode().String(), 0),
					logger.ErrorFields("write_event", werr),
				))
				return werr
			}
		}
		if err == io.EOF {
			return writeEvent(c, EventDone, "")
		}
		if err != nil {
			body, merr := json.Marshal(apperrors.From(err).ToResponse())
			if merr != nil {
				body = []byte(trailerValue(err))
			}
			_ = writeEvent(c, EventError, string(body))
			return err
		}
		if cerr := c.Request.Context().Err(); cerr != nil {
			return cerr
		}
	}
}

func writeEvent(c *gin.Context, event, data string) error {
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
