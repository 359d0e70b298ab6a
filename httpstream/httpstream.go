package httpstream

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/server"
	"github.com/kbukum/pullpipe/stream"
)

const (
	// ErrorTrailer reports a failure that happened after the body started.
	ErrorTrailer = "X-Stream-Error"
	// StreamIDHeader carries the stream ID for log correlation.
	StreamIDHeader = "X-Stream-Id"
)

// Source describes a response body to stream.
type Source struct {
	Producer    stream.ProducerFunc
	ContentType string
	// Filename, when set, is sent as an attachment Content-Disposition.
	Filename string
}

// Factory builds the Source for a request. A returned error is answered
// with a JSON error response.
type Factory func(c *gin.Context) (*Source, error)

// Handler returns a gin handler that streams the Source built by factory.
func Handler(factory Factory, opts ...stream.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, err := factory(c)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if err := Write(c, src, opts...); err != nil {
			_ = c.Error(err)
		}
	}
}

// Write runs src.Producer and copies its output to the response, flushing
// each read. The producer is not tied to the request context; it stops when
// the stream is closed on return.
func Write(c *gin.Context, src *Source, opts ...stream.Option) error {
	log := logger.WithComponent("httpstream")

	ctx := context.WithoutCancel(c.Request.Context())
	r, err := stream.Open(ctx, src.Producer, append(slices.Clip(opts), stream.WithWaitForCompletion(true))...)
	if err != nil {
		server.RespondWithError(c, err)
		return err
	}
	defer r.Close()

	// Read returns whatever the producer has written so far, so output is
	// forwarded as it arrives rather than once a whole chunk has filled.
	buf := make([]byte, r.ChunkSize())
	n, err := r.Read(buf)
	if err != nil && err != io.EOF && n == 0 {
		server.RespondWithError(c, apperrors.From(err))
		return err
	}

	h := c.Writer.Header()
	h.Set("Content-Type", src.ContentType)
	h.Set("Trailer", ErrorTrailer)
	h.Set(StreamIDHeader, r.ID())
	if src.Filename != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": src.Filename}))
	}
	c.Status(http.StatusOK)

	for {
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				log.Debug("client went away", logger.Merge(
					logger.StreamFields(r.ID(), r.Mode().String(), 0),
					logger.ErrorFields("write_response", werr),
				))
				return werr
			}
			c.Writer.Flush()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			h.Set(ErrorTrailer, trailerValue(err))
			return err
		}
		if cerr := c.Request.Context().Err(); cerr != nil {
			return cerr
		}
		n, err = r.Read(buf)
	}
}

func trailerValue(err error) string {
	appErr := apperrors.From(err)
	msg := strings.Join(strings.Fields(err.Error()), " ")
	return fmt.Sprintf("%s: %s", appErr.Code, msg)
}
