// Package httpstream serves stream producers as chunked HTTP responses.
//
// The first chunk is pulled before any header is written, so a producer
// that fails immediately (missing directory, bad input) still gets a proper
// JSON error response with its status code. Once bytes have been sent, a
// failure can only be reported in the X-Stream-Error trailer.
//
//	engine.GET("/logs", httpstream.Handler(func(c *gin.Context) (*httpstream.Source, error) {
//		return &httpstream.Source{Producer: tailLogs, ContentType: "text/plain"}, nil
//	}))
//
// A client that disconnects closes the stream; the producer sees a broken
// conduit on its next write and stops.
package httpstream
