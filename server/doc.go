// Package server provides the HTTP server used by pullpipe: Gin routing
// behind an h2c handler, standard middleware and the health and version
// endpoints.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /healthz: health check aggregation
//   - /version: build version information
//
// Long-running streaming responses are the norm here, so WriteTimeout
// defaults to zero (no deadline).
package server
