// Package logger provides structured logging for pullpipe using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying stream fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("stream")
//	log.Info("stream closed", logger.StreamFields(id, "binary", n))
package logger
