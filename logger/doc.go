// Package logger provides structured logging for pinch using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying request IDs.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("native")
//	log.Info("fetch completed", logger.Fields("status", 200))
package logger
