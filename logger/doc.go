// Package logger provides structured logging for pspkit services
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// ServiceConfig copies the service name into logging.service_name, which tags
// every event of the global logger.
//
// # Usage
//
//	log := logger.Get("psp")
//	log.WithContext(ctx).Info("payment created", logger.Fields(logger.FieldPaymentID, id))
package logger
