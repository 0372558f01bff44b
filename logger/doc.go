// Package logger wraps zerolog with the field conventions used across
// chatstream.
//
// Callers pass structured fields as maps:
//
//	log := logger.New(&cfg, "chatstream").WithComponent("stream")
//	log.Debug("session started", logger.Fields(logger.FieldSessionID, id))
//
// A process-wide logger is available through Init and the package-level
// helpers; libraries take a *Logger and fall back to Nop.
package logger
