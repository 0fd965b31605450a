// Package logging provides structured logging for the ROI core.
//
// It wraps log/slog so every component logs key/value pairs with the same
// default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Component("snapshot").Warn("temp file cleanup failed", "error", err)
//
// Never log RTSP URLs with embedded credentials, SSH passwords, or tokens.
package logging
