// Package logging provides structured logging for faultcount.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the scanner, dispatcher and
// the optional integrations.
//
// # Features
//
//   - Text output for interactive use (the config default)
//   - JSON output for log shipping (used when format is unset)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// Log output goes to stderr by default: stdout is reserved for the
// per-worker report lines.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("scan finished", "device_id", id, "count", n)
//	logger.Error("scan failed", "error", err)
//
// Tests capture records with NewWithWriter.
package logging
