// Package log provides structured event logging for wisp devices.
//
// This package defines the Logger interface and Event types for capturing
// device-level events: link state transitions, provisioning client activity,
// credential attribute writes, LAN presence changes and errors. It is
// separate from operational logging (slog) - event capture produces a
// complete machine-readable trace for offline debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	deps.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	deps.Logger, _ = log.NewFileLogger("/var/log/wisp/device.wlog")
//
//	// Both: use MultiLogger
//	deps.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/wisp/device.wlog"),
//	)
//
// # Event Types
//
// Exactly one payload is set per event:
//   - StateChange: link or client-presence transitions
//   - Write: provisioning attribute writes
//   - Presence: LAN announcement raised or withdrawn
//   - Error: failures from any source
//
// Credential values never appear in events; a Write records the attribute
// name and the value size only.
//
// # File Format
//
// Log files use CBOR encoding with .wlog extension. The wisp-log CLI tool
// provides viewing, filtering, and statistics.
package log
