// Package api implements the read-only HTTP API and WebSocket hub for faultcount.
//
// This package provides:
//   - REST endpoints for per-device faulty sequence counts
//   - Scan history queries backed by the history repository
//   - WebSocket hub broadcasting every finished scan on "scan.completed"
//   - Middleware stack (request ID, logging, recovery)
//
// Counts are read through device.CounterStore, so a request for a device
// that is being scanned blocks until that scan finishes and never sees a
// partial count.
//
// The API never registers devices: a count request for an ID no scan has
// touched answers 404.
package api
