// Package eventlog decodes the per-device event log format.
//
// Each line carries a UTC timestamp and a stage code separated by a tab:
//
//	2024-01-01 10:00:00	3
//
// Decode is a pure function; it holds no state and is safe for concurrent use.
package eventlog
