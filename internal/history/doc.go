// Package history records finished scans in the scan_runs table.
//
// It is an audit trail only: counts are always recomputed by scanning and
// are never loaded from here.
package history
