package scanner

import (
	"context"
	"errors"
	"time"
)

// Scan statuses recorded in Result.Status.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)

// Result is the outcome of one scan.
type Result struct {
	RunID       string
	DeviceID    string
	Path        string
	Count       int // -1 when Err is set
	Lines       int // lines read, including a failing line
	Occurrences []time.Time // nil when Err is set
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

// Status summarises the result as StatusOK, StatusFailed or StatusAborted.
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return StatusOK
	case errors.Is(r.Err, ErrScanAborted):
		return StatusAborted
	default:
		return StatusFailed
	}
}

// Duration is how long the scan took, including time spent waiting for the
// device's lock.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ResultSink receives every finished scan, after the device's lock is released.
type ResultSink interface {
	HandleResult(ctx context.Context, res Result) error
}

// ResultSinkFunc adapts a function to ResultSink.
type ResultSinkFunc func(ctx context.Context, res Result) error

// HandleResult calls f.
func (f ResultSinkFunc) HandleResult(ctx context.Context, res Result) error {
	return f(ctx, res)
}

// Occurrence is one completed faulty sequence.
type Occurrence struct {
	DeviceID string
	RunID    string
	Ordinal  int       // 1 for the first occurrence in the run
	At       time.Time // timestamp of the terminating line
}

// OccurrenceSink is notified of each occurrence of a successful run, in
// order, after the device's lock is released and before the result sinks.
// A failed run delivers none.
type OccurrenceSink interface {
	HandleOccurrence(occ Occurrence)
}
