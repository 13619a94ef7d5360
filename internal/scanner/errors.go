package scanner

import (
	"errors"
	"fmt"
)

// Scan errors. A failed scan always leaves the device's count at -1.
//
//	if errors.Is(err, scanner.ErrLineParse) {
//	    var lerr *scanner.LineError
//	    errors.As(err, &lerr)
//	}
var (
	// ErrFileOpen is returned when the device's log file cannot be opened.
	ErrFileOpen = errors.New("scanner: cannot open log file")

	// ErrLineParse is returned when a line of the log does not decode.
	// The error is always a *LineError.
	ErrLineParse = errors.New("scanner: cannot parse log line")

	// ErrFileRead is returned when reading the log fails part way, including
	// a line longer than the configured maximum.
	ErrFileRead = errors.New("scanner: cannot read log file")

	// ErrScanAborted is returned when the scan's context is cancelled.
	ErrScanAborted = errors.New("scanner: scan aborted")
)

// LineError describes the line that stopped a scan.
// It matches both ErrLineParse and the eventlog sentinel in Err.
type LineError struct {
	DeviceID string
	Path     string
	LineNum  int
	Line     string
	Err      error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("scanner: device %q: %s:%d: %v: %q", e.DeviceID, e.Path, e.LineNum, e.Err, e.Line)
}

// Unwrap returns ErrLineParse and the decode error.
func (e *LineError) Unwrap() []error {
	return []error{ErrLineParse, e.Err}
}
