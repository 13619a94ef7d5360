package eventlog

import "errors"

// Decode errors. Every error returned by Decode wraps exactly one of these:
//
//	if errors.Is(err, eventlog.ErrInvalidStage) {
//	    // stage column out of range or not a number
//	}
var (
	// ErrMalformedLine is returned when a line does not split into a
	// date-time field and a stage field on the tab character.
	ErrMalformedLine = errors.New("eventlog: malformed line")

	// ErrInvalidStage is returned when the stage field is not an integer in [0,3].
	ErrInvalidStage = errors.New("eventlog: invalid stage")

	// ErrMalformedDateTime is returned when the date-time field does not
	// split into a date and a time on the space character.
	ErrMalformedDateTime = errors.New("eventlog: malformed date-time")

	// ErrUnparseableTimestamp is returned when the date and time do not
	// parse as YYYY-MM-DD HH:MM:SS.
	ErrUnparseableTimestamp = errors.New("eventlog: unparseable timestamp")
)
