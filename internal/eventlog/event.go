package eventlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the date-time layout of a log line, interpreted as UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// Stage is the condition code a device reports on one log line.
type Stage int

// Valid stage range.
const (
	MinStage Stage = 0
	MaxStage Stage = 3
)

// Valid reports whether s is within [MinStage, MaxStage].
func (s Stage) Valid() bool {
	return s >= MinStage && s <= MaxStage
}

// Event is one decoded log line.
type Event struct {
	Timestamp time.Time
	Stage     Stage
}

// Decode parses one raw log line of the form "YYYY-MM-DD HH:MM:SS\t<stage>".
//
// Checks run in a fixed order and the first failure wins:
//  1. exactly two tab-separated fields (ErrMalformedLine)
//  2. stage is an integer in [0,3] (ErrInvalidStage)
//  3. date-time has exactly two space-separated parts (ErrMalformedDateTime)
//  4. date-time parses as TimestampLayout (ErrUnparseableTimestamp)
//
// A single trailing carriage return is ignored so CRLF files decode.
func Decode(line string) (Event, error) {
	line = strings.TrimSuffix(line, "\r")

	fields := strings.Split(line, "\t")
	if len(fields) != 2 {
		return Event{}, fmt.Errorf("%w: expected 2 tab-separated fields, got %d", ErrMalformedLine, len(fields))
	}
	dateTime, rawStage := fields[0], fields[1]

	n, err := strconv.Atoi(rawStage)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidStage, rawStage)
	}
	stage := Stage(n)
	if !stage.Valid() {
		return Event{}, fmt.Errorf("%w: %d is outside [%d,%d]", ErrInvalidStage, n, MinStage, MaxStage)
	}

	parts := strings.Split(dateTime, " ")
	if len(parts) != 2 {
		return Event{}, fmt.Errorf("%w: expected date and time separated by one space in %q", ErrMalformedDateTime, dateTime)
	}

	ts, err := time.ParseInLocation(TimestampLayout, parts[0]+" "+parts[1], time.UTC)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrUnparseableTimestamp, err)
	}

	return Event{Timestamp: ts, Stage: stage}, nil
}

// Format renders e in the log line format accepted by Decode.
func (e Event) Format() string {
	return e.Timestamp.UTC().Format(TimestampLayout) + "\t" + strconv.Itoa(int(e.Stage))
}
