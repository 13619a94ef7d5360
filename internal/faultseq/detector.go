package faultseq

import (
	"time"

	"github.com/Brad-K99/EventCounterForRC/internal/eventlog"
)

// MinStage3Dwell is how long a device must sit in stage 3 before a
// following stage 2 opens a new faulty candidacy.
const MinStage3Dwell = 5 * time.Minute

// noStage marks a State that has not observed any event since its last reset.
const noStage = -1

// State is the per-run progress through the faulty sequence pattern.
//
// SequenceNum is 0 (idle), 1 (stage 3 seen, dwell timer running),
// 2 (candidacy opened by stage 2) or 3 (candidacy continued).
// LastStage is the last stage that updated the state, or -1.
// LastEpoch is when the dwell timer started; the zero Time means unset.
type State struct {
	SequenceNum int
	LastStage   int
	LastEpoch   time.Time
}

// Initial returns the state every run starts from.
func Initial() State {
	return State{SequenceNum: 0, LastStage: noStage}
}

// inCandidacy reports whether a faulty occurrence has been opened.
func (s State) inCandidacy() bool {
	return s.SequenceNum == 2 || s.SequenceNum == 3
}

// continuing reports whether the previous event kept an open candidacy alive.
func (s State) continuing() bool {
	return s.LastStage >= 2 && s.inCandidacy()
}

// dwellElapsed reports whether at least MinStage3Dwell has passed since
// LastEpoch. An unset LastEpoch counts as long ago.
func (s State) dwellElapsed(at time.Time) bool {
	if s.LastEpoch.IsZero() {
		return true
	}
	return at.Sub(s.LastEpoch) >= MinStage3Dwell
}

// Observe applies one event to cur and returns the next state.
// completed is true when the event terminates a faulty occurrence;
// only a stage 0 event can do that.
//
// A stage 2 event that neither continues a candidacy nor follows stage 3
// leaves the state untouched.
func Observe(cur State, stage eventlog.Stage, at time.Time) (completed bool, next State) {
	next = cur

	switch stage {
	case 0:
		return cur.inCandidacy(), Initial()

	case 1:
		return false, Initial()

	case 2:
		switch {
		case cur.continuing():
			next.SequenceNum = 3
			next.LastStage = 2
		case cur.LastStage == 3:
			if !cur.dwellElapsed(at) {
				return false, Initial()
			}
			next.SequenceNum = 2
			next.LastEpoch = time.Time{}
			next.LastStage = 2
		}

	case 3:
		switch {
		case cur.continuing():
			next.SequenceNum = 3
		case cur.LastStage <= 0:
			next.SequenceNum = 1
			next.LastEpoch = at
		}
		next.LastStage = 3
	}

	return false, next
}

// Detector runs Observe over a stream of events, keeping the state between calls.
// A Detector is owned by a single scan and is not safe for concurrent use.
type Detector struct {
	state     State
	completed int
}

// NewDetector returns a Detector in the initial state.
func NewDetector() *Detector {
	return &Detector{state: Initial()}
}

// Feed applies ev and reports whether it completed a faulty occurrence.
func (d *Detector) Feed(ev eventlog.Event) bool {
	done, next := Observe(d.state, ev.Stage, ev.Timestamp)
	d.state = next
	if done {
		d.completed++
	}
	return done
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Completed returns how many occurrences Feed has reported since the last Reset.
func (d *Detector) Completed() int {
	return d.completed
}

// Reset returns the detector to the initial state.
func (d *Detector) Reset() {
	d.state = Initial()
	d.completed = 0
}
