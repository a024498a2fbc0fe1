package alarm

import "time"

// State is the latched medical alarm.
type State struct {
	// Active is true from the first critical breach until every critical
	// predicate is false again.
	Active bool
	// Reasons are the breaches seen at the latest evaluation, humidity included.
	Reasons Reasons
	// Since is when Active last changed.
	Since time.Time
}

// Transition describes what an evaluation did to the State.
type Transition uint8

// Transitions.
const (
	// Unchanged means Active kept its value.
	Unchanged Transition = iota
	// Raised means Active went from false to true.
	Raised
	// Cleared means Active went from true to false.
	Cleared
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case Raised:
		return "raised"
	case Cleared:
		return "cleared"
	default:
		return "unchanged"
	}
}

// Apply records reasons observed at now and latches Active with hysteresis:
// it rises on any critical reason and falls only when none remain.
func (s *State) Apply(reasons Reasons, now time.Time) Transition {
	s.Reasons = reasons
	critical := !reasons.Critical().Empty()

	switch {
	case critical && !s.Active:
		s.Active = true
		s.Since = now

		return Raised
	case !critical && s.Active:
		s.Active = false
		s.Since = now

		return Cleared
	default:
		return Unchanged
	}
}

// Clone returns a copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
