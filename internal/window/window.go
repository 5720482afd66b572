// Package window computes elapsed-time progress for time-bounded treatment
// states such as temporary targets and profile switches.
package window

import "time"

// Mode categorizes a temp-target style window.
type Mode int

const (
	// ModeNone means no window is active; progress is always 0.
	ModeNone Mode = iota
	// ModeActive is a plainly running window.
	ModeActive
	// ModeAdjusted is a window whose target was adjusted by an automation
	// (carries a reason in Nightscout treatments).
	ModeAdjusted
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeActive:
		return "active"
	case ModeAdjusted:
		return "adjusted"
	default:
		return "unknown"
	}
}

// State is a snapshot of one time-bounded window. The zero value is an
// absent window (ModeNone).
type State struct {
	Start    time.Time
	Duration time.Duration
	Label    string
	Mode     Mode
}

// Active reports whether the window should be treated as running.
func (s *State) Active() bool {
	return s != nil && s.Mode != ModeNone && s.Duration > 0
}

// End returns the moment the window expires.
func (s *State) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Progress returns the completion ratio of the window at the given moment,
// clamped to [0, 1]. An absent window, a ModeNone window, or a non-positive
// duration all yield 0 before any arithmetic happens. The function is pure
// and holds no state between calls, so it may be sampled at any cadence or
// out of order.
func Progress(s *State, now time.Time) float64 {
	if !s.Active() {
		return 0
	}

	// Elapsed and total share the same unit (nanoseconds).
	ratio := float64(now.Sub(s.Start)) / float64(s.Duration)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Remaining returns the time left before the window expires, never negative.
func Remaining(s *State, now time.Time) time.Duration {
	if !s.Active() {
		return 0
	}
	left := s.End().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
