package nightscout

import (
	"fmt"
	"time"

	"github.com/mkrenz/doseview/internal/units"
	"github.com/mkrenz/doseview/internal/window"
)

// Treatment event types doseview consumes.
const (
	EventTemporaryTarget = "Temporary Target"
	EventProfileSwitch   = "Profile Switch"
)

// Treatment is a Nightscout treatment entry, narrowed to the fields the
// window mapping needs.
type Treatment struct {
	ID        string  `json:"_id"`
	EventType string  `json:"eventType"`
	Date      int64   `json:"date"` // Unix timestamp in milliseconds
	CreatedAt string  `json:"created_at"`
	Duration  float64 `json:"duration"` // minutes

	// Temp targets
	TargetTop    float64 `json:"targetTop"`
	TargetBottom float64 `json:"targetBottom"`
	Reason       string  `json:"reason"`

	// Profile switches
	Profile    string  `json:"profile"`
	Percentage float64 `json:"percentage"`
	Units      string  `json:"units"`
}

// Time returns the treatment start time, preferring the millisecond date.
func (t *Treatment) Time() time.Time {
	if t.Date > 0 {
		return time.UnixMilli(t.Date)
	}
	parsed, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// WindowState maps a treatment onto a time-bounded window. A zero-duration
// entry is the Nightscout convention for cancelling the running window and
// maps to ModeNone.
func (t *Treatment) WindowState(displayUnit units.Unit) (*window.State, error) {
	start := t.Time()
	duration := time.Duration(t.Duration * float64(time.Minute))

	if duration <= 0 {
		return &window.State{Mode: window.ModeNone}, nil
	}

	switch t.EventType {
	case EventTemporaryTarget:
		label, err := t.tempTargetLabel(displayUnit)
		if err != nil {
			return nil, err
		}
		mode := window.ModeActive
		if t.Reason != "" {
			mode = window.ModeAdjusted
		}
		return &window.State{Start: start, Duration: duration, Label: label, Mode: mode}, nil

	case EventProfileSwitch:
		label := t.Profile
		if t.Percentage > 0 && t.Percentage != 100 {
			label = fmt.Sprintf("%s %.0f%%", t.Profile, t.Percentage)
		}
		return &window.State{Start: start, Duration: duration, Label: label, Mode: window.ModeActive}, nil

	default:
		return nil, fmt.Errorf("treatment %q has no window mapping", t.EventType)
	}
}

// tempTargetLabel renders "low - high unit" in the display unit. Treatment
// targets arrive in the unit the uploader used.
func (t *Treatment) tempTargetLabel(displayUnit units.Unit) (string, error) {
	srcUnit := units.MgdL
	if t.Units != "" {
		u, err := units.Parse(t.Units)
		if err != nil {
			return "", err
		}
		srcUnit = u
	}

	lowMgdl, err := units.ToMgdl(t.TargetBottom, srcUnit)
	if err != nil {
		return "", err
	}
	highMgdl, err := units.ToMgdl(t.TargetTop, srcUnit)
	if err != nil {
		return "", err
	}

	low, err := units.Convert(lowMgdl, displayUnit)
	if err != nil {
		return "", err
	}
	high, err := units.Convert(highMgdl, displayUnit)
	if err != nil {
		return "", err
	}

	lowStr, err := units.FormatBG(low, displayUnit)
	if err != nil {
		return "", err
	}
	highStr, err := units.FormatBG(high, displayUnit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s - %s %s", lowStr, highStr, displayUnit), nil
}
