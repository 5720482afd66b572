// Package profile models a versioned 24-hour dosing schedule: basal rates,
// insulin-to-carb ratios, insulin sensitivity factors, and target ranges.
// Glucose-related values are canonicalized to mg/dL at load time so profiles
// stored in different units compare equal.
package profile

import (
	"fmt"
	"sort"

	"github.com/mkrenz/doseview/internal/units"
)

// SecondsPerDay bounds the valid second-of-day offsets [0, 86400).
const SecondsPerDay = 24 * 60 * 60

// Block is one schedule entry: the value in effect from Seconds onward
// until the next block starts.
type Block struct {
	Seconds int
	Value   float64
}

// Schedule is an ordered set of blocks covering a day. Blocks are sorted by
// start offset; the first block must start at 0.
type Schedule []Block

// ValueAt returns the value in effect at the given second-of-day offset.
// Offsets outside [0, 86400) are a caller contract violation and panic.
func (s Schedule) ValueAt(sec int) float64 {
	if sec < 0 || sec >= SecondsPerDay {
		panic(fmt.Sprintf("profile: second-of-day offset %d out of range [0, %d)", sec, SecondsPerDay))
	}
	if len(s) == 0 {
		panic("profile: empty schedule")
	}

	value := s[0].Value
	for _, b := range s {
		if b.Seconds > sec {
			break
		}
		value = b.Value
	}
	return value
}

// normalize sorts blocks by start offset and validates coverage from 00:00.
func (s Schedule) normalize() (Schedule, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("schedule has no entries")
	}
	out := make(Schedule, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	if out[0].Seconds != 0 {
		return nil, fmt.Errorf("schedule does not start at 00:00 (first block at %ds)", out[0].Seconds)
	}
	for _, b := range out {
		if b.Seconds < 0 || b.Seconds >= SecondsPerDay {
			return nil, fmt.Errorf("schedule block offset %ds out of range", b.Seconds)
		}
	}
	return out, nil
}

// convert returns a copy of the schedule with every value converted from the
// given unit to mg/dL.
func (s Schedule) convert(from units.Unit) (Schedule, error) {
	out := make(Schedule, len(s))
	for i, b := range s {
		v, err := units.ToMgdl(b.Value, from)
		if err != nil {
			return nil, err
		}
		out[i] = Block{Seconds: b.Seconds, Value: v}
	}
	return out, nil
}

// Profile is a complete dosing profile. Sensitivity and target schedules
// hold mg/dL values regardless of the source document's units.
type Profile struct {
	Name        string
	Basal       Schedule // units/hour
	CarbRatio   Schedule // grams per unit
	Sensitivity Schedule // mg/dL per unit
	TargetLow   Schedule // mg/dL
	TargetHigh  Schedule // mg/dL

	// Units is the display unit the profile document declares.
	Units units.Unit
	// Percentage scales the basal schedule (profile switches run a profile
	// at e.g. 90%). 100 for a plain profile.
	Percentage int
	Timezone   string
	DIA        float64
}

// BasalAt returns the basal rate (U/h) in effect at the offset.
func (p *Profile) BasalAt(sec int) float64 { return p.Basal.ValueAt(sec) }

// CarbRatioAt returns the insulin-to-carb ratio in effect at the offset.
func (p *Profile) CarbRatioAt(sec int) float64 { return p.CarbRatio.ValueAt(sec) }

// SensitivityAt returns the ISF (mg/dL per unit) in effect at the offset.
func (p *Profile) SensitivityAt(sec int) float64 { return p.Sensitivity.ValueAt(sec) }

// TargetLowAt returns the low target bound (mg/dL) in effect at the offset.
func (p *Profile) TargetLowAt(sec int) float64 { return p.TargetLow.ValueAt(sec) }

// TargetHighAt returns the high target bound (mg/dL) in effect at the offset.
func (p *Profile) TargetHighAt(sec int) float64 { return p.TargetHigh.ValueAt(sec) }

// DisplayUnits returns the unit the profile wants glucose values shown in.
func (p *Profile) DisplayUnits() units.Unit { return p.Units }

// PercentBasalSum returns the daily basal total (sum of the 24 hourly
// in-effect rates, U/day) scaled by the profile switch percentage.
func (p *Profile) PercentBasalSum() float64 {
	sum := 0.0
	for hour := 0; hour < 24; hour++ {
		sum += p.Basal.ValueAt(hour * 3600)
	}
	pct := p.Percentage
	if pct == 0 {
		pct = 100
	}
	return sum * float64(pct) / 100.0
}

// Validate checks that every schedule is present and well formed.
func (p *Profile) Validate() error {
	checks := []struct {
		name string
		s    Schedule
	}{
		{"basal", p.Basal},
		{"carbratio", p.CarbRatio},
		{"sens", p.Sensitivity},
		{"target_low", p.TargetLow},
		{"target_high", p.TargetHigh},
	}
	for _, c := range checks {
		if _, err := c.s.normalize(); err != nil {
			return fmt.Errorf("profile %q: %s: %w", p.Name, c.name, err)
		}
	}
	return nil
}
