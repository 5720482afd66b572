// Package compare builds compact per-parameter diff tables for two dosing
// profiles. Each table covers a full day at hour granularity, collapsing
// consecutive hours where neither profile's value changes into a single row.
package compare

import (
	"fmt"

	"github.com/mkrenz/doseview/internal/units"
)

// TotalLabel marks the trailing basal-sum row.
const TotalLabel = "Σ"

// ProfileSource is the read-only contract the engine needs from a profile.
// Sensitivity and target values are returned in mg/dL; the engine converts
// them to the requested display unit before comparing or formatting.
type ProfileSource interface {
	BasalAt(secondOfDay int) float64
	CarbRatioAt(secondOfDay int) float64
	SensitivityAt(secondOfDay int) float64
	TargetLowAt(secondOfDay int) float64
	TargetHighAt(secondOfDay int) float64
	PercentBasalSum() float64
}

// Row is one emitted line of a diff table.
type Row struct {
	Time   string
	Value1 string
	Value2 string
}

// Table is the ordered diff for one parameter kind.
type Table struct {
	Title string
	Name1 string
	Name2 string
	Unit  string
	Rows  []Row
}

// Result bundles the four tables built for a profile pair.
type Result struct {
	Basal       Table
	CarbRatio   Table
	Sensitivity Table
	Target      Table
}

// Build produces the four comparison tables for two profiles. Glucose-valued
// parameters are converted into the display unit before the equality test,
// so a difference that vanishes after conversion does not emit a row. An
// unknown display unit fails the whole build.
func Build(p1, p2 ProfileSource, name1, name2 string, unit units.Unit) (Result, error) {
	bgDecimals, err := units.Decimals(unit)
	if err != nil {
		return Result{}, fmt.Errorf("building comparison: %w", err)
	}

	basal := buildSingle(p1, p2, ProfileSource.BasalAt, 2)
	basal = append(basal, Row{
		Time:   TotalLabel,
		Value1: fmt.Sprintf("%.2f", p1.PercentBasalSum()),
		Value2: fmt.Sprintf("%.2f", p2.PercentBasalSum()),
	})

	carbRatio := buildSingle(p1, p2, ProfileSource.CarbRatioAt, 1)

	sens, err := buildConverted(p1, p2, ProfileSource.SensitivityAt, unit, 1)
	if err != nil {
		return Result{}, err
	}

	target, err := buildTarget(p1, p2, unit, bgDecimals)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Basal:       Table{Title: "Basal rate", Name1: name1, Name2: name2, Unit: "U/h", Rows: basal},
		CarbRatio:   Table{Title: "Carb ratio", Name1: name1, Name2: name2, Unit: "g/U", Rows: carbRatio},
		Sensitivity: Table{Title: "Sensitivity", Name1: name1, Name2: name2, Unit: unit.String() + "/U", Rows: sens},
		Target:      Table{Title: "Target range", Name1: name1, Name2: name2, Unit: unit.String(), Rows: target},
	}, nil
}

// tracker remembers the last value pair seen, with an explicit "no sample
// yet" state instead of an out-of-domain sentinel.
type tracker struct {
	seen   bool
	v1, v2 float64
}

func (t *tracker) changed(v1, v2 float64) bool {
	defer func() { t.seen, t.v1, t.v2 = true, v1, v2 }()
	return !t.seen || t.v1 != v1 || t.v2 != v2
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// buildSingle walks the 24 hour boundaries for a parameter read as-is
// (no unit conversion), emitting one row per maximal run of equal values.
func buildSingle(p1, p2 ProfileSource, read func(ProfileSource, int) float64, decimals int) []Row {
	rows := make([]Row, 0, 4)
	var prev tracker

	for hour := 0; hour < 24; hour++ {
		sec := hour * 3600
		v1 := read(p1, sec)
		v2 := read(p2, sec)
		if prev.changed(v1, v2) {
			rows = append(rows, Row{
				Time:   hourLabel(hour),
				Value1: fmt.Sprintf("%.*f", decimals, v1),
				Value2: fmt.Sprintf("%.*f", decimals, v2),
			})
		}
	}
	return rows
}

// buildConverted is buildSingle for glucose-valued parameters: values are
// converted into the display unit before comparison and formatting.
func buildConverted(p1, p2 ProfileSource, read func(ProfileSource, int) float64, unit units.Unit, decimals int) ([]Row, error) {
	rows := make([]Row, 0, 4)
	var prev tracker

	for hour := 0; hour < 24; hour++ {
		sec := hour * 3600
		v1, err := units.Convert(read(p1, sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}
		v2, err := units.Convert(read(p2, sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}
		if prev.changed(v1, v2) {
			rows = append(rows, Row{
				Time:   hourLabel(hour),
				Value1: fmt.Sprintf("%.*f", decimals, v1),
				Value2: fmt.Sprintf("%.*f", decimals, v2),
			})
		}
	}
	return rows, nil
}

// buildTarget tracks both bounds per profile (four values) and renders each
// profile's cell as "<low> - <high>" with the unit's precision.
func buildTarget(p1, p2 ProfileSource, unit units.Unit, decimals int) ([]Row, error) {
	rows := make([]Row, 0, 4)
	var prevLow, prevHigh tracker

	for hour := 0; hour < 24; hour++ {
		sec := hour * 3600

		low1, err := units.Convert(p1.TargetLowAt(sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}
		high1, err := units.Convert(p1.TargetHighAt(sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}
		low2, err := units.Convert(p2.TargetLowAt(sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}
		high2, err := units.Convert(p2.TargetHighAt(sec), unit)
		if err != nil {
			return nil, fmt.Errorf("building comparison: %w", err)
		}

		lowChanged := prevLow.changed(low1, low2)
		highChanged := prevHigh.changed(high1, high2)
		if lowChanged || highChanged {
			rows = append(rows, Row{
				Time:   hourLabel(hour),
				Value1: fmt.Sprintf("%.*f - %.*f", decimals, low1, decimals, high1),
				Value2: fmt.Sprintf("%.*f - %.*f", decimals, low2, decimals, high2),
			})
		}
	}
	return rows, nil
}
