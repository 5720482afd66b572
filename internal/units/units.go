// Package units handles glucose display units and conversion from the
// mg/dL base unit values are stored in.
package units

import (
	"fmt"
	"strings"
)

// Unit is a glucose display unit.
type Unit int

const (
	// MgdL is the base unit; all stored glucose values are mg/dL.
	MgdL Unit = iota
	// MmolL is the fine-grained display unit used outside the US.
	MmolL
)

// mgdlPerMmol converts between the two unit systems.
const mgdlPerMmol = 18.0

func (u Unit) String() string {
	switch u {
	case MgdL:
		return "mg/dL"
	case MmolL:
		return "mmol/L"
	default:
		return "unknown"
	}
}

// decimals maps each unit to the display precision for glucose values.
// mg/dL readings are whole numbers; mmol/L needs one decimal to be useful.
var decimals = map[Unit]int{
	MgdL:  0,
	MmolL: 1,
}

// Parse resolves the unit spellings Nightscout uses ("mg/dl", "mmol",
// "mmol/l", ...) to a Unit.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mg/dl", "mgdl":
		return MgdL, nil
	case "mmol", "mmol/l", "mmoll":
		return MmolL, nil
	default:
		return MgdL, fmt.Errorf("unknown glucose unit %q", s)
	}
}

// Convert converts a stored mg/dL value into the target display unit.
func Convert(mgdl float64, to Unit) (float64, error) {
	switch to {
	case MgdL:
		return mgdl, nil
	case MmolL:
		return mgdl / mgdlPerMmol, nil
	default:
		return 0, fmt.Errorf("unknown glucose unit %d", int(to))
	}
}

// ToMgdl converts a value expressed in the given unit back to mg/dL.
func ToMgdl(value float64, from Unit) (float64, error) {
	switch from {
	case MgdL:
		return value, nil
	case MmolL:
		return value * mgdlPerMmol, nil
	default:
		return 0, fmt.Errorf("unknown glucose unit %d", int(from))
	}
}

// Decimals returns the display precision for glucose values in the unit.
func Decimals(u Unit) (int, error) {
	d, ok := decimals[u]
	if !ok {
		return 0, fmt.Errorf("unknown glucose unit %d", int(u))
	}
	return d, nil
}

// FormatBG formats a glucose value already expressed in the given unit,
// using that unit's precision.
func FormatBG(value float64, u Unit) (string, error) {
	d, err := Decimals(u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.*f", d, value), nil
}
