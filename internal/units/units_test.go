package units

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"mg/dl", MgdL, false},
		{"mgdl", MgdL, false},
		{"mmol", MmolL, false},
		{"mmol/l", MmolL, false},
		{"MMOL/L", MmolL, false},
		{" mg/dl ", MgdL, false},
		{"", MgdL, true},
		{"mol", MgdL, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(180, MmolL)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != 10.0 {
		t.Errorf("Convert(180, mmol/L) = %v, want 10", got)
	}

	got, err = Convert(100, MgdL)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != 100 {
		t.Errorf("Convert(100, mg/dL) = %v, want 100", got)
	}

	if _, err := Convert(100, Unit(99)); err == nil {
		t.Error("Convert() expected error for unknown unit")
	}
}

func TestToMgdlRoundTrip(t *testing.T) {
	mmol, err := Convert(90, MmolL)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	back, err := ToMgdl(mmol, MmolL)
	if err != nil {
		t.Fatalf("ToMgdl() error = %v", err)
	}
	if back != 90 {
		t.Errorf("round trip = %v, want 90", back)
	}
}

func TestDecimals(t *testing.T) {
	if d, _ := Decimals(MgdL); d != 0 {
		t.Errorf("Decimals(mg/dL) = %d, want 0", d)
	}
	if d, _ := Decimals(MmolL); d != 1 {
		t.Errorf("Decimals(mmol/L) = %d, want 1", d)
	}
	if _, err := Decimals(Unit(7)); err == nil {
		t.Error("Decimals() expected error for unknown unit")
	}
}

func TestFormatBG(t *testing.T) {
	tests := []struct {
		value float64
		unit  Unit
		want  string
	}{
		{100, MgdL, "100"},
		{99.6, MgdL, "100"},
		{5.5, MmolL, "5.5"},
		{5.55, MmolL, "5.5"},
	}

	for _, tt := range tests {
		got, err := FormatBG(tt.value, tt.unit)
		if err != nil {
			t.Fatalf("FormatBG(%v, %v) error = %v", tt.value, tt.unit, err)
		}
		if got != tt.want {
			t.Errorf("FormatBG(%v, %v) = %q, want %q", tt.value, tt.unit, got, tt.want)
		}
	}
}
