package profile

import (
	"math"
	"testing"

	"github.com/mkrenz/doseview/internal/units"
)

func flatSchedule(v float64) Schedule {
	return Schedule{{Seconds: 0, Value: v}}
}

func testProfile() *Profile {
	return &Profile{
		Name: "Default",
		Basal: Schedule{
			{Seconds: 0, Value: 0.8},
			{Seconds: 6 * 3600, Value: 1.2},
			{Seconds: 22 * 3600, Value: 0.9},
		},
		CarbRatio:   flatSchedule(10),
		Sensitivity: flatSchedule(45),
		TargetLow:   flatSchedule(90),
		TargetHigh:  flatSchedule(120),
		Units:       units.MgdL,
		Percentage:  100,
	}
}

func TestScheduleValueAt(t *testing.T) {
	p := testProfile()

	tests := []struct {
		sec  int
		want float64
	}{
		{0, 0.8},
		{5*3600 + 3599, 0.8},
		{6 * 3600, 1.2},
		{12 * 3600, 1.2},
		{22 * 3600, 0.9},
		{SecondsPerDay - 1, 0.9},
	}
	for _, tt := range tests {
		if got := p.BasalAt(tt.sec); got != tt.want {
			t.Errorf("BasalAt(%d) = %v, want %v", tt.sec, got, tt.want)
		}
	}
}

func TestScheduleValueAtPanicsOutOfRange(t *testing.T) {
	for _, sec := range []int{-1, SecondsPerDay, SecondsPerDay + 3600} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ValueAt(%d) did not panic", sec)
				}
			}()
			flatSchedule(1).ValueAt(sec)
		}()
	}
}

func TestPercentBasalSum(t *testing.T) {
	p := testProfile()
	// 6h at 0.8 + 16h at 1.2 + 2h at 0.9 = 4.8 + 19.2 + 1.8
	want := 25.8
	if got := p.PercentBasalSum(); math.Abs(got-want) > 1e-9 {
		t.Errorf("PercentBasalSum() = %v, want %v", got, want)
	}

	p.Percentage = 50
	if got := p.PercentBasalSum(); math.Abs(got-want/2) > 1e-9 {
		t.Errorf("PercentBasalSum() at 50%% = %v, want %v", got, want/2)
	}
}

const storeJSON = `{
  "defaultProfile": "Default",
  "units": "mg/dl",
  "store": {
    "Default": {
      "dia": 5,
      "timezone": "Europe/Berlin",
      "basal": [
        {"time": "00:00", "value": 0.8, "timeAsSeconds": 0},
        {"time": "06:00", "value": 1.2, "timeAsSeconds": 21600}
      ],
      "carbratio": [{"time": "00:00", "value": "10"}],
      "sens": [{"time": "00:00", "value": 45}],
      "target_low": [{"time": "00:00", "value": 90}],
      "target_high": [{"time": "00:00", "value": 120}]
    },
    "Sport": {
      "dia": 5,
      "basal": [{"time": "00:00", "value": 0.6}],
      "carbratio": [{"time": "00:00", "value": 12}],
      "sens": [{"time": "00:00", "value": 50}],
      "target_low": [{"time": "00:00", "value": 110}],
      "target_high": [{"time": "00:00", "value": 140}]
    }
  }
}`

func TestParseStore(t *testing.T) {
	st, err := ParseStore([]byte(storeJSON))
	if err != nil {
		t.Fatalf("ParseStore() error = %v", err)
	}

	if st.DefaultProfile != "Default" {
		t.Errorf("DefaultProfile = %q, want Default", st.DefaultProfile)
	}
	if got := st.Names(); len(got) != 2 || got[0] != "Default" || got[1] != "Sport" {
		t.Errorf("Names() = %v", got)
	}

	p, err := st.Get("")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Name != "Default" {
		t.Errorf("default profile name = %q", p.Name)
	}
	if got := p.BasalAt(7 * 3600); got != 1.2 {
		t.Errorf("BasalAt(07:00) = %v, want 1.2", got)
	}
	if got := p.CarbRatioAt(0); got != 10 {
		t.Errorf("CarbRatioAt(0) = %v, want 10 (string value)", got)
	}
	if p.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", p.Timezone)
	}
	if p.DIA != 5 {
		t.Errorf("DIA = %v, want 5", p.DIA)
	}

	if _, err := st.Get("Nope"); err == nil {
		t.Error("Get(Nope) expected error")
	}
}

func TestParseStoreArrayForm(t *testing.T) {
	st, err := ParseStore([]byte("[" + storeJSON + "]"))
	if err != nil {
		t.Fatalf("ParseStore(array) error = %v", err)
	}
	if _, err := st.Get("Sport"); err != nil {
		t.Errorf("Get(Sport) error = %v", err)
	}
}

func TestParseStoreCanonicalizesMmol(t *testing.T) {
	mmolJSON := `{
	  "defaultProfile": "Default",
	  "units": "mmol",
	  "store": {
	    "Default": {
	      "basal": [{"time": "00:00", "value": 1.0}],
	      "carbratio": [{"time": "00:00", "value": 10}],
	      "sens": [{"time": "00:00", "value": 2.5}],
	      "target_low": [{"time": "00:00", "value": 5.0}],
	      "target_high": [{"time": "00:00", "value": 6.5}]
	    }
	  }
	}`

	st, err := ParseStore([]byte(mmolJSON))
	if err != nil {
		t.Fatalf("ParseStore() error = %v", err)
	}
	p, err := st.Get("")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := p.SensitivityAt(0); got != 45 {
		t.Errorf("SensitivityAt(0) = %v mg/dL, want 45", got)
	}
	if got := p.TargetLowAt(0); got != 90 {
		t.Errorf("TargetLowAt(0) = %v mg/dL, want 90", got)
	}
	if got := p.TargetHighAt(0); got != 117 {
		t.Errorf("TargetHighAt(0) = %v mg/dL, want 117", got)
	}
	if p.Units != units.MmolL {
		t.Errorf("Units = %v, want mmol/L", p.Units)
	}
	// Basal is not glucose-valued and must not be converted.
	if got := p.BasalAt(0); got != 1.0 {
		t.Errorf("BasalAt(0) = %v, want 1.0", got)
	}
}

func TestParseStoreRejectsBadSchedules(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"missing basal",
			`{"store": {"P": {"carbratio": [{"time":"00:00","value":10}], "sens": [{"time":"00:00","value":45}], "target_low": [{"time":"00:00","value":90}], "target_high": [{"time":"00:00","value":120}]}}}`,
		},
		{
			"does not start at midnight",
			`{"store": {"P": {"basal": [{"time":"06:00","value":1}], "carbratio": [{"time":"00:00","value":10}], "sens": [{"time":"00:00","value":45}], "target_low": [{"time":"00:00","value":90}], "target_high": [{"time":"00:00","value":120}]}}}`,
		},
		{
			"bad unit",
			`{"units": "moles", "store": {"P": {"basal": [{"time":"00:00","value":1}], "carbratio": [{"time":"00:00","value":10}], "sens": [{"time":"00:00","value":45}], "target_low": [{"time":"00:00","value":90}], "target_high": [{"time":"00:00","value":120}]}}}`,
		},
	}

	for _, tt := range tests {
		if _, err := ParseStore([]byte(tt.body)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestScheduleEntryTimeFallback(t *testing.T) {
	e := scheduleEntry{Time: "14:30"}
	sec, err := e.seconds()
	if err != nil {
		t.Fatalf("seconds() error = %v", err)
	}
	if sec != 14*3600+30*60 {
		t.Errorf("seconds() = %d, want %d", sec, 14*3600+30*60)
	}

	for _, bad := range []string{"", "25:00", "12:75", "noon"} {
		e := scheduleEntry{Time: bad}
		if _, err := e.seconds(); err == nil {
			t.Errorf("seconds(%q) expected error", bad)
		}
	}
}
