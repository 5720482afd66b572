package nightscout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkrenz/doseview/internal/units"
	"github.com/mkrenz/doseview/internal/window"
)

const profileStoreBody = `[{
  "defaultProfile": "Default",
  "units": "mg/dl",
  "store": {
    "Default": {
      "basal": [{"time": "00:00", "value": 1.0}],
      "carbratio": [{"time": "00:00", "value": 10}],
      "sens": [{"time": "00:00", "value": 45}],
      "target_low": [{"time": "00:00", "value": 90}],
      "target_high": [{"time": "00:00", "value": 120}]
    }
  }
}]`

func TestGetProfileStore(t *testing.T) {
	var gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/profile.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotSecret = r.Header.Get("API-SECRET")
		_, _ = w.Write([]byte(profileStoreBody))
	}))
	defer server.Close()

	client := New(server.URL, "hunter2", "", false)
	st, raw, err := client.GetProfileStore(context.Background())
	if err != nil {
		t.Fatalf("GetProfileStore() error = %v", err)
	}

	if len(raw) == 0 {
		t.Error("raw body is empty")
	}
	p, err := st.Get("")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.BasalAt(0) != 1.0 {
		t.Errorf("BasalAt(0) = %v, want 1.0", p.BasalAt(0))
	}

	// SHA1 of "hunter2"
	if gotSecret != "f3bbbd66a63d4bf1747940578ec3d0103530e21d" {
		t.Errorf("API-SECRET = %q", gotSecret)
	}
}

func TestGetTreatmentsTokenAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("find[eventType]"); got != EventTemporaryTarget {
			t.Errorf("eventType = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "1" {
			t.Errorf("count = %q", got)
		}
		_, _ = w.Write([]byte(`[{"_id":"t1","eventType":"Temporary Target","date":1709294400000,"duration":30,"targetBottom":90,"targetTop":90,"reason":"Activity"}]`))
	}))
	defer server.Close()

	client := New(server.URL, "", "tok123", true)
	treatments, err := client.GetTreatments(context.Background(), EventTemporaryTarget, 1)
	if err != nil {
		t.Fatalf("GetTreatments() error = %v", err)
	}
	if len(treatments) != 1 {
		t.Fatalf("got %d treatments, want 1", len(treatments))
	}
	if treatments[0].Reason != "Activity" {
		t.Errorf("reason = %q", treatments[0].Reason)
	}
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, "", "", false)
	if _, err := client.GetTreatments(context.Background(), EventProfileSwitch, 1); err == nil {
		t.Error("expected error for 401 response")
	}
}

func TestTreatmentWindowStateTempTarget(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := Treatment{
		EventType:    EventTemporaryTarget,
		Date:         start.UnixMilli(),
		Duration:     30,
		TargetBottom: 90,
		TargetTop:    90,
	}

	st, err := tr.WindowState(units.MgdL)
	if err != nil {
		t.Fatalf("WindowState() error = %v", err)
	}
	if st.Mode != window.ModeActive {
		t.Errorf("mode = %v, want active", st.Mode)
	}
	if !st.Start.Equal(start) {
		t.Errorf("start = %v, want %v", st.Start, start)
	}
	if st.Duration != 30*time.Minute {
		t.Errorf("duration = %v, want 30m", st.Duration)
	}
	if st.Label != "90 - 90 mg/dL" {
		t.Errorf("label = %q", st.Label)
	}
}

func TestTreatmentWindowStateAdjusted(t *testing.T) {
	tr := Treatment{
		EventType:    EventTemporaryTarget,
		Date:         time.Now().UnixMilli(),
		Duration:     60,
		TargetBottom: 5.0,
		TargetTop:    5.0,
		Units:        "mmol",
		Reason:       "Hypo prevention",
	}

	st, err := tr.WindowState(units.MmolL)
	if err != nil {
		t.Fatalf("WindowState() error = %v", err)
	}
	if st.Mode != window.ModeAdjusted {
		t.Errorf("mode = %v, want adjusted", st.Mode)
	}
	if st.Label != "5.0 - 5.0 mmol/L" {
		t.Errorf("label = %q", st.Label)
	}
}

func TestTreatmentWindowStateCancellation(t *testing.T) {
	tr := Treatment{
		EventType: EventTemporaryTarget,
		Date:      time.Now().UnixMilli(),
		Duration:  0,
	}

	st, err := tr.WindowState(units.MgdL)
	if err != nil {
		t.Fatalf("WindowState() error = %v", err)
	}
	if st.Mode != window.ModeNone {
		t.Errorf("mode = %v, want none", st.Mode)
	}
	if got := window.Progress(st, time.Now()); got != 0 {
		t.Errorf("Progress(cancelled) = %v, want 0", got)
	}
}

func TestTreatmentWindowStateProfileSwitch(t *testing.T) {
	tr := Treatment{
		EventType:  EventProfileSwitch,
		Date:       time.Now().UnixMilli(),
		Duration:   120,
		Profile:    "Weekend",
		Percentage: 90,
	}

	st, err := tr.WindowState(units.MgdL)
	if err != nil {
		t.Fatalf("WindowState() error = %v", err)
	}
	if st.Label != "Weekend 90%" {
		t.Errorf("label = %q", st.Label)
	}
	if st.Duration != 2*time.Hour {
		t.Errorf("duration = %v, want 2h", st.Duration)
	}
}

func TestTreatmentWindowStateUnknownEvent(t *testing.T) {
	tr := Treatment{EventType: "Meal Bolus", Duration: 30}
	if _, err := tr.WindowState(units.MgdL); err == nil {
		t.Error("expected error for unmapped event type")
	}
}
