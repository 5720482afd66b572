package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doseview.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRunsMigrations(t *testing.T) {
	st := openTestStore(t)

	version, err := CurrentVersion(st.SQL())
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doseview.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = st.Close()
}

func TestProfileSnapshotRoundTrip(t *testing.T) {
	st := openTestStore(t)

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	snaps := []ProfileSnapshot{
		{Name: "Default", FetchedAt: base, Units: "mg/dl", Body: []byte(`{"v":1}`)},
		{Name: "Default", FetchedAt: base.Add(time.Hour), Units: "mg/dl", Body: []byte(`{"v":2}`)},
		{Name: "Sport", FetchedAt: base.Add(2 * time.Hour), Units: "mmol", Body: []byte(`{"v":3}`)},
	}
	for _, snap := range snaps {
		if err := st.SaveProfileSnapshot(snap); err != nil {
			t.Fatalf("save snapshot: %v", err)
		}
	}

	got, err := st.LatestProfileSnapshots("Default", 2)
	if err != nil {
		t.Fatalf("latest snapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	if string(got[0].Body) != `{"v":2}` {
		t.Errorf("newest body = %s, want {\"v\":2}", got[0].Body)
	}

	all, err := st.LatestProfileSnapshots("", 10)
	if err != nil {
		t.Fatalf("latest snapshots (any): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d snapshots, want 3", len(all))
	}
	if all[0].Name != "Sport" {
		t.Errorf("newest snapshot name = %q, want Sport", all[0].Name)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	st := openTestStore(t)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := Sample{
		Domain:    "temp_target",
		Label:     "Eating Soon",
		Mode:      "active",
		Start:     start,
		Duration:  30 * time.Minute,
		Ratio:     0.5,
		SampledAt: start.Add(15 * time.Minute),
	}
	if err := st.SaveSample(sample); err != nil {
		t.Fatalf("save sample: %v", err)
	}
	other := sample
	other.Domain = "profile_switch"
	other.Label = "Weekend 90%"
	if err := st.SaveSample(other); err != nil {
		t.Fatalf("save sample: %v", err)
	}

	got, err := st.RecentSamples("temp_target", 5)
	if err != nil {
		t.Fatalf("recent samples: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d samples, want 1", len(got))
	}
	if got[0].Label != "Eating Soon" {
		t.Errorf("label = %q", got[0].Label)
	}
	if got[0].Duration != 30*time.Minute {
		t.Errorf("duration = %v, want 30m", got[0].Duration)
	}
	if got[0].Ratio != 0.5 {
		t.Errorf("ratio = %v, want 0.5", got[0].Ratio)
	}
}

func TestPrune(t *testing.T) {
	st := openTestStore(t)

	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)

	if err := st.SaveSample(Sample{Domain: "temp_target", Label: "old", Mode: "active", Start: old, Duration: time.Hour, SampledAt: old}); err != nil {
		t.Fatalf("save sample: %v", err)
	}
	if err := st.SaveSample(Sample{Domain: "temp_target", Label: "new", Mode: "active", Start: now, Duration: time.Hour, SampledAt: now}); err != nil {
		t.Fatalf("save sample: %v", err)
	}
	if err := st.SaveProfileSnapshot(ProfileSnapshot{Name: "Default", FetchedAt: old, Units: "mg/dl", Body: []byte(`{}`)}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	pruned, err := st.Prune(now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned)
	}

	remaining, err := st.RecentSamples("temp_target", 10)
	if err != nil {
		t.Fatalf("recent samples: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Label != "new" {
		t.Errorf("remaining = %+v", remaining)
	}
}
