package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkrenz/doseview/internal/units"
)

func TestValidate_CronAndInterval(t *testing.T) {
	cfg := &Config{
		Monitor: MonitorConfig{
			Cron:     "*/5 * * * *",
			Interval: "1m",
		},
	}
	if err := Validate(cfg); err != ErrCronAndInterval {
		t.Errorf("expected ErrCronAndInterval, got %v", err)
	}
}

func TestValidate_InvalidInterval(t *testing.T) {
	cfg := &Config{
		Monitor: MonitorConfig{Interval: "soon"},
	}
	if err := Validate(cfg); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestValidate_InvalidRetention(t *testing.T) {
	cfg := &Config{
		Monitor: MonitorConfig{RetentionDays: -1},
	}
	if err := Validate(cfg); err != ErrInvalidRetention {
		t.Errorf("expected ErrInvalidRetention, got %v", err)
	}
}

func TestValidate_InvalidUnits(t *testing.T) {
	cfg := &Config{Units: "moles"}
	if err := Validate(cfg); err != ErrInvalidUnits {
		t.Errorf("expected ErrInvalidUnits, got %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "verbose"},
	}
	if err := Validate(cfg); err != ErrInvalidLogLevel {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Format: "xml"},
	}
	if err := Validate(cfg); err != ErrInvalidLogFormat {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Nightscout: NightscoutConfig{URL: "https://cgm.example.com"},
		Units:      "mmol",
		Monitor:    MonitorConfig{Interval: "30s", RetentionDays: 14},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doseview.yaml")
	body := `
nightscout:
  url: https://cgm.example.com
  api_secret: hunter2
units: mmol
monitor:
  interval: 1m
  retention_days: 14
db_path: ` + filepath.Join(dir, "doseview.db") + `
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Nightscout.URL != "https://cgm.example.com" {
		t.Errorf("url = %q", cfg.Nightscout.URL)
	}
	if cfg.Monitor.RetentionDays != 14 {
		t.Errorf("retention = %d, want 14", cfg.Monitor.RetentionDays)
	}
	if got := cfg.SampleInterval(); got != time.Minute {
		t.Errorf("SampleInterval() = %v, want 1m", got)
	}
	u, err := cfg.DisplayUnits()
	if err != nil {
		t.Fatalf("DisplayUnits() error = %v", err)
	}
	if u != units.MmolL {
		t.Errorf("DisplayUnits() = %v, want mmol/L", u)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.SampleInterval(); got != 30*time.Second {
		t.Errorf("SampleInterval() = %v, want 30s", got)
	}
	u, err := cfg.DisplayUnits()
	if err != nil {
		t.Fatalf("DisplayUnits() error = %v", err)
	}
	if u != units.MgdL {
		t.Errorf("DisplayUnits() = %v, want mg/dL", u)
	}
	if cfg.Monitor.RetentionDays != 30 {
		t.Errorf("retention = %d, want 30", cfg.Monitor.RetentionDays)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/data/doseview.db", filepath.Join(home, "data", "doseview.db")},
		{"/abs/path.db", "/abs/path.db"},
		{"relative.db", "relative.db"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExpandedDBPathDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ExpandedDBPath(); !strings.HasSuffix(got, filepath.Join("doseview", "doseview.db")) {
		t.Errorf("ExpandedDBPath() = %q", got)
	}
}
