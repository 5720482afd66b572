// Package monitor holds the latest profile and window snapshots and
// recomputes derived output from them on every tick. Each upstream source
// is a latest-value cell; any cell update or clock tick triggers a full
// recompute, never an incremental patch of previous output.
package monitor

import (
	"sync"
	"time"

	"github.com/mkrenz/doseview/internal/compare"
	"github.com/mkrenz/doseview/internal/logging"
	"github.com/mkrenz/doseview/internal/profile"
	"github.com/mkrenz/doseview/internal/units"
	"github.com/mkrenz/doseview/internal/window"
)

// Domains the progress function is sampled for.
const (
	DomainTempTarget    = "temp_target"
	DomainProfileSwitch = "profile_switch"
)

// DefaultInterval is the reference sampling cadence. The engine itself does
// not depend on it; callers may tick at any rate.
const DefaultInterval = 30 * time.Second

// Sample pairs a window snapshot with its progress ratio at sampling time.
type Sample struct {
	Window *window.State
	Ratio  float64
}

// Report is the full derived output of one recompute.
type Report struct {
	SampledAt     time.Time
	TempTarget    Sample
	ProfileSwitch Sample
	Comparison    *compare.Result
}

// Sampler keeps the latest upstream snapshots and recomputes reports from
// them. All cells are guarded by one mutex; Snapshot never mutates them.
type Sampler struct {
	mu sync.Mutex

	profile1, profile2 *profile.Profile
	name1, name2       string
	tempTarget         *window.State
	profileSwitch      *window.State

	unit     units.Unit
	interval time.Duration
	nowFunc  func() time.Time
	log      *logging.Logger

	onReport func(Report)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithUnit sets the display unit used for comparison tables.
func WithUnit(u units.Unit) Option {
	return func(s *Sampler) { s.unit = u }
}

// WithInterval sets the tick cadence for Run.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the sampler's logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Sampler) { s.log = log }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.nowFunc = now }
}

// WithReportFunc registers a callback invoked with every report Run
// produces.
func WithReportFunc(fn func(Report)) Option {
	return func(s *Sampler) { s.onReport = fn }
}

// New creates a Sampler.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		unit:     units.MgdL,
		interval: DefaultInterval,
		nowFunc:  time.Now,
		log:      logging.Component("monitor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProfiles updates the profile pair cell.
func (s *Sampler) SetProfiles(p1, p2 *profile.Profile, name1, name2 string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile1, s.profile2 = p1, p2
	s.name1, s.name2 = name1, name2
}

// SetTempTarget updates the temp-target cell.
func (s *Sampler) SetTempTarget(st *window.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempTarget = st
}

// SetProfileSwitch updates the profile-switch cell.
func (s *Sampler) SetProfileSwitch(st *window.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileSwitch = st
}

// Snapshot recomputes the derived output from the current cells. It is safe
// to call at any cadence; the result depends only on the cells and the
// given time.
func (s *Sampler) Snapshot(now time.Time) (Report, error) {
	s.mu.Lock()
	p1, p2 := s.profile1, s.profile2
	name1, name2 := s.name1, s.name2
	tt, ps := s.tempTarget, s.profileSwitch
	unit := s.unit
	s.mu.Unlock()

	report := Report{
		SampledAt:     now,
		TempTarget:    Sample{Window: tt, Ratio: window.Progress(tt, now)},
		ProfileSwitch: Sample{Window: ps, Ratio: window.Progress(ps, now)},
	}

	if p1 != nil && p2 != nil {
		result, err := compare.Build(p1, p2, name1, name2, unit)
		if err != nil {
			return Report{}, err
		}
		report.Comparison = &result
	}

	return report, nil
}
