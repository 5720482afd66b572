package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrenz/doseview/internal/config"
	"github.com/mkrenz/doseview/internal/logging"
	"github.com/mkrenz/doseview/internal/monitor"
	"github.com/mkrenz/doseview/internal/nightscout"
	"github.com/mkrenz/doseview/internal/profile"
	"github.com/mkrenz/doseview/internal/store"
	"github.com/mkrenz/doseview/internal/units"
	"github.com/mkrenz/doseview/internal/window"
)

// loadConfig loads the config file honoring the --config flag.
func loadConfig() (*config.Config, error) {
	if configFlag != "" {
		return config.LoadFrom(config.ExpandPath(configFlag))
	}
	return config.Load()
}

func initLogging(cfg *config.Config) error {
	return logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Path:   config.ExpandPath(cfg.Logging.Path),
		Format: cfg.Logging.Format,
	})
}

func newClient(cfg *config.Config) (*nightscout.Client, error) {
	if cfg.Nightscout.URL == "" {
		return nil, config.ErrMissingURL
	}
	return nightscout.New(
		cfg.Nightscout.URL,
		cfg.Nightscout.APISecret,
		cfg.Nightscout.APIToken,
		cfg.Nightscout.UseToken,
	), nil
}

// loadProfilePair resolves the two profiles to compare. Local file flags win
// over Nightscout store names.
func loadProfilePair(ctx context.Context, cfg *config.Config, name1, name2, file1, file2 string) (*profile.Profile, *profile.Profile, string, string, error) {
	if file1 != "" || file2 != "" {
		if file1 == "" || file2 == "" {
			return nil, nil, "", "", fmt.Errorf("both --file1 and --file2 are required for file comparison")
		}
		p1, err := profile.LoadFile(file1)
		if err != nil {
			return nil, nil, "", "", err
		}
		p2, err := profile.LoadFile(file2)
		if err != nil {
			return nil, nil, "", "", err
		}
		return p1, p2, p1.Name, p2.Name, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, "", "", err
	}

	st, _, err := client.GetProfileStore(ctx)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("fetching profile store: %w", err)
	}

	p1, err := st.Get(name1)
	if err != nil {
		return nil, nil, "", "", err
	}
	p2, err := st.Get(name2)
	if err != nil {
		return nil, nil, "", "", err
	}
	return p1, p2, p1.Name, p2.Name, nil
}

// nsRefresher feeds the sampler's cells from a Nightscout server. When a
// store is attached, each fetched profile document is kept as a snapshot.
type nsRefresher struct {
	client *nightscout.Client
	name1  string
	name2  string
	unit   units.Unit
	db     *store.Store
}

// Refresh implements monitor.Refresher.
func (r *nsRefresher) Refresh(ctx context.Context, s *monitor.Sampler) error {
	st, body, err := r.client.GetProfileStore(ctx)
	if err != nil {
		return fmt.Errorf("profile store: %w", err)
	}

	p1, err := st.Get(r.name1)
	if err != nil {
		return err
	}
	p2, err := st.Get(r.name2)
	if err != nil {
		return err
	}
	s.SetProfiles(p1, p2, p1.Name, p2.Name)

	if r.db != nil {
		snap := store.ProfileSnapshot{
			Name:      st.DefaultProfile,
			FetchedAt: time.Now(),
			Units:     st.Units.String(),
			Body:      body,
		}
		if err := r.db.SaveProfileSnapshot(snap); err != nil {
			return fmt.Errorf("saving profile snapshot: %w", err)
		}
	}

	s.SetTempTarget(r.latestWindow(ctx, nightscout.EventTemporaryTarget))
	s.SetProfileSwitch(r.latestWindow(ctx, nightscout.EventProfileSwitch))
	return nil
}

// latestWindow resolves the newest treatment of one event type to a window
// state. No treatment, or a treatment that does not map, means no window.
func (r *nsRefresher) latestWindow(ctx context.Context, eventType string) *window.State {
	treatments, err := r.client.GetTreatments(ctx, eventType, 1)
	if err != nil || len(treatments) == 0 {
		return nil
	}
	st, err := treatments[0].WindowState(r.unit)
	if err != nil {
		return nil
	}
	return st
}
