package monitor

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkrenz/doseview/internal/profile"
)

// Refresher pulls fresh upstream snapshots into the sampler's cells, e.g.
// from Nightscout. Implementations must only call the Set* methods.
type Refresher interface {
	Refresh(ctx context.Context, s *Sampler) error
}

// Run samples on the configured interval until the context is cancelled.
// Each tick refreshes the cells (when a refresher is given), recomputes the
// report, and hands it to the report callback.
func (s *Sampler) Run(ctx context.Context, refresher Refresher) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sample once immediately; a 30s cadence should not mean a 30s blank.
	s.tick(ctx, refresher)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, refresher)
		}
	}
}

func (s *Sampler) tick(ctx context.Context, refresher Refresher) {
	if refresher != nil {
		if err := refresher.Refresh(ctx, s); err != nil {
			s.log.Err(err).Msg("refresh failed, sampling stale cells")
		}
	}

	now := s.nowFunc()
	report, err := s.Snapshot(now)
	if err != nil {
		s.log.Err(err).Msg("recompute failed")
		return
	}

	s.log.DebugCtx("sampled", map[string]any{
		"temp_target_ratio":    report.TempTarget.Ratio,
		"profile_switch_ratio": report.ProfileSwitch.Ratio,
	})

	if s.onReport != nil {
		s.onReport(report)
	}
}

// WatchProfileFiles reloads the profile pair whenever either local JSON file
// changes, until the context is cancelled. Updated cells are picked up by
// the next tick.
func (s *Sampler) WatchProfileFiles(ctx context.Context, path1, path2 string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path1); err != nil {
		_ = watcher.Close()
		return err
	}
	if err := watcher.Add(path2); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				s.reloadFiles(path1, path2)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Err(err).Msg("profile watch error")
			}
		}
	}()

	return nil
}

func (s *Sampler) reloadFiles(path1, path2 string) {
	p1, err := profile.LoadFile(path1)
	if err != nil {
		s.log.Err(err).Str("path", path1).Msg("reload profile failed")
		return
	}
	p2, err := profile.LoadFile(path2)
	if err != nil {
		s.log.Err(err).Str("path", path2).Msg("reload profile failed")
		return
	}

	s.SetProfiles(p1, p2, p1.Name, p2.Name)
	s.log.InfoCtx("profiles reloaded", map[string]any{
		"profile1": p1.Name,
		"profile2": p2.Name,
	})
}
