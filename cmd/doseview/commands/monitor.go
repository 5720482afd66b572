package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkrenz/doseview/internal/logging"
	"github.com/mkrenz/doseview/internal/monitor"
	"github.com/mkrenz/doseview/internal/scheduler"
	"github.com/mkrenz/doseview/internal/store"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor [profile1] [profile2]",
	Short: "Record window progress in the foreground",
	Long: `Sample temporary target and profile switch progress on the configured
schedule and record the samples to the local database.

The schedule comes from monitor.cron or monitor.interval in the config;
with neither set, a 30 second interval is used. Samples older than
monitor.retention_days are pruned once a day.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	var name1, name2 string
	if len(args) > 0 {
		name1 = args[0]
	}
	if len(args) > 1 {
		name2 = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := initLogging(cfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.Component("monitor")

	unit, err := cfg.DisplayUnits()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.ExpandedDBPath())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("nightscout unreachable: %w", err)
	}

	refresher := &nsRefresher{client: client, name1: name1, name2: name2, unit: unit, db: db}
	sampler := monitor.New(
		monitor.WithUnit(unit),
		monitor.WithLogger(log),
	)

	mcfg := cfg.Monitor
	if mcfg.Cron == "" && mcfg.Interval == "" {
		mcfg.Interval = cfg.SampleInterval().String()
	}
	sched, err := scheduler.NewFromConfig(&mcfg)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.AddJob(func(jobCtx context.Context) error {
		if err := refresher.Refresh(jobCtx, sampler); err != nil {
			log.Err(err).Msg("refresh failed, sampling stale cells")
		}
		report, err := sampler.Snapshot(time.Now())
		if err != nil {
			return err
		}
		recordReport(db, log, report)
		return nil
	})

	startPruneLoop(ctx, db, cfg.Monitor.RetentionDays, log)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	log.InfoCtx("monitor running", map[string]any{
		"next_run": sched.NextRun().Format(time.RFC3339),
	})

	<-ctx.Done()

	if err := sched.Stop(); err != nil && err != scheduler.ErrNotRunning {
		log.Errorf("stopping scheduler: %v", err)
	}

	log.Info("monitor stopped")
	return nil
}

// recordReport persists one sample per domain with an active window.
func recordReport(db *store.Store, log *logging.Logger, r monitor.Report) {
	save := func(domain string, sample monitor.Sample) {
		if sample.Window == nil {
			return
		}
		err := db.SaveSample(store.Sample{
			Domain:    domain,
			Label:     sample.Window.Label,
			Mode:      sample.Window.Mode.String(),
			Start:     sample.Window.Start,
			Duration:  sample.Window.Duration,
			Ratio:     sample.Ratio,
			SampledAt: r.SampledAt,
		})
		if err != nil {
			log.Errorf("saving %s sample: %v", domain, err)
		}
	}

	save(monitor.DomainTempTarget, r.TempTarget)
	save(monitor.DomainProfileSwitch, r.ProfileSwitch)
}

// startPruneLoop deletes stored samples past the retention window once a day.
func startPruneLoop(ctx context.Context, db *store.Store, retentionDays int, log *logging.Logger) {
	if retentionDays <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retentionDays)
				pruned, err := db.Prune(cutoff)
				if err != nil {
					log.Warnf("prune: %v", err)
					continue
				}
				if pruned > 0 {
					log.Infof("prune: deleted %d rows", pruned)
				}
			}
		}
	}()
}
