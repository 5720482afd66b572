package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkrenz/doseview/internal/monitor"
	"github.com/mkrenz/doseview/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded window progress",
	Long: `Display recent window progress samples and profile fetches recorded
by the monitor command.

Shows the last N samples per domain (default: 5).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		last, _ := cmd.Flags().GetInt("last")
		domain, _ := cmd.Flags().GetString("domain")

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := store.Open(cfg.ExpandedDBPath())
		if err != nil {
			return fmt.Errorf("opening db: %w", err)
		}
		defer func() { _ = db.Close() }()

		domains := []string{monitor.DomainTempTarget, monitor.DomainProfileSwitch}
		if domain != "" {
			domains = []string{domain}
		}

		for _, d := range domains {
			if err := showSamples(db, d, last); err != nil {
				return err
			}
		}

		return showProfileFetches(db, last)
	},
}

func init() {
	statusCmd.Flags().IntP("last", "n", 5, "Show last N samples per domain")
	statusCmd.Flags().String("domain", "", "Only show one domain (temp_target or profile_switch)")
	rootCmd.AddCommand(statusCmd)
}

func showSamples(db *store.Store, domain string, n int) error {
	samples, err := db.RecentSamples(domain, n)
	if err != nil {
		return fmt.Errorf("reading samples: %w", err)
	}

	fmt.Printf("%s:\n", domainTitle(domain))

	if len(samples) == 0 {
		fmt.Println("  No samples recorded.")
		fmt.Println()
		return nil
	}

	for _, sample := range samples {
		printSample(sample)
	}
	fmt.Println()
	return nil
}

func printSample(sample store.Sample) {
	fmt.Printf("  [%s] %3.0f%%", sample.SampledAt.Format("2006-01-02 15:04"), sample.Ratio*100)

	if sample.Label != "" {
		fmt.Printf("  %s", sample.Label)
	}
	if sample.Mode != "" && sample.Mode != "active" {
		fmt.Printf(" (%s)", sample.Mode)
	}
	if sample.Duration > 0 {
		fmt.Printf("  %s window", formatWindowDuration(sample.Duration))
	}
	fmt.Println()
}

func showProfileFetches(db *store.Store, n int) error {
	snaps, err := db.LatestProfileSnapshots("", n)
	if err != nil {
		return fmt.Errorf("reading profile snapshots: %w", err)
	}

	fmt.Println("Profile fetches:")

	if len(snaps) == 0 {
		fmt.Println("  No profiles fetched.")
		return nil
	}

	for _, snap := range snaps {
		fmt.Printf("  [%s] %s (%s)\n",
			snap.FetchedAt.Format("2006-01-02 15:04"), snap.Name, snap.Units)
	}
	return nil
}

func domainTitle(domain string) string {
	switch domain {
	case monitor.DomainTempTarget:
		return "Temp target"
	case monitor.DomainProfileSwitch:
		return "Profile switch"
	default:
		return strings.ToUpper(domain[:1]) + domain[1:]
	}
}

func formatWindowDuration(d time.Duration) string {
	if d >= time.Hour {
		if d%time.Hour == 0 {
			return fmt.Sprintf("%dh", int(d.Hours()))
		}
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
