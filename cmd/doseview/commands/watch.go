package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrenz/doseview/internal/monitor"
	"github.com/mkrenz/doseview/internal/profile"
	"github.com/mkrenz/doseview/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [profile1] [profile2]",
	Short: "Watch windows and comparisons in a terminal UI",
	Long: `Open a terminal UI that tracks active temporary targets and profile
switches as progress bars, alongside a live profile comparison.

With --file1/--file2 the comparison follows local profile JSON files and
reloads whenever they change; no Nightscout connection is made.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file1, _ := cmd.Flags().GetString("file1")
		file2, _ := cmd.Flags().GetString("file2")

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

		unit, err := cfg.DisplayUnits()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		local := file1 != "" || file2 != ""
		if local && (file1 == "" || file2 == "") {
			return fmt.Errorf("both --file1 and --file2 are required for file watching")
		}

		var refresher monitor.Refresher
		model := ui.New()
		if local {
			model.SetConnState(ui.ConnLocal)
		} else {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if err := client.TestConnection(ctx); err != nil {
				return fmt.Errorf("nightscout unreachable: %w", err)
			}
			refresher = &nsRefresher{client: client, name1: name1, name2: name2, unit: unit}
			model.SetConnState(ui.ConnConnected)
		}

		program, err := model.RunWithProgram()
		if err != nil {
			return fmt.Errorf("starting UI: %w", err)
		}

		sampler := monitor.New(
			monitor.WithUnit(unit),
			monitor.WithInterval(cfg.SampleInterval()),
			monitor.WithReportFunc(func(r monitor.Report) {
				program.Send(ui.ReportMsg(r))
			}),
		)

		if local {
			p1, err := profile.LoadFile(file1)
			if err != nil {
				return err
			}
			p2, err := profile.LoadFile(file2)
			if err != nil {
				return err
			}
			sampler.SetProfiles(p1, p2, p1.Name, p2.Name)
			if err := sampler.WatchProfileFiles(ctx, file1, file2); err != nil {
				return fmt.Errorf("watching profile files: %w", err)
			}
		}

		samplerDone := make(chan error, 1)
		go func() {
			samplerDone <- sampler.Run(ctx, refresher)
		}()

		program.Wait()
		cancel()
		<-samplerDone
		return nil
	},
}

func init() {
	watchCmd.Flags().String("file1", "", "First profile JSON file to watch")
	watchCmd.Flags().String("file2", "", "Second profile JSON file to watch")
	rootCmd.AddCommand(watchCmd)
}
