package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrenz/doseview/internal/compare"
	"github.com/mkrenz/doseview/internal/ui"
	"github.com/mkrenz/doseview/internal/units"
)

var compareCmd = &cobra.Command{
	Use:   "compare [profile1] [profile2]",
	Short: "Compare two dosing profiles",
	Long: `Compare two dosing profiles hour by hour.

Profiles are named entries in the Nightscout profile store; omitted names
fall back to the store's default profile. Use --file1/--file2 to compare
local profile JSON files instead.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file1, _ := cmd.Flags().GetString("file1")
		file2, _ := cmd.Flags().GetString("file2")
		unitsFlag, _ := cmd.Flags().GetString("units")
		asJSON, _ := cmd.Flags().GetBool("json")

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

		unit, err := cfg.DisplayUnits()
		if err != nil {
			return err
		}
		if unitsFlag != "" {
			unit, err = units.Parse(unitsFlag)
			if err != nil {
				return err
			}
		}

		p1, p2, n1, n2, err := loadProfilePair(cmd.Context(), cfg, name1, name2, file1, file2)
		if err != nil {
			return err
		}

		result, err := compare.Build(p1, p2, n1, n2, unit)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(result)
		}

		fmt.Print(ui.RenderResult(result))
		return nil
	},
}

func init() {
	compareCmd.Flags().String("file1", "", "First profile JSON file (skips Nightscout)")
	compareCmd.Flags().String("file2", "", "Second profile JSON file (skips Nightscout)")
	compareCmd.Flags().String("units", "", "Display units: mg/dl or mmol")
	compareCmd.Flags().Bool("json", false, "Emit the comparison as JSON")
	rootCmd.AddCommand(compareCmd)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
