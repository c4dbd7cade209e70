package cmd

import (
	"fmt"
	"math"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagPenalty float64
	flagAll     bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Risk over late revenue for every candidate minimum gap",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Float64Var(&flagPenalty, "penalty", 0, "Late minute rate multiplier (default from config)")
	sweepCmd.Flags().BoolVar(&flagAll, "all", false, "Show every step instead of whole hours")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("penalty") && flagPenalty < 1 {
		return fmt.Errorf("--penalty must be at least 1, got %g", flagPenalty)
	}

	result, err := loadData(cmd.Context(), needDelay)
	if err != nil {
		return err
	}
	if len(result.Delay.Rentals) == 0 {
		fmt.Println("\n  No rentals found in the delay dataset.")
		return nil
	}

	p := params()
	if flagPenalty > 0 {
		p.Penalty = flagPenalty
	}
	rentals := pipeline.FilterByCheckin(result.Delay.Rentals, flagCheckin)
	sw := pipeline.ThresholdSweep(rentals, result.Delay.Rentals, p, flagCheckin)

	title := fmt.Sprintf("THRESHOLD SWEEP  penalty x%s", cli.FormatFloat(sw.Penalty, 1))
	if flagCheckin != "" {
		title += "  " + flagCheckin
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Minimum gap", "Late", "Late minutes", "Late revenue", "Risk", "Ratio", "Affected", "Solved"},
		Rows:    sweepTableRows(sw, flagAll),
	}))

	var ratios []float64
	for _, pt := range sw.DefinedPoints() {
		ratios = append(ratios, pt.Ratio)
	}
	if len(ratios) > 0 {
		fmt.Printf("  Ratio  %s\n\n", cli.RenderSparkline(ratios))
	}

	if sw.HasRecommendation {
		fmt.Printf("  Recommended minimum gap: %s\n", cli.FormatMinutes(sw.Recommended))
	} else {
		fmt.Println(cli.RenderWarning("No gap in the sweep keeps the risk below the late revenue."))
	}
	fmt.Printf("  Problematic back-to-back cases: %s\n\n", cli.FormatCount(sw.Problematic))
	return nil
}

// sweepTableRows lists the sweep points, whole hours only unless all is set.
func sweepTableRows(sw model.Sweep, all bool) [][]string {
	var rows [][]string
	for _, pt := range sw.Points {
		if !all && math.Mod(pt.Threshold, 60) != 0 {
			continue
		}
		ratio := cli.NA
		if pt.Defined {
			ratio = cli.FormatRatio(pt.Ratio)
		}
		if sw.HasRecommendation && pt.Threshold == sw.Recommended {
			ratio += " *"
		}
		rows = append(rows, []string{
			cli.FormatMinutes(pt.Threshold),
			cli.FormatCount(pt.LateCount),
			cli.FormatMinutes(pt.LateMinutes),
			cli.FormatCost(pt.LateRevenue),
			cli.FormatCost(pt.LateRisk),
			ratio,
			cli.FormatCount(pt.Affected),
			cli.FormatCount(pt.Solved),
		})
	}
	return rows
}
