package cmd

import (
	"fmt"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/narrative"
	"github.com/theirongolddev/gadash/internal/pipeline"

	"github.com/spf13/cobra"
)

var delayCmd = &cobra.Command{
	Use:   "delay",
	Short: "Checkout delays, revenue projection and the recommended minimum gap",
	RunE:  runDelay,
}

func init() {
	rootCmd.AddCommand(delayCmd)
}

func runDelay(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context(), needDelay)
	if err != nil {
		return err
	}
	if len(result.Delay.Rentals) == 0 {
		fmt.Println("\n  No rentals found in the delay dataset.")
		return nil
	}

	r := pipeline.AnalyzeDelay(result.Delay.Rentals, params(), flagCheckin)
	if r.Rentals == 0 {
		fmt.Printf("\n  No %s rentals found.\n", flagCheckin)
		return nil
	}

	title := "CHECKOUT DELAYS"
	if flagCheckin != "" {
		title += "  " + flagCheckin
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title: "Summary",
		Rows: [][]string{
			{"Rentals", cli.FormatCount(r.Rentals)},
			{"With a checkout delay", cli.FormatCount(r.WithDelay)},
			{"---"},
			{"Mean delay", cli.FormatMinutes(r.Delay.Mean)},
			{"Median delay", cli.FormatMinutes(r.Delay.Median)},
		},
	}))

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Checkouts",
		Headers: []string{"Checkin", "Bucket", "Rentals", "Share"},
		Rows:    shareRows(r.CheckoutShares),
	}))

	if len(r.NextRentalShares) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Next rental",
			Headers: []string{"Checkin", "Outcome", "Rentals", "Share"},
			Rows:    shareRows(r.NextRentalShares),
		}))
	}

	pr := r.Projection
	fmt.Print(cli.RenderTable(cli.Table{
		Title: "Projection",
		Rows: [][]string{
			{"Median rental price", cli.FormatCost(pr.MedianPrice)},
			{"Minute rate", cli.FormatCost(pr.MinuteRate)},
			{"---"},
			{"Ended", cli.FormatCount(pr.Ended)},
			{"Canceled", cli.FormatCount(pr.Canceled)},
			{"Max loss", cli.FormatCost(pr.CanceledLoss)},
			{"---"},
			{"Late checkouts", cli.FormatCount(pr.NumberDelays)},
			{"Late minutes", cli.FormatMinutes(pr.SumDelays)},
			{"Late revenue", cli.FormatCost(pr.LateRevenue)},
			{"Break-even delay", cli.FormatHours(pr.BreakEvenHours)},
			{"Net late loss", cli.FormatCost(pr.LateLoss)},
			{"---"},
			{"Max risk", cli.FormatCost(pr.AtRisk)},
			{"Revenue", cli.FormatCost(pr.Revenue)},
			{"Risk / revenue", cli.FormatRatio(pr.RiskOverRevenue)},
		},
	}))

	if len(r.Checkins) > 0 {
		rows := make([][]string, 0, len(r.Checkins))
		for _, c := range r.Checkins {
			rows = append(rows, []string{
				c.CheckinType,
				cli.FormatCount(c.Rentals),
				cli.FormatPercent(c.Share),
				cli.FormatCount(c.Canceled),
				cli.FormatPercent(c.CanceledShare),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Checkin types",
			Headers: []string{"Checkin", "Rentals", "Share", "Canceled", "Of cancellations"},
			Rows:    rows,
		}))
	}

	fmt.Println()
	if r.Sweep.HasRecommendation {
		fmt.Printf("  Recommended minimum gap: %s (%s problematic cases)\n",
			cli.FormatMinutes(r.Sweep.Recommended), cli.FormatCount(r.Sweep.Problematic))
	} else {
		fmt.Println(cli.RenderWarning("  No gap in the sweep keeps the risk below the late revenue."))
	}
	fmt.Println()
	printNotes(narrative.Delay(r))
	return nil
}

func shareRows(shares []model.GroupShare) [][]string {
	rows := make([][]string, 0, len(shares)+2)
	prev := ""
	for i, s := range shares {
		if i > 0 && s.CheckinType != prev {
			rows = append(rows, []string{"---"})
		}
		prev = s.CheckinType
		rows = append(rows, []string{
			s.CheckinType,
			s.Label,
			cli.FormatCount(s.Count),
			cli.FormatPercent(s.Share),
		})
	}
	return rows
}
