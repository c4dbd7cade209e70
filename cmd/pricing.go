package cmd

import (
	"fmt"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/narrative"
	"github.com/theirongolddev/gadash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagTop    int
	flagModels int
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Daily rental prices by model, correlations and distributions",
	RunE:  runPricing,
}

func init() {
	pricingCmd.Flags().IntVar(&flagTop, "top", 0, "Brands counted in the top share (default from config)")
	pricingCmd.Flags().IntVarP(&flagModels, "models", "n", 15, "Model rows to show, 0 for all")
	rootCmd.AddCommand(pricingCmd)
}

func runPricing(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context(), needPricing)
	if err != nil {
		return err
	}

	listings := pipeline.FilterByBrand(result.Pricing.Listings, flagBrand)
	if len(listings) == 0 {
		fmt.Println("\n  No listings found.")
		return nil
	}

	p := params()
	if flagTop > 0 {
		p.TopBrands = flagTop
	}
	r := pipeline.AnalyzePricing(listings, p)

	title := "DAILY PRICES"
	if flagBrand != "" {
		title += "  " + flagBrand
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Models",
		Headers: []string{"Model", "Listings", "Average / day", "Total / day", "Share"},
		Rows:    priceRows(r.Totals, flagModels),
	}))

	fmt.Printf("  Top %d models hold %s of the daily total.\n\n", r.TopN, cli.FormatPercent(r.TopShare))

	if avg := r.Averages; len(avg) > 0 {
		if flagModels > 0 && len(avg) > flagModels {
			avg = avg[:flagModels]
		}
		labels := make([]string, len(avg))
		values := make([]float64, len(avg))
		for i, m := range avg {
			labels[i], values[i] = m.ModelKey, m.Mean
		}
		fmt.Println("  Average price per day")
		fmt.Println(cli.RenderBars(labels, values, cli.FormatCost, 40))
	}

	if len(r.Correlation.Columns) > 0 {
		fmt.Println("  Correlation")
		fmt.Println(cli.RenderHeatmap(r.Correlation.Columns, r.Correlation.Values))
	}

	for _, h := range []model.Histogram{r.PriceHist, r.MileageHist} {
		if h.N == 0 || len(h.Bins) == 0 {
			continue
		}
		counts := make([]float64, len(h.Bins))
		for i, b := range h.Bins {
			counts[i] = float64(b.Count)
		}
		fmt.Printf("  %-24s %s  %s to %s\n", h.Column, cli.RenderSparkline(counts),
			cli.FormatFloat(h.Bins[0].Lo, 0), cli.FormatFloat(h.Bins[len(h.Bins)-1].Hi, 0))
	}
	fmt.Println()
	printNotes(narrative.Pricing(r))
	return nil
}

func priceRows(models []model.ModelPrice, limit int) [][]string {
	if limit > 0 && len(models) > limit {
		models = models[:limit]
	}
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.ModelKey,
			cli.FormatCount(m.Listings),
			cli.FormatCost(m.Mean),
			cli.FormatCost(m.Total),
			cli.FormatPercent(m.Share),
		})
	}
	return rows
}
