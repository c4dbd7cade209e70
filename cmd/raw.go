package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/source"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"
)

var (
	flagLimit int
	flagCSV   bool
)

var rawCmd = &cobra.Command{
	Use:       "raw {delay|pricing}",
	Short:     "Print the loaded rows of one dataset",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(source.KindDelay), string(source.KindPricing)},
	RunE:      runRaw,
}

func init() {
	rawCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Rows to print, 0 for all")
	rawCmd.Flags().BoolVar(&flagCSV, "csv", false, "Write CSV to stdout instead of a table")
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	kind, err := source.ParseKind(args[0])
	if err != nil {
		return err
	}

	n := needDelay
	if kind == source.KindPricing {
		n = needPricing
	}
	result, err := loadData(cmd.Context(), n)
	if err != nil {
		return err
	}

	var df dataframe.DataFrame
	switch kind {
	case source.KindPricing:
		df = source.ListingFrame(pipeline.FilterByBrand(result.Pricing.Listings, flagBrand))
	default:
		df = source.RentalFrame(pipeline.FilterByCheckin(result.Delay.Rentals, flagCheckin))
	}
	total := df.Nrow()

	if flagCSV {
		if flagLimit > 0 && total > flagLimit {
			idx := make([]int, flagLimit)
			for i := range idx {
				idx[i] = i
			}
			df = df.Subset(idx)
		}
		if df.Err != nil {
			return df.Err
		}
		return df.WriteCSV(os.Stdout)
	}

	records := source.Head(df, flagLimit)
	if len(records) == 0 {
		fmt.Println("\n  No rows.")
		return nil
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s  %s of %s rows", kind, cli.FormatCount(len(records)-1), cli.FormatCount(total)),
		Headers: records[0],
		Rows:    records[1:],
	}))
	return nil
}
