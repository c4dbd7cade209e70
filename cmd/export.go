package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/theirongolddev/gadash/internal/chart"
	"github.com/theirongolddev/gadash/internal/pipeline"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var flagDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render every delay and pricing chart to PNG files",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagDir, "dir", "o", "charts", "Output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context(), needBoth)
	if err != nil {
		return err
	}

	p := params()
	delay := pipeline.AnalyzeDelay(result.Delay.Rentals, p, flagCheckin)
	pricing := pipeline.AnalyzePricing(pipeline.FilterByBrand(result.Pricing.Listings, flagBrand), p)

	if err := os.MkdirAll(flagDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	charts := append(chart.DelayCharts(delay), chart.PricingCharts(pricing)...)
	written := make([]bool, len(charts))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for i, c := range charts {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ok, err := writeChart(filepath.Join(flagDir, c.Name+".png"), c)
			written[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, c := range charts {
		path := filepath.Join(flagDir, c.Name+".png")
		if written[i] {
			fmt.Printf("  %s\n", path)
		} else if !flagQuiet {
			fmt.Printf("  %s skipped, no data\n", path)
		}
	}
	return nil
}

// writeChart renders c to path. It reports false without error when the
// chart has nothing to plot.
func writeChart(path string, c chart.Chart) (bool, error) {
	return writeRendered(path, c.Name, c.Render)
}

// writeRendered writes render's output to path, removing the file unless
// rendering and closing both succeed.
func writeRendered(path, name string, render func(io.Writer) error) (bool, error) {
	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	renderErr := render(f)
	closeErr := f.Close()

	if errors.Is(renderErr, chart.ErrNoData) {
		slog.Debug("chart has no data", "chart", name)
		return false, os.Remove(path)
	}
	if err := errors.Join(renderErr, closeErr); err != nil {
		_ = os.Remove(path)
		return false, err
	}
	return true, nil
}
