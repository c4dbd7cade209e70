package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var flagClear bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached datasets and their freshness",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagClear, "clear", false, "Drop the cached copies of the configured sources")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	path := pipeline.CachePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Println()
		fmt.Printf("  No cache yet at %s\n", path)
		fmt.Println("  Run `gadash delay` or `gadash pricing` to load the datasets.")
		fmt.Println()
		return nil
	}

	cache, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	src := sources()
	if flagClear {
		if err := pipeline.Invalidate(cache, src.Delay, src.Pricing); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		if !flagQuiet {
			fmt.Fprintln(os.Stderr, "  Cleared cached datasets.")
		}
	}

	datasets, err := cache.Datasets()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CACHED DATASETS"))
	fmt.Println()
	if len(datasets) == 0 {
		fmt.Println("  Cache is empty.")
		fmt.Println()
		return nil
	}

	ttl := cacheTTL()
	rows := make([][]string, 0, len(datasets))
	for _, ds := range datasets {
		origin := "file"
		if ds.Remote {
			origin = "url"
		}
		rows = append(rows, []string{
			ds.Kind,
			origin,
			cli.FormatCount(ds.Rows),
			cli.FormatCount(ds.Skipped),
			humanize.Bytes(uint64(max(ds.SizeBytes, 0))),
			humanize.Time(ds.FetchedAt),
			freshness(ds, ttl),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Dataset", "From", "Rows", "Skipped", "Size", "Fetched", "Freshness"},
		Rows:    rows,
	}))

	for _, ds := range datasets {
		mark := " "
		if ds.Location == src.Delay || ds.Location == src.Pricing {
			mark = "*"
		}
		fmt.Printf("  %s %-8s %s\n", mark, ds.Kind, ds.Location)
	}
	fmt.Println()
	fmt.Printf("  Cache: %s\n", path)
	fmt.Println("  * configured source")
	fmt.Println()
	return nil
}

// freshness shows how much of the TTL a remote dataset has used up.
// Local files stay valid until they change on disk.
func freshness(ds store.Dataset, ttl time.Duration) string {
	if !ds.Remote {
		return "until file changes"
	}
	if ttl <= 0 {
		return "refetched every run"
	}
	used := float64(time.Since(ds.FetchedAt)) / float64(ttl)
	return renderMiniBar(used, 12)
}

func renderMiniBar(pct float64, width int) string {
	pct = min(max(pct, 0), 1)
	filled := int(pct * float64(width))

	color := cli.ColorGreen
	if pct >= 1 {
		color = cli.ColorRed
	} else if pct >= 0.75 {
		color = cli.ColorOrange
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	dimStyle := lipgloss.NewStyle().Foreground(cli.ColorTextDim)
	return barStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}
