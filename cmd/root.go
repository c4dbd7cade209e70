// Package cmd implements the gadash CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/logging"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagDelaySource   string
	flagPricingSource string
	flagNoCache       bool
	flagQuiet         bool
	flagVerbose       bool
	flagCheckin       string
	flagBrand         string
)

// appConfig is the loaded configuration, set before any command runs.
var appConfig = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "gadash",
	Short:             "Getaround rental delay and pricing analysis",
	Long:              "Analyze Getaround checkout delays, the minimum gap between rentals, and daily car prices.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runDelay,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDelaySource, "delay-source", "", "Delay dataset path or URL (overrides config)")
	pf.StringVar(&flagPricingSource, "pricing-source", "", "Pricing dataset path or URL (overrides config)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite cache, refetch everything")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log diagnostics to stderr")
	pf.StringVarP(&flagCheckin, "checkin", "c", "", "Restrict delay reports to a checkin type (mobile or connect)")
	pf.StringVarP(&flagBrand, "brand", "b", "", "Restrict pricing reports to model keys containing this text")
}

// setup loads the config and installs the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// setup and config must still run so a broken file can be inspected and fixed.
		if !errors.Is(err, config.ErrInvalid) || (cmd.Name() != "setup" && cmd.Name() != "config") {
			return err
		}
		fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
	}
	appConfig = cfg

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logging.Init(os.Stderr, level)

	flagCheckin = strings.ToLower(strings.TrimSpace(flagCheckin))
	switch flagCheckin {
	case "", model.CheckinMobile, model.CheckinConnect:
	default:
		return fmt.Errorf("unknown checkin type %q (want %s or %s)", flagCheckin, model.CheckinMobile, model.CheckinConnect)
	}
	return nil
}

// sources returns the dataset locations, flags first.
func sources() pipeline.Sources {
	src := pipeline.SourcesFromConfig(appConfig.Sources)
	if flagDelaySource != "" {
		src.Delay = flagDelaySource
	}
	if flagPricingSource != "" {
		src.Pricing = flagPricingSource
	}
	return src
}

func params() pipeline.Params {
	return pipeline.ParamsFromConfig(appConfig.Assumptions)
}

func cacheTTL() time.Duration {
	return time.Duration(appConfig.Sources.CacheTTLMinutes) * time.Minute
}

// need selects which datasets a command loads.
type need struct {
	delay   bool
	pricing bool
}

var (
	needDelay   = need{delay: true}
	needPricing = need{pricing: true}
	needBoth    = need{delay: true, pricing: true}
)

// loadData is the shared data loading path used by all commands.
// Uses the SQLite cache when available for fast subsequent runs.
func loadData(ctx context.Context, n need) (*pipeline.CachedLoadResult, error) {
	src := sources()
	if !n.delay {
		src.Delay = ""
	}
	if !n.pricing {
		src.Pricing = ""
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading datasets...\n")
	}
	opts := pipeline.Options{
		Logger: slog.Default(),
		Progress: func(current, total int) {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "\r  %s", cli.RenderProgressBar(current, total, 30))
			}
		},
	}

	start := time.Now()
	res, err := pipeline.LoadCached(ctx, src, cacheTTL(), flagNoCache, opts)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}

	if !flagQuiet {
		var parts []string
		if n.delay {
			parts = append(parts, cli.FormatCount(len(res.Delay.Rentals))+" rentals")
		}
		if n.pricing {
			parts = append(parts, cli.FormatCount(len(res.Pricing.Listings))+" listings")
		}
		fmt.Fprintf(os.Stderr, "\r  %s (%d cached, %d fetched) in %.1fs    \n",
			strings.Join(parts, " and "), res.CacheHits, res.Fetched, time.Since(start).Seconds())
		if skipped := res.Delay.Skipped + res.Pricing.Skipped; skipped > 0 {
			fmt.Fprintf(os.Stderr, "  %s rows could not be parsed\n", cli.FormatCount(skipped))
		}
	}
	return res, nil
}

func printNotes(notes []string) {
	for _, n := range notes {
		fmt.Printf("  • %s\n", n)
	}
	fmt.Println()
}
