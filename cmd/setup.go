package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := promptConfig(bufio.NewReader(os.Stdin), os.Stdout, appConfig)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `gadash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

// promptConfig walks through the settings that matter on first run. An empty
// answer keeps the current value.
func promptConfig(r *bufio.Reader, w io.Writer, cfg config.Config) (config.Config, error) {
	ask := func(label, current string) string {
		fmt.Fprintf(w, "  %s\n", label)
		fmt.Fprintf(w, "     Current: %s\n", current)
		fmt.Fprint(w, "     > ")
		answer, _ := r.ReadString('\n')
		fmt.Fprintln(w)
		return strings.TrimSpace(answer)
	}
	askFloat := func(label string, current float64) (float64, error) {
		answer := ask(label, cli.FormatFloat(current, 2))
		if answer == "" {
			return current, nil
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", label, answer)
		}
		return v, nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Welcome to gadash!")
	fmt.Fprintln(w)

	if v := ask("1. Delay dataset (path or URL)", cfg.Sources.Delay); v != "" {
		cfg.Sources.Delay = v
	}
	if v := ask("2. Pricing dataset (path or URL)", cfg.Sources.Pricing); v != "" {
		cfg.Sources.Pricing = v
	}

	var err error
	if cfg.Assumptions.MedianRentalPrice, err = askFloat("3. Median rental price per day", cfg.Assumptions.MedianRentalPrice); err != nil {
		return cfg, err
	}
	if cfg.Assumptions.Penalty, err = askFloat("4. Late minute penalty multiplier", cfg.Assumptions.Penalty); err != nil {
		return cfg, err
	}

	fmt.Fprintln(w, "  5. Color theme")
	for i, t := range theme.All {
		def := ""
		if t.Name == cfg.Appearance.Theme {
			def = " [current]"
		}
		fmt.Fprintf(w, "     (%d) %s%s\n", i+1, t.Name, def)
	}
	fmt.Fprint(w, "     > ")
	choice, _ := r.ReadString('\n')
	if n, err := strconv.Atoi(strings.TrimSpace(choice)); err == nil && n >= 1 && n <= len(theme.All) {
		cfg.Appearance.Theme = theme.All[n-1].Name
	}
	fmt.Fprintln(w)

	return cfg, config.Validate(cfg)
}
