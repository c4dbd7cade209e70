package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/logging"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/tui"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// stderr belongs to the alt screen while the dashboard runs.
	var logw io.Writer = io.Discard
	if flagVerbose {
		if err := os.MkdirAll(pipeline.CacheDir(), 0o750); err == nil {
			//nolint:gosec // log path lives in the user's cache dir
			f, err := os.OpenFile(filepath.Join(pipeline.CacheDir(), "tui.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
			if err == nil {
				defer func() { _ = f.Close() }()
				logw = f
			}
		}
	}
	level := appConfig.Log.Level
	if flagVerbose {
		level = "debug"
	}

	app := tui.NewApp(tui.Options{
		Config:    appConfig,
		Sources:   sources(),
		Checkin:   flagCheckin,
		Brand:     flagBrand,
		NoCache:   flagNoCache,
		NeedSetup: !config.Exists(),
		Logger:    logging.New(logw, level),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
