package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run form fields as typed by the user.
type setupValues struct {
	delaySource   string
	pricingSource string
	medianPrice   string
	penalty       string
	themeName     string
}

func newSetupValues(cfg config.Config) setupValues {
	return setupValues{
		delaySource:   cfg.Sources.Delay,
		pricingSource: cfg.Sources.Pricing,
		medianPrice:   strconv.FormatFloat(cfg.Assumptions.MedianRentalPrice, 'f', -1, 64),
		penalty:       strconv.FormatFloat(cfg.Assumptions.Penalty, 'f', -1, 64),
		themeName:     cfg.Appearance.Theme,
	}
}

// newSetupForm builds the first-run wizard. rentals and listings are the
// row counts of the datasets just loaded.
func newSetupForm(rentals, listings int, vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	welcome := fmt.Sprintf("Loaded %s rentals and %s car listings.\nLet's confirm the assumptions behind the projections.",
		cli.FormatCount(rentals), cli.FormatCount(listings))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to gadash").
				Description(welcome),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Delay dataset").
				Description("Local CSV path or http(s) URL.").
				Value(&vals.delaySource).
				Validate(notBlank),
			huh.NewInput().
				Title("Pricing dataset").
				Description("Local CSV path or http(s) URL.").
				Value(&vals.pricingSource).
				Validate(notBlank),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Median rental price").
				Description("Price of a standard 24h rental.").
				Value(&vals.medianPrice).
				Validate(positiveNumber(0)),
			huh.NewInput().
				Title("Late checkout penalty").
				Description("Multiplier on the minute rate after the rental is due.").
				Value(&vals.penalty).
				Validate(positiveNumber(1)),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.themeName),
		),
	).WithShowHelp(true)
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

// positiveNumber accepts numbers at or above floor, and strictly above zero.
func positiveNumber(floor float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.New("must be a number")
		}
		if f <= 0 || f < floor {
			return fmt.Errorf("must be at least %g and above zero", floor)
		}
		return nil
	}
}

// apply copies the form values onto cfg.
func (v setupValues) apply(cfg *config.Config) error {
	price, err := strconv.ParseFloat(strings.TrimSpace(v.medianPrice), 64)
	if err != nil {
		return fmt.Errorf("median price: %w", err)
	}
	penalty, err := strconv.ParseFloat(strings.TrimSpace(v.penalty), 64)
	if err != nil {
		return fmt.Errorf("penalty: %w", err)
	}
	cfg.Sources.Delay = strings.TrimSpace(v.delaySource)
	cfg.Sources.Pricing = strings.TrimSpace(v.pricingSource)
	cfg.Assumptions.MedianRentalPrice = price
	cfg.Assumptions.Penalty = penalty
	if v.themeName != "" {
		cfg.Appearance.Theme = v.themeName
	}
	return config.Validate(*cfg)
}

// saveSetupConfig applies and persists the wizard answers. A change of
// dataset location takes effect on the next refresh.
func (a *App) saveSetupConfig() error {
	cfg := a.cfg
	if err := a.setupVals.apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.params = pipeline.ParamsFromConfig(cfg.Assumptions)
	a.sources = pipeline.SourcesFromConfig(cfg.Sources)
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}
