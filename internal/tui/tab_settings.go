package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldDelaySource = iota
	settingsFieldPricingSource
	settingsFieldMedianPrice
	settingsFieldRentalMinutes
	settingsFieldPenalty
	settingsFieldStep
	settingsFieldMaxThreshold
	settingsFieldBins
	settingsFieldTopBrands
	settingsFieldTheme
	settingsFieldCount // sentinel
)

var settingsLabels = [settingsFieldCount]string{
	"Delay dataset",
	"Pricing dataset",
	"Median price",
	"Rental minutes",
	"Late penalty",
	"Sweep step (min)",
	"Sweep end (min)",
	"Histogram bins",
	"Top brands",
	"Theme",
}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func formatSetting(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// settingValue returns the current value of a settings field as text.
func settingValue(cfg config.Config, field int) string {
	a := cfg.Assumptions
	switch field {
	case settingsFieldDelaySource:
		return cfg.Sources.Delay
	case settingsFieldPricingSource:
		return cfg.Sources.Pricing
	case settingsFieldMedianPrice:
		return formatSetting(a.MedianRentalPrice)
	case settingsFieldRentalMinutes:
		return formatSetting(a.RentalMinutes)
	case settingsFieldPenalty:
		return formatSetting(a.Penalty)
	case settingsFieldStep:
		return formatSetting(a.ThresholdStep)
	case settingsFieldMaxThreshold:
		return formatSetting(a.MaxThreshold)
	case settingsFieldBins:
		return strconv.Itoa(a.HistogramBins)
	case settingsFieldTopBrands:
		return strconv.Itoa(a.TopBrands)
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	}
	return ""
}

// setSetting parses val into the given field of cfg.
func setSetting(cfg *config.Config, field int, val string) error {
	val = strings.TrimSpace(val)
	num := func(dst *float64) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%s: not a number", settingsLabels[field])
		}
		*dst = f
		return nil
	}
	count := func(dst *int) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: not a whole number", settingsLabels[field])
		}
		*dst = n
		return nil
	}

	a := &cfg.Assumptions
	switch field {
	case settingsFieldDelaySource:
		cfg.Sources.Delay = val
	case settingsFieldPricingSource:
		cfg.Sources.Pricing = val
	case settingsFieldMedianPrice:
		return num(&a.MedianRentalPrice)
	case settingsFieldRentalMinutes:
		return num(&a.RentalMinutes)
	case settingsFieldPenalty:
		return num(&a.Penalty)
	case settingsFieldStep:
		return num(&a.ThresholdStep)
	case settingsFieldMaxThreshold:
		return num(&a.MaxThreshold)
	case settingsFieldBins:
		return count(&a.HistogramBins)
	case settingsFieldTopBrands:
		return count(&a.TopBrands)
	case settingsFieldTheme:
		if _, ok := theme.Lookup(val); !ok {
			return fmt.Errorf("unknown theme %q (have %s)", val, strings.Join(theme.Names(), ", "))
		}
		cfg.Appearance.Theme = val
	}
	return nil
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 60
	if a.settings.cursor == settingsFieldTheme {
		ti.Placeholder = strings.Join(theme.Names(), ", ")
	}
	ti.SetValue(settingValue(a.cfg, a.settings.cursor))
	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates and persists the edited field. Assumption changes
// recompute the reports; dataset changes apply on the next refresh.
func (a *App) settingsSave() {
	cfg := a.cfg
	field := a.settings.cursor
	if err := setSetting(&cfg, field, a.settings.input.Value()); err != nil {
		a.settings.saveErr = err
		return
	}
	if err := config.Validate(cfg); err != nil {
		a.settings.saveErr = err
		return
	}
	if err := config.Save(cfg); err != nil {
		a.settings.saveErr = err
		return
	}
	a.settings.saveErr = nil
	a.cfg = cfg

	switch field {
	case settingsFieldDelaySource, settingsFieldPricingSource:
		a.sources = pipeline.SourcesFromConfig(cfg.Sources)
	case settingsFieldTheme:
		theme.SetActive(cfg.Appearance.Theme)
	default:
		a.params = pipeline.ParamsFromConfig(cfg.Assumptions)
		a.recompute()
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	positiveStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i := range settingsFieldCount {
		label := fmt.Sprintf("%-18s ", settingsLabels[i]+":")
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(label))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		value := truncStr(settingValue(a.cfg, i), max(innerW-22, 8))
		if i == a.settings.cursor {
			row := markerStyle.Render("▸ ") + selectedLabelStyle.Render(label) + selectedStyle.Render(value)
			form.WriteString(row)
			if pad := innerW - lipgloss.Width(row); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(label))
			form.WriteString(valueStyle.Render(value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(positiveStyle.Render("Saved. Dataset changes apply on refresh (r)."))
	}
	if a.setupErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Setup not saved: %s", a.setupErr)))
	}

	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	info := keyValues([][2]string{
		{"Delay source", truncStr(a.sources.Delay, max(innerW-18, 8))},
		{"Pricing source", truncStr(a.sources.Pricing, max(innerW-18, 8))},
		{"Rentals loaded", cli.FormatCount(len(a.rentals))},
		{"Listings loaded", cli.FormatCount(len(a.listings))},
		{"Rows skipped", cli.FormatCount(a.skipped)},
		{"Load time", fmt.Sprintf("%.1fs", a.loadTime.Seconds())},
		{"Config file", config.ConfigPath()},
		{"Cache file", pipeline.CachePath()},
	})

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info, cw))
	return b.String()
}
