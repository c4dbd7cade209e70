// Package tui provides the interactive Bubble Tea dashboard for gadash.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/narrative"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.CachedLoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports how many datasets are loaded.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.CachedLoadResult
	Err      error
	LoadTime time.Duration
}

// Tab indexes, in components.Tabs order.
const (
	tabDelay = iota
	tabPricing
	tabSweep
	tabRaw
	tabSettings
	tabCount
)

// Options configure a dashboard session.
type Options struct {
	Config    config.Config
	Sources   pipeline.Sources // overrides Config.Sources when set
	Checkin   string
	Brand     string
	NoCache   bool
	NeedSetup bool
	Logger    *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	rentals   []model.Rental
	listings  []model.CarListing
	loaded    bool
	loadErr   error
	loadTime  time.Duration
	cacheHits int
	fetched   int
	skipped   int

	// Reports for the current filters
	delay        model.DelayReport
	pricing      model.PricingReport
	delayNotes   []string
	pricingNotes []string

	// Settings
	cfg     config.Config
	params  pipeline.Params
	sources pipeline.Sources
	noCache bool
	log     *slog.Logger

	// Filters
	checkin string
	brand   string

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    [tabCount]int

	raw      rawState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool
	setupErr  error

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
	refreshing  bool
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// checkinCycle is the order `c` steps through the checkin filter.
var checkinCycle = []string{"", model.CheckinMobile, model.CheckinConnect}

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	src := pipeline.SourcesFromConfig(opts.Config.Sources)
	if opts.Sources.Delay != "" {
		src.Delay = opts.Sources.Delay
	}
	if opts.Sources.Pricing != "" {
		src.Pricing = opts.Sources.Pricing
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return App{
		cfg:       opts.Config,
		params:    pipeline.ParamsFromConfig(opts.Config.Assumptions),
		sources:   src,
		noCache:   opts.NoCache,
		log:       log,
		checkin:   strings.ToLower(opts.Checkin),
		brand:     opts.Brand,
		needSetup: opts.NeedSetup,
		setupVals: newSetupValues(opts.Config),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.loadDataCmd(),
		a.spinner.Tick,
	)
}

// recompute rebuilds every report from the loaded rows and current filters.
func (a *App) recompute() {
	a.delay = pipeline.AnalyzeDelay(a.rentals, a.params, a.checkin)
	listings := pipeline.FilterByBrand(a.listings, a.brand)
	a.pricing = pipeline.AnalyzePricing(listings, a.params)
	a.delayNotes = narrative.Delay(a.delay)
	a.pricingNotes = narrative.Pricing(a.pricing)
	a.raw.invalidate()
}

func (a *App) applyResult(res *pipeline.CachedLoadResult, loadTime time.Duration) {
	a.rentals = res.Delay.Rentals
	a.listings = res.Pricing.Listings
	a.cacheHits = res.CacheHits
	a.fetched = res.Fetched
	a.skipped = res.Delay.Skipped + res.Pricing.Skipped
	a.loadTime = loadTime
	a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-3)
		case tea.MouseButtonWheelDown:
			a.scrollBy(3)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.applyResult(msg.Result, msg.LoadTime)

		if a.needSetup {
			a.setupForm = newSetupForm(len(a.rentals), len(a.listings), &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.applyResult(msg.Result, msg.LoadTime)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabSettings:
		switch key {
		case "j", "down":
			a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
			return a, nil
		case "k", "up":
			a.settings.cursor = max(a.settings.cursor-1, 0)
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	case tabRaw:
		switch key {
		case "t":
			a.raw.toggle()
			a.scroll[tabRaw] = 0
			return a, nil
		case "h":
			a.raw.colOffset = max(a.raw.colOffset-1, 0)
			return a, nil
		case "l":
			a.raw.colOffset++
			return a, nil
		}
	case tabDelay, tabSweep:
		if key == "c" {
			a.checkin = nextCheckin(a.checkin)
			a.recompute()
			return a, nil
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, a.refreshDataCmd()
		}
		return a, nil
	case "j", "down":
		a.scrollBy(1)
	case "k", "up":
		a.scrollBy(-1)
	case "ctrl+d":
		a.scrollBy(max(1, (a.height-4)/2))
	case "ctrl+u":
		a.scrollBy(-max(1, (a.height-4)/2))
	case "g":
		a.scroll[a.activeTab] = 0
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func nextCheckin(current string) string {
	for i, c := range checkinCycle {
		if c == current {
			return checkinCycle[(i+1)%len(checkinCycle)]
		}
	}
	return ""
}

func (a *App) scrollBy(n int) {
	a.scroll[a.activeTab] = max(0, a.scroll[a.activeTab]+n)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.setupErr = err
			a.log.Warn("setup not saved", "err", err)
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  gadash needs at least %d columns.\n",
		a.width, minTerminalWidth)
	h := max(a.height, 5)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ gadash"))
	b.WriteString(mutedStyle.Render(" · Getaround rental analysis"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	if a.progressMax > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" Loading datasets (%d/%d)\n\n", a.progress, a.progressMax)))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), 40))
	} else {
		b.WriteString(mutedStyle.Render(" Loading datasets..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"d p s a x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Scroll"},
			{"^d ^u", "Half-page scroll"},
			{"g", "Back to top"},
		}},
		{"Data", [][2]string{
			{"c", "Cycle checkin filter (Delay, Sweep)"},
			{"t", "Switch raw dataset (Raw)"},
			{"h l", "Scroll raw columns (Raw)"},
			{"r", "Refresh datasets"},
		}},
		{"General", [][2]string{
			{"Enter", "Edit setting"},
			{"Esc", "Cancel edit"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, kb := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", kb[0])), descStyle.Render(kb[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, h := a.width, a.height
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		LoadTime:   fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		CacheHits:  a.cacheHits,
		Fetched:    a.fetched,
		Refreshing: a.refreshing,
		Err:        a.loadErr,
	})

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil && len(a.rentals) == 0 && len(a.listings) == 0:
		content = components.ContentCard("Load failed", a.loadErr.Error()+"\n\nPress r to retry.", cw)
	case a.activeTab == tabDelay:
		content = a.renderDelayTab(cw)
	case a.activeTab == tabPricing:
		content = a.renderPricingTab(cw)
	case a.activeTab == tabSweep:
		content = a.renderSweepTab(cw)
	case a.activeTab == tabRaw:
		content = a.renderRawTab(cw, contentH)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	if a.activeTab != tabRaw {
		content = scrollLines(content, a.scroll[a.activeTab])
	}
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderFilterRow(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	checkin := a.checkin
	if checkin == "" {
		checkin = "all checkins"
	}
	s := dim.Render(" checkin ") + accent.Render(checkin)
	if a.brand != "" {
		s += dim.Render(" │ brand ") + accent.Render(a.brand)
	}
	s += dim.Render(fmt.Sprintf(" │ price %g · penalty %g×", a.params.MedianPrice, a.params.Penalty))
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s)
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd starts the loader in a goroutine. It streams ProgressMsg
// updates and a final DataLoadedMsg through the subscription channel.
func (a App) loadDataCmd() tea.Cmd {
	sub := a.loadSub
	src, noCache, log := a.sources, a.noCache, a.log
	ttl := time.Duration(a.cfg.Sources.CacheTTLMinutes) * time.Minute
	return func() tea.Msg {
		go func() {
			start := time.Now()
			opts := pipeline.Options{
				Logger: log,
				Progress: func(current, total int) {
					select {
					case sub <- ProgressMsg{Current: current, Total: total}:
					default:
					}
				},
			}
			res, err := pipeline.LoadCached(context.Background(), src, ttl, noCache, opts)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads the datasets in the background without progress UI.
func (a App) refreshDataCmd() tea.Cmd {
	src, noCache, log := a.sources, a.noCache, a.log
	ttl := time.Duration(a.cfg.Sources.CacheTTLMinutes) * time.Minute
	return func() tea.Msg {
		start := time.Now()
		res, err := pipeline.LoadCached(context.Background(), src, ttl, noCache, pipeline.Options{Logger: log})
		return RefreshDataMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func scrollLines(s string, offset int) string {
	if offset <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	offset = min(offset, max(len(lines)-1, 0))
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index under column x of the tab bar, or -1.
// Hitboxes follow the widths used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}
