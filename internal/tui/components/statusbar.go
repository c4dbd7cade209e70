package components

import (
	"fmt"

	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	LoadTime   string // e.g. "1.2s"
	CacheHits  int
	Fetched    int
	Refreshing bool
	Err        error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	errStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := " [?]help  [r]efresh  [q]uit"

	var right string
	switch {
	case info.Refreshing:
		right = accentStyle.Render("refreshing… ")
	case info.Err != nil:
		right = errStyle.Render(fmt.Sprintf("load failed: %v ", info.Err))
	case info.LoadTime != "":
		right = fmt.Sprintf("%d cached, %d fetched · %s ", info.CacheHits, info.Fetched, info.LoadTime)
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return style.Render(left + lipgloss.NewStyle().Background(t.Surface).Width(gap).Render("") + right)
}
