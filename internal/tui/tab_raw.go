package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/source"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const rawMaxColWidth = 22

// rawState tracks the raw data tab. Records are built on first view and
// shared through cache until the next recompute.
type rawState struct {
	pricing   bool
	colOffset int
	cache     *rawCache
}

type rawCache struct {
	delay   [][]string
	pricing [][]string
}

func (s *rawState) invalidate() {
	s.cache = &rawCache{}
}

func (s *rawState) toggle() {
	s.pricing = !s.pricing
	s.colOffset = 0
}

func (s rawState) name() string {
	if s.pricing {
		return "pricing"
	}
	return "delay"
}

// rawRecords returns the header row plus every row of the selected dataset.
func (a App) rawRecords() [][]string {
	c := a.raw.cache
	if c == nil {
		c = &rawCache{}
	}
	if a.raw.pricing {
		if c.pricing == nil {
			c.pricing = source.Head(source.ListingFrame(pipeline.FilterByBrand(a.listings, a.brand)), 0)
		}
		return c.pricing
	}
	if c.delay == nil {
		c.delay = source.Head(source.RentalFrame(pipeline.FilterByCheckin(a.rentals, a.checkin)), 0)
	}
	return c.delay
}

func (a App) renderRawTab(cw, contentH int) string {
	t := theme.Active
	recs := a.rawRecords()
	title := fmt.Sprintf("Raw %s data", a.raw.name())
	if len(recs) < 2 {
		return components.ContentCard(title, mutedLine("no rows"), cw)
	}

	header, rows := recs[0], recs[1:]
	// Card border and title take four lines, the table header one.
	visible := max(contentH-5, 1)
	offset := min(a.scroll[tabRaw], max(len(rows)-visible, 0))
	rows = rows[offset:min(offset+visible, len(rows))]

	colOffset := min(a.raw.colOffset, len(header)-1)
	innerW := components.CardInnerWidth(cw)
	widths := make([]int, 0, len(header))
	used := 0
	for c := colOffset; c < len(header); c++ {
		w := lipgloss.Width(header[c])
		for _, row := range rows {
			w = max(w, lipgloss.Width(row[c]))
		}
		w = min(w, rawMaxColWidth)
		if used > 0 && used+w+2 > innerW {
			break
		}
		widths = append(widths, w)
		used += w + 2
	}

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	line := func(row []string, style lipgloss.Style) string {
		var b strings.Builder
		for i, w := range widths {
			cell := truncStr(row[colOffset+i], w)
			b.WriteString(style.Render(cell + strings.Repeat(" ", w-lipgloss.Width(cell)+2)))
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(line(header, headStyle))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, cellStyle))
	}

	title = fmt.Sprintf("%s · rows %s-%s of %s · cols %d-%d of %d", title,
		cli.FormatCount(offset+1), cli.FormatCount(offset+len(rows)), cli.FormatCount(len(recs)-1),
		colOffset+1, colOffset+len(widths), len(header))
	return components.ContentCard(title, b.String(), cw)
}
