package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"
)

// modelRows caps how many model keys the bar cards show.
const modelRows = 15

func (a App) renderPricingTab(cw int) string {
	r := a.pricing
	t := theme.Active
	var b strings.Builder

	mode := cli.NA
	if bin, ok := r.PriceHist.Mode(); ok {
		mode = fmt.Sprintf("%s–%s", cli.FormatCost(bin.Lo), cli.FormatCost(bin.Hi))
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Listings", Value: cli.FormatCount(r.Listings)},
		{Label: "Model keys", Value: cli.FormatCount(len(r.Totals))},
		{Label: fmt.Sprintf("Top %d share", r.TopN), Value: cli.FormatPercent(r.TopShare), Note: "of total daily price"},
		{Label: "Most common price", Value: mode, Note: "per day"},
	}, cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Average price per day", modelBars(r.Averages, components.CardInnerWidth(halves[0]),
			func(m model.ModelPrice) float64 { return m.Mean }, cli.FormatCost), halves[0]),
		components.ContentCard("Total price per day", modelBars(r.Totals, components.CardInnerWidth(halves[1]),
			func(m model.ModelPrice) float64 { return m.Total }, cli.FormatCost), halves[1]),
	}))
	b.WriteString("\n")

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Rental price per day", histogram(r.PriceHist, components.CardInnerWidth(halves[0]), t.Accent), halves[0]),
		components.ContentCard("Mileage", histogram(r.MileageHist, components.CardInnerWidth(halves[1]), t.Accent), halves[1]),
	}))
	b.WriteString("\n")

	corr := mutedLine("no data")
	if len(r.Correlation.Columns) > 0 {
		corr = strings.TrimSuffix(cli.RenderHeatmap(r.Correlation.Columns, r.Correlation.Values), "\n")
	}
	b.WriteString(components.ContentCard("Correlation (lower triangle)", corr, cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Commentary", notesBody(a.pricingNotes, components.CardInnerWidth(cw)), cw))
	return b.String()
}

func modelBars(models []model.ModelPrice, innerW int, value func(model.ModelPrice) float64, format func(float64) string) string {
	if len(models) == 0 {
		return mutedLine("no data")
	}
	t := theme.Active
	if len(models) > modelRows {
		models = models[:modelRows]
	}

	peak := 0.0
	labelW := 0
	for _, m := range models {
		peak = max(peak, value(m))
		labelW = max(labelW, len(m.ModelKey))
	}
	labelW = min(labelW, 14)
	barW := max(innerW-labelW-10, 4)

	lines := make([]string, len(models))
	for i, m := range models {
		lines[i] = components.HBar(m.ModelKey, labelW, value(m), peak, barW, format(value(m)), t.Accent)
	}
	return strings.Join(lines, "\n")
}
