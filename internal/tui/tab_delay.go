package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderDelayTab(cw int) string {
	r := a.delay
	p := r.Projection
	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Rentals", Value: cli.FormatCount(r.Rentals), Note: fmt.Sprintf("%s with a delay", cli.FormatCount(r.WithDelay))},
		{Label: "Median delay", Value: cli.FormatMinutes(r.Delay.Median), Note: "mean " + cli.FormatMinutes(r.Delay.Mean)},
		{Label: "Max loss", Value: cli.FormatCost(p.CanceledLoss), Note: fmt.Sprintf("%s canceled", cli.FormatCount(p.Canceled))},
		{Label: "Max risk", Value: cli.FormatCost(p.AtRisk), Note: cli.FormatRatio(p.RiskOverRevenue) + "× revenue"},
	}, cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Checkout delays by checkin type", groupBars(r.CheckoutShares, components.CardInnerWidth(halves[0])), halves[0]),
		components.ContentCard("Next rental by checkin type", groupBars(r.NextRentalShares, components.CardInnerWidth(halves[1])), halves[1]),
	}))
	b.WriteString("\n")

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Delay at checkout (min, outliers removed)", histogram(r.DelayHist, components.CardInnerWidth(halves[0]), theme.Active.Accent), halves[0]),
		components.ContentCard("Time delta with previous rental (min)", histogram(r.TimeDeltaHist, components.CardInnerWidth(halves[1]), theme.Active.Accent), halves[1]),
	}))
	b.WriteString("\n")

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Projection", projectionBody(p), halves[0]),
		components.ContentCard("Checkin types", checkinBody(r, components.CardInnerWidth(halves[1])), halves[1]),
	}))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Commentary", notesBody(a.delayNotes, components.CardInnerWidth(cw)), cw))
	return b.String()
}

// groupBars renders one bar per (checkin type, label) group, scaled to the
// largest share.
func groupBars(shares []model.GroupShare, innerW int) string {
	if len(shares) == 0 {
		return mutedLine("no data")
	}
	t := theme.Active
	labelW := 0
	peak := 0.0
	for _, s := range shares {
		labelW = max(labelW, len(s.CheckinType)+1+len(s.Label))
		peak = max(peak, s.Share)
	}
	labelW = min(labelW, innerW/2)
	barW := max(innerW-labelW-9, 4)

	lines := make([]string, len(shares))
	for i, s := range shares {
		lines[i] = components.HBar(s.CheckinType+" "+s.Label, labelW, s.Share, peak, barW,
			cli.FormatPercent(s.Share), t.SeriesColor(s.CheckinType))
	}
	return strings.Join(lines, "\n")
}

func histogram(h model.Histogram, innerW int, color lipgloss.Color) string {
	if h.N == 0 {
		return mutedLine("no data")
	}
	values := make([]float64, len(h.Bins))
	labels := make([]string, len(h.Bins))
	for i, bin := range h.Bins {
		values[i] = float64(bin.Count)
		labels[i] = cli.FormatFloat(bin.Lo, 0)
	}
	return components.BarChart(values, labels, components.ChartOptions{Width: innerW, Height: 8, Color: color})
}

func projectionBody(p model.Projection) string {
	rows := [][2]string{
		{"Median price", cli.FormatCost(p.MedianPrice)},
		{"Minute rate", cli.FormatCost(p.MinuteRate)},
		{"Canceled / ended", fmt.Sprintf("%s / %s", cli.FormatCount(p.Canceled), cli.FormatCount(p.Ended))},
		{"Max loss", cli.FormatCost(p.CanceledLoss)},
		{"Late checkouts", cli.FormatCount(p.NumberDelays)},
		{"Late revenue", cli.FormatCost(p.LateRevenue)},
		{"Break-even delay", cli.FormatHours(p.BreakEvenHours)},
		{"Net late loss", cli.FormatCost(p.LateLoss)},
		{"Max risk", cli.FormatCost(p.AtRisk)},
		{"Revenue", cli.FormatCost(p.Revenue)},
		{"Risk / revenue", cli.FormatRatio(p.RiskOverRevenue)},
	}
	return keyValues(rows)
}

func checkinBody(r model.DelayReport, innerW int) string {
	if len(r.Checkins) == 0 {
		return mutedLine("no data")
	}
	t := theme.Active
	barW := max(innerW-28, 4)
	var b strings.Builder
	for _, c := range r.Checkins {
		color := t.SeriesColor(c.CheckinType)
		b.WriteString(components.ShareBar(c.CheckinType+" rentals", c.Share, color, 18, barW))
		b.WriteString("\n")
		b.WriteString(components.ShareBar(c.CheckinType+" canceled", c.CanceledShare, color, 18, barW))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func keyValues(rows [][2]string) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	labelW := 0
	for _, r := range rows {
		labelW = max(labelW, len(r[0]))
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s  ", labelW, r[0])) + valueStyle.Render(r[1])
	}
	return strings.Join(lines, "\n")
}

func notesBody(notes []string, innerW int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(innerW)
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = style.Render("• " + n)
	}
	return strings.Join(lines, "\n")
}

func mutedLine(s string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(s)
}
