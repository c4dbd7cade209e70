package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/tui/components"
	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// ratioCap clips the ratio chart; early thresholds can be orders of
// magnitude above break-even.
const ratioCap = 10

func (a App) renderSweepTab(cw int) string {
	s := a.delay.Sweep
	t := theme.Active
	var b strings.Builder

	rec := cli.NA
	if s.HasRecommendation {
		rec = cli.FormatMinutes(s.Recommended)
	}
	scope := "all checkins"
	if s.CheckinType != "" {
		scope = s.CheckinType
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Penalty", Value: fmt.Sprintf("%g×", s.Penalty), Note: "on the minute rate"},
		{Label: "Recommended gap", Value: rec, Note: "ratio stays ≤ 1 from here"},
		{Label: "Problematic cases", Value: cli.FormatCount(s.Problematic), Note: "delay longer than the gap"},
		{Label: "Scope", Value: scope, Note: "c to cycle"},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	values := make([]float64, len(s.Points))
	labels := make([]string, len(s.Points))
	for i, p := range s.Points {
		values[i] = math.NaN()
		if p.Defined {
			values[i] = p.Ratio
		}
		if math.Mod(p.Threshold, 60) == 0 {
			labels[i] = cli.FormatFloat(p.Threshold/60, 0) + "h"
		}
	}
	chart := mutedLine("no data")
	if len(s.DefinedPoints()) > 0 {
		chart = components.BarChart(values, labels, components.ChartOptions{
			Width:      inner,
			Height:     10,
			Color:      t.Accent,
			RefLine:    1,
			HasRefLine: true,
			Cap:        ratioCap,
		})
	}
	b.WriteString(components.ContentCard("Risk / late revenue by minimum gap", chart, cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Hourly thresholds", sweepTable(s.Points, inner), cw))
	return b.String()
}

// sweepTable lists the sweep at whole hours.
func sweepTable(points []model.SweepPoint, innerW int) string {
	t := theme.Active
	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	const colW = 12
	header := fmt.Sprintf("%-8s%*s%*s%*s%*s%*s", "Gap", colW, "Late", colW, "Late rev", colW, "Ratio", colW, "Affected", colW, "Solved")

	var b strings.Builder
	b.WriteString(head.Render(truncStr(header, innerW)))
	rows := 0
	for _, p := range points {
		if math.Mod(p.Threshold, 60) != 0 {
			continue
		}
		ratio := cli.NA
		color := t.TextDim
		if p.Defined {
			ratio = cli.FormatRatio(p.Ratio)
			color = components.RatioColor(p.Ratio)
		}
		b.WriteString("\n")
		b.WriteString(cell.Render(fmt.Sprintf("%-8s%*s%*s", cli.FormatMinutes(p.Threshold),
			colW, cli.FormatCount(p.LateCount), colW, cli.FormatCost(p.LateRevenue))))
		b.WriteString(lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(fmt.Sprintf("%*s", colW, ratio)))
		b.WriteString(cell.Render(fmt.Sprintf("%*s%*s", colW, cli.FormatCount(p.Affected), colW, cli.FormatCount(p.Solved))))
		rows++
	}
	if rows == 0 {
		b.WriteString("\n")
		b.WriteString(mutedLine("no thresholds"))
	}
	return b.String()
}
