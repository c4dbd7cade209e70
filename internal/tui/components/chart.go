package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/gadash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders values as a one-line block sparkline. NaN renders blank.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			buf.WriteRune(' ')
			continue
		}
		idx := int(v / peak * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// ChartOptions tune BarChart.
type ChartOptions struct {
	Width  int
	Height int
	Color  lipgloss.Color

	// RefLine draws a dashed horizontal line at this value when set.
	RefLine    float64
	HasRefLine bool
	// Cap clips taller bars so one outlier does not flatten the rest.
	Cap float64
}

// BarChart renders a vertical bar chart with a y axis and sparse x labels.
// NaN values leave a gap. Bars above Cap are drawn clipped.
func BarChart(values []float64, labels []string, opts ChartOptions) string {
	if len(values) == 0 {
		return ""
	}
	width, height := opts.Width, opts.Height
	if width < 15 || height < 3 {
		return Sparkline(values, opts.Color)
	}
	t := theme.Active

	maxVal := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > maxVal {
			maxVal = v
		}
	}
	if opts.Cap > 0 && maxVal > opts.Cap {
		maxVal = opts.Cap
	}
	if opts.HasRefLine && opts.RefLine > maxVal {
		maxVal = opts.RefLine
	}
	if maxVal == 0 {
		maxVal = 1
	}

	step := chartTickStep(maxVal)
	for math.Ceil(maxVal/step) > float64(max(2, height/2)) {
		step *= 2
	}
	ceiling := math.Ceil(maxVal/step) * step
	intervals := max(1, int(math.Round(ceiling/step)))
	rowsPerTick := max(2, height/intervals)
	chartH := rowsPerTick * intervals

	labelW := max(4, len(formatChartLabel(ceiling))+1)
	ticks := make(map[int]string, intervals)
	for i := 1; i <= intervals; i++ {
		ticks[i*rowsPerTick] = formatChartLabel(step * float64(i))
	}

	// Downsample when bars would be narrower than one column.
	plotW := max(5, width-labelW-1)
	n := len(values)
	if n > plotW {
		values, labels = downsample(values, labels, plotW)
		n = len(values)
	}
	barW := max(1, min(6, plotW/n))
	axisLen := n * barW

	refRow := -1
	if opts.HasRefLine {
		refRow = int(math.Round(opts.RefLine / ceiling * float64(chartH)))
	}

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(opts.Color).Background(t.Surface)
	refStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", labelW, ticks[row])))
		for _, v := range values {
			switch {
			case math.IsNaN(v):
				b.WriteString(blankStyle.Render(strings.Repeat(" ", barW)))
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := max(1, min(8, int((v-bottom)/(top-bottom)*8)))
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			case row == refRow:
				b.WriteString(refStyle.Render(strings.Repeat("┄", barW)))
			default:
				b.WriteString(blankStyle.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", labelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		next := 0
		for i, lbl := range labels {
			pos := i * barW
			if lbl == "" || pos < next || pos+len(lbl) > axisLen {
				continue
			}
			copy(line[pos:], []rune(lbl))
			next = pos + len(lbl) + 1
		}
		b.WriteString("\n")
		b.WriteString(blankStyle.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(line), " ")))
	}
	return b.String()
}

// downsample keeps n evenly spaced values, with their labels.
func downsample(values []float64, labels []string, n int) ([]float64, []string) {
	outV := make([]float64, n)
	var outL []string
	if len(labels) == len(values) {
		outL = make([]string, n)
	}
	for i := range n {
		src := i * (len(values) - 1) / max(1, n-1)
		outV[i] = values[src]
		if outL != nil {
			outL[i] = labels[src]
		}
	}
	return outV, outL
}

// chartTickStep picks a 1/2/5 tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", v/1e6), ".0") + "M"
	case v >= 1e3:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", v/1e3), ".0") + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// HBar renders one labeled horizontal bar scaled against maxValue.
func HBar(label string, labelW int, value, maxValue float64, barW int, valueText string, color lipgloss.Color) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	n := 0
	if maxValue > 0 && !math.IsNaN(value) && value > 0 {
		n = int(math.Round(value / maxValue * float64(barW)))
		n = max(1, min(n, barW))
	}
	lbl := label
	if r := []rune(lbl); len(r) > labelW {
		lbl = string(r[:max(labelW-1, 0)]) + "…"
	}
	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, lbl)) +
		blank.Render(" ") +
		barStyle.Render(strings.Repeat("█", n)) +
		blank.Render(strings.Repeat(" ", barW-n+1)) +
		valueStyle.Render(valueText)
}
