package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func plain(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.TrueColor) })
}

func TestSparkline(t *testing.T) {
	plain(t)
	got := Sparkline([]float64{0, 7, math.NaN(), 14}, "")
	if got != "▁▄ █" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestBarChart_Shape(t *testing.T) {
	plain(t)
	out := BarChart([]float64{1, 2, 4}, []string{"a", "b", "c"}, ChartOptions{Width: 40, Height: 8})
	lines := strings.Split(out, "\n")

	axis := lines[len(lines)-2]
	if !strings.Contains(axis, "└") {
		t.Fatalf("missing x axis: %q", axis)
	}
	if !strings.Contains(lines[len(lines)-1], "a") {
		t.Errorf("missing labels: %q", lines[len(lines)-1])
	}
	// The tallest bar reaches the top row.
	if !strings.Contains(lines[0], "█") {
		t.Errorf("top row has no bar: %q", lines[0])
	}
}

func TestBarChart_RefLine(t *testing.T) {
	plain(t)
	out := BarChart([]float64{0.2, 0.1}, nil, ChartOptions{Width: 30, Height: 6, RefLine: 1, HasRefLine: true})
	if !strings.Contains(out, "┄") {
		t.Errorf("reference line not drawn:\n%s", out)
	}
}

func TestBarChart_Narrow(t *testing.T) {
	plain(t)
	if got := BarChart([]float64{1, 2}, nil, ChartOptions{Width: 5, Height: 5}); got != "▄█" {
		t.Errorf("narrow chart should fall back to a sparkline, got %q", got)
	}
}

func TestDownsample(t *testing.T) {
	v, l := downsample([]float64{0, 1, 2, 3, 4}, []string{"a", "b", "c", "d", "e"}, 3)
	if len(v) != 3 || v[0] != 0 || v[2] != 4 {
		t.Errorf("values = %v", v)
	}
	if l[0] != "a" || l[2] != "e" {
		t.Errorf("labels = %v", l)
	}
}

func TestChartTickStep(t *testing.T) {
	tests := []struct {
		max, want float64
	}{
		{0, 1},
		{5, 1},
		{10, 2},
		{100, 20},
		{300, 50},
	}
	for _, tt := range tests {
		if got := chartTickStep(tt.max); got != tt.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestHBar(t *testing.T) {
	plain(t)
	got := HBar("BMW", 5, 50, 100, 10, "$50", "")
	if got != "BMW   █████      $50" {
		t.Errorf("HBar = %q", got)
	}
	if got := HBar("Mercedes", 4, 0, 100, 4, "$0", ""); got != "Mer…      $0" {
		t.Errorf("HBar truncated = %q", got)
	}
}
