// Package chart renders report charts to PNG with go-chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/theirongolddev/gadash/internal/model"
)

// Canvas size of every chart, in pixels.
const (
	Width  = 1024
	Height = 576
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("chart: no data to plot")

// Chart is a named PNG chart over one report.
type Chart struct {
	Name   string
	Title  string
	render func(io.Writer) error
}

// Render writes the chart as PNG.
func (c Chart) Render(w io.Writer) error {
	if err := c.render(w); err != nil {
		return fmt.Errorf("rendering %s: %w", c.Name, err)
	}
	return nil
}

// Find returns the chart with the given name.
func Find(charts []Chart, name string) (Chart, bool) {
	for _, c := range charts {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}

// DelayCharts returns the charts of the delay page.
func DelayCharts(r model.DelayReport) []Chart {
	return []Chart{
		{Name: "checkout", Title: "Checkout delays by checkin type (%)", render: func(w io.Writer) error {
			return renderShares(w, "Checkout delays by checkin type (%)", r.CheckoutShares)
		}},
		{Name: "next-rental", Title: "Next rental or not by checkin type (%)", render: func(w io.Writer) error {
			return renderShares(w, "Next rental or not by checkin type (%)", r.NextRentalShares)
		}},
		{Name: "time-delta", Title: "Time delta with previous rental", render: func(w io.Writer) error {
			return renderHistogram(w, "Time delta with previous rental (minutes)", r.TimeDeltaHist)
		}},
		{Name: "delay", Title: "Delays at checkout", render: func(w io.Writer) error {
			return renderHistogram(w, "Delays at checkout (minutes, outliers removed)", r.DelayHist)
		}},
		{Name: "sweep", Title: "Threshold and risk over late revenue", render: func(w io.Writer) error {
			return renderSweep(w, r.Sweep)
		}},
	}
}

// PricingCharts returns the charts of the pricing page.
func PricingCharts(r model.PricingReport) []Chart {
	return []Chart{
		{Name: "model-averages", Title: "Average price per day by model", render: func(w io.Writer) error {
			return renderModels(w, "Average price per day by model", r.Averages, func(m model.ModelPrice) float64 { return m.Mean })
		}},
		{Name: "model-totals", Title: "Total price per day by model", render: func(w io.Writer) error {
			return renderModels(w, "Total price per day by model", r.Totals, func(m model.ModelPrice) float64 { return m.Total })
		}},
		{Name: "correlation", Title: "Correlation matrix", render: func(w io.Writer) error {
			return renderHeatmap(w, r.Correlation)
		}},
		{Name: "price", Title: "Rental price per day", render: func(w io.Writer) error {
			return renderHistogram(w, "Rental price per day", r.PriceHist)
		}},
		{Name: "mileage", Title: "Mileage", render: func(w io.Writer) error {
			return renderHistogram(w, "Mileage", r.MileageHist)
		}},
	}
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorOrange,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorAlternateGray,
}

func renderShares(w io.Writer, title string, shares []model.GroupShare) error {
	if len(shares) == 0 {
		return ErrNoData
	}
	colorOf := map[string]drawing.Color{}
	bars := make([]gochart.Value, 0, len(shares))
	for _, s := range shares {
		col, ok := colorOf[s.CheckinType]
		if !ok {
			col = palette[len(colorOf)%len(palette)]
			colorOf[s.CheckinType] = col
		}
		bars = append(bars, gochart.Value{
			Label: s.CheckinType + " / " + s.Label,
			Value: s.Share * 100,
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		})
	}
	return renderBars(w, title, bars)
}

func renderModels(w io.Writer, title string, models []model.ModelPrice, value func(model.ModelPrice) float64) error {
	if len(models) == 0 {
		return ErrNoData
	}
	bars := make([]gochart.Value, 0, len(models))
	for _, m := range models {
		bars = append(bars, gochart.Value{
			Label: m.ModelKey,
			Value: value(m),
			Style: gochart.Style{FillColor: gochart.ColorBlue, StrokeColor: gochart.ColorBlue},
		})
	}
	return renderBars(w, title, bars)
}

func renderHistogram(w io.Writer, title string, h model.Histogram) error {
	if h.N == 0 || len(h.Bins) == 0 {
		return ErrNoData
	}
	// Label roughly ten bins so tick text does not overlap.
	every := max(1, len(h.Bins)/10)
	bars := make([]gochart.Value, 0, len(h.Bins))
	for i, b := range h.Bins {
		label := ""
		if i%every == 0 {
			label = shortNumber(b.Lo)
		}
		bars = append(bars, gochart.Value{
			Label: label,
			Value: float64(b.Count),
			Style: gochart.Style{FillColor: gochart.ColorBlue, StrokeColor: gochart.ColorBlue},
		})
	}
	return renderBars(w, title, bars)
}

func renderBars(w io.Writer, title string, bars []gochart.Value) error {
	hi := 0.0
	for _, b := range bars {
		hi = math.Max(hi, b.Value)
	}
	if hi == 0 {
		hi = 1
	}

	plot := Width - 120
	spacing := 4
	barWidth := max(2, plot/len(bars)-spacing)

	bc := gochart.BarChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 120}},
		XAxis:      gochart.Style{TextRotationDegrees: 45},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: hi * 1.05},
		},
		Bars: bars,
	}
	return bc.Render(gochart.PNG, w)
}

func renderSweep(w io.Writer, s model.Sweep) error {
	points := s.DefinedPoints()
	if len(points) < 2 {
		return ErrNoData
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	hi := 1.0
	for i, p := range points {
		xs[i], ys[i] = p.Threshold, p.Ratio
		hi = math.Max(hi, p.Ratio)
	}
	first, last := xs[0], xs[len(xs)-1]

	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    "risk / late revenue",
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 2},
		},
		gochart.ContinuousSeries{
			Name:    "break even",
			XValues: []float64{first, last},
			YValues: []float64{1, 1},
			Style:   gochart.Style{StrokeColor: gochart.ColorRed, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}},
		},
	}

	title := "Threshold and risk over late revenue"
	if s.CheckinType != "" {
		title += " (" + s.CheckinType + ")"
	}
	ch := gochart.Chart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis: gochart.XAxis{
			Name:  "threshold (minutes)",
			Range: &gochart.ContinuousRange{Min: first, Max: last},
		},
		YAxis: gochart.YAxis{
			Name:  "ratio",
			Range: &gochart.ContinuousRange{Min: 0, Max: hi * 1.05},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(gochart.PNG, w)
}

// renderHeatmap draws the lower triangle of a correlation matrix, blue for
// positive, red for negative, grey for undefined.
func renderHeatmap(w io.Writer, m model.CorrelationMatrix) error {
	n := len(m.Columns)
	if n == 0 {
		return ErrNoData
	}
	r, err := gochart.PNG(Width, Height)
	if err != nil {
		return err
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)
	r.SetFontSize(10)
	r.SetFontColor(drawing.ColorBlack)

	fill(r, 0, 0, Width, Height, drawing.ColorWhite)

	left, top := 200, 20
	cell := min((Width-left-20)/n, (Height-top-140)/n)
	for i := range n {
		y := top + i*cell
		r.Text(m.Columns[i], 8, y+cell/2+4)
		for j := 0; j <= i; j++ {
			x := left + j*cell
			v := m.At(i, j)
			fill(r, x, y, x+cell-1, y+cell-1, heat(v))
			if cell >= 30 {
				r.Text(cellText(v), x+4, y+cell/2+4)
			}
		}
	}
	r.SetTextRotation(gochart.DegreesToRadians(60))
	for j := range n {
		r.Text(m.Columns[j], left+j*cell+cell/2, top+n*cell+10)
	}
	r.ClearTextRotation()
	return r.Save(w)
}

func fill(r gochart.Renderer, x0, y0, x1, y1 int, col drawing.Color) {
	r.SetFillColor(col)
	r.SetStrokeColor(col)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

// heat maps a correlation in [-1, 1] onto a red-white-blue scale.
func heat(v float64) drawing.Color {
	if math.IsNaN(v) {
		return drawing.Color{R: 200, G: 200, B: 200, A: 255}
	}
	v = math.Max(-1, math.Min(1, v))
	fade := uint8(255 * (1 - math.Abs(v)))
	if v >= 0 {
		return drawing.Color{R: fade, G: fade, B: 255, A: 255}
	}
	return drawing.Color{R: 255, G: fade, B: fade, A: 255}
}

func cellText(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func shortNumber(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
