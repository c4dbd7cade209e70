package server

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/theirongolddev/gadash/internal/chart"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/narrative"
)

// num is a float that encodes NaN and infinities as null.
type num float64

func (n num) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

type shareJSON struct {
	CheckinType string `json:"checkin_type"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
	Share       num    `json:"share"`
}

type binJSON struct {
	Lo    num `json:"lo"`
	Hi    num `json:"hi"`
	Count int `json:"count"`
}

type histogramJSON struct {
	Column string    `json:"column"`
	N      int       `json:"n"`
	Bins   []binJSON `json:"bins"`
}

type projectionJSON struct {
	MedianPrice     num `json:"median_price"`
	MinuteRate      num `json:"minute_rate"`
	Ended           int `json:"ended"`
	Canceled        int `json:"canceled"`
	MaxLoss         num `json:"max_loss"`
	NumberDelays    int `json:"number_delays"`
	SumDelays       num `json:"sum_delays"`
	LateRevenue     num `json:"late_revenue"`
	BreakEvenHours  num `json:"break_even_hours"`
	LateLoss        num `json:"late_loss"`
	MaxRisk         num `json:"max_risk"`
	Revenue         num `json:"revenue"`
	RiskOverRevenue num `json:"risk_over_revenue"`
}

type sweepPointJSON struct {
	Threshold   num  `json:"threshold"`
	LateCount   int  `json:"late_count"`
	LateMinutes num  `json:"late_minutes"`
	LateRevenue num  `json:"late_revenue"`
	LateRisk    num  `json:"late_risk"`
	Ratio       num  `json:"ratio"`
	Defined     bool `json:"defined"`
	Affected    int  `json:"affected"`
	Solved      int  `json:"solved"`
}

type sweepJSON struct {
	CheckinType string           `json:"checkin_type,omitempty"`
	Penalty     num              `json:"penalty"`
	Recommended *num             `json:"recommended"`
	Problematic int              `json:"problematic"`
	Points      []sweepPointJSON `json:"points"`
}

type checkinJSON struct {
	CheckinType   string `json:"checkin_type"`
	Rentals       int    `json:"rentals"`
	Share         num    `json:"share"`
	Canceled      int    `json:"canceled"`
	CanceledShare num    `json:"canceled_share"`
}

type delayJSON struct {
	Rentals          int            `json:"rentals"`
	WithDelay        int            `json:"with_delay"`
	MeanDelay        num            `json:"mean_delay"`
	MedianDelay      num            `json:"median_delay"`
	CheckoutShares   []shareJSON    `json:"checkout_shares"`
	NextRentalShares []shareJSON    `json:"next_rental_shares"`
	TimeDeltaHist    histogramJSON  `json:"time_delta_histogram"`
	DelayHist        histogramJSON  `json:"delay_histogram"`
	Projection       projectionJSON `json:"projection"`
	Sweep            sweepJSON      `json:"sweep"`
	Checkins         []checkinJSON  `json:"checkins"`
	Notes            []string       `json:"notes"`
}

type modelJSON struct {
	ModelKey string `json:"model_key"`
	Listings int    `json:"listings"`
	Mean     num    `json:"mean"`
	Total    num    `json:"total"`
	Share    num    `json:"share"`
}

type correlationJSON struct {
	Columns []string `json:"columns"`
	Values  [][]num  `json:"values"`
}

type pricingJSON struct {
	Listings    int             `json:"listings"`
	Averages    []modelJSON     `json:"averages"`
	Totals      []modelJSON     `json:"totals"`
	TopN        int             `json:"top_n"`
	TopShare    num             `json:"top_share"`
	Correlation correlationJSON `json:"correlation"`
	PriceHist   histogramJSON   `json:"price_histogram"`
	MileageHist histogramJSON   `json:"mileage_histogram"`
	Notes       []string        `json:"notes"`
}

func sharesJSON(shares []model.GroupShare) []shareJSON {
	out := make([]shareJSON, len(shares))
	for i, s := range shares {
		out[i] = shareJSON{CheckinType: s.CheckinType, Label: s.Label, Count: s.Count, Share: num(s.Share)}
	}
	return out
}

func histJSON(h model.Histogram) histogramJSON {
	bins := make([]binJSON, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = binJSON{Lo: num(b.Lo), Hi: num(b.Hi), Count: b.Count}
	}
	return histogramJSON{Column: h.Column, N: h.N, Bins: bins}
}

func modelsJSON(models []model.ModelPrice) []modelJSON {
	out := make([]modelJSON, len(models))
	for i, m := range models {
		out[i] = modelJSON{ModelKey: m.ModelKey, Listings: m.Listings, Mean: num(m.Mean), Total: num(m.Total), Share: num(m.Share)}
	}
	return out
}

func newDelayJSON(r model.DelayReport) delayJSON {
	p := r.Projection
	sw := sweepJSON{
		CheckinType: r.Sweep.CheckinType,
		Penalty:     num(r.Sweep.Penalty),
		Problematic: r.Sweep.Problematic,
		Points:      make([]sweepPointJSON, len(r.Sweep.Points)),
	}
	if r.Sweep.HasRecommendation {
		rec := num(r.Sweep.Recommended)
		sw.Recommended = &rec
	}
	for i, pt := range r.Sweep.Points {
		sw.Points[i] = sweepPointJSON{
			Threshold:   num(pt.Threshold),
			LateCount:   pt.LateCount,
			LateMinutes: num(pt.LateMinutes),
			LateRevenue: num(pt.LateRevenue),
			LateRisk:    num(pt.LateRisk),
			Ratio:       num(pt.Ratio),
			Defined:     pt.Defined,
			Affected:    pt.Affected,
			Solved:      pt.Solved,
		}
	}
	checkins := make([]checkinJSON, len(r.Checkins))
	for i, c := range r.Checkins {
		checkins[i] = checkinJSON{
			CheckinType:   c.CheckinType,
			Rentals:       c.Rentals,
			Share:         num(c.Share),
			Canceled:      c.Canceled,
			CanceledShare: num(c.CanceledShare),
		}
	}

	return delayJSON{
		Rentals:          r.Rentals,
		WithDelay:        r.WithDelay,
		MeanDelay:        num(r.Delay.Mean),
		MedianDelay:      num(r.Delay.Median),
		CheckoutShares:   sharesJSON(r.CheckoutShares),
		NextRentalShares: sharesJSON(r.NextRentalShares),
		TimeDeltaHist:    histJSON(r.TimeDeltaHist),
		DelayHist:        histJSON(r.DelayHist),
		Projection: projectionJSON{
			MedianPrice:     num(p.MedianPrice),
			MinuteRate:      num(p.MinuteRate),
			Ended:           p.Ended,
			Canceled:        p.Canceled,
			MaxLoss:         num(p.CanceledLoss),
			NumberDelays:    p.NumberDelays,
			SumDelays:       num(p.SumDelays),
			LateRevenue:     num(p.LateRevenue),
			BreakEvenHours:  num(p.BreakEvenHours),
			LateLoss:        num(p.LateLoss),
			MaxRisk:         num(p.AtRisk),
			Revenue:         num(p.Revenue),
			RiskOverRevenue: num(p.RiskOverRevenue),
		},
		Sweep:    sw,
		Checkins: checkins,
		Notes:    narrative.Delay(r),
	}
}

func newPricingJSON(r model.PricingReport) pricingJSON {
	values := make([][]num, len(r.Correlation.Values))
	for i, row := range r.Correlation.Values {
		values[i] = make([]num, len(row))
		for j, v := range row {
			values[i][j] = num(v)
		}
	}
	return pricingJSON{
		Listings:    r.Listings,
		Averages:    modelsJSON(r.Averages),
		Totals:      modelsJSON(r.Totals),
		TopN:        r.TopN,
		TopShare:    num(r.TopShare),
		Correlation: correlationJSON{Columns: r.Correlation.Columns, Values: values},
		PriceHist:   histJSON(r.PriceHist),
		MileageHist: histJSON(r.MileageHist),
		Notes:       narrative.Pricing(r),
	}
}

type errorJSON struct {
	Error string `json:"error"`
}

func notLoaded(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, errorJSON{Error: "datasets not loaded yet"})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshotStatus())
}

func (s *Service) handleDelayAPI(w http.ResponseWriter, r *http.Request) {
	report, ok := s.delayReport(filtersOf(r))
	if !ok {
		notLoaded(w, r)
		return
	}
	render.JSON(w, r, newDelayJSON(report))
}

func (s *Service) handlePricingAPI(w http.ResponseWriter, r *http.Request) {
	report, ok := s.pricingReport(filtersOf(r))
	if !ok {
		notLoaded(w, r)
		return
	}
	render.JSON(w, r, newPricingJSON(report))
}

// handleChart renders one named chart of either page as PNG.
func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f := filtersOf(r)

	// Charts render lazily, so zero reports are enough to resolve the page.
	var c chart.Chart
	ok := true
	switch {
	case hasChart(chart.PricingCharts(model.PricingReport{}), name):
		var pricing model.PricingReport
		pricing, ok = s.pricingReport(f)
		c, _ = chart.Find(chart.PricingCharts(pricing), name)
	case hasChart(chart.DelayCharts(model.DelayReport{}), name):
		var delay model.DelayReport
		delay, ok = s.delayReport(f)
		c, _ = chart.Find(chart.DelayCharts(delay), name)
	default:
		http.Error(w, "unknown chart "+strconv.Quote(name), http.StatusNotFound)
		return
	}
	if !ok {
		http.Error(w, "datasets not loaded yet", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Warn("chart render failed", "chart", name, "err", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func hasChart(charts []chart.Chart, name string) bool {
	_, ok := chart.Find(charts, name)
	return ok
}
