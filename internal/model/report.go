package model

import "math"

// GroupShare is the count and share of rows in one (checkin type, label) group.
type GroupShare struct {
	CheckinType string
	Label       string
	Count       int
	Share       float64 // 0-1, of the grand total across all groups
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram holds equal-width bins over one column.
type Histogram struct {
	Column string
	Bins   []Bin
	N      int // values counted, missing excluded
}

// Mode returns the most populated bin. ok is false for an empty histogram.
func (h Histogram) Mode() (Bin, bool) {
	best := -1
	for i, b := range h.Bins {
		if best < 0 || b.Count > h.Bins[best].Count {
			best = i
		}
	}
	if best < 0 || h.Bins[best].Count == 0 {
		return Bin{}, false
	}
	return h.Bins[best], true
}

// DelayStats holds the centre of the cleaned checkout delay.
type DelayStats struct {
	N      int
	Mean   float64
	Median float64
}

// Projection holds the what-if revenue figures of the delay page.
// Ratios that would divide by zero are NaN.
type Projection struct {
	MedianPrice float64
	MinuteRate  float64

	Ended        int
	Canceled     int
	CanceledLoss float64 // max loss

	NumberDelays int
	SumDelays    float64 // minutes
	LateRevenue  float64

	BreakEvenHours float64
	LateLoss       float64

	AtRisk          float64 // max risk
	Revenue         float64
	RiskOverRevenue float64
}

// SweepPoint is the outcome of one threshold in the threshold sweep.
type SweepPoint struct {
	Threshold float64 // minutes

	LateCount   int
	LateMinutes float64
	LateRevenue float64 // penalty-weighted revenue from late minutes
	LateRisk    float64
	Ratio       float64 // LateRisk / LateRevenue, NaN unless Defined
	Defined     bool

	Affected int // rentals blocked by a minimum gap of Threshold
	Solved   int // problematic back-to-back cases avoided
}

// Sweep is the full threshold sweep.
type Sweep struct {
	CheckinType string // empty for all rentals
	Penalty     float64
	Points      []SweepPoint

	Recommended       float64
	HasRecommendation bool
	Problematic       int
}

// DefinedPoints returns the points with a defined ratio.
func (s Sweep) DefinedPoints() []SweepPoint {
	out := make([]SweepPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Defined {
			out = append(out, p)
		}
	}
	return out
}

// CheckinShare holds the volume and cancellation share of one checkin type.
type CheckinShare struct {
	CheckinType   string
	Rentals       int
	Share         float64
	Canceled      int
	CanceledShare float64 // share of all cancellations
}

// DelayReport is everything the delay page shows.
type DelayReport struct {
	Rentals   int
	WithDelay int

	CheckoutShares   []GroupShare
	NextRentalShares []GroupShare
	Delay            DelayStats

	TimeDeltaHist Histogram
	DelayHist     Histogram

	Projection Projection
	Sweep      Sweep
	Checkins   []CheckinShare
}

// Checkin returns the share entry for a checkin type by name.
func (r DelayReport) Checkin(name string) (CheckinShare, bool) {
	for _, c := range r.Checkins {
		if c.CheckinType == name {
			return c, true
		}
	}
	return CheckinShare{}, false
}

// ModelPrice holds price aggregates for one model key.
type ModelPrice struct {
	ModelKey string
	Listings int
	Mean     float64
	Total    float64
	Share    float64 // of the grand total
}

// CorrelationMatrix holds pairwise Pearson correlations, NaN when undefined.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// At returns the correlation between columns i and j.
func (m CorrelationMatrix) At(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(m.Values) || j >= len(m.Values[i]) {
		return math.NaN()
	}
	return m.Values[i][j]
}

// PricingReport is everything the pricing page shows.
type PricingReport struct {
	Listings int

	Averages []ModelPrice // by mean, descending
	Totals   []ModelPrice // by total, descending

	TopN     int
	TopShare float64

	Correlation CorrelationMatrix

	PriceHist   Histogram
	MileageHist Histogram
}
