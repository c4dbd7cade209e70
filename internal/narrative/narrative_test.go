package narrative

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/model"
)

func delayReport() model.DelayReport {
	return model.DelayReport{
		Rentals:   5,
		WithDelay: 4,
		Delay:     model.DelayStats{N: 4, Mean: 30, Median: 25},
		Projection: model.Projection{
			MedianPrice:     119,
			Canceled:        2,
			CanceledLoss:    238,
			NumberDelays:    2,
			LateRevenue:     9.92,
			BreakEvenHours:  1,
			LateLoss:        228.08,
			AtRisk:          238,
			Revenue:         366.92,
			RiskOverRevenue: 0.65,
		},
		Sweep: model.Sweep{
			Penalty:           3,
			Problematic:       2,
			Recommended:       15,
			HasRecommendation: true,
			Points: []model.SweepPoint{
				{Threshold: 0, Ratio: 8, Defined: true},
				{Threshold: 15, Ratio: 0.9, Defined: true, Affected: 2, Solved: 2},
			},
		},
		Checkins: []model.CheckinShare{
			{CheckinType: model.CheckinConnect, Rentals: 1, Share: 0.2, Canceled: 1, CanceledShare: 0.5},
			{CheckinType: model.CheckinMobile, Rentals: 4, Share: 0.8, Canceled: 1, CanceledShare: 0.5},
		},
	}
}

func TestDelay_Sentences(t *testing.T) {
	lines := Delay(delayReport())
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "5 rentals, 4 with a recorded checkout delay.")
	assert.Contains(t, text, "30.00 minutes late, with a median of 25.0 minutes")
	assert.Contains(t, text, "the 2 cancellations total a $238 max loss")
	assert.Contains(t, text, "under 1.00h")
	assert.Contains(t, text, "0.65 times")
	assert.Contains(t, text, "a threshold of 15m negates losses")
	assert.Contains(t, text, "solve 2 of 2 back-to-back conflicts")
	assert.Contains(t, text, "Mobile has a 80.0% share of rentals and Connect 20.0%.")
	assert.Contains(t, text, "Cancellations weigh more on the Connect flow.")
}

func TestDelay_UndefinedMetricsOmitted(t *testing.T) {
	r := delayReport()
	r.Projection.BreakEvenHours = math.NaN()
	r.Projection.RiskOverRevenue = math.NaN()
	r.Sweep.HasRecommendation = false
	r.Checkins = r.Checkins[:1]

	text := strings.Join(Delay(r), "\n")
	assert.NotContains(t, text, "break even")
	assert.NotContains(t, text, "max risk")
	assert.NotContains(t, text, "Mobile has")
	assert.Contains(t, text, "no threshold brings the risk of all rentals under penalty revenue")
}

func TestDelay_Empty(t *testing.T) {
	assert.Equal(t, []string{"No rentals loaded."}, Delay(model.DelayReport{}))
}

func TestPricing_Sentences(t *testing.T) {
	r := model.PricingReport{
		Listings: 4,
		Averages: []model.ModelPrice{
			{ModelKey: "BMW", Listings: 2, Mean: 150, Total: 300},
			{ModelKey: "Renault", Listings: 2, Mean: 100, Total: 200},
		},
		Totals: []model.ModelPrice{
			{ModelKey: "BMW", Listings: 2, Mean: 150, Total: 300, Share: 0.6},
			{ModelKey: "Renault", Listings: 2, Mean: 100, Total: 200, Share: 0.4},
		},
		TopN:     5,
		TopShare: 1,
		Correlation: model.CorrelationMatrix{
			Columns: []string{"mileage", "engine_power", "rental_price_per_day"},
			Values: [][]float64{
				{1, -0.2, -0.7},
				{-0.2, 1, 0.5},
				{-0.7, 0.5, 1},
			},
		},
		PriceHist: model.Histogram{
			Column: "rental_price_per_day",
			Bins:   []model.Bin{{Lo: 50, Hi: 100, Count: 1}, {Lo: 100, Hi: 150, Count: 3}},
			N:      4,
		},
	}

	lines := Pricing(r)
	require.Len(t, lines, 5)
	assert.Equal(t, "4 listings across 2 model keys.", lines[0])
	assert.Equal(t, "The 2 top brands (BMW, Renault) account for 100.0% of rental income.", lines[1])
	assert.Equal(t, "BMW has the highest average price at $150 per day.", lines[2])
	assert.Equal(t, "mileage lowers the daily price the most (r = -0.70).", lines[3])
	assert.Equal(t, "Most rentals cost between $100 and $150 per day.", lines[4])
}

func TestPricing_Empty(t *testing.T) {
	assert.Equal(t, []string{"No listings loaded."}, Pricing(model.PricingReport{}))
}
