package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

var nan = math.NaN()

// fixtureRentals is a small fleet: two back-to-back chains, two cancellations.
func fixtureRentals() []model.Rental {
	rentals := []model.Rental{
		{RentalID: 1, CarID: 1, CheckinType: "mobile", State: "ended", DelayAtCheckout: 30, TimeDeltaWithPrevious: nan},
		{RentalID: 2, CarID: 1, CheckinType: "mobile", State: "canceled", DelayAtCheckout: nan,
			PreviousRentalID: 1, HasPreviousRental: true, TimeDeltaWithPrevious: 10},
		{RentalID: 3, CarID: 2, CheckinType: "connect", State: "ended", DelayAtCheckout: -10, TimeDeltaWithPrevious: nan},
		{RentalID: 4, CarID: 2, CheckinType: "connect", State: "ended", DelayAtCheckout: 90,
			PreviousRentalID: 3, HasPreviousRental: true, TimeDeltaWithPrevious: 60},
		{RentalID: 5, CarID: 2, CheckinType: "connect", State: "canceled", DelayAtCheckout: nan,
			PreviousRentalID: 4, HasPreviousRental: true, TimeDeltaWithPrevious: 0},
	}
	DeriveRentals(rentals, source.DerivedColumns{})
	return rentals
}

func testParams() Params {
	p := DefaultParams()
	p.MaxThreshold = 60
	p.Bins = 4
	return p
}

func TestAnalyzeDelay_Shares(t *testing.T) {
	r := AnalyzeDelay(fixtureRentals(), testParams(), "")

	assert.Equal(t, 5, r.Rentals)
	assert.Equal(t, 3, r.WithDelay)

	require.Len(t, r.CheckoutShares, 3)
	assert.Equal(t, model.GroupShare{CheckinType: "connect", Label: model.CheckoutEarly, Count: 1, Share: 1.0 / 3}, r.CheckoutShares[0])
	assert.Equal(t, model.CheckoutLate120, r.CheckoutShares[1].Label)
	assert.Equal(t, "mobile", r.CheckoutShares[2].CheckinType)
	assert.Equal(t, model.CheckoutLate60, r.CheckoutShares[2].Label)

	require.Len(t, r.NextRentalShares, 4)
	want := []model.GroupShare{
		{CheckinType: "connect", Label: "false", Count: 1, Share: 0.2},
		{CheckinType: "connect", Label: "true", Count: 2, Share: 0.4},
		{CheckinType: "mobile", Label: "false", Count: 1, Share: 0.2},
		{CheckinType: "mobile", Label: "true", Count: 1, Share: 0.2},
	}
	for i, w := range want {
		assert.Equal(t, w.CheckinType, r.NextRentalShares[i].CheckinType)
		assert.Equal(t, w.Label, r.NextRentalShares[i].Label)
		assert.Equal(t, w.Count, r.NextRentalShares[i].Count)
		assert.InDelta(t, w.Share, r.NextRentalShares[i].Share, 1e-9)
	}
}

func TestAnalyzeDelay_Centre(t *testing.T) {
	r := AnalyzeDelay(fixtureRentals(), testParams(), "")
	assert.Equal(t, 3, r.Delay.N)
	assert.InDelta(t, 110.0/3, r.Delay.Mean, 1e-9)
	assert.InDelta(t, 30.0, r.Delay.Median, 1e-9)
	assert.Equal(t, 3, r.DelayHist.N)
	assert.Equal(t, 3, r.TimeDeltaHist.N)
}

func TestProject(t *testing.T) {
	proj := Project(fixtureRentals(), testParams())

	assert.Equal(t, 2, proj.Canceled)
	assert.Equal(t, 3, proj.Ended)
	assert.InDelta(t, 238.0, proj.CanceledLoss, 1e-9)
	assert.Equal(t, 2, proj.NumberDelays)
	assert.InDelta(t, 120.0, proj.SumDelays, 1e-9)
	assert.InDelta(t, 119.0/1440, proj.MinuteRate, 1e-12)
	assert.InDelta(t, 120*119.0/1440, proj.LateRevenue, 1e-9)
	assert.InDelta(t, 1.0, proj.BreakEvenHours, 1e-9)
	assert.InDelta(t, 238-120*119.0/1440, proj.LateLoss, 1e-9)
	assert.InDelta(t, 238.0, proj.AtRisk, 1e-9)
	assert.InDelta(t, 3*119+120*119.0/1440, proj.Revenue, 1e-9)
	assert.InDelta(t, 238/(3*119+120*119.0/1440), proj.RiskOverRevenue, 1e-9)
}

func TestProject_NoCancellationsIsUndefined(t *testing.T) {
	rentals := []model.Rental{{RentalID: 1, State: "ended", DelayCleaned: 10}}
	proj := Project(rentals, DefaultParams())
	assert.True(t, math.IsNaN(proj.BreakEvenHours), "break-even with no cancellations")
	assert.False(t, math.IsNaN(proj.RiskOverRevenue))

	proj = Project(nil, DefaultParams())
	assert.True(t, math.IsNaN(proj.RiskOverRevenue), "risk over zero revenue")
}

func TestThresholdSweep(t *testing.T) {
	rentals := fixtureRentals()
	sw := ThresholdSweep(rentals, rentals, testParams(), "")

	require.Len(t, sw.Points, 4)
	assert.Equal(t, 3.0, sw.Penalty)
	assert.Equal(t, 2, sw.Problematic)

	type want struct {
		threshold       float64
		count           int
		ratio           float64
		affected, solved int
	}
	wants := []want{
		{0, 2, 8, 0, 0},
		{15, 2, 8, 2, 2},
		{30, 1, 480.0 / 90, 2, 2},
		{45, 1, 480.0 / 90, 2, 2},
	}
	for i, w := range wants {
		pt := sw.Points[i]
		assert.Equal(t, w.threshold, pt.Threshold)
		assert.Equal(t, w.count, pt.LateCount, "count at %v", w.threshold)
		assert.True(t, pt.Defined)
		assert.InDelta(t, w.ratio, pt.Ratio, 1e-9, "ratio at %v", w.threshold)
		assert.Equal(t, w.affected, pt.Affected, "affected at %v", w.threshold)
		assert.Equal(t, w.solved, pt.Solved, "solved at %v", w.threshold)
	}
	assert.False(t, sw.HasRecommendation)
}

func TestThresholdSweep_UndefinedBeyondLongestDelay(t *testing.T) {
	rentals := []model.Rental{
		{RentalID: 1, DelayCleaned: 10, TimeDeltaWithPrevious: nan},
		{RentalID: 2, DelayCleaned: 600, TimeDeltaWithPrevious: nan},
	}
	p := DefaultParams()
	sw := ThresholdSweep(rentals, rentals, p, "")

	require.Len(t, sw.Points, 96)
	assert.Equal(t, 1425.0, sw.Points[95].Threshold)

	for _, pt := range sw.Points {
		if pt.Threshold >= 600 {
			assert.False(t, pt.Defined, "threshold %v", pt.Threshold)
			assert.True(t, math.IsNaN(pt.Ratio))
		}
	}
	assert.InDelta(t, 480.0*2/610, sw.Points[0].Ratio, 1e-9)
	assert.InDelta(t, 0.8, sw.Points[1].Ratio, 1e-9)

	require.True(t, sw.HasRecommendation)
	assert.Equal(t, 15.0, sw.Recommended)
	assert.Len(t, sw.DefinedPoints(), 40)
}

func TestThresholdSweep_PenaltyScalesRatio(t *testing.T) {
	rentals := []model.Rental{{RentalID: 1, DelayCleaned: 120}}
	p := testParams()
	p.Penalty = 6
	sw := ThresholdSweep(rentals, rentals, p, "")
	assert.InDelta(t, 240.0/120, sw.Points[0].Ratio, 1e-9)
}

func TestBreakEven(t *testing.T) {
	pts := []model.SweepPoint{
		{Threshold: 0, Ratio: 3, Defined: true},
		{Threshold: 15, Ratio: 0.9, Defined: true},
		{Threshold: 30, Ratio: 1.2, Defined: true},
		{Threshold: 45, Ratio: 0.5, Defined: true},
		{Threshold: 60, Ratio: nan},
	}
	at, ok := BreakEven(pts)
	require.True(t, ok)
	assert.Equal(t, 45.0, at)

	_, ok = BreakEven([]model.SweepPoint{{Ratio: nan}})
	assert.False(t, ok)
}

func TestCheckinShares_ByName(t *testing.T) {
	r := AnalyzeDelay(fixtureRentals(), testParams(), "")

	connect, ok := r.Checkin(model.CheckinConnect)
	require.True(t, ok)
	assert.Equal(t, 3, connect.Rentals)
	assert.InDelta(t, 0.6, connect.Share, 1e-9)
	assert.InDelta(t, 0.5, connect.CanceledShare, 1e-9)

	mobile, ok := r.Checkin(model.CheckinMobile)
	require.True(t, ok)
	assert.InDelta(t, 0.4, mobile.Share, 1e-9)

	_, ok = r.Checkin("kiosk")
	assert.False(t, ok)
}

func TestAnalyzeDelay_InfiniteValues(t *testing.T) {
	rentals := fixtureRentals()
	rentals[3].TimeDeltaWithPrevious = math.Inf(1)
	rentals[2].DelayAtCheckout = math.Inf(-1)

	var r model.DelayReport
	require.NotPanics(t, func() { r = AnalyzeDelay(rentals, testParams(), "") })
	for _, h := range []model.Histogram{r.DelayHist, r.TimeDeltaHist} {
		for _, b := range h.Bins {
			assert.False(t, math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0), "%s bin [%v, %v]", h.Column, b.Lo, b.Hi)
		}
	}
}

func TestAnalyzeDelay_CheckinFilter(t *testing.T) {
	r := AnalyzeDelay(fixtureRentals(), testParams(), "Connect")

	assert.Equal(t, 3, r.Rentals)
	assert.Equal(t, "Connect", r.Sweep.CheckinType)
	// rental 5 follows rental 4, which is looked up in the full set
	assert.Equal(t, 1, r.Sweep.Problematic)
	require.Len(t, r.Checkins, 1)
	assert.Equal(t, "connect", r.Checkins[0].CheckinType)
}
