package pipeline

import (
	"math"
	"sort"
	"strconv"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

// AnalyzeDelay computes everything the delay page shows. A non-empty checkin
// restricts the report to that checkin type.
func AnalyzeDelay(all []model.Rental, p Params, checkin string) model.DelayReport {
	p = p.withDefaults()
	rentals := all
	if checkin != "" {
		rentals = FilterByCheckin(all, checkin)
	}

	cleaned := make([]float64, len(rentals))
	deltas := make([]float64, len(rentals))
	withDelay := 0
	for i, r := range rentals {
		cleaned[i] = r.DelayCleaned
		deltas[i] = r.TimeDeltaWithPrevious
		if !math.IsNaN(r.DelayAtCheckout) {
			withDelay++
		}
	}

	mean, median, n := meanMedian(cleaned)

	return model.DelayReport{
		Rentals:          len(rentals),
		WithDelay:        withDelay,
		CheckoutShares:   CheckoutShares(rentals),
		NextRentalShares: NextRentalShares(rentals),
		Delay:            model.DelayStats{N: n, Mean: mean, Median: median},
		TimeDeltaHist:    BuildHistogram(source.ColTimeDelta, deltas, p.Bins),
		DelayHist:        BuildHistogram(source.ColDelayCleaned, cleaned, p.Bins),
		Projection:       Project(rentals, p),
		Sweep:            ThresholdSweep(rentals, all, p, checkin),
		Checkins:         CheckinShares(rentals),
	}
}

// CheckoutShares counts rentals with a known delay per (checkin type,
// checkout bucket). Shares are of all rentals with a known delay.
func CheckoutShares(rentals []model.Rental) []model.GroupShare {
	return groupShares(rentals, func(r model.Rental) (string, bool) {
		if math.IsNaN(r.DelayAtCheckout) || r.Checkout == "" {
			return "", false
		}
		return r.Checkout, true
	})
}

// NextRentalShares counts all rentals per (checkin type, followed by another rental).
func NextRentalShares(rentals []model.Rental) []model.GroupShare {
	return groupShares(rentals, func(r model.Rental) (string, bool) {
		return strconv.FormatBool(r.NextRental), true
	})
}

func groupShares(rentals []model.Rental, label func(model.Rental) (string, bool)) []model.GroupShare {
	type key struct{ checkin, label string }
	counts := make(map[key]int)
	total := 0
	for _, r := range rentals {
		if r.CheckinType == "" {
			continue
		}
		l, ok := label(r)
		if !ok {
			continue
		}
		counts[key{r.CheckinType, l}]++
		total++
	}

	out := make([]model.GroupShare, 0, len(counts))
	for k, c := range counts {
		out = append(out, model.GroupShare{
			CheckinType: k.checkin,
			Label:       k.label,
			Count:       c,
			Share:       float64(c) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckinType != out[j].CheckinType {
			return out[i].CheckinType < out[j].CheckinType
		}
		oi, oj := labelOrder(out[i].Label), labelOrder(out[j].Label)
		if oi != oj {
			return oi < oj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// labelOrder sorts checkout buckets chronologically and anything else after them.
func labelOrder(label string) int {
	for i, b := range model.CheckoutBuckets {
		if b == label {
			return i
		}
	}
	return len(model.CheckoutBuckets)
}

// Project computes the revenue projection of late checkouts and cancellations.
func Project(rentals []model.Rental, p Params) model.Projection {
	p = p.withDefaults()
	proj := model.Projection{
		MedianPrice: p.MedianPrice,
		MinuteRate:  p.MinuteRate(),
	}

	for _, r := range rentals {
		switch r.State {
		case model.StateCanceled:
			proj.Canceled++
		case model.StateEnded:
			proj.Ended++
		}
		if r.DelayCleaned > 0 {
			proj.NumberDelays++
			proj.SumDelays += r.DelayCleaned
		}
	}

	proj.CanceledLoss = float64(proj.Canceled) * p.MedianPrice
	proj.LateRevenue = proj.SumDelays * proj.MinuteRate
	proj.BreakEvenHours = safeDiv(proj.LateRevenue, proj.CanceledLoss) * p.RentalMinutes / 60
	proj.LateLoss = proj.CanceledLoss - proj.LateRevenue
	proj.AtRisk = float64(proj.NumberDelays) * proj.MinuteRate * p.RentalMinutes
	proj.Revenue = float64(proj.Ended)*p.MedianPrice + proj.LateRevenue
	proj.RiskOverRevenue = safeDiv(proj.AtRisk, proj.Revenue)
	return proj
}

// ThresholdSweep evaluates every threshold over rentals. all is the full
// dataset, used to look up the checkout delay of previous rentals; it may be
// the same slice as rentals. checkin labels the subset and is informational.
func ThresholdSweep(rentals, all []model.Rental, p Params, checkin string) model.Sweep {
	p = p.withDefaults()
	rate := p.MinuteRate()

	prevDelay := make(map[int64]float64, len(all))
	for _, r := range all {
		prevDelay[r.RentalID] = r.DelayAtCheckout
	}

	// Back-to-back rentals: gap to the previous rental, and whether the
	// previous driver returned later than that gap.
	type gap struct {
		delta       float64
		problematic bool
	}
	var gaps []gap
	var late []float64
	for _, r := range rentals {
		if r.DelayCleaned > 0 {
			late = append(late, r.DelayCleaned)
		}
		if !r.HasPreviousRental || math.IsNaN(r.TimeDeltaWithPrevious) {
			continue
		}
		g := gap{delta: r.TimeDeltaWithPrevious}
		if d, ok := prevDelay[r.PreviousRentalID]; ok && !math.IsNaN(d) && d > g.delta {
			g.problematic = true
		}
		gaps = append(gaps, g)
	}

	sw := model.Sweep{CheckinType: checkin, Penalty: p.Penalty}
	for _, g := range gaps {
		if g.problematic {
			sw.Problematic++
		}
	}

	for _, t := range p.Thresholds() {
		pt := model.SweepPoint{Threshold: t, Ratio: math.NaN()}
		for _, d := range late {
			if d > t {
				pt.LateCount++
				pt.LateMinutes += d
			}
		}
		pt.LateRevenue = pt.LateMinutes * rate * p.Penalty
		pt.LateRisk = float64(pt.LateCount) * p.MedianPrice
		if pt.LateCount > 0 && pt.LateRevenue > 0 {
			pt.Ratio = pt.LateRisk / pt.LateRevenue
			pt.Defined = true
		}
		for _, g := range gaps {
			if g.delta < t {
				pt.Affected++
				if g.problematic {
					pt.Solved++
				}
			}
		}
		sw.Points = append(sw.Points, pt)
	}

	sw.Recommended, sw.HasRecommendation = BreakEven(sw.Points)
	return sw
}

// BreakEven returns the smallest threshold from which every defined ratio
// stays at or below 1, so penalty revenue covers the risk of late checkouts.
func BreakEven(points []model.SweepPoint) (float64, bool) {
	found := false
	var at float64
	for i := len(points) - 1; i >= 0; i-- {
		pt := points[i]
		if !pt.Defined {
			continue
		}
		if pt.Ratio > 1 {
			break
		}
		at, found = pt.Threshold, true
	}
	return at, found
}

// CheckinShares returns the volume and cancellation share of each checkin type.
func CheckinShares(rentals []model.Rental) []model.CheckinShare {
	byType := make(map[string]*model.CheckinShare)
	total, canceled := 0, 0
	for _, r := range rentals {
		if r.CheckinType == "" {
			continue
		}
		cs, ok := byType[r.CheckinType]
		if !ok {
			cs = &model.CheckinShare{CheckinType: r.CheckinType}
			byType[r.CheckinType] = cs
		}
		cs.Rentals++
		total++
		if r.State == model.StateCanceled {
			cs.Canceled++
			canceled++
		}
	}

	out := make([]model.CheckinShare, 0, len(byType))
	for _, cs := range byType {
		cs.Share = safeDiv(float64(cs.Rentals), float64(total))
		cs.CanceledShare = safeDiv(float64(cs.Canceled), float64(canceled))
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckinType < out[j].CheckinType })
	return out
}
