// Package narrative turns computed reports into commentary sentences.
package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
)

// Delay returns one sentence per delay-page metric. Sentences whose inputs
// are undefined are omitted.
func Delay(r model.DelayReport) []string {
	var out []string

	if r.Rentals == 0 {
		return []string{"No rentals loaded."}
	}
	out = append(out, fmt.Sprintf("%s rentals, %s with a recorded checkout delay.",
		cli.FormatCount(r.Rentals), cli.FormatCount(r.WithDelay)))

	if r.Delay.N > 0 {
		out = append(out, fmt.Sprintf("On average drivers are %s minutes late, with a median of %s minutes (extreme outliers excluded).",
			cli.FormatFloat(r.Delay.Mean, 2), cli.FormatFloat(r.Delay.Median, 1)))
	}

	p := r.Projection
	out = append(out, fmt.Sprintf("At the median rate of %s per day, the %s cancellations total a %s max loss.",
		cli.FormatCost(p.MedianPrice), cli.FormatCount(p.Canceled), cli.FormatCost(p.CanceledLoss)))
	out = append(out, fmt.Sprintf("Billed by the minute with no penalty, the %s late checkouts brought in %s.",
		cli.FormatCount(p.NumberDelays), cli.FormatCost(p.LateRevenue)))

	if !math.IsNaN(p.BreakEvenHours) {
		out = append(out, fmt.Sprintf("If the operational delay is under %s, late revenue and cancellation loss break even; over a full day the net loss is %s.",
			cli.FormatHours(p.BreakEvenHours), cli.FormatCost(p.LateLoss)))
	}
	if !math.IsNaN(p.RiskOverRevenue) {
		out = append(out, fmt.Sprintf("Late checkouts carry a %s max risk, %s times the estimated revenue of %s.",
			cli.FormatCost(p.AtRisk), cli.FormatRatio(p.RiskOverRevenue), cli.FormatCost(p.Revenue)))
	}

	out = append(out, sweepSentence(r.Sweep))

	if s := checkinSentence(r); s != "" {
		out = append(out, s)
	}
	return out
}

func sweepSentence(s model.Sweep) string {
	scope := "all rentals"
	if s.CheckinType != "" {
		scope = strings.ToLower(s.CheckinType) + " rentals"
	}
	if !s.HasRecommendation {
		return fmt.Sprintf("With a penalty of %s times the minute rate, no threshold brings the risk of %s under penalty revenue.",
			cli.FormatFloat(s.Penalty, 1), scope)
	}
	msg := fmt.Sprintf("With a penalty of %s times the minute rate, a threshold of %s negates losses from late checkouts for %s.",
		cli.FormatFloat(s.Penalty, 1), cli.FormatMinutes(s.Recommended), scope)
	for _, pt := range s.Points {
		if pt.Threshold == s.Recommended && s.Problematic > 0 {
			msg += fmt.Sprintf(" It would block %s rentals and solve %s of %s back-to-back conflicts.",
				cli.FormatCount(pt.Affected), cli.FormatCount(pt.Solved), cli.FormatCount(s.Problematic))
			break
		}
	}
	return msg
}

func checkinSentence(r model.DelayReport) string {
	mobile, okM := r.Checkin(model.CheckinMobile)
	connect, okC := r.Checkin(model.CheckinConnect)
	if !okM || !okC {
		return ""
	}
	msg := fmt.Sprintf("Mobile has a %s share of rentals and Connect %s.",
		cli.FormatPercent(mobile.Share), cli.FormatPercent(connect.Share))
	if !math.IsNaN(connect.CanceledShare) {
		msg += fmt.Sprintf(" %s of cancellations are on Connect.", cli.FormatPercent(connect.CanceledShare))
		if connect.CanceledShare > connect.Share {
			msg += " Cancellations weigh more on the Connect flow."
		}
	}
	return msg
}

// Pricing returns one sentence per pricing-page metric.
func Pricing(r model.PricingReport) []string {
	if r.Listings == 0 {
		return []string{"No listings loaded."}
	}
	out := []string{fmt.Sprintf("%s listings across %s model keys.",
		cli.FormatCount(r.Listings), cli.FormatCount(len(r.Totals)))}

	if n := min(r.TopN, len(r.Totals)); n > 0 {
		names := make([]string, n)
		for i := range n {
			names[i] = r.Totals[i].ModelKey
		}
		out = append(out, fmt.Sprintf("The %d top brands (%s) account for %s of rental income.",
			n, strings.Join(names, ", "), cli.FormatPercent(r.TopShare)))
	}

	if len(r.Averages) > 0 {
		top := r.Averages[0]
		out = append(out, fmt.Sprintf("%s has the highest average price at %s per day.",
			top.ModelKey, cli.FormatCost(top.Mean)))
	}

	if s := strongestDriver(r.Correlation); s != "" {
		out = append(out, s)
	}

	if b, ok := r.PriceHist.Mode(); ok {
		out = append(out, fmt.Sprintf("Most rentals cost between %s and %s per day.",
			cli.FormatCost(b.Lo), cli.FormatCost(b.Hi)))
	}
	return out
}

// strongestDriver names the column most correlated with the daily price.
func strongestDriver(m model.CorrelationMatrix) string {
	target := -1
	for i, c := range m.Columns {
		if c == "rental_price_per_day" {
			target = i
		}
	}
	if target < 0 {
		return ""
	}
	best, bestVal := -1, 0.0
	for i := range m.Columns {
		if i == target {
			continue
		}
		v := m.At(target, i)
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || math.Abs(v) > math.Abs(bestVal) {
			best, bestVal = i, v
		}
	}
	if best < 0 {
		return ""
	}
	dir := "raises"
	if bestVal < 0 {
		dir = "lowers"
	}
	return fmt.Sprintf("%s %s the daily price the most (r = %s).",
		m.Columns[best], dir, cli.FormatRatio(bestVal))
}
