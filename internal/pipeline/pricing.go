package pipeline

import (
	"math"
	"sort"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

// AnalyzePricing computes everything the pricing page shows.
func AnalyzePricing(listings []model.CarListing, p Params) model.PricingReport {
	p = p.withDefaults()

	totals := ModelPrices(listings)
	averages := make([]model.ModelPrice, len(totals))
	copy(averages, totals)
	sort.SliceStable(averages, func(i, j int) bool {
		if averages[i].Mean != averages[j].Mean {
			return averages[i].Mean > averages[j].Mean
		}
		return averages[i].ModelKey < averages[j].ModelKey
	})

	prices := make([]float64, len(listings))
	mileage := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.RentalPricePerDay
		mileage[i] = l.Mileage
	}

	return model.PricingReport{
		Listings:    len(listings),
		Averages:    averages,
		Totals:      totals,
		TopN:        p.TopBrands,
		TopShare:    TopShare(totals, p.TopBrands),
		Correlation: Correlations(listings),
		PriceHist:   BuildHistogram(source.ColPrice, prices, p.Bins),
		MileageHist: BuildHistogram(source.ColMileage, mileage, p.Bins),
	}
}

// ModelPrices groups listings by model key, sorted by total daily price descending.
func ModelPrices(listings []model.CarListing) []model.ModelPrice {
	byKey := make(map[string]*model.ModelPrice)
	var grand float64
	for _, l := range listings {
		if math.IsNaN(l.RentalPricePerDay) {
			continue
		}
		mp, ok := byKey[l.ModelKey]
		if !ok {
			mp = &model.ModelPrice{ModelKey: l.ModelKey}
			byKey[l.ModelKey] = mp
		}
		mp.Listings++
		mp.Total += l.RentalPricePerDay
		grand += l.RentalPricePerDay
	}

	out := make([]model.ModelPrice, 0, len(byKey))
	for _, mp := range byKey {
		mp.Mean = mp.Total / float64(mp.Listings)
		mp.Share = safeDiv(mp.Total, grand)
		out = append(out, *mp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ModelKey < out[j].ModelKey
	})
	return out
}

// TopShare sums the shares of the first n entries of a total-sorted slice.
func TopShare(totals []model.ModelPrice, n int) float64 {
	var share float64
	for i, mp := range totals {
		if i >= n {
			break
		}
		share += mp.Share
	}
	return share
}

// Correlations computes pairwise Pearson correlations over the numeric and
// boolean listing columns.
func Correlations(listings []model.CarListing) model.CorrelationMatrix {
	cols := make([][]float64, len(model.FeatureNames))
	for j := range cols {
		cols[j] = make([]float64, len(listings))
	}
	for i, l := range listings {
		for j, v := range l.Features() {
			cols[j][i] = v
		}
	}

	m := model.CorrelationMatrix{
		Columns: append([]string(nil), model.FeatureNames...),
		Values:  make([][]float64, len(cols)),
	}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := 0; j <= i; j++ {
			r := Pearson(cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}
