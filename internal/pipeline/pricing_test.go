package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/model"
)

func fixtureListings() []model.CarListing {
	return []model.CarListing{
		{ModelKey: "BMW", RentalPricePerDay: 100, Mileage: 1000, HasGPS: true},
		{ModelKey: "BMW", RentalPricePerDay: 200, Mileage: 3000, HasGPS: true},
		{ModelKey: "Renault", RentalPricePerDay: 120, Mileage: 2000},
		{ModelKey: "Audi", RentalPricePerDay: 80, Mileage: 4000},
	}
}

func TestAnalyzePricing_Groups(t *testing.T) {
	p := DefaultParams()
	p.TopBrands = 2
	r := AnalyzePricing(fixtureListings(), p)

	assert.Equal(t, 4, r.Listings)

	require.Len(t, r.Totals, 3)
	assert.Equal(t, "BMW", r.Totals[0].ModelKey)
	assert.InDelta(t, 300.0, r.Totals[0].Total, 1e-9)
	assert.InDelta(t, 0.6, r.Totals[0].Share, 1e-9)
	assert.Equal(t, 2, r.Totals[0].Listings)
	assert.Equal(t, "Audi", r.Totals[2].ModelKey)

	require.Len(t, r.Averages, 3)
	assert.Equal(t, "BMW", r.Averages[0].ModelKey)
	assert.InDelta(t, 150.0, r.Averages[0].Mean, 1e-9)
	assert.Equal(t, "Renault", r.Averages[1].ModelKey)
	assert.Equal(t, "Audi", r.Averages[2].ModelKey)

	assert.Equal(t, 2, r.TopN)
	assert.InDelta(t, 0.84, r.TopShare, 1e-9)
}

func TestAnalyzePricing_Histograms(t *testing.T) {
	p := DefaultParams()
	p.Bins = 4
	r := AnalyzePricing(fixtureListings(), p)

	assert.Equal(t, 4, r.PriceHist.N)
	require.Len(t, r.PriceHist.Bins, 4)
	assert.Equal(t, 80.0, r.PriceHist.Bins[0].Lo)
	assert.Equal(t, 200.0, r.PriceHist.Bins[3].Hi)
	assert.Equal(t, 4, r.MileageHist.N)
}

func TestCorrelations(t *testing.T) {
	m := Correlations(fixtureListings())
	require.Len(t, m.Columns, len(model.FeatureNames))

	idx := func(name string) int {
		for i, c := range m.Columns {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %q missing", name)
		return -1
	}
	price, gps, winter := idx("rental_price_per_day"), idx("has_gps"), idx("winter_tires")

	assert.InDelta(t, 1.0, m.At(price, price), 1e-9)
	assert.Greater(t, m.At(price, gps), 0.0)
	assert.Equal(t, m.At(price, gps), m.At(gps, price))
	assert.True(t, math.IsNaN(m.At(price, winter)), "constant column correlates as NaN")
	assert.True(t, math.IsNaN(m.At(-1, 0)))
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.InDelta(t, 1.0, Pearson([]float64{1, math.NaN(), 2, 3}, []float64{2, 100, 4, 6}), 1e-12)
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
}

func TestBuildHistogram(t *testing.T) {
	h := BuildHistogram("x", []float64{0, 1, 2, 3, 4, math.NaN(), 10}, 5)

	assert.Equal(t, 6, h.N)
	require.Len(t, h.Bins, 5)
	counts := make([]int, len(h.Bins))
	for i, b := range h.Bins {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{2, 2, 1, 0, 1}, counts)

	mode, ok := h.Mode()
	require.True(t, ok)
	assert.Equal(t, 0.0, mode.Lo)
	assert.Equal(t, 2.0, mode.Hi)
}

func TestBuildHistogram_IgnoresInfinities(t *testing.T) {
	values := []float64{0, 1, 2, math.Inf(1), 3, math.Inf(-1), 4}
	var h model.Histogram
	require.NotPanics(t, func() { h = BuildHistogram("x", values, 4) })

	assert.Equal(t, 5, h.N)
	require.Len(t, h.Bins, 4)
	assert.Equal(t, 0.0, h.Bins[0].Lo)
	assert.Equal(t, 4.0, h.Bins[3].Hi)
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)

	only := BuildHistogram("x", []float64{math.Inf(1), math.Inf(-1)}, 4)
	assert.Zero(t, only.N)
	assert.Empty(t, only.Bins)
}

func TestPearson_SkipsInfinities(t *testing.T) {
	got := Pearson([]float64{1, math.Inf(1), 2, 3}, []float64{2, 5, 4, 6})
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestBuildHistogram_Degenerate(t *testing.T) {
	h := BuildHistogram("x", []float64{5, 5}, 10)
	require.Len(t, h.Bins, 1)
	assert.Equal(t, 2, h.Bins[0].Count)

	empty := BuildHistogram("x", nil, 10)
	_, ok := empty.Mode()
	assert.False(t, ok)
}

func TestFilterByBrand(t *testing.T) {
	got := FilterByBrand(fixtureListings(), "bm")
	assert.Len(t, got, 2)
	assert.Empty(t, FilterByBrand(fixtureListings(), "tesla"))
}

func TestFilterByCheckin(t *testing.T) {
	rentals := fixtureRentals()
	assert.Len(t, FilterByCheckin(rentals, "MOBILE"), 2)
	assert.Len(t, FilterByCheckin(rentals, "connect"), 3)
	assert.Len(t, FilterByCheckin(rentals, ""), len(rentals))
	assert.Empty(t, FilterByCheckin(rentals, "kiosk"))
}
