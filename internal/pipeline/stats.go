package pipeline

import (
	"math"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/gadash/internal/model"
)

// meanMedian ignores NaN and infinities and returns NaN for no data.
func meanMedian(values []float64) (mean, median float64, n int) {
	clean := finite(values)
	if len(clean) == 0 {
		return math.NaN(), math.NaN(), 0
	}
	s := series.Floats(clean)
	return s.Mean(), s.Median(), len(clean)
}

// BuildHistogram splits the finite values into equal-width bins between
// their minimum and maximum. The last bin includes the maximum.
func BuildHistogram(column string, values []float64, bins int) model.Histogram {
	h := model.Histogram{Column: column}
	clean := finite(values)
	if len(clean) == 0 || bins < 1 {
		return h
	}
	h.N = len(clean)

	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		h.Bins = []model.Bin{{Lo: lo, Hi: hi, Count: len(clean)}}
		return h
	}

	width := (hi - lo) / float64(bins)
	h.Bins = make([]model.Bin, bins)
	for i := range h.Bins {
		h.Bins[i].Lo = lo + float64(i)*width
		h.Bins[i].Hi = lo + float64(i+1)*width
	}
	h.Bins[bins-1].Hi = hi

	for _, v := range clean {
		idx := int((v - lo) / width)
		idx = min(max(idx, 0), bins-1)
		h.Bins[idx].Count++
	}
	return h
}

// Pearson returns the correlation over pairs where both values are present.
// Fewer than two pairs or a constant side yields NaN.
func Pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if i >= len(y) {
			break
		}
		if !isFinite(x[i]) || !isFinite(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// safeDiv returns NaN instead of dividing by zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
