package pipeline

import (
	"math"

	"github.com/go-gota/gota/series"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

// outlierK is the Tukey multiplier for the far fences.
const outlierK = 3.0

// CheckoutBucket labels a checkout delay in minutes. NaN yields "".
func CheckoutBucket(delay float64) string {
	switch {
	case math.IsNaN(delay):
		return ""
	case delay < 0:
		return model.CheckoutEarly
	case delay == 0:
		return model.CheckoutOnTime
	case delay < 15:
		return model.CheckoutLate15
	case delay < 60:
		return model.CheckoutLate60
	case delay < 120:
		return model.CheckoutLate120
	default:
		return model.CheckoutLateOver
	}
}

// OutlierFences returns the far fences [Q1-3*IQR, Q3+3*IQR] of the finite values.
func OutlierFences(values []float64) (lo, hi float64, ok bool) {
	clean := finite(values)
	if len(clean) == 0 {
		return 0, 0, false
	}
	s := series.Floats(clean)
	q1, q3 := s.Quantile(0.25), s.Quantile(0.75)
	iqr := q3 - q1
	return q1 - outlierK*iqr, q3 + outlierK*iqr, true
}

// DeriveRentals fills the derived columns the file did not carry. Values
// read from the file are left alone.
func DeriveRentals(rentals []model.Rental, have source.DerivedColumns) {
	if !have.Checkout {
		for i := range rentals {
			rentals[i].Checkout = CheckoutBucket(rentals[i].DelayAtCheckout)
		}
	}

	if !have.NextRental {
		followed := make(map[int64]struct{})
		for _, r := range rentals {
			if r.HasPreviousRental {
				followed[r.PreviousRentalID] = struct{}{}
			}
		}
		for i := range rentals {
			_, ok := followed[rentals[i].RentalID]
			rentals[i].NextRental = ok
		}
	}

	if !have.DelayCleaned {
		delays := make([]float64, len(rentals))
		for i, r := range rentals {
			delays[i] = r.DelayAtCheckout
		}
		lo, hi, ok := OutlierFences(delays)
		for i := range rentals {
			d := rentals[i].DelayAtCheckout
			if ok && !math.IsNaN(d) && d >= lo && d <= hi {
				rentals[i].DelayCleaned = d
			} else {
				rentals[i].DelayCleaned = math.NaN()
			}
		}
	}
}

// finite drops NaN and infinite values.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
