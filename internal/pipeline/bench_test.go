package pipeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

// syntheticRentals builds a fleet about the size of the public delay dataset.
func syntheticRentals(n int) []model.Rental {
	rng := rand.New(rand.NewSource(1))
	rentals := make([]model.Rental, n)
	for i := range rentals {
		r := model.Rental{
			RentalID:              int64(i + 1),
			CarID:                 int64(i / 4),
			CheckinType:           model.CheckinMobile,
			State:                 model.StateEnded,
			DelayAtCheckout:       rng.NormFloat64()*120 + 30,
			TimeDeltaWithPrevious: math.NaN(),
		}
		if i%5 == 0 {
			r.CheckinType = model.CheckinConnect
		}
		if i%7 == 0 {
			r.State = model.StateCanceled
			r.DelayAtCheckout = math.NaN()
		}
		if i%4 != 0 {
			r.PreviousRentalID = int64(i)
			r.HasPreviousRental = true
			r.TimeDeltaWithPrevious = float64(rng.Intn(48) * 15)
		}
		rentals[i] = r
	}
	DeriveRentals(rentals, source.DerivedColumns{})
	return rentals
}

func BenchmarkThresholdSweep(b *testing.B) {
	rentals := syntheticRentals(21000)
	p := DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ThresholdSweep(rentals, rentals, p, "")
	}
}

func BenchmarkAnalyzeDelay(b *testing.B) {
	rentals := syntheticRentals(21000)
	p := DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AnalyzeDelay(rentals, p, "")
	}
}
