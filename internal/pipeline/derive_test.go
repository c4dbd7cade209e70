package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

func TestCheckoutBucket(t *testing.T) {
	tests := []struct {
		delay float64
		want  string
	}{
		{math.NaN(), ""},
		{-81, model.CheckoutEarly},
		{0, model.CheckoutOnTime},
		{0.5, model.CheckoutLate15},
		{14.9, model.CheckoutLate15},
		{15, model.CheckoutLate60},
		{59, model.CheckoutLate60},
		{60, model.CheckoutLate120},
		{119, model.CheckoutLate120},
		{120, model.CheckoutLateOver},
		{71084, model.CheckoutLateOver},
	}
	for _, tt := range tests {
		if got := CheckoutBucket(tt.delay); got != tt.want {
			t.Errorf("CheckoutBucket(%v) = %q, want %q", tt.delay, got, tt.want)
		}
	}
}

func FuzzCheckoutBucket(f *testing.F) {
	for _, seed := range []float64{-1, 0, 7, 15, 60, 120, 1e9, math.Inf(1), math.Inf(-1)} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, delay float64) {
		got := CheckoutBucket(delay)
		if math.IsNaN(delay) {
			if got != "" {
				t.Fatalf("CheckoutBucket(NaN) = %q, want empty", got)
			}
			return
		}
		if labelOrder(got) == len(model.CheckoutBuckets) {
			t.Fatalf("CheckoutBucket(%v) = %q, not a known bucket", delay, got)
		}
	})
}

func TestDeriveRentals_NextRentalAndOutliers(t *testing.T) {
	rentals := []model.Rental{
		{RentalID: 1, DelayAtCheckout: 10},
		{RentalID: 2, DelayAtCheckout: 20, PreviousRentalID: 1, HasPreviousRental: true},
		{RentalID: 3, DelayAtCheckout: 30},
		{RentalID: 4, DelayAtCheckout: 40},
		{RentalID: 5, DelayAtCheckout: 50},
		{RentalID: 6, DelayAtCheckout: 60},
		{RentalID: 7, DelayAtCheckout: 70},
		{RentalID: 8, DelayAtCheckout: 100000},
		{RentalID: 9, DelayAtCheckout: math.NaN()},
	}
	DeriveRentals(rentals, source.DerivedColumns{})

	if !rentals[0].NextRental {
		t.Error("rental 1 is followed by rental 2, NextRental = false")
	}
	if rentals[1].NextRental {
		t.Error("rental 2 has no follower, NextRental = true")
	}
	if rentals[0].Checkout != model.CheckoutLate15 {
		t.Errorf("Checkout = %q, want %q", rentals[0].Checkout, model.CheckoutLate15)
	}
	if rentals[8].Checkout != "" {
		t.Errorf("Checkout for missing delay = %q, want empty", rentals[8].Checkout)
	}

	for i := 0; i < 7; i++ {
		if rentals[i].DelayCleaned != rentals[i].DelayAtCheckout {
			t.Errorf("rental %d cleaned = %v, want %v", i+1, rentals[i].DelayCleaned, rentals[i].DelayAtCheckout)
		}
	}
	if !math.IsNaN(rentals[7].DelayCleaned) {
		t.Errorf("outlier kept: cleaned = %v", rentals[7].DelayCleaned)
	}
	if !math.IsNaN(rentals[8].DelayCleaned) {
		t.Errorf("missing delay cleaned = %v, want NaN", rentals[8].DelayCleaned)
	}
}

func TestDeriveRentals_KeepsFileColumns(t *testing.T) {
	rentals := []model.Rental{
		{RentalID: 1, DelayAtCheckout: 10, Checkout: "custom", NextRental: true, DelayCleaned: 5},
	}
	DeriveRentals(rentals, source.DerivedColumns{Checkout: true, NextRental: true, DelayCleaned: true})

	r := rentals[0]
	if r.Checkout != "custom" || !r.NextRental || r.DelayCleaned != 5 {
		t.Errorf("file values overwritten: %+v", r)
	}
}

func TestOutlierFences_Empty(t *testing.T) {
	if _, _, ok := OutlierFences([]float64{math.NaN()}); ok {
		t.Error("OutlierFences(all NaN) ok = true")
	}
	if _, _, ok := OutlierFences([]float64{math.Inf(1), math.Inf(-1)}); ok {
		t.Error("OutlierFences(all infinite) ok = true")
	}
}

func TestOutlierFences_IgnoresInfinities(t *testing.T) {
	lo, hi, ok := OutlierFences([]float64{1, 2, 3, 4, math.Inf(1)})
	if !ok {
		t.Fatal("ok = false")
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		t.Errorf("fences = [%v, %v], want finite", lo, hi)
	}
}
