// Package model defines domain types for rental delays and car pricing.
package model

// Checkin types.
const (
	CheckinMobile  = "mobile"
	CheckinConnect = "connect"
)

// Rental states.
const (
	StateEnded    = "ended"
	StateCanceled = "canceled"
)

// Checkout delay buckets, ordered from earliest to latest.
const (
	CheckoutEarly    = "early"
	CheckoutOnTime   = "on time"
	CheckoutLate15   = "late < 15m"
	CheckoutLate60   = "late 15-60m"
	CheckoutLate120  = "late 1-2h"
	CheckoutLateOver = "late > 2h"
)

// CheckoutBuckets lists every checkout label in display order.
var CheckoutBuckets = []string{
	CheckoutEarly,
	CheckoutOnTime,
	CheckoutLate15,
	CheckoutLate60,
	CheckoutLate120,
	CheckoutLateOver,
}

// Rental is one row of the delay dataset.
// Missing float values are NaN; missing ids are zero with the Has flag unset.
type Rental struct {
	RentalID    int64
	CarID       int64
	CheckinType string
	State       string

	DelayAtCheckout float64 // minutes, NaN when unknown

	PreviousRentalID      int64
	HasPreviousRental     bool
	TimeDeltaWithPrevious float64 // minutes, NaN when no previous rental

	Checkout     string  // bucket label, empty when the delay is unknown
	NextRental   bool    // another rental follows this one on the same car
	DelayCleaned float64 // delay with extreme outliers removed, NaN otherwise
}

// CarListing is one row of the pricing dataset.
type CarListing struct {
	ModelKey          string
	Mileage           float64
	EnginePower       float64
	Fuel              string
	PaintColor        string
	CarType           string
	RentalPricePerDay float64

	PrivateParkingAvailable bool
	HasGPS                  bool
	HasAirConditioning      bool
	AutomaticCar            bool
	HasGetaroundConnect     bool
	HasSpeedRegulator       bool
	WinterTires             bool
}

// FeatureNames lists the numeric and boolean listing columns, in the order
// returned by Features.
var FeatureNames = []string{
	"mileage",
	"engine_power",
	"private_parking_available",
	"has_gps",
	"has_air_conditioning",
	"automatic_car",
	"has_getaround_connect",
	"has_speed_regulator",
	"winter_tires",
	"rental_price_per_day",
}

// Features returns the listing's numeric view, booleans as 0/1.
func (c CarListing) Features() []float64 {
	return []float64{
		c.Mileage,
		c.EnginePower,
		b2f(c.PrivateParkingAvailable),
		b2f(c.HasGPS),
		b2f(c.HasAirConditioning),
		b2f(c.AutomaticCar),
		b2f(c.HasGetaroundConnect),
		b2f(c.HasSpeedRegulator),
		b2f(c.WinterTires),
		c.RentalPricePerDay,
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
