package source

import (
	"errors"
	"time"

	"github.com/theirongolddev/gadash/internal/model"
)

// Delay dataset columns.
const (
	ColRentalID         = "rental_id"
	ColCarID            = "car_id"
	ColCheckinType      = "checkin_type"
	ColState            = "state"
	ColDelayAtCheckout  = "delay_at_checkout_in_minutes"
	ColPreviousRentalID = "previous_ended_rental_id"
	ColTimeDelta        = "time_delta_with_previous_rental_in_minutes"
	ColCheckout         = "checkout"
	ColNextRental       = "next_rental"
	ColDelayCleaned     = "delays_checkout_min_cleaned"
)

// Pricing dataset columns.
const (
	ColModelKey       = "model_key"
	ColMileage        = "mileage"
	ColEnginePower    = "engine_power"
	ColFuel           = "fuel"
	ColPaintColor     = "paint_color"
	ColCarType        = "car_type"
	ColParking        = "private_parking_available"
	ColGPS            = "has_gps"
	ColAirCon         = "has_air_conditioning"
	ColAutomatic      = "automatic_car"
	ColConnect        = "has_getaround_connect"
	ColSpeedRegulator = "has_speed_regulator"
	ColWinterTires    = "winter_tires"
	ColPrice          = "rental_price_per_day"
)

// Kind names one of the two datasets.
type Kind string

const (
	KindDelay   Kind = "delay"
	KindPricing Kind = "pricing"
)

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDelay, KindPricing:
		return Kind(s), nil
	}
	return "", ErrUnknownKind
}

var (
	// ErrMissingColumn is returned when a required column is absent from the CSV.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnknownKind is returned for a dataset name other than delay or pricing.
	ErrUnknownKind = errors.New("unknown dataset (want delay or pricing)")
	// ErrTooLarge is returned when a remote dataset exceeds the fetcher's byte cap.
	ErrTooLarge = errors.New("dataset too large")
)

// Info describes where a dataset came from.
type Info struct {
	Location string
	Remote   bool
	MtimeNs  int64 // local files only
	Size     int64 // local files only
}

// DerivedColumns records which derived delay columns the file already carried.
type DerivedColumns struct {
	Checkout     bool
	NextRental   bool
	DelayCleaned bool
}

// RentalResult holds the output of parsing a delay CSV.
type RentalResult struct {
	Rentals []model.Rental
	Derived DerivedColumns
	Skipped int // rows without a usable rental id
	Err     error
}

// ListingResult holds the output of parsing a pricing CSV.
type ListingResult struct {
	Listings []model.CarListing
	Skipped  int // rows without a model key or price
	Err      error
}

// Fetched is a dataset read fully into memory.
type Fetched struct {
	Info      Info
	Data      []byte
	FetchedAt time.Time
}
