// Package source reads the rental delay and car pricing CSV datasets.
package source

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/theirongolddev/gadash/internal/model"
)

// Ids are read as floats: pandas writes nullable integer columns as "123.0".
var rentalTypes = map[string]series.Type{
	ColRentalID:         series.Float,
	ColCarID:            series.Float,
	ColCheckinType:      series.String,
	ColState:            series.String,
	ColDelayAtCheckout:  series.Float,
	ColPreviousRentalID: series.Float,
	ColTimeDelta:        series.Float,
	ColCheckout:         series.String,
	ColNextRental:       series.String,
	ColDelayCleaned:     series.Float,
}

var listingTypes = map[string]series.Type{
	ColModelKey:       series.String,
	ColMileage:        series.Float,
	ColEnginePower:    series.Float,
	ColFuel:           series.String,
	ColPaintColor:     series.String,
	ColCarType:        series.String,
	ColParking:        series.String,
	ColGPS:            series.String,
	ColAirCon:         series.String,
	ColAutomatic:      series.String,
	ColConnect:        series.String,
	ColSpeedRegulator: series.String,
	ColWinterTires:    series.String,
	ColPrice:          series.Float,
}

var nanValues = []string{"", "NA", "NaN", "nan", "<NA>", "<nil>"}

func readFrame(r io.Reader, types map[string]series.Type) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(types),
		dataframe.NaNValues(nanValues),
	)
	return df, df.Err
}

// ParseRentals reads a delay CSV. Derived columns are taken from the file
// when present; Derived reports which ones were.
func ParseRentals(r io.Reader) RentalResult {
	df, err := readFrame(r, rentalTypes)
	if err != nil {
		return RentalResult{Err: fmt.Errorf("reading delay csv: %w", err)}
	}
	if err := requireColumns(df, ColRentalID, ColCheckinType, ColState, ColDelayAtCheckout); err != nil {
		return RentalResult{Err: err}
	}

	n := df.Nrow()
	var (
		ids        = floatsOr(df, ColRentalID, n)
		carIDs     = floatsOr(df, ColCarID, n)
		checkins   = stringsOr(df, ColCheckinType, n)
		states     = stringsOr(df, ColState, n)
		delays     = floatsOr(df, ColDelayAtCheckout, n)
		prevIDs    = floatsOr(df, ColPreviousRentalID, n)
		deltas     = floatsOr(df, ColTimeDelta, n)
		checkouts  = stringsOr(df, ColCheckout, n)
		nextRental = stringsOr(df, ColNextRental, n)
		cleaned    = floatsOr(df, ColDelayCleaned, n)
	)

	result := RentalResult{
		Rentals: make([]model.Rental, 0, n),
		Derived: DerivedColumns{
			Checkout:     hasColumn(df, ColCheckout),
			NextRental:   hasColumn(df, ColNextRental),
			DelayCleaned: hasColumn(df, ColDelayCleaned),
		},
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(ids[i]) {
			result.Skipped++
			continue
		}
		rt := model.Rental{
			RentalID:              int64(math.Round(ids[i])),
			CheckinType:           strings.ToLower(strings.TrimSpace(checkins[i])),
			State:                 strings.ToLower(strings.TrimSpace(states[i])),
			DelayAtCheckout:       delays[i],
			TimeDeltaWithPrevious: deltas[i],
			Checkout:              checkouts[i],
			NextRental:            parseBool(nextRental[i]),
			DelayCleaned:          cleaned[i],
		}
		if !math.IsNaN(carIDs[i]) {
			rt.CarID = int64(math.Round(carIDs[i]))
		}
		if !math.IsNaN(prevIDs[i]) {
			rt.PreviousRentalID = int64(math.Round(prevIDs[i]))
			rt.HasPreviousRental = true
		}
		result.Rentals = append(result.Rentals, rt)
	}

	return result
}

// ParseListings reads a pricing CSV. Rows without a model key or a price are skipped.
func ParseListings(r io.Reader) ListingResult {
	df, err := readFrame(r, listingTypes)
	if err != nil {
		return ListingResult{Err: fmt.Errorf("reading pricing csv: %w", err)}
	}
	if err := requireColumns(df, ColModelKey, ColPrice); err != nil {
		return ListingResult{Err: err}
	}

	n := df.Nrow()
	var (
		keys     = stringsOr(df, ColModelKey, n)
		mileage  = floatsOr(df, ColMileage, n)
		power    = floatsOr(df, ColEnginePower, n)
		fuel     = stringsOr(df, ColFuel, n)
		paint    = stringsOr(df, ColPaintColor, n)
		carType  = stringsOr(df, ColCarType, n)
		parking  = stringsOr(df, ColParking, n)
		gps      = stringsOr(df, ColGPS, n)
		aircon   = stringsOr(df, ColAirCon, n)
		auto     = stringsOr(df, ColAutomatic, n)
		connect  = stringsOr(df, ColConnect, n)
		speedReg = stringsOr(df, ColSpeedRegulator, n)
		winter   = stringsOr(df, ColWinterTires, n)
		prices   = floatsOr(df, ColPrice, n)
	)

	result := ListingResult{Listings: make([]model.CarListing, 0, n)}
	for i := 0; i < n; i++ {
		key := strings.TrimSpace(keys[i])
		if key == "" || math.IsNaN(prices[i]) {
			result.Skipped++
			continue
		}
		result.Listings = append(result.Listings, model.CarListing{
			ModelKey:                key,
			Mileage:                 mileage[i],
			EnginePower:             power[i],
			Fuel:                    fuel[i],
			PaintColor:              paint[i],
			CarType:                 carType[i],
			RentalPricePerDay:       prices[i],
			PrivateParkingAvailable: parseBool(parking[i]),
			HasGPS:                  parseBool(gps[i]),
			HasAirConditioning:      parseBool(aircon[i]),
			AutomaticCar:            parseBool(auto[i]),
			HasGetaroundConnect:     parseBool(connect[i]),
			HasSpeedRegulator:       parseBool(speedReg[i]),
			WinterTires:             parseBool(winter[i]),
		})
	}

	return result
}

// ParseRentalBytes parses an in-memory delay dataset.
func ParseRentalBytes(data []byte) RentalResult {
	return ParseRentals(bytes.NewReader(data))
}

// ParseListingBytes parses an in-memory pricing dataset.
func ParseListingBytes(data []byte) ListingResult {
	return ParseListings(bytes.NewReader(data))
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, c := range df.Names() {
		if c == name {
			return true
		}
	}
	return false
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	var missing []string
	for _, name := range names {
		if !hasColumn(df, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// floatsOr returns the column as floats, or n NaNs when it is absent.
// Infinite cells count as missing.
func floatsOr(df dataframe.DataFrame, name string, n int) []float64 {
	if hasColumn(df, name) {
		if s := df.Col(name); s.Err == nil {
			out := s.Float()
			for i, v := range out {
				if math.IsInf(v, 0) {
					out[i] = math.NaN()
				}
			}
			return out
		}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// stringsOr returns the column as strings with missing cells blank, or n
// blanks when it is absent.
func stringsOr(df dataframe.DataFrame, name string, n int) []string {
	out := make([]string, n)
	if !hasColumn(df, name) {
		return out
	}
	s := df.Col(name)
	if s.Err != nil {
		return out
	}
	recs := s.Records()
	nan := s.IsNaN()
	for i := range out {
		if i < len(recs) && !nan[i] {
			out[i] = recs[i]
		}
	}
	return out
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
