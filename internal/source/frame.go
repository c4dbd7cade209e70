package source

import (
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/theirongolddev/gadash/internal/model"
)

// RentalFrame rebuilds the delay dataset, derived columns included, as a dataframe.
func RentalFrame(rentals []model.Rental) dataframe.DataFrame {
	n := len(rentals)
	ids := make([]string, n)
	cars := make([]string, n)
	checkins := make([]string, n)
	states := make([]string, n)
	delays := make([]float64, n)
	prev := make([]string, n)
	deltas := make([]float64, n)
	checkouts := make([]string, n)
	next := make([]bool, n)
	cleaned := make([]float64, n)

	for i, r := range rentals {
		ids[i] = strconv.FormatInt(r.RentalID, 10)
		cars[i] = strconv.FormatInt(r.CarID, 10)
		checkins[i] = r.CheckinType
		states[i] = r.State
		delays[i] = r.DelayAtCheckout
		if r.HasPreviousRental {
			prev[i] = strconv.FormatInt(r.PreviousRentalID, 10)
		}
		deltas[i] = r.TimeDeltaWithPrevious
		checkouts[i] = r.Checkout
		next[i] = r.NextRental
		cleaned[i] = r.DelayCleaned
	}

	return dataframe.New(
		series.New(ids, series.String, ColRentalID),
		series.New(cars, series.String, ColCarID),
		series.New(checkins, series.String, ColCheckinType),
		series.New(states, series.String, ColState),
		series.New(delays, series.Float, ColDelayAtCheckout),
		series.New(prev, series.String, ColPreviousRentalID),
		series.New(deltas, series.Float, ColTimeDelta),
		series.New(checkouts, series.String, ColCheckout),
		series.New(next, series.Bool, ColNextRental),
		series.New(cleaned, series.Float, ColDelayCleaned),
	)
}

// ListingFrame rebuilds the pricing dataset as a dataframe.
func ListingFrame(listings []model.CarListing) dataframe.DataFrame {
	n := len(listings)
	keys := make([]string, n)
	fuel := make([]string, n)
	paint := make([]string, n)
	carType := make([]string, n)
	features := make([][]float64, len(model.FeatureNames))
	for j := range features {
		features[j] = make([]float64, n)
	}

	for i, l := range listings {
		keys[i] = l.ModelKey
		fuel[i] = l.Fuel
		paint[i] = l.PaintColor
		carType[i] = l.CarType
		for j, v := range l.Features() {
			features[j][i] = v
		}
	}

	cols := []series.Series{
		series.New(keys, series.String, ColModelKey),
		series.New(fuel, series.String, ColFuel),
		series.New(paint, series.String, ColPaintColor),
		series.New(carType, series.String, ColCarType),
	}
	for j, name := range model.FeatureNames {
		cols = append(cols, series.New(features[j], series.Float, name))
	}
	return dataframe.New(cols...)
}

// Head returns the header row plus at most limit data rows. limit <= 0 means all rows.
// Missing cells are blank and float cells use plain notation; other cells are
// returned as stored.
func Head(df dataframe.DataFrame, limit int) [][]string {
	recs := df.Records()
	if len(recs) == 0 {
		return recs
	}
	if limit > 0 && len(recs) > limit+1 {
		recs = recs[:limit+1]
	}
	types := df.Types()
	for _, row := range recs[1:] {
		for i, cell := range row {
			if cell == "NaN" {
				row[i] = ""
				continue
			}
			if i >= len(types) || types[i] != series.Float {
				continue
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				row[i] = strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	}
	return recs
}
