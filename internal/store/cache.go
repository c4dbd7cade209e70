// Package store provides a SQLite-backed cache for parsed datasets.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/gadash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed dataset caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Dataset is the tracking row for one cached source location.
type Dataset struct {
	Location  string
	Kind      string
	Remote    bool
	MtimeNs   int64
	SizeBytes int64
	Rows      int
	Skipped   int
	FetchedAt time.Time
}

// ErrNotCached is returned when a location has no cached dataset.
var ErrNotCached = errors.New("dataset not cached")

// GetDataset returns the tracking row for location.
func (c *Cache) GetDataset(location string) (Dataset, error) {
	var ds Dataset
	var remote int
	var fetched string
	err := c.db.QueryRow(`SELECT location, kind, remote, mtime_ns, size_bytes, rows, skipped, fetched_at
		FROM datasets WHERE location = ?`, location).Scan(
		&ds.Location, &ds.Kind, &remote, &ds.MtimeNs, &ds.SizeBytes, &ds.Rows, &ds.Skipped, &fetched,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, ErrNotCached
	}
	if err != nil {
		return Dataset{}, err
	}
	ds.Remote = remote != 0
	ds.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return ds, nil
}

// Datasets lists every cached dataset.
func (c *Cache) Datasets() ([]Dataset, error) {
	rows, err := c.db.Query(`SELECT location FROM datasets ORDER BY kind, location`)
	if err != nil {
		return nil, err
	}
	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			_ = rows.Close()
			return nil, err
		}
		locations = append(locations, loc)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Dataset, 0, len(locations))
	for _, loc := range locations {
		ds, err := c.GetDataset(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// putDataset replaces the tracking row inside tx, dropping previously cached rows.
func putDataset(tx *sql.Tx, ds Dataset) error {
	if _, err := tx.Exec("DELETE FROM datasets WHERE location = ?", ds.Location); err != nil {
		return err
	}
	remote := 0
	if ds.Remote {
		remote = 1
	}
	fetched := ds.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := tx.Exec(`INSERT INTO datasets
		(location, kind, remote, mtime_ns, size_bytes, rows, skipped, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.Location, ds.Kind, remote, ds.MtimeNs, ds.SizeBytes, ds.Rows, ds.Skipped,
		fetched.UTC().Format(time.RFC3339),
	)
	return err
}

// SaveRentals stores a parsed delay dataset, replacing any earlier copy.
func (c *Cache) SaveRentals(ds Dataset, rentals []model.Rental) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ds.Rows = len(rentals)
	if err := putDataset(tx, ds); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO rentals
		(location, row_num, rental_id, car_id, checkin_type, state, delay_at_checkout,
		 previous_rental_id, time_delta, checkout, next_rental, delay_cleaned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rentals {
		var prev any
		if r.HasPreviousRental {
			prev = r.PreviousRentalID
		}
		_, err := stmt.Exec(ds.Location, i, r.RentalID, r.CarID, r.CheckinType, r.State,
			nullFloat(r.DelayAtCheckout), prev, nullFloat(r.TimeDeltaWithPrevious),
			r.Checkout, boolInt(r.NextRental), nullFloat(r.DelayCleaned),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadRentals reads a cached delay dataset in its original row order.
func (c *Cache) LoadRentals(location string) ([]model.Rental, error) {
	rows, err := c.db.Query(`SELECT
		rental_id, car_id, checkin_type, state, delay_at_checkout,
		previous_rental_id, time_delta, checkout, next_rental, delay_cleaned
		FROM rentals WHERE location = ? ORDER BY row_num`, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rentals []model.Rental
	for rows.Next() {
		var r model.Rental
		var delay, delta, cleaned sql.NullFloat64
		var prev sql.NullInt64
		var next int
		err := rows.Scan(&r.RentalID, &r.CarID, &r.CheckinType, &r.State, &delay,
			&prev, &delta, &r.Checkout, &next, &cleaned)
		if err != nil {
			return nil, err
		}
		r.DelayAtCheckout = floatOrNaN(delay)
		r.TimeDeltaWithPrevious = floatOrNaN(delta)
		r.DelayCleaned = floatOrNaN(cleaned)
		r.NextRental = next != 0
		if prev.Valid {
			r.PreviousRentalID = prev.Int64
			r.HasPreviousRental = true
		}
		rentals = append(rentals, r)
	}
	return rentals, rows.Err()
}

// SaveListings stores a parsed pricing dataset, replacing any earlier copy.
func (c *Cache) SaveListings(ds Dataset, listings []model.CarListing) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ds.Rows = len(listings)
	if err := putDataset(tx, ds); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO listings
		(location, row_num, model_key, mileage, engine_power, fuel, paint_color, car_type,
		 private_parking, has_gps, has_air_conditioning, automatic_car, has_connect,
		 has_speed_regulator, winter_tires, rental_price_per_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, l := range listings {
		_, err := stmt.Exec(ds.Location, i, l.ModelKey, nullFloat(l.Mileage), nullFloat(l.EnginePower),
			l.Fuel, l.PaintColor, l.CarType,
			boolInt(l.PrivateParkingAvailable), boolInt(l.HasGPS), boolInt(l.HasAirConditioning),
			boolInt(l.AutomaticCar), boolInt(l.HasGetaroundConnect), boolInt(l.HasSpeedRegulator),
			boolInt(l.WinterTires), l.RentalPricePerDay,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadListings reads a cached pricing dataset in its original row order.
func (c *Cache) LoadListings(location string) ([]model.CarListing, error) {
	rows, err := c.db.Query(`SELECT
		model_key, mileage, engine_power, fuel, paint_color, car_type,
		private_parking, has_gps, has_air_conditioning, automatic_car, has_connect,
		has_speed_regulator, winter_tires, rental_price_per_day
		FROM listings WHERE location = ? ORDER BY row_num`, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var listings []model.CarListing
	for rows.Next() {
		var l model.CarListing
		var mileage, power sql.NullFloat64
		var fuel, paint, carType sql.NullString
		var parking, gps, aircon, auto, connect, speed, winter int
		err := rows.Scan(&l.ModelKey, &mileage, &power, &fuel, &paint, &carType,
			&parking, &gps, &aircon, &auto, &connect, &speed, &winter, &l.RentalPricePerDay)
		if err != nil {
			return nil, err
		}
		l.Mileage = floatOrNaN(mileage)
		l.EnginePower = floatOrNaN(power)
		l.Fuel = fuel.String
		l.PaintColor = paint.String
		l.CarType = carType.String
		l.PrivateParkingAvailable = parking != 0
		l.HasGPS = gps != 0
		l.HasAirConditioning = aircon != 0
		l.AutomaticCar = auto != 0
		l.HasGetaroundConnect = connect != 0
		l.HasSpeedRegulator = speed != 0
		l.WinterTires = winter != 0
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// DeleteDataset removes a dataset and its rows.
func (c *Cache) DeleteDataset(location string) error {
	_, err := c.db.Exec("DELETE FROM datasets WHERE location = ?", location)
	return err
}

func nullFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
