// Package pipeline loads the datasets and computes the page reports.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/source"
)

// Sources names the dataset locations. An empty location is not loaded.
type Sources struct {
	Delay   string
	Pricing string
}

// DelayData is a loaded delay dataset with derived columns filled in.
type DelayData struct {
	Info      source.Info
	Rentals   []model.Rental
	Skipped   int
	FromCache bool
}

// PricingData is a loaded pricing dataset.
type PricingData struct {
	Info      source.Info
	Listings  []model.CarListing
	Skipped   int
	FromCache bool
}

// LoadResult holds the output of the data loading pipeline.
type LoadResult struct {
	Delay   DelayData
	Pricing PricingData
}

// ProgressFunc is called during loading to report progress.
// current is the number of datasets loaded so far, total is the total count.
type ProgressFunc func(current, total int)

// Options tune a load. The zero value is usable.
type Options struct {
	Fetcher  *source.Fetcher
	Progress ProgressFunc
	Logger   *slog.Logger
}

func (o Options) fetcher() *source.Fetcher {
	if o.Fetcher != nil {
		return o.Fetcher
	}
	return source.DefaultFetcher
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Load fetches and parses both datasets in parallel, bypassing the cache.
func Load(ctx context.Context, src Sources, opts Options) (*LoadResult, error) {
	return load(ctx, src, opts,
		func(ctx context.Context, loc string) (DelayData, error) { return fetchRentals(ctx, loc, opts.fetcher()) },
		func(ctx context.Context, loc string) (PricingData, error) { return fetchListings(ctx, loc, opts.fetcher()) },
	)
}

type (
	delayLoader   func(ctx context.Context, location string) (DelayData, error)
	pricingLoader func(ctx context.Context, location string) (PricingData, error)
)

func load(ctx context.Context, src Sources, opts Options, loadDelay delayLoader, loadPricing pricingLoader) (*LoadResult, error) {
	total := 0
	if src.Delay != "" {
		total++
	}
	if src.Pricing != "" {
		total++
	}

	var (
		result LoadResult
		done   atomic.Int64
	)
	report := func() {
		n := done.Add(1)
		if opts.Progress != nil {
			opts.Progress(int(n), total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if src.Delay != "" {
		g.Go(func() error {
			d, err := loadDelay(gctx, src.Delay)
			if err != nil {
				return fmt.Errorf("delay dataset: %w", err)
			}
			result.Delay = d
			report()
			opts.logger().Debug("loaded dataset", "kind", source.KindDelay,
				"location", src.Delay, "rows", len(d.Rentals), "skipped", d.Skipped, "cached", d.FromCache)
			return nil
		})
	}
	if src.Pricing != "" {
		g.Go(func() error {
			p, err := loadPricing(gctx, src.Pricing)
			if err != nil {
				return fmt.Errorf("pricing dataset: %w", err)
			}
			result.Pricing = p
			report()
			opts.logger().Debug("loaded dataset", "kind", source.KindPricing,
				"location", src.Pricing, "rows", len(p.Listings), "skipped", p.Skipped, "cached", p.FromCache)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func fetchRentals(ctx context.Context, location string, f *source.Fetcher) (DelayData, error) {
	fetched, err := f.Fetch(ctx, location)
	if err != nil {
		return DelayData{}, err
	}
	res := source.ParseRentalBytes(fetched.Data)
	if res.Err != nil {
		return DelayData{}, res.Err
	}
	DeriveRentals(res.Rentals, res.Derived)
	return DelayData{Info: fetched.Info, Rentals: res.Rentals, Skipped: res.Skipped}, nil
}

func fetchListings(ctx context.Context, location string, f *source.Fetcher) (PricingData, error) {
	fetched, err := f.Fetch(ctx, location)
	if err != nil {
		return PricingData{}, err
	}
	res := source.ParseListingBytes(fetched.Data)
	if res.Err != nil {
		return PricingData{}, res.Err
	}
	return PricingData{Info: fetched.Info, Listings: res.Listings, Skipped: res.Skipped}, nil
}
