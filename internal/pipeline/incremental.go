package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/gadash/internal/source"
	"github.com/theirongolddev/gadash/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Fetched   int
}

// LoadWithCache reuses cached datasets that are still fresh and fetches the
// rest, saving them back. Local files are fresh while their mtime and size
// are unchanged; remote ones while younger than ttl. A ttl of zero always
// refetches remote datasets.
func LoadWithCache(ctx context.Context, src Sources, cache *store.Cache, ttl time.Duration, opts Options) (*CachedLoadResult, error) {
	var hits, fetched atomic.Int64
	f := opts.fetcher()
	log := opts.logger()

	res, err := load(ctx, src, opts,
		func(ctx context.Context, loc string) (DelayData, error) {
			if ds, ok := freshDataset(cache, loc, source.KindDelay, ttl); ok {
				rentals, err := cache.LoadRentals(loc)
				if err == nil {
					hits.Add(1)
					return DelayData{Info: infoOf(ds), Rentals: rentals, Skipped: ds.Skipped, FromCache: true}, nil
				}
				log.Warn("cache read failed", "location", loc, "err", err)
			}
			d, err := fetchRentals(ctx, loc, f)
			if err != nil {
				return d, err
			}
			fetched.Add(1)
			if err := cache.SaveRentals(datasetOf(d.Info, source.KindDelay, d.Skipped), d.Rentals); err != nil {
				log.Warn("cache write failed", "location", loc, "err", err)
			}
			return d, nil
		},
		func(ctx context.Context, loc string) (PricingData, error) {
			if ds, ok := freshDataset(cache, loc, source.KindPricing, ttl); ok {
				listings, err := cache.LoadListings(loc)
				if err == nil {
					hits.Add(1)
					return PricingData{Info: infoOf(ds), Listings: listings, Skipped: ds.Skipped, FromCache: true}, nil
				}
				log.Warn("cache read failed", "location", loc, "err", err)
			}
			p, err := fetchListings(ctx, loc, f)
			if err != nil {
				return p, err
			}
			fetched.Add(1)
			if err := cache.SaveListings(datasetOf(p.Info, source.KindPricing, p.Skipped), p.Listings); err != nil {
				log.Warn("cache write failed", "location", loc, "err", err)
			}
			return p, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return &CachedLoadResult{
		LoadResult: *res,
		CacheHits:  int(hits.Load()),
		Fetched:    int(fetched.Load()),
	}, nil
}

// freshDataset reports whether the cached copy of location can be reused.
func freshDataset(cache *store.Cache, location string, kind source.Kind, ttl time.Duration) (store.Dataset, bool) {
	ds, err := cache.GetDataset(location)
	if err != nil {
		return ds, false
	}
	if ds.Kind != string(kind) {
		return ds, false
	}
	info, err := source.Stat(location)
	if err != nil {
		return ds, false
	}
	if info.Remote {
		return ds, ttl > 0 && time.Since(ds.FetchedAt) < ttl
	}
	return ds, ds.MtimeNs == info.MtimeNs && ds.SizeBytes == info.Size
}

// Invalidate drops cached copies of the given locations.
func Invalidate(cache *store.Cache, locations ...string) error {
	var errs []error
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if err := cache.DeleteDataset(loc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func datasetOf(info source.Info, kind source.Kind, skipped int) store.Dataset {
	return store.Dataset{
		Location:  info.Location,
		Kind:      string(kind),
		Remote:    info.Remote,
		MtimeNs:   info.MtimeNs,
		SizeBytes: info.Size,
		Skipped:   skipped,
		FetchedAt: time.Now(),
	}
}

func infoOf(ds store.Dataset) source.Info {
	return source.Info{
		Location: ds.Location,
		Remote:   ds.Remote,
		MtimeNs:  ds.MtimeNs,
		Size:     ds.SizeBytes,
	}
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gadash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "gadash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "datasets.db")
}

// LoadCached loads through the on-disk cache at CachePath, falling back to an
// uncached load when the cache cannot be opened or fails. noCache skips the
// cache entirely.
func LoadCached(ctx context.Context, src Sources, ttl time.Duration, noCache bool, opts Options) (*CachedLoadResult, error) {
	log := opts.logger()
	if !noCache {
		cache, err := store.Open(CachePath())
		if err != nil {
			log.Warn("cache unavailable, loading without it", "err", err)
		} else {
			defer cache.Close()
			cr, err := LoadWithCache(ctx, src, cache, ttl, opts)
			if err == nil {
				return cr, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn("cached load failed, retrying without cache", "err", err)
		}
	}

	res, err := Load(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	fetched := 0
	if src.Delay != "" {
		fetched++
	}
	if src.Pricing != "" {
		fetched++
	}
	return &CachedLoadResult{LoadResult: *res, Fetched: fetched}, nil
}
