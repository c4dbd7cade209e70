package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/source"
	"github.com/theirongolddev/gadash/internal/store"
)

const delayCSV = `rental_id,car_id,checkin_type,state,delay_at_checkout_in_minutes,previous_ended_rental_id,time_delta_with_previous_rental_in_minutes
1,1,mobile,ended,30,,
2,1,mobile,canceled,,1,10
3,2,connect,ended,-10,,
`

const pricingCSV = `,model_key,mileage,engine_power,fuel,paint_color,car_type,private_parking_available,has_gps,has_air_conditioning,automatic_car,has_getaround_connect,has_speed_regulator,winter_tires,rental_price_per_day
0,BMW,1000,100,diesel,black,sedan,True,True,False,False,True,False,True,100
1,Audi,2000,120,petrol,grey,suv,False,False,False,True,False,False,True,90
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_BothDatasets(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Delay:   writeFile(t, dir, "delay.csv", delayCSV),
		Pricing: writeFile(t, dir, "pricing.csv", pricingCSV),
	}

	var calls atomic.Int64
	res, err := Load(context.Background(), src, Options{
		Progress: func(current, total int) {
			calls.Add(1)
			assert.Equal(t, 2, total)
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Delay.Rentals, 3)
	assert.True(t, res.Delay.Rentals[0].NextRental, "derived next_rental")
	assert.Equal(t, "late 15-60m", res.Delay.Rentals[0].Checkout)
	require.Len(t, res.Pricing.Listings, 2)
	assert.False(t, res.Delay.FromCache)
	assert.Equal(t, int64(2), calls.Load())
}

func TestLoad_OnlyOneSource(t *testing.T) {
	dir := t.TempDir()
	res, err := Load(context.Background(), Sources{Pricing: writeFile(t, dir, "p.csv", pricingCSV)}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Delay.Rentals)
	assert.Len(t, res.Pricing.Listings, 2)
}

func TestLoad_ErrorNamesDataset(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Delay:   writeFile(t, dir, "delay.csv", "rental_id\n1\n"),
		Pricing: writeFile(t, dir, "pricing.csv", pricingCSV),
	}
	_, err := Load(context.Background(), src, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrMissingColumn)
	assert.True(t, strings.HasPrefix(err.Error(), "delay dataset"), err.Error())
}

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "datasets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadWithCache_LocalFiles(t *testing.T) {
	dir := t.TempDir()
	cache := openCache(t)
	src := Sources{
		Delay:   writeFile(t, dir, "delay.csv", delayCSV),
		Pricing: writeFile(t, dir, "pricing.csv", pricingCSV),
	}

	first, err := LoadWithCache(context.Background(), src, cache, time.Hour, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 2, first.Fetched)

	second, err := LoadWithCache(context.Background(), src, cache, time.Hour, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.True(t, second.Delay.FromCache)
	assert.Equal(t, first.Delay.Rentals[0].Checkout, second.Delay.Rentals[0].Checkout)
	assert.Equal(t, first.Delay.Rentals[0].NextRental, second.Delay.Rentals[0].NextRental)
	assert.Len(t, second.Pricing.Listings, 2)

	// A changed file is refetched.
	writeFile(t, dir, "delay.csv", delayCSV+"4,3,connect,ended,5,,\n")
	third, err := LoadWithCache(context.Background(), src, cache, time.Hour, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.CacheHits)
	assert.Len(t, third.Delay.Rentals, 4)
}

func TestLoadWithCache_RemoteTTL(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(pricingCSV))
	}))
	defer srv.Close()

	cache := openCache(t)
	src := Sources{Pricing: srv.URL + "/pricing_df.csv"}
	opts := Options{Fetcher: &source.Fetcher{Client: srv.Client()}}

	_, err := LoadWithCache(context.Background(), src, cache, time.Hour, opts)
	require.NoError(t, err)
	res, err := LoadWithCache(context.Background(), src, cache, time.Hour, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second load within TTL served from cache")
	assert.True(t, res.Pricing.Info.Remote)

	_, err = LoadWithCache(context.Background(), src, cache, 0, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "zero TTL refetches")

	require.NoError(t, Invalidate(cache, src.Pricing, ""))
	_, err = cache.GetDataset(src.Pricing)
	assert.ErrorIs(t, err, store.ErrNotCached)
}

func TestLoadCached_UsesCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	src := Sources{Delay: writeFile(t, dir, "delay.csv", delayCSV)}

	first, err := LoadCached(context.Background(), src, time.Hour, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Fetched)

	second, err := LoadCached(context.Background(), src, time.Hour, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.CacheHits)
	assert.FileExists(t, CachePath())
}

func TestLoadCached_NoCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	src := Sources{Delay: writeFile(t, dir, "delay.csv", delayCSV)}

	res, err := LoadCached(context.Background(), src, time.Hour, true, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CacheHits)
	assert.Equal(t, 1, res.Fetched)
	assert.Len(t, res.Delay.Rentals, 3)
	assert.NoFileExists(t, CachePath())
}
