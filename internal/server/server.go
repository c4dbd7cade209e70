// Package server serves the delay and pricing pages over HTTP, reloading the
// datasets on an interval.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/pipeline"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr     string
	Sources  pipeline.Sources
	Params   pipeline.Params
	CacheTTL time.Duration
	NoCache  bool
	Interval time.Duration // reload interval, zero disables reloads
	Logger   *slog.Logger
}

// LoadFunc loads both datasets.
type LoadFunc func(ctx context.Context) (*pipeline.CachedLoadResult, error)

// Status is served at /api/status.
type Status struct {
	StartedAt         time.Time `json:"started_at"`
	LastLoadAt        time.Time `json:"last_load_at"`
	ReloadIntervalSec int       `json:"reload_interval_sec"`
	LoadCount         int64     `json:"load_count"`
	DelaySource       string    `json:"delay_source"`
	PricingSource     string    `json:"pricing_source"`
	Rentals           int       `json:"rentals"`
	Listings          int       `json:"listings"`
	Skipped           int       `json:"skipped"`
	CacheHits         int       `json:"cache_hits"`
	Fetched           int       `json:"fetched"`
	LastError         string    `json:"last_error,omitempty"`
}

// Service holds the latest successfully loaded rows and serves reports
// computed from them.
type Service struct {
	cfg  Config
	log  *slog.Logger
	load LoadFunc

	mu         sync.RWMutex
	startedAt  time.Time
	lastLoadAt time.Time
	loadCount  int64
	lastError  string
	hasData    bool
	rentals    []model.Rental
	listings   []model.CarListing
	skipped    int
	cacheHits  int
	fetched    int
}

// New returns a service that loads through the on-disk cache.
func New(cfg Config) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8501"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Service{
		cfg:       cfg,
		log:       cfg.Logger,
		startedAt: time.Now(),
	}
	s.load = func(ctx context.Context) (*pipeline.CachedLoadResult, error) {
		return pipeline.LoadCached(ctx, cfg.Sources, cfg.CacheTTL, cfg.NoCache, pipeline.Options{Logger: cfg.Logger})
	}
	return s
}

// NewWithLoader returns a service that loads through fn.
func NewWithLoader(cfg Config, fn LoadFunc) *Service {
	s := New(cfg)
	s.load = fn
	return s
}

// Run serves HTTP and reloads the datasets until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("serving", "addr", s.cfg.Addr)

	// Seed the first load so pages are useful immediately.
	if err := s.Reload(ctx); err != nil {
		s.log.Warn("initial load failed", "err", err)
	}

	var tick <-chan time.Time
	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-tick:
			if err := s.Reload(ctx); err != nil {
				s.log.Warn("reload failed, keeping previous data", "err", err)
			}
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

// Reload loads both datasets. On failure the previous rows stay in place.
func (s *Service) Reload(ctx context.Context) error {
	start := time.Now()
	res, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLoadAt = time.Now()
	s.loadCount++
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	s.lastError = ""
	s.hasData = true
	s.rentals = res.Delay.Rentals
	s.listings = res.Pricing.Listings
	s.skipped = res.Delay.Skipped + res.Pricing.Skipped
	s.cacheHits = res.CacheHits
	s.fetched = res.Fetched
	s.log.Debug("datasets loaded",
		"rentals", len(s.rentals), "listings", len(s.listings),
		"cache_hits", s.cacheHits, "elapsed", time.Since(start))
	return nil
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/delay", s.handleDelayPage)
	r.Get("/pricing", s.handlePricingPage)
	r.Get("/charts/{name}.png", s.handleChart)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/delay", s.handleDelayAPI)
		r.Get("/pricing", s.handlePricingAPI)
	})
	return r
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:         s.startedAt,
		LastLoadAt:        s.lastLoadAt,
		ReloadIntervalSec: int(s.cfg.Interval.Seconds()),
		LoadCount:         s.loadCount,
		DelaySource:       s.cfg.Sources.Delay,
		PricingSource:     s.cfg.Sources.Pricing,
		Rentals:           len(s.rentals),
		Listings:          len(s.listings),
		Skipped:           s.skipped,
		CacheHits:         s.cacheHits,
		Fetched:           s.fetched,
		LastError:         s.lastError,
	}
}

// filters are the query parameters every page and API route accepts.
type filters struct {
	Checkin string
	Brand   string
}

func filtersOf(r *http.Request) filters {
	q := r.URL.Query()
	return filters{Checkin: q.Get("checkin"), Brand: q.Get("brand")}
}

// data returns the current rows. ok is false before the first successful load.
func (s *Service) data() (rentals []model.Rental, listings []model.CarListing, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rentals, s.listings, s.hasData
}

// analyzeDelay is replaced in tests to observe report computation.
var analyzeDelay = pipeline.AnalyzeDelay

func (s *Service) delayReport(f filters) (model.DelayReport, bool) {
	rentals, _, ok := s.data()
	if !ok {
		return model.DelayReport{}, false
	}
	return analyzeDelay(rentals, s.cfg.Params, f.Checkin), true
}

func (s *Service) pricingReport(f filters) (model.PricingReport, bool) {
	_, listings, ok := s.data()
	if !ok {
		return model.PricingReport{}, false
	}
	return pipeline.AnalyzePricing(pipeline.FilterByBrand(listings, f.Brand), s.cfg.Params), true
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
