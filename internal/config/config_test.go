package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	withConfigHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, Exists())
}

func TestSaveLoad_RoundTripKeepsEdits(t *testing.T) {
	withConfigHome(t)

	cfg := DefaultConfig()
	cfg.Assumptions.Penalty = 4
	cfg.Sources.Delay = "/data/delay.csv"
	require.NoError(t, Save(cfg))
	require.True(t, Exists())

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Assumptions.Penalty)
	assert.Equal(t, "/data/delay.csv", got.Sources.Delay)
	assert.Equal(t, DefaultPricingSource, got.Sources.Pricing)
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	dir := withConfigHome(t)
	path := filepath.Join(dir, "gadash", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[assumptions]\nthreshold_step = 30.0\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Assumptions.ThresholdStep)
	assert.Equal(t, 119.0, cfg.Assumptions.MedianRentalPrice)
	assert.Equal(t, 5, cfg.Assumptions.TopBrands)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	withConfigHome(t)
	cfg := DefaultConfig()
	cfg.Assumptions.Penalty = 2
	require.NoError(t, Save(cfg))

	t.Setenv("GADASH_ASSUMPTIONS_PENALTY", "5")
	t.Setenv("GADASH_SOURCES_PRICING", "./pricing.csv")

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Assumptions.Penalty)
	assert.Equal(t, "./pricing.csv", got.Sources.Pricing)
}

func TestLoad_BadTOML(t *testing.T) {
	dir := withConfigHome(t)
	path := filepath.Join(dir, "gadash", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[assumptions\n"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero price", func(c *Config) { c.Assumptions.MedianRentalPrice = 0 }, "Assumptions.MedianRentalPrice must be greater than 0"},
		{"penalty below one", func(c *Config) { c.Assumptions.Penalty = 0.5 }, "Assumptions.Penalty must be at least 1"},
		{"zero step", func(c *Config) { c.Assumptions.ThresholdStep = 0 }, "Assumptions.ThresholdStep"},
		{"max below step", func(c *Config) { c.Assumptions.MaxThreshold = 5 }, "Assumptions.MaxThreshold must not be smaller than ThresholdStep"},
		{"too many thresholds", func(c *Config) {
			c.Assumptions.ThresholdStep = 0.0001
			c.Assumptions.MaxThreshold = 1e9
		}, "at most 10000 thresholds"},
		{"threshold limit", func(c *Config) {
			c.Assumptions.ThresholdStep = 1
			c.Assumptions.MaxThreshold = MaxThresholds
		}, ""},
		{"no delay source", func(c *Config) { c.Sources.Delay = "" }, "Sources.Delay is required"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Log.Level must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	withConfigHome(t)
	cfg := DefaultConfig()
	cfg.Assumptions.TopBrands = 0

	err := Save(cfg)
	require.ErrorIs(t, err, ErrInvalid)
	assert.False(t, Exists())
}
