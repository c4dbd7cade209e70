// Package config loads and saves gadash settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for environment overrides, e.g. GADASH_ASSUMPTIONS_PENALTY.
const EnvPrefix = "GADASH"

// MaxThresholds bounds the number of thresholds one sweep evaluates.
const MaxThresholds = 10000

// Default dataset locations.
const (
	DefaultDelaySource   = "https://storage.googleapis.com/get_around_data/delay_df.csv"
	DefaultPricingSource = "https://storage.googleapis.com/get_around_data/pricing_df.csv"
)

// Config holds all gadash configuration.
type Config struct {
	Sources     SourcesConfig     `toml:"sources" envconfig:"SOURCES"`
	Assumptions AssumptionsConfig `toml:"assumptions" envconfig:"ASSUMPTIONS"`
	Appearance  AppearanceConfig  `toml:"appearance" envconfig:"APPEARANCE"`
	Server      ServerConfig      `toml:"server" envconfig:"SERVER"`
	Log         LogConfig         `toml:"log" envconfig:"LOG"`
}

// SourcesConfig says where the two datasets live. Each is a local path or an http(s) URL.
type SourcesConfig struct {
	Delay           string `toml:"delay" envconfig:"DELAY" validate:"required"`
	Pricing         string `toml:"pricing" envconfig:"PRICING" validate:"required"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes" envconfig:"CACHE_TTL_MINUTES" validate:"gte=0"`
}

// AssumptionsConfig holds the business assumptions behind the projections.
type AssumptionsConfig struct {
	MedianRentalPrice float64 `toml:"median_rental_price" envconfig:"MEDIAN_RENTAL_PRICE" validate:"gt=0"`
	RentalMinutes     float64 `toml:"rental_minutes" envconfig:"RENTAL_MINUTES" validate:"gt=0"`
	Penalty           float64 `toml:"penalty" envconfig:"PENALTY" validate:"gte=1"`
	ThresholdStep     float64 `toml:"threshold_step" envconfig:"THRESHOLD_STEP" validate:"gt=0"`
	MaxThreshold      float64 `toml:"max_threshold" envconfig:"MAX_THRESHOLD" validate:"gtefield=ThresholdStep"`
	HistogramBins     int     `toml:"histogram_bins" envconfig:"HISTOGRAM_BINS" validate:"min=1,max=500"`
	TopBrands         int     `toml:"top_brands" envconfig:"TOP_BRANDS" validate:"min=1"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" envconfig:"THEME"`
}

// ServerConfig holds settings for `gadash serve`.
type ServerConfig struct {
	Addr          string `toml:"addr" envconfig:"ADDR" validate:"required"`
	ReloadMinutes int    `toml:"reload_minutes" envconfig:"RELOAD_MINUTES" validate:"gte=0"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Sources: SourcesConfig{
			Delay:           DefaultDelaySource,
			Pricing:         DefaultPricingSource,
			CacheTTLMinutes: 24 * 60,
		},
		Assumptions: AssumptionsConfig{
			MedianRentalPrice: 119,
			RentalMinutes:     24 * 60,
			Penalty:           3,
			ThresholdStep:     15,
			MaxThreshold:      24 * 60,
			HistogramBins:     40,
			TopBrands:         5,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8501",
			ReloadMinutes: 60,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gadash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gadash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, applies GADASH_* environment overrides and
// validates the result. A missing file yields the defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Only variables that are set override the file.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save validates and writes the config to disk.
func Save(cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

var validate = validator.New()

// Validate checks value ranges and returns one error naming every bad field.
func Validate(cfg Config) error {
	var msgs []string
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, formatFieldError(fe))
		}
	}

	if a := cfg.Assumptions; a.ThresholdStep > 0 && a.MaxThreshold/a.ThresholdStep > MaxThresholds {
		msgs = append(msgs, fmt.Sprintf("Assumptions.MaxThreshold / ThresholdStep must be at most %d thresholds", MaxThresholds))
	}

	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be smaller than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
