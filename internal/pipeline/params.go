package pipeline

import "github.com/theirongolddev/gadash/internal/config"

// Params holds the business assumptions used by the page reports.
type Params struct {
	MedianPrice   float64 // price of a standard rental
	RentalMinutes float64 // length of a standard rental
	Penalty       float64 // late minute rate multiplier in the sweep
	Step          float64 // sweep step, minutes
	MaxThreshold  float64 // sweep end, exclusive
	Bins          int     // histogram bins
	TopBrands     int
}

// DefaultParams mirrors the defaults of the config package.
func DefaultParams() Params {
	return Params{
		MedianPrice:   119,
		RentalMinutes: 1440,
		Penalty:       3,
		Step:          15,
		MaxThreshold:  1440,
		Bins:          40,
		TopBrands:     5,
	}
}

// withDefaults replaces unset or nonsensical fields by their defaults.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MedianPrice <= 0 {
		p.MedianPrice = d.MedianPrice
	}
	if p.RentalMinutes <= 0 {
		p.RentalMinutes = d.RentalMinutes
	}
	if p.Penalty <= 0 {
		p.Penalty = d.Penalty
	}
	if p.Step <= 0 {
		p.Step = d.Step
	}
	if p.MaxThreshold <= 0 {
		p.MaxThreshold = d.MaxThreshold
	}
	if p.Bins < 1 {
		p.Bins = d.Bins
	}
	if p.TopBrands < 1 {
		p.TopBrands = d.TopBrands
	}
	return p
}

// MinuteRate is the price of one rental minute.
func (p Params) MinuteRate() float64 {
	p = p.withDefaults()
	return p.MedianPrice / p.RentalMinutes
}

// Thresholds lists the sweep thresholds: 0, Step, 2*Step, ... below MaxThreshold,
// at most config.MaxThresholds of them.
func (p Params) Thresholds() []float64 {
	p = p.withDefaults()
	var out []float64
	for i := 0; i < config.MaxThresholds; i++ {
		t := float64(i) * p.Step
		if t >= p.MaxThreshold {
			break
		}
		out = append(out, t)
	}
	return out
}

// ParamsFromConfig maps the configured assumptions onto Params.
func ParamsFromConfig(a config.AssumptionsConfig) Params {
	return Params{
		MedianPrice:   a.MedianRentalPrice,
		RentalMinutes: a.RentalMinutes,
		Penalty:       a.Penalty,
		Step:          a.ThresholdStep,
		MaxThreshold:  a.MaxThreshold,
		Bins:          a.HistogramBins,
		TopBrands:     a.TopBrands,
	}.withDefaults()
}

// SourcesFromConfig returns the configured dataset locations.
func SourcesFromConfig(s config.SourcesConfig) Sources {
	return Sources{Delay: s.Delay, Pricing: s.Pricing}
}
