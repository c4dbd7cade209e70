package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/gadash/internal/config"
)

func TestThresholds_Default(t *testing.T) {
	th := DefaultParams().Thresholds()
	assert.Len(t, th, 96)
	assert.Equal(t, 0.0, th[0])
	assert.Equal(t, 1425.0, th[len(th)-1])
}

func TestThresholds_Capped(t *testing.T) {
	p := DefaultParams()
	p.Step = 0.0001
	p.MaxThreshold = 1e9
	th := p.Thresholds()
	assert.Len(t, th, config.MaxThresholds)
	assert.InDelta(t, float64(config.MaxThresholds-1)*0.0001, th[len(th)-1], 1e-9)
}

func TestMinuteRate(t *testing.T) {
	assert.InDelta(t, 119.0/1440, DefaultParams().MinuteRate(), 1e-12)
	assert.InDelta(t, 1.0, Params{MedianPrice: 60, RentalMinutes: 60}.MinuteRate(), 1e-12)
}

func TestParamsFromConfig(t *testing.T) {
	a := config.DefaultConfig().Assumptions
	assert.Equal(t, DefaultParams(), ParamsFromConfig(a))

	a.Penalty = 2
	a.ThresholdStep = 60
	a.MaxThreshold = 240
	p := ParamsFromConfig(a)
	assert.Equal(t, 2.0, p.Penalty)
	assert.Equal(t, []float64{0, 60, 120, 180}, p.Thresholds())

	// Unset fields fall back to defaults.
	assert.Equal(t, 119.0, ParamsFromConfig(config.AssumptionsConfig{}).MedianPrice)
}
