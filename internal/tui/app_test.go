package tui

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/source"

	tea "github.com/charmbracelet/bubbletea"
)

var nan = math.NaN()

func testRentals() []model.Rental {
	rentals := []model.Rental{
		{RentalID: 1, CarID: 1, CheckinType: "mobile", State: "ended", DelayAtCheckout: 30, TimeDeltaWithPrevious: nan},
		{RentalID: 2, CarID: 1, CheckinType: "mobile", State: "canceled", DelayAtCheckout: nan,
			PreviousRentalID: 1, HasPreviousRental: true, TimeDeltaWithPrevious: 10},
		{RentalID: 3, CarID: 2, CheckinType: "connect", State: "ended", DelayAtCheckout: -10, TimeDeltaWithPrevious: nan},
		{RentalID: 4, CarID: 2, CheckinType: "connect", State: "ended", DelayAtCheckout: 90,
			PreviousRentalID: 3, HasPreviousRental: true, TimeDeltaWithPrevious: 60},
	}
	pipeline.DeriveRentals(rentals, source.DerivedColumns{})
	return rentals
}

func testListings() []model.CarListing {
	return []model.CarListing{
		{ModelKey: "Citroën", Mileage: 140000, EnginePower: 100, RentalPricePerDay: 106, HasGPS: true},
		{ModelKey: "Renault", Mileage: 80000, EnginePower: 120, RentalPricePerDay: 130},
		{ModelKey: "BMW", Mileage: 20000, EnginePower: 190, RentalPricePerDay: 180, AutomaticCar: true},
	}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	a := NewApp(Options{Config: config.DefaultConfig()})
	a.loaded = true
	a.width, a.height = 140, 50
	a.rentals = testRentals()
	a.listings = testListings()
	a.recompute()
	return a
}

func press(t *testing.T, a App, key rune) App {
	t.Helper()
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
	got, ok := m.(App)
	require.True(t, ok)
	return got
}

func TestNextCheckin(t *testing.T) {
	assert.Equal(t, model.CheckinMobile, nextCheckin(""))
	assert.Equal(t, model.CheckinConnect, nextCheckin(model.CheckinMobile))
	assert.Equal(t, "", nextCheckin(model.CheckinConnect))
	assert.Equal(t, "", nextCheckin("bogus"))
}

func TestRecompute_BuildsReports(t *testing.T) {
	a := loadedApp(t)
	assert.Equal(t, 4, a.delay.Rentals)
	assert.Equal(t, 3, a.pricing.Listings)
	assert.NotEmpty(t, a.delayNotes)
	assert.NotEmpty(t, a.pricingNotes)
}

func TestUpdateKey_CycleCheckinFilter(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, 'c')
	assert.Equal(t, model.CheckinMobile, a.checkin)
	assert.Equal(t, 2, a.delay.Rentals)

	a = press(t, a, 'c')
	assert.Equal(t, model.CheckinConnect, a.checkin)

	a = press(t, a, 'c')
	assert.Equal(t, "", a.checkin)
	assert.Equal(t, 4, a.delay.Rentals)
}

func TestUpdateKey_CheckinFilterOnlyOnDelayTabs(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, 'p')
	require.Equal(t, tabPricing, a.activeTab)

	a = press(t, a, 'c')
	assert.Equal(t, "", a.checkin)
}

func TestUpdateKey_TabJumps(t *testing.T) {
	a := loadedApp(t)
	for _, tc := range []struct {
		key  rune
		want int
	}{
		{'s', tabSweep},
		{'a', tabRaw},
		{'x', tabSettings},
		{'d', tabDelay},
	} {
		a = press(t, a, tc.key)
		assert.Equal(t, tc.want, a.activeTab, "key %q", tc.key)
	}
}

func TestUpdateKey_IgnoredWhileLoading(t *testing.T) {
	a := NewApp(Options{Config: config.DefaultConfig()})
	a = press(t, a, 'p')
	assert.Equal(t, tabDelay, a.activeTab)
}

func TestRawRecords_TogglesDataset(t *testing.T) {
	a := loadedApp(t)

	recs := a.rawRecords()
	require.Len(t, recs, 5)
	assert.Equal(t, source.ColRentalID, recs[0][0])

	a.raw.toggle()
	recs = a.rawRecords()
	require.Len(t, recs, 4)
	assert.Equal(t, source.ColModelKey, recs[0][0])
	assert.Equal(t, "Citroën", recs[1][0])
}

func TestRawRecords_FollowsFilters(t *testing.T) {
	a := loadedApp(t)
	a.checkin = model.CheckinConnect
	a.recompute()

	assert.Len(t, a.rawRecords(), 3)
}

func TestView_RendersEveryTab(t *testing.T) {
	a := loadedApp(t)
	for tab := range tabCount {
		a.activeTab = tab
		out := a.View()
		assert.Len(t, strings.Split(out, "\n"), a.height, "tab %d", tab)
	}
}

func TestView_EmptyData(t *testing.T) {
	a := NewApp(Options{Config: config.DefaultConfig()})
	a.loaded = true
	a.width, a.height = 100, 30
	a.recompute()
	for tab := range tabCount {
		a.activeTab = tab
		assert.NotEmpty(t, a.View(), "tab %d", tab)
	}
}

func TestView_TooNarrow(t *testing.T) {
	a := loadedApp(t)
	a.width = 60
	assert.Contains(t, a.View(), "Terminal too narrow")
}

func TestSetSetting(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, setSetting(&cfg, settingsFieldPenalty, " 4.5 "))
	assert.Equal(t, 4.5, cfg.Assumptions.Penalty)

	require.NoError(t, setSetting(&cfg, settingsFieldBins, "20"))
	assert.Equal(t, 20, cfg.Assumptions.HistogramBins)

	require.NoError(t, setSetting(&cfg, settingsFieldTheme, "tokyo-night"))
	assert.Equal(t, "tokyo-night", cfg.Appearance.Theme)

	assert.Error(t, setSetting(&cfg, settingsFieldMedianPrice, "cheap"))
	assert.Error(t, setSetting(&cfg, settingsFieldBins, "2.5"))
	assert.Error(t, setSetting(&cfg, settingsFieldTheme, "solarized"))
}

func TestSettingsSave_RecomputesAndPersists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := loadedApp(t)

	a.settings.cursor = settingsFieldPenalty
	m, _ := a.settingsStartEdit()
	a = m.(App)
	a.settings.input.SetValue("6")
	m, _ = a.updateSettingsInput(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)

	require.NoError(t, a.settings.saveErr)
	assert.True(t, a.settings.saved)
	assert.Equal(t, 6.0, a.params.Penalty)
	assert.Equal(t, 6.0, a.delay.Sweep.Penalty)

	_, err := os.Stat(config.ConfigPath())
	assert.NoError(t, err)
}

func TestSettingsSave_RejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := loadedApp(t)

	a.settings.cursor = settingsFieldPenalty
	m, _ := a.settingsStartEdit()
	a = m.(App)
	a.settings.input.SetValue("0.5")
	m, _ = a.updateSettingsInput(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)

	assert.Error(t, a.settings.saveErr)
	assert.Equal(t, 3.0, a.params.Penalty)
}
