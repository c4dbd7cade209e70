package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gadash/internal/chart"
	"github.com/theirongolddev/gadash/internal/config"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/store"
)

func TestPromptConfig(t *testing.T) {
	in := strings.Join([]string{"", "/data/pricing.csv", "150", "", "2"}, "\n") + "\n"
	var out bytes.Buffer

	cfg, err := promptConfig(bufio.NewReader(strings.NewReader(in)), &out, config.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDelaySource, cfg.Sources.Delay, "empty answer keeps the value")
	assert.Equal(t, "/data/pricing.csv", cfg.Sources.Pricing)
	assert.InDelta(t, 150, cfg.Assumptions.MedianRentalPrice, 1e-9)
	assert.InDelta(t, 3, cfg.Assumptions.Penalty, 1e-9)
	assert.Equal(t, "catppuccin-mocha", cfg.Appearance.Theme)
	assert.Contains(t, out.String(), "Welcome to gadash!")
}

func TestPromptConfig_RejectsBadInput(t *testing.T) {
	in := "\n\nabc\n"
	_, err := promptConfig(bufio.NewReader(strings.NewReader(in)), &bytes.Buffer{}, config.DefaultConfig())
	assert.ErrorContains(t, err, "not a number")

	in = "\n\n\n0.5\n\n"
	_, err = promptConfig(bufio.NewReader(strings.NewReader(in)), &bytes.Buffer{}, config.DefaultConfig())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSweepTableRows(t *testing.T) {
	sw := model.Sweep{
		Points: []model.SweepPoint{
			{Threshold: 0, LateCount: 3, Ratio: 2.5, Defined: true},
			{Threshold: 30, LateCount: 2, Ratio: 1.2, Defined: true},
			{Threshold: 60, LateCount: 1, Ratio: 0.8, Defined: true},
			{Threshold: 120, Ratio: math.NaN()},
		},
		Recommended:       60,
		HasRecommendation: true,
	}

	rows := sweepTableRows(sw, false)
	require.Len(t, rows, 3)
	assert.Equal(t, "0m", rows[0][0])
	assert.Equal(t, "2.50", rows[0][5])
	assert.Equal(t, "0.80 *", rows[1][5])
	assert.Equal(t, "n/a", rows[2][5])

	assert.Len(t, sweepTableRows(sw, true), 4)
}

func TestShareRows_SeparatesCheckinTypes(t *testing.T) {
	rows := shareRows([]model.GroupShare{
		{CheckinType: "connect", Label: "early", Count: 2, Share: 0.2},
		{CheckinType: "mobile", Label: "early", Count: 5, Share: 0.5},
		{CheckinType: "mobile", Label: "late < 15m", Count: 3, Share: 0.3},
	})
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"---"}, rows[1])
	assert.Equal(t, []string{"mobile", "late < 15m", "3", "30.0%"}, rows[3])
}

func TestPriceRows_Limit(t *testing.T) {
	models := []model.ModelPrice{
		{ModelKey: "BMW", Listings: 2, Mean: 165, Total: 330, Share: 0.75},
		{ModelKey: "Citroën", Listings: 1, Mean: 106, Total: 106, Share: 0.25},
	}
	assert.Len(t, priceRows(models, 0), 2)
	rows := priceRows(models, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"BMW", "2", "$165", "$330", "75.0%"}, rows[0])
}

func TestWithoutDetach(t *testing.T) {
	got := withoutDetach([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	assert.Equal(t, []string{"serve", "--addr", ":9000"}, got)
}

func TestPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serve.pid")

	require.NoError(t, writePID(path, os.Getpid()))
	pid, err := readPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, processAlive(pid))
	assert.ErrorContains(t, ensureNotServing(path), "already running")

	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))
	_, err = readPID(path)
	assert.Error(t, err)

	assert.NoError(t, ensureNotServing(filepath.Join(t.TempDir(), "missing.pid")))
}

func TestServeState(t *testing.T) {
	path := statePath(filepath.Join(t.TempDir(), "serve.pid"))
	want := serveState{PID: 42, Addr: "127.0.0.1:8501", StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	require.NoError(t, writeState(path, want))
	got, err := readState(path)
	require.NoError(t, err)
	assert.Equal(t, want.PID, got.PID)
	assert.Equal(t, want.Addr, got.Addr)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
}

func TestFreshness(t *testing.T) {
	local := store.Dataset{Remote: false, FetchedAt: time.Now().Add(-48 * time.Hour)}
	assert.Equal(t, "until file changes", freshness(local, time.Hour))

	remote := store.Dataset{Remote: true, FetchedAt: time.Now()}
	assert.Equal(t, "refetched every run", freshness(remote, 0))
	assert.Contains(t, freshness(remote, time.Hour), "░")
}

func TestWriteRendered(t *testing.T) {
	dir := t.TempDir()

	ok, err := writeRendered(filepath.Join(dir, "ok.png"), "ok", func(w io.Writer) error {
		_, err := w.Write([]byte("png"))
		return err
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, "ok.png"))

	ok, err = writeRendered(filepath.Join(dir, "empty.png"), "empty", func(io.Writer) error {
		return fmt.Errorf("rendering empty: %w", chart.ErrNoData)
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "empty.png"))

	boom := errors.New("encoder failed")
	ok, err = writeRendered(filepath.Join(dir, "broken.png"), "broken", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "broken.png"))
}
