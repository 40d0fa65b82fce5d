package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmorales/wxslate/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_NegativeBankrollFatal(t *testing.T) {
	path := writeConfig(t, "bankroll:\n  total_usd: -100\n")

	cfg, err := config.Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "bankroll.total_usd")
}

func TestLoad_InvalidMaxPickFractionFatal(t *testing.T) {
	for _, bad := range []string{"-0.5", "1.5"} {
		path := writeConfig(t, "bankroll:\n  max_pick_fraction: "+bad+"\n")

		_, err := config.Load(path)
		require.Error(t, err, "max_pick_fraction %s debe ser fatal", bad)
		assert.Contains(t, err.Error(), "max_pick_fraction")
	}
}

func TestLoad_InvalidPriceWindowFatal(t *testing.T) {
	path := writeConfig(t, "price_window:\n  primary_low: 94\n  primary_high: 91\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary_low")
}

func TestLoad_EmptyFileGetsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 42.00, cfg.Bankroll.TotalUSD, 1e-9)
	assert.InDelta(t, 0.25, cfg.Bankroll.MaxPickFraction, 1e-9)
	assert.Equal(t, 90, cfg.PriceWindow.PrimaryLow)
	assert.Equal(t, 93, cfg.PriceWindow.PrimaryHigh)
	assert.Equal(t, []int{7, 8, 9}, cfg.Schedule.RunHoursET)
	assert.Equal(t, 15, cfg.Spike.ThresholdCents)
}

func TestLoad_ExplicitValuesSurviveDefaults(t *testing.T) {
	path := writeConfig(t, "bankroll:\n  total_usd: 250\n  max_pick_fraction: 0.10\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, cfg.Bankroll.TotalUSD, 1e-9)
	assert.InDelta(t, 0.10, cfg.Bankroll.MaxPickFraction, 1e-9)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}
