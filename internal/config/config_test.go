package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/internal/analysis/bounds"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, ":9992", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, 20000.0, cfg.Chart.DefaultBaseline)
	assert.Equal(t, 14, cfg.Chart.Indicators.RSI.Period)
	assert.Equal(t, 5, cfg.Chart.Indicators.MA.Fast)
	assert.Equal(t, 10, cfg.Chart.Indicators.MA.Slow)
	assert.Equal(t, bounds.Percent(), cfg.Chart.Percent)
	assert.Equal(t, bounds.Currency(), cfg.Chart.Currency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Backend.Concurrency)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradeboard.toml")
	content := `
[server]
addr = ":8088"

[backend]
base_url = "http://localhost:8000"
agents = ["alpha", "beta"]
timeout_seconds = 3

[chart]
default_baseline = 10000.0
palette = ["#000", "#fff"]

[chart.indicators.rsi]
period = 7

[chart.currency]
ratio = 0.12
fallback = 500.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TRADEBOARD_BACKEND_TOKEN", "secret")
	t.Setenv("TRADEBOARD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Backend.Agents)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "secret", cfg.Backend.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10000.0, cfg.Chart.DefaultBaseline)
	assert.Equal(t, 7, cfg.Chart.Indicators.RSI.Period)
	assert.Equal(t, 70.0, cfg.Chart.Indicators.RSI.Overbought)
	assert.Equal(t, 0.12, cfg.Chart.Currency.Ratio)
	assert.Equal(t, 500.0, cfg.Chart.Currency.Fallback)
	assert.Equal(t, bounds.Percent(), cfg.Chart.Percent)
}

func TestLoadPartialAxisOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradeboard.toml")
	content := `
[chart.percent]
ratio = 0.25

[chart.currency]
ratio = 0.12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := bounds.Percent()
	want.Ratio = 0.25
	assert.Equal(t, want, cfg.Chart.Percent)
	assert.Equal(t, 0.12, cfg.Chart.Currency.Ratio)
	assert.Equal(t, bounds.Currency().Fallback, cfg.Chart.Currency.Fallback)
	assert.Equal(t, bounds.Price(), cfg.Chart.Price)

	r, _ := bounds.EstimateFloats(cfg.Chart.Percent, []float64{0, 0.4})
	assert.LessOrEqual(t, r.Min, -1.0)
	assert.GreaterOrEqual(t, r.Max, 1.4)

	flat, _ := bounds.EstimateFloats(cfg.Chart.Currency, []float64{20000, 20000})
	assert.Equal(t, bounds.Range{Min: 19000, Max: 21000}, flat)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chart]\ndefault_baseline = -1.0\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}
