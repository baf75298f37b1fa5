package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psiema.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "badger", config.Storage.Type)
	assert.Equal(t, "1y", config.MarketData.HistoryPeriod)
	assert.Equal(t, 120, config.MarketData.DefaultRange)
	assert.Equal(t, "claude", config.Narrative.PrimaryTier)
	assert.Equal(t, "gemini", config.Narrative.FallbackTier)
	assert.Equal(t, "0 */6 * * *", config.Scheduler.Schedule)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
environment = "production"

[server]
port = 9090

[market_data]
history_period = "6m"
default_range = 60

[scheduler]
enabled = true
watchlist = ["AAPL.US", "MSFT.US"]
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "6m", config.MarketData.HistoryPeriod)
	assert.Equal(t, 60, config.MarketData.DefaultRange)
	assert.True(t, config.Scheduler.Enabled)
	assert.Equal(t, []string{"AAPL.US", "MSFT.US"}, config.Scheduler.Watchlist)

	// Untouched sections keep their defaults.
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "badger", config.Storage.Type)
}

func TestLoadConfig_LaterFileWins(t *testing.T) {
	base := writeTestConfig(t, `
[server]
port = 9090
`)
	override := writeTestConfig(t, `
[server]
port = 9191
`)

	config, err := LoadConfig(base, override)
	require.NoError(t, err)
	assert.Equal(t, 9191, config.Server.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeTestConfig(t, `
[server]
port = 9090
`)
	t.Setenv("PSIEMA_PORT", "7070")
	t.Setenv("PSIEMA_LOG_LEVEL", "DEBUG")
	t.Setenv("PSIEMA_MARKET_API_KEY", "demo-key")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "demo-key", config.MarketData.APIKey)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ValidationRejectsBadValues(t *testing.T) {
	path := writeTestConfig(t, `
[market_data]
history_period = "10y"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfig_RejectsPrivateBaseURL(t *testing.T) {
	path := writeTestConfig(t, `
[market_data]
base_url = "http://169.254.169.254/api"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_data.base_url rejected")
}

func TestLoadConfig_ProductionRequiresHTTPS(t *testing.T) {
	path := writeTestConfig(t, `
environment = "production"

[market_data]
base_url = "http://eodhd.com/api"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)

	// The same URL is acceptable in development.
	devPath := writeTestConfig(t, `
[market_data]
base_url = "http://eodhd.com/api"
`)
	config, err := LoadConfig(devPath)
	require.NoError(t, err)
	assert.Equal(t, "http://eodhd.com/api", config.MarketData.BaseURL)
}
