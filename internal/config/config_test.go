package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ProviderOpenWeather, cfg.WeatherProvider)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 0.3, cfg.RainThreshold)
	if diff := cmp.Diff([]string{"rain", "drizzle", "thunderstorm", "shower"}, cfg.RainKeywords); diff != "" {
		t.Errorf("RainKeywords mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 10*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, 0, cfg.RetryMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryInitialInterval)
	assert.Equal(t, 5*time.Second, cfg.RetryMaxInterval)
	assert.Equal(t, "07:00", cfg.DailyCheckAt)
	assert.Equal(t, time.UTC, cfg.SchedulerTimezone)
	assert.Equal(t, 4, cfg.SchedulerWorkers)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.SQLitePath)
	assert.Equal(t, SinkNone, cfg.EventsSink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "Europe/Berlin")
	t.Setenv("WEATHER_PROVIDER", "WeatherAPI")
	t.Setenv("RAIN_THRESHOLD", "0.5")
	t.Setenv("RAIN_KEYWORDS", "Rain, sleet ,")
	t.Setenv("SMTP_USERNAME", "agent@test.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("DAILY_CHECK_AT", "06:30")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "subs.db"))
	t.Setenv("EVENTS_SINK", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderWeatherAPI, cfg.WeatherProvider)
	assert.Equal(t, "Europe/Berlin", cfg.SchedulerTimezone.String())
	assert.Equal(t, 0.5, cfg.RainThreshold)
	assert.Equal(t, []string{"rain", "sleet"}, cfg.RainKeywords)
	assert.Equal(t, "agent@test.com", cfg.SMTPFrom, "from falls back to username")
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, "06:30", cfg.DailyCheckAt)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "json", cfg.LogFormat)

	rule := cfg.UmbrellaRule()
	assert.Equal(t, 0.5, rule.RainThreshold)
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "UTC")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "subscriptions.db", filepath.Base(cfg.SQLitePath))
	assert.Equal(t, appName, filepath.Base(filepath.Dir(cfg.SQLitePath)))
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"WEATHER_PROVIDER":   "openmeteo",
		"STORE_DRIVER":       "postgres",
		"EVENTS_SINK":        "nats",
		"LOG_FORMAT":         "xml",
		"DAILY_CHECK_AT":     "7am",
		"RAIN_THRESHOLD":     "1.5",
		"SMTP_PORT":          "smtp",
		"RETRY_MAX_ATTEMPTS": "-1",
		"SCHEDULER_WORKERS":  "0",
		"SCHEDULER_TIMEZONE": "Mars/Olympus",
		"WEATHER_TIMEOUT":    "soon",
		"SMTP_TIMEOUT":       "0s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
