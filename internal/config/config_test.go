package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "0.0.0.0"
  port: 9090
  environment: "development"
database:
  url: "postgres://localhost/engage"
redis:
  addr: "localhost:6379"
presence:
  online_threshold_minutes: 10
stream:
  interval_seconds: 15
campaigns:
  timezone: "Europe/Amsterdam"
  winback_days: 90
  weekly_cap: 3
  cooldown_days:
    winback: 14
    reengagement: 7
  seasonal_windows:
    - name: "valentine"
      from_month: 2
      from_day: 12
      to_month: 2
      to_day: 16
      weekday: -1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, 10*time.Minute, cfg.Presence.OnlineThreshold())
	assert.Equal(t, 15*time.Second, cfg.Stream.Interval())
	assert.Equal(t, 90, cfg.Campaigns.WinbackDays)
	assert.Equal(t, 14, cfg.Campaigns.CooldownDays["winback"])
	require.Len(t, cfg.Campaigns.SeasonalWindows, 1)
	assert.Equal(t, "valentine", cfg.Campaigns.SeasonalWindows[0].Name)
	assert.Equal(t, "Europe/Amsterdam", cfg.Campaigns.Location().String())
}

func TestLoad_SeasonalWindowWeekdayDefaultsToAny(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/engage"
redis:
  addr: "localhost:6379"
campaigns:
  seasonal_windows:
    - name: "valentine"
      from_month: 2
      from_day: 12
      to_month: 2
      to_day: 16
    - name: "sunday-special"
      from_month: 3
      from_day: 1
      to_month: 3
      to_day: 31
      weekday: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Campaigns.SeasonalWindows, 2)

	// Omitted weekday means any day, not Sunday.
	assert.Equal(t, -1, cfg.Campaigns.SeasonalWindows[0].Weekday)
	// An explicit 0 still means Sunday.
	assert.Equal(t, 0, cfg.Campaigns.SeasonalWindows[1].Weekday)
}

func TestLoadFromEnv_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  url: "postgres://localhost/engage"
redis:
  addr: "localhost:6379"
`)

	t.Setenv("DATABASE_URL", "postgres://db.internal/engage")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("TRIGGER_SECRET", "s3cret")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db.internal/engage", cfg.Database.URL)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Trigger.Secret)
}

func TestLoadFromEnv_ProductionRequiresTriggerSecret(t *testing.T) {
	path := writeConfig(t, `
server:
  environment: "production"
database:
  url: "postgres://localhost/engage"
redis:
  addr: "localhost:6379"
`)
	t.Setenv("TRIGGER_SECRET", "")

	_, err := LoadFromEnv(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trigger.secret")
}

func TestDefaults(t *testing.T) {
	var p PresenceConfig
	assert.Equal(t, 5*time.Minute, p.OnlineThreshold())

	var s StreamConfig
	assert.Equal(t, 30*time.Second, s.Interval())

	var c CampaignsConfig
	assert.Equal(t, 5*time.Minute, c.RunTimeout())
	assert.Equal(t, time.UTC, c.Location())
}
