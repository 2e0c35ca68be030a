package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone_scheduler/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "port: \"9000\"\n")

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "zone_scheduler_schedules", cfg.Store.Key)
	assert.Equal(t, 2, cfg.Schedule.NextHorizonDays)
	assert.Equal(t, time.Minute, cfg.Schedule.EvaluateInterval)
	assert.Zero(t, cfg.Safety.MinTemp, "clamping is off unless configured")
	assert.Zero(t, cfg.Safety.MaxTemp)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.MQTT.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
db:
  path: /var/lib/scheduler/app.db
store:
  backend: redis
  redis:
    addr: redis:6379
    db: 3
schedule:
  next_horizon_days: 8
  evaluate_interval: 30s
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic_prefix: home/zones
`)

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/scheduler/app.db", cfg.DB.Path)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.Equal(t, 8, cfg.Schedule.NextHorizonDays)
	assert.Equal(t, 30*time.Second, cfg.Schedule.EvaluateInterval)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "home/zones", cfg.MQTT.TopicPrefix)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: sqlite\n")
	t.Setenv("SCHEDULER_STORE_BACKEND", "redis")
	t.Setenv("SCHEDULER_SAFETY_MAX_TEMP", "80")
	t.Setenv("SCHEDULER_AUTH_SIGNING_KEY", "from-env")

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 80.0, cfg.Safety.MaxTemp)
	assert.Equal(t, "from-env", cfg.Auth.SigningKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit file must exist")

	tests := map[string]string{
		"backend": "store:\n  backend: postgres\n",
		"horizon": "schedule:\n  next_horizon_days: 0\n",
		"safety":  "safety:\n  min_temp: 95\n  max_temp: 90\n",
		"qos":     "mqtt:\n  qos: 3\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(viper.New(), writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SafetyRangeInCelsius(t *testing.T) {
	path := writeConfig(t, "safety:\n  min_temp: 5\n  max_temp: 30\n")

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Safety.MinTemp)
	assert.Equal(t, 30.0, cfg.Safety.MaxTemp)
}
