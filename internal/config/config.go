package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SCHEDULER"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Store    StoreConfig    `mapstructure:"store"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Safety   SafetyConfig   `mapstructure:"safety"`
	Auth     AuthConfig     `mapstructure:"auth"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig selects where the schedule document lives. The SQLite file
// of DBConfig is used unless Backend is "redis".
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Key     string      `mapstructure:"key"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type ScheduleConfig struct {
	NextHorizonDays  int           `mapstructure:"next_horizon_days"`
	EvaluateInterval time.Duration `mapstructure:"evaluate_interval"`
}

// SafetyConfig bounds applied setpoints, in the unit of the schedules. Both
// zero (the default) disables clamping.
type SafetyConfig struct {
	MinTemp float64 `mapstructure:"min_temp"`
	MaxTemp float64 `mapstructure:"max_temp"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"client_id"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	QoS         int           `mapstructure:"qos"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]any{
	"port":                       "8080",
	"log.level":                  "info",
	"log.format":                 "console",
	"db.path":                    "app.db",
	"store.backend":              BackendSQLite,
	"store.key":                  "zone_scheduler_schedules",
	"store.redis.addr":           "localhost:6379",
	"store.redis.password":       "",
	"store.redis.db":             0,
	"store.redis.prefix":         "zone_scheduler",
	"schedule.next_horizon_days": 2,
	"schedule.evaluate_interval": time.Minute,
	"safety.min_temp":            0.0,
	"safety.max_temp":            0.0,
	"auth.signing_key":           "",
	"auth.token_ttl":             time.Hour,
	"mqtt.enabled":               false,
	"mqtt.broker":                "tcp://localhost:1883",
	"mqtt.client_id":             "zone-scheduler",
	"mqtt.username":              "",
	"mqtt.password":              "",
	"mqtt.topic_prefix":          "zone_scheduler",
	"mqtt.qos":                   1,
	"mqtt.timeout":               5 * time.Second,
	"metrics.enabled":            true,
	"server.read_header_timeout": 10 * time.Second,
	"server.write_timeout":       10 * time.Second,
	"server.idle_timeout":        60 * time.Second,
	"server.shutdown_timeout":    10 * time.Second,
}

// SetDefaults registers every known key on v, so environment variables
// override keys that are absent from the file.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads configuration into a Config. With an empty filename it looks for
// config.yml in ./configs and the working directory; a missing file is not an
// error then. SCHEDULER_* environment variables override file values, e.g.
// SCHEDULER_STORE_BACKEND=redis.
func Load(v *viper.Viper, filename string) (Config, error) {
	if filename != "" {
		v.SetConfigFile(filename)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if filename != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("store.backend %q must be %q or %q", c.Store.Backend, BackendSQLite, BackendRedis)
	}
	if c.Schedule.NextHorizonDays < 1 {
		return fmt.Errorf("schedule.next_horizon_days must be at least 1, got %d", c.Schedule.NextHorizonDays)
	}
	if c.Safety.MaxTemp != 0 && c.Safety.MinTemp >= c.Safety.MaxTemp {
		return fmt.Errorf("safety.min_temp %v must be below safety.max_temp %v", c.Safety.MinTemp, c.Safety.MaxTemp)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
