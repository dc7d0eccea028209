package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engagement service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SES       SESConfig       `yaml:"ses"`
	Presence  PresenceConfig  `yaml:"presence"`
	Stream    StreamConfig    `yaml:"stream"`
	Campaigns CampaignsConfig `yaml:"campaigns"`
	Trigger   TriggerConfig   `yaml:"trigger"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Environment    string   `yaml:"environment"` // "development" or "production"
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	host := s.Host
	port := s.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// IsProduction reports whether the server runs in production mode. The
// trigger-identity fallback for job endpoints is only honored when false.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis connection settings for presence and the bus.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SESConfig holds AWS SES v2 credentials and sender identity.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// PresenceConfig holds presence tracker settings.
type PresenceConfig struct {
	OnlineThresholdMinutes int `yaml:"online_threshold_minutes"`
}

// OnlineThreshold returns the staleness threshold, defaulting to 5 minutes.
func (p PresenceConfig) OnlineThreshold() time.Duration {
	if p.OnlineThresholdMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(p.OnlineThresholdMinutes) * time.Minute
}

// StreamConfig holds notification stream settings.
type StreamConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval returns the push interval, defaulting to 30 seconds.
func (s StreamConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// CampaignsConfig holds campaign job settings shared by the runner and the
// frequency guard.
type CampaignsConfig struct {
	Timezone            string         `yaml:"timezone"` // platform reference TZ, e.g. "Europe/Amsterdam"
	RunTimeoutMinutes   int            `yaml:"run_timeout_minutes"`
	Workers             int            `yaml:"workers"`
	WinbackDays         int            `yaml:"winback_days"`
	CooldownDays        map[string]int `yaml:"cooldown_days"` // per category
	WeeklyCap           int            `yaml:"weekly_cap"`
	SeasonalWindows     []DateWindow   `yaml:"seasonal_windows"`
	DigestEventLookback int            `yaml:"digest_event_lookback_days"`
}

// DateWindow is an inclusive month/day range a seasonal campaign is live in.
type DateWindow struct {
	Name       string `yaml:"name"`
	FromMonth  int    `yaml:"from_month"`
	FromDay    int    `yaml:"from_day"`
	ToMonth    int    `yaml:"to_month"`
	ToDay      int    `yaml:"to_day"`
	Weekday    int    `yaml:"weekday"`    // optional, -1 = any (0 = Sunday)
	AfterHour  int    `yaml:"after_hour"` // optional, 0 = any
	TemplateID string `yaml:"template_id"`
}

// UnmarshalYAML sets the defaults an omitted key cannot express: a missing
// weekday means any weekday, not 0 (Sunday).
func (w *DateWindow) UnmarshalYAML(value *yaml.Node) error {
	type rawDateWindow DateWindow
	raw := rawDateWindow{Weekday: -1}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*w = DateWindow(raw)
	return nil
}

// RunTimeout returns the per-run deadline, defaulting to 5 minutes.
func (c CampaignsConfig) RunTimeout() time.Duration {
	if c.RunTimeoutMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RunTimeoutMinutes) * time.Minute
}

// Location resolves the platform reference timezone, defaulting to UTC when
// unset or unknown.
func (c CampaignsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TriggerConfig authenticates the external scheduler that invokes job runs.
type TriggerConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads the YAML config and applies environment overrides.
// A .env file in the working directory is honored when present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("TRIGGER_SECRET"); v != "" {
		cfg.Trigger.Secret = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required (or set REDIS_ADDR)")
	}
	if c.Server.IsProduction() && c.Trigger.Secret == "" {
		return fmt.Errorf("trigger.secret is required in production")
	}
	return nil
}
