package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	defaultPageSize               = 20
	defaultMaxPageSize            = 100
	defaultRecommendationCacheTTL = 10 * time.Minute
	defaultPostgresMaxConns       = 10
	defaultStartSessionPerMin     = 30
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// http
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// pgxpool max connections of the HTTP service
	PostgresMaxConns int32 `toml:"postgres_max_conns"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// listing / pagination
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
	// workouts
	StartSessionRateLimitPerMin int           `toml:"start_session_rate_limit_per_min"`
	RecommendationCacheTTL      time.Duration `toml:"recommendation_cache_ttl"`
}

// Secrets are never stored in the TOML file, only read from the environment.
type Secrets struct {
	SentryDSN        string `env:"SENTRY_DSN"`
	RedisPassword    string `env:"REPCOACH_REDIS_PASS"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED" envDefault:"false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"repcoach"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Load reads the TOML file from path and returns the config section for the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return t.Get(env)
}

func LoadSecrets() (*Secrets, error) {
	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return nil, fmt.Errorf("parse secrets from env: %w", err)
	}
	return &secrets, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = defaultMaxPageSize
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	if c.RecommendationCacheTTL <= 0 {
		c.RecommendationCacheTTL = defaultRecommendationCacheTTL
	}
	if c.StartSessionRateLimitPerMin <= 0 {
		c.StartSessionRateLimitPerMin = defaultStartSessionPerMin
	}
	if c.PostgresMaxConns <= 0 {
		c.PostgresMaxConns = defaultPostgresMaxConns
	}
}
