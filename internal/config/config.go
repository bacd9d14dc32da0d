package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/leogadddd/ordura-v2/pkg/config"
)

// defaultJWTSecret is the placeholder accepted only in development mode.
const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ordura"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ordura_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"ordura"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns           int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns           int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	SlowQueryThresholdMs int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.JWTAccessExpiry <= 0 || cfg.JWTRefreshExpiry <= 0 {
		return nil, fmt.Errorf("token expiries must be positive")
	}

	// Outside development, the JWT secret must be explicitly set and strong.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the backend runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
