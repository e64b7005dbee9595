package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:",squash"`
	DB        DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`
	Logger    LoggerConfig    `mapstructure:",squash"`
}

// AppConfig holds configuration for the application servers
type AppConfig struct {
	Env                 string        `mapstructure:"APP_ENV" validate:"oneof=development staging production test"`
	Host                string        `mapstructure:"SERVER_HOST"`
	HTTPPort            int           `mapstructure:"HTTP_PORT" validate:"min=1,max=65535"`
	GRPCPort            int           `mapstructure:"GRPC_PORT" validate:"min=1,max=65535,nefield=HTTPPort"`
	ShutdownTimeout     time.Duration `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" validate:"gt=0"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT_SECONDS" validate:"gt=0"`
	MaxConcurrent       int64         `mapstructure:"MAX_CONCURRENT_REQUESTS" validate:"min=1"`
	CORSAllowedOrigins  []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	MetricsEnabled      bool          `mapstructure:"METRICS_ENABLED"`
	HealthCheckInterval time.Duration `mapstructure:"HEALTH_CHECK_INTERVAL_SECONDS" validate:"gt=0"`
}

// HTTPAddr is the listen address of the REST server.
func (c AppConfig) HTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// GRPCAddr is the listen address of the gRPC health server.
func (c AppConfig) GRPCAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.GRPCPort))
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	Driver          string        `mapstructure:"DB_DRIVER" validate:"oneof=postgres mysql sqlite"`
	Engine          string        `mapstructure:"DB_ENGINE" validate:"oneof=gorm pgx"`
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DB_HOST"`
	Port            int           `mapstructure:"DB_PORT" validate:"min=0,max=65535"`
	User            string        `mapstructure:"DB_USER"`
	Password        string        `mapstructure:"DB_PASSWORD"`
	Name            string        `mapstructure:"DB_NAME" validate:"required_without=URL"`
	SSLMode         string        `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS" validate:"min=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `mapstructure:"DB_CONN_MAX_IDLE_TIME"`
	AutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`
}

// RedisConfig holds configuration for the optional cache and shared rate limiter
type RedisConfig struct {
	Enabled     bool          `mapstructure:"REDIS_ENABLED"`
	Host        string        `mapstructure:"REDIS_HOST" validate:"required_if=Enabled true"`
	Port        int           `mapstructure:"REDIS_PORT" validate:"min=1,max=65535"`
	Password    string        `mapstructure:"REDIS_PASSWORD"`
	DB          int           `mapstructure:"REDIS_DB" validate:"min=0"`
	MaxRetries  int           `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize    int           `mapstructure:"REDIS_POOL_SIZE" validate:"min=1"`
	MinIdleConn int           `mapstructure:"REDIS_MIN_IDLE_CONN" validate:"min=0"`
	CacheTTL    time.Duration `mapstructure:"REDIS_CACHE_TTL" validate:"gt=0"`
}

// RateLimitConfig holds token bucket settings applied per client IP and route
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RPS     float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	Burst   int     `mapstructure:"RATE_LIMIT_BURST" validate:"min=1"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format           string  `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH" validate:"required"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS" validate:"min=0"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME" validate:"required"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads an optional app.env under path, then environment variables.
// Environment variables win.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvs(v, reflect.TypeOf(Config{}))

	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook,
		listHook,
	))); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	config.DB.Driver = strings.ToLower(config.DB.Driver)
	config.DB.Engine = strings.ToLower(config.DB.Engine)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("GRPC_PORT", 50051)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("MAX_CONCURRENT_REQUESTS", 256)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("HEALTH_CHECK_INTERVAL_SECONDS", 10)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_ENGINE", "gorm")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "user_service")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_CACHE_TTL", "5m")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	// Logger defaults follow APP_ENV as seen in the environment.
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// bindEnvs registers every mapstructure key so Unmarshal sees environment
// variables that have no default.
func bindEnvs(v *viper.Viper, t reflect.Type) {
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		switch {
		case tag == ",squash":
			bindEnvs(v, f.Type)
		case tag != "":
			_ = v.BindEnv(tag)
		}
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook decodes bare numbers as seconds and anything else with
// time.ParseDuration, so "2.5" and "90s" both work.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch d := data.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Duration(0), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	}
	return data, nil
}

// listHook splits comma separated strings into trimmed, non-empty items.
func listHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
		return data, nil
	}
	return splitList(data.(string)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the combinations between them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DB.Engine == "pgx" && c.DB.Driver != "postgres" {
		return fmt.Errorf("invalid config: DB_ENGINE=pgx requires DB_DRIVER=postgres, got %q", c.DB.Driver)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
// DATABASE_URL, when set, is returned verbatim.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Name)
	case "sqlite":
		return c.Name
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	}
}
