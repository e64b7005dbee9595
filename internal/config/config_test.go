package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.App.HTTPAddr())
	assert.Equal(t, "0.0.0.0:50051", cfg.App.GRPCAddr())
	assert.Equal(t, 10*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "gorm", cfg.DB.Engine)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "user-service", cfg.Logger.ServiceName)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_NAME", "users.db")
	t.Setenv("REDIS_CACHE_TTL", "90s")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.App.HTTPAddr())
	assert.Equal(t, 2500*time.Millisecond, cfg.App.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "users.db", cfg.DB.DSN())
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_PORT=4000\nDB_NAME=from_file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Run("file values apply", func(t *testing.T) {
		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.App.HTTPPort)
		assert.Equal(t, "from_file", cfg.DB.Name)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "5000")
		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.App.HTTPPort)
	})
}

func TestLoadConfig_ProductionLoggerDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"unknown engine", map[string]string{"DB_ENGINE": "sqlx"}},
		{"pgx needs postgres", map[string]string{"DB_ENGINE": "pgx", "DB_DRIVER": "mysql"}},
		{"port out of range", map[string]string{"HTTP_PORT": "70000"}},
		{"ports collide", map[string]string{"HTTP_PORT": "50051"}},
		{"idle above open", map[string]string{"DB_MAX_OPEN_CONNS": "2", "DB_MAX_IDLE_CONNS": "5"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(t.TempDir())
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	base := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}

	pg := base
	pg.Driver = "postgres"
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", pg.DSN())

	my := base
	my.Driver = "mysql"
	my.Port = 3306
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=UTC", my.DSN())

	url := base
	url.Driver = "postgres"
	url.URL = "postgres://x:y@h/z"
	assert.Equal(t, "postgres://x:y@h/z", url.DSN())
}

func TestLoadConfig_KeysWithoutDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x:y@h/z")
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("DB_CONN_MAX_LIFETIME", "120")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres://x:y@h/z", cfg.DB.URL)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 2*time.Minute, cfg.DB.ConnMaxLifetime)
}

func TestDurationHook(t *testing.T) {
	to := reflect.TypeOf(time.Duration(0))
	tests := []struct {
		in   any
		want time.Duration
	}{
		{10, 10 * time.Second},
		{0.5, 500 * time.Millisecond},
		{"2.5", 2500 * time.Millisecond},
		{"90s", 90 * time.Second},
		{"30m", 30 * time.Minute},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := durationHook(reflect.TypeOf(tt.in), to, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}

	_, err := durationHook(reflect.TypeOf(""), to, "soon")
	assert.Error(t, err)
}
