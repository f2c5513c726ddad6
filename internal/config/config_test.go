package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "UGX", cfg.Business.Currency)
	assert.Equal(t, "FS", cfg.Business.StatementPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Business.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Health.Timeout)
	assert.Equal(t, 72*time.Hour, cfg.ReminderWindow())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://ledger:secret@db:5432/ledger?sslmode=disable")
	t.Setenv("REMINDER_WINDOW_DAYS", "7")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("JWT_SECRET", "topsecret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://ledger:secret@db:5432/ledger?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 7*24*time.Hour, cfg.ReminderWindow())
	assert.Equal(t, 30*time.Second, cfg.Business.CacheTTL)
	assert.Equal(t, "topsecret", cfg.Auth.JWTSecret)
}

func TestLoad_InvalidReminderWindow(t *testing.T) {
	t.Setenv("REMINDER_WINDOW_DAYS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMINDER_WINDOW_DAYS")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		Name:     "fee_ledger",
		User:     "postgres",
		Password: "pw",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=fee_ledger sslmode=disable password=pw", db.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{Host: "localhost"},
			Scheduler: SchedulerConfig{Timezone: "UTC"},
			Business:  BusinessConfig{Currency: "UGX", StatementPrefix: "FS", ReminderWindowDays: 3},
			Health:    HealthConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "SERVER_PORT"},
		{name: "missing database", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DATABASE_URL"},
		{name: "missing prefix", mutate: func(c *Config) { c.Business.StatementPrefix = "" }, wantErr: "STATEMENT_PREFIX"},
		{name: "bad timezone", mutate: func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, wantErr: "SCHEDULER_TIMEZONE"},
		{name: "zero health timeout", mutate: func(c *Config) { c.Health.Timeout = 0 }, wantErr: "HEALTH_CHECK_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
