package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, uint16(5000), cfg.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Empty(t, cfg.Admin.Email)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("ADMIN_PASSWORD", "Sup3rSecretAdmin")

	cfg, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "ops@example.com", cfg.Admin.Email)
	assert.Equal(t, "Sup3rSecretAdmin", cfg.Admin.Password)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "redis"}},
		{name: "default secret in production", env: map[string]string{"ENV": "production"}},
		{name: "zero ttl", env: map[string]string{"JWT_REFRESH_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(newViper())
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret-for-prod")

	cfg, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestNewLogger_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production", "info").Info("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "epharmacy", line["service"])

	buf.Reset()
	NewLogger(&buf, "production", "warn").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"info+2":  slog.LevelInfo + 2,
	} {
		got, ok := ParseLogLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseLogLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

func TestNewLogger_UnknownLevelWarnsOnItsOwnOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "chatty")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "chatty", line["value"])

	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String(), "falls back to info")
}
