package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATABASE_URL", "STORE", "JWT_SECRET", "JWT_EXPIRES_IN", "TIMEZONE", "LOG_LEVEL",
		"EVENTS_BACKEND", "KAFKA_BROKERS", "KAFKA_TOPIC", "AMQP_URL", "AMQP_EXCHANGE",
		"TELEGRAM_BOT_TOKEN", "PUBLIC_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerPort)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, EventsNone, cfg.EventsBackend)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NotNil(t, cfg.Location)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "Memory")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PUBLIC_URL", "https://example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerPort)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://example.com", cfg.PublicURL)
}

func TestLoadCollectsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	t.Setenv("STORE", "sqlite")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("EVENTS_BACKEND", "amqp")
	t.Setenv("AMQP_URL", "http://rabbit")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid PORT")
	assert.Contains(t, msg, "invalid STORE")
	assert.Contains(t, msg, "invalid TIMEZONE")
	assert.Contains(t, msg, "invalid AMQP_URL")
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	cfg := Config{Store: StoreMemory, JWTSecret: "s", EventsBackend: EventsKafka, KafkaTopic: "t"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")

	cfg.KafkaBrokers = []string{"localhost:9092"}
	assert.NoError(t, cfg.Validate())
}
