package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("test-service")

	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "history", cfg.HistoryDir)
	assert.True(t, cfg.StoreTicks)
	assert.True(t, cfg.SaveHistory)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"EUR/USD", "AUD/JPY", "GBP/NZD"}, cfg.Symbols)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT_HTTP", "9091")
	t.Setenv("STORE_ALL_TICKS", "false")
	t.Setenv("SYMBOLS", "EUR/USD, USD/JPY ,")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg := LoadConfig("test-service")

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9091", cfg.HTTPAddr())
	assert.False(t, cfg.StoreTicks)
	assert.Equal(t, []string{"EUR/USD", "USD/JPY"}, cfg.Symbols)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("PORT_HTTP", "not-a-port")
	t.Setenv("STORE_ALL_TICKS", "maybe")

	cfg := LoadConfig("test-service")
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.True(t, cfg.StoreTicks)
}
