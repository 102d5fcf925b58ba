package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds configuration for the client process.
type Config struct {
	// Service name
	ServiceName string

	// Log level: debug, info, warn, error
	LogLevel string

	// Directory for per-symbol tick/TOB history files
	HistoryDir string

	// Keep per-update tick logs in memory
	StoreTicks bool

	// Persist tick/TOB history to files
	SaveHistory bool

	// Path of the execution history database; empty disables it
	ExecutionDBPath string

	// HTTP health server port
	HTTPPort int

	// FIX account for the trade session
	Account string

	// Symbols the demo consumer subscribes to (comma-separated)
	Symbols []string

	// Publish ticks and execution events to Kafka
	KafkaEnabled bool

	// Kafka brokers (comma-separated)
	KafkaBrokers []string
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig(serviceName string) *Config {
	cfg := &Config{
		ServiceName:     serviceName,
		LogLevel:        getEnvAsString("LOG_LEVEL", "info"),
		HistoryDir:      getEnvAsString("HISTORY_DIR", "history"),
		StoreTicks:      getEnvAsBool("STORE_ALL_TICKS", true),
		SaveHistory:     getEnvAsBool("SAVE_HISTORY", true),
		ExecutionDBPath: getEnvAsString("EXECUTION_DB_PATH", "data/executions.db"),
		HTTPPort:        getEnvAsInt("PORT_HTTP", 8080),
		Account:         getEnvAsString("FIX_ACCOUNT", "demo"),
		Symbols:         getEnvAsList("SYMBOLS", "EUR/USD,AUD/JPY,GBP/NZD"),
		KafkaEnabled:    getEnvAsBool("KAFKA_ENABLED", false),
		KafkaBrokers:    getEnvAsList("KAFKA_BROKERS", "127.0.0.1:9092"),
	}

	return cfg
}

// HTTPAddr returns the HTTP server address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnvAsString(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
