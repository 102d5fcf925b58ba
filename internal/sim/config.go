// Package sim provides a simulated venue for running the client without a
// live counterparty. It speaks the same message shapes as a real feed and can
// inject faults to exercise the client's error handling.
package sim

import (
	"os"
	"strconv"
	"time"
)

// Config controls the simulated venue's timing and fault injection.
type Config struct {
	// TickInterval is the delay between generated quote messages.
	TickInterval time.Duration

	// DropRate is the probability of silently dropping a quote message.
	DropRate float64

	// DelayRate is the probability of delaying a quote message by up to
	// MaxDelay.
	DelayRate float64
	MaxDelay  time.Duration

	// GarbleRate is the probability of stripping a required field from a
	// quote message before delivery.
	GarbleRate float64

	// FillDelay is the time between an order's confirmation and its fill.
	FillDelay time.Duration

	// Seed fixes the random sequence; zero seeds from the clock.
	Seed int64
}

// LoadConfig loads simulation settings from environment variables.
func LoadConfig() Config {
	return Config{
		TickInterval: time.Duration(getEnvAsInt("SIM_TICK_INTERVAL_MS", 250)) * time.Millisecond,
		DropRate:     getEnvAsFloat("SIM_DROP_RATE", 0.0),
		DelayRate:    getEnvAsFloat("SIM_DELAY_RATE", 0.0),
		MaxDelay:     time.Duration(getEnvAsInt("SIM_MAX_DELAY_MS", 500)) * time.Millisecond,
		GarbleRate:   getEnvAsFloat("SIM_GARBLE_RATE", 0.0),
		FillDelay:    time.Duration(getEnvAsInt("SIM_FILL_DELAY_MS", 150)) * time.Millisecond,
		Seed:         int64(getEnvAsInt("SIM_SEED", 0)),
	}
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
