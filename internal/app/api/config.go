package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                       string
	PostgresDSN                string
	SigningKey                 string
	TemporalAddress            string
	TemporalNamespace          string
	TemporalDisabled           bool
	SimulationStepSeconds      int
	SessionPurgeIntervalMinute int
	SeedDemoData               bool
}

// LoadConfig reads a local .env if present, then environment variables,
// applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                  envDefault("PORT", "8080"),
		PostgresDSN:           strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		SigningKey:            envDefault("SIGNING_KEY", "dev-signing-key"),
		TemporalAddress:       envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:     envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:           isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		SimulationStepSeconds:      5,
		SessionPurgeIntervalMinute: 60,
		SeedDemoData:               isTruthy(os.Getenv("SEED_DEMO_DATA")),
	}
	if raw := strings.TrimSpace(os.Getenv("SIMULATION_STEP_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("SIMULATION_STEP_SECONDS must be a positive integer")
		}
		cfg.SimulationStepSeconds = seconds
	}
	// Zero disables the purge loop entirely.
	if raw := strings.TrimSpace(os.Getenv("SESSION_PURGE_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return Config{}, fmt.Errorf("SESSION_PURGE_INTERVAL_MINUTES must be a non-negative integer")
		}
		cfg.SessionPurgeIntervalMinute = minutes
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
