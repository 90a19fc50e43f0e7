package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 5, cfg.SimulationStepSeconds)
	require.Equal(t, 60, cfg.SessionPurgeIntervalMinute, "expired sessions must be purged without opt-in")
}

func TestLoadConfig_SessionPurgeCanBeDisabled(t *testing.T) {
	t.Setenv("SESSION_PURGE_INTERVAL_MINUTES", "0")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Zero(t, cfg.SessionPurgeIntervalMinute)
}

func TestLoadConfig_RejectsNegativePurgeInterval(t *testing.T) {
	t.Setenv("SESSION_PURGE_INTERVAL_MINUTES", "-5")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_RejectsZeroSimulationStep(t *testing.T) {
	t.Setenv("SIMULATION_STEP_SECONDS", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}
