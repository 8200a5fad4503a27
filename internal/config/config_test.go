package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SWEEP_INTERVAL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.AutoAssignDelay)
	assert.Equal(t, time.Second, cfg.ReassignDelay)
	assert.Equal(t, 10*time.Second, cfg.DoneDeleteDelay)
	assert.Equal(t, 24*time.Hour, cfg.ResolvedRetention)
	assert.Equal(t, 60*time.Second, cfg.ETACacheTTL)
	assert.Equal(t, "alerts", cfg.BroadcastChannel)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadConfig_SweepIntervalByProfile(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("SWEEP_INTERVAL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.SweepInterval)

	t.Setenv("SWEEP_INTERVAL", "5m")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("WS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsSlice("WS_ALLOWED_ORIGINS"))
}
