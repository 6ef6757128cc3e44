package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 15*time.Minute, cfg.Policy.CheckInEarly)
	assert.Equal(t, 5*time.Minute, cfg.Policy.CheckInLate)
	assert.Equal(t, 2*time.Hour, cfg.Policy.ExtendMax)
	assert.Equal(t, 30*time.Minute, cfg.Policy.CancelCutoff)
	assert.Equal(t, 7*24*time.Hour, cfg.Policy.RatingWindow)
	assert.Equal(t, 6, cfg.Policy.ViolationWindowMonths)
	assert.Equal(t, 3, cfg.Policy.ViolationThreshold)
	assert.InDelta(t, 0.5, cfg.Policy.MinOccupancyRatio, 1e-9)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("CANCEL_CUTOFF", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CANCEL_CUTOFF")
}

func TestLoadRejectsDefaultSecretInProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsInvertedOpeningHours(t *testing.T) {
	t.Setenv("OPEN_TIME", "20:00")
	t.Setenv("CLOSE_TIME", "08:00")

	_, err := Load()
	require.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
