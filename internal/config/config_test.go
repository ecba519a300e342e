// File: internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "steadyaim", cfg.Logger.ServiceName)
	assert.Equal(t, "~/.steadyaim/profiles", cfg.Profiles.Dir)
	assert.False(t, cfg.Profiles.Watch)

	assert.Equal(t, 3, cfg.Humanizer.Level)
	assert.Equal(t, 0.2, cfg.Humanizer.TimingVariation)
	assert.Equal(t, 0.15, cfg.Humanizer.MovementVariation)
	assert.Equal(t, 0.05, cfg.Humanizer.MicroPauseChance)
	assert.Equal(t, 0.03, cfg.Humanizer.SkipChance)
	assert.Equal(t, 10*time.Millisecond, cfg.Humanizer.ActivationDelayMin)
	assert.Equal(t, 30*time.Millisecond, cfg.Humanizer.ActivationDelayMax)
	assert.Equal(t, 3, cfg.Humanizer.BezierPoints)
	assert.True(t, cfg.Humanizer.AdvancedMovement)

	assert.Equal(t, 10*time.Millisecond, cfg.Loop.IdlePoll)
	assert.Equal(t, 100*time.Millisecond, cfg.Loop.ErrorBackoff)
	assert.Equal(t, time.Second, cfg.Loop.JoinTimeout)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Humanizer Validation", func(t *testing.T) {
		base := NewDefaultConfig().Humanizer

		badLevel := base
		badLevel.Level = 6
		err := badLevel.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "level must be between 1 and 5")

		badChance := base
		badChance.SkipChance = 1.5
		err = badChance.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "skip_chance must be between 0.0 and 1.0")

		badRange := base
		badRange.ActivationDelayMin = 40 * time.Millisecond
		err = badRange.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "activation_delay range is invalid")

		badPoints := base
		badPoints.BezierPoints = 1
		err = badPoints.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bezier_points must be at least 2")
	})

	t.Run("Loop Validation", func(t *testing.T) {
		base := NewDefaultConfig().Loop

		noPoll := base
		noPoll.IdlePoll = 0
		err := noPoll.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idle_poll must be a positive duration")

		noJoin := base
		noJoin.JoinTimeout = -time.Second
		err = noJoin.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "join_timeout must be a positive duration")

		noBurst := base
		noBurst.ErrorLogBurst = 0
		err = noBurst.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error_log_burst must be at least 1")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
logger:
  level: debug
profiles:
  dir: /tmp/profiles
  default: ak
humanizer:
  skip_chance: 0.0
  activation_delay_max: 45ms
loop:
  idle_poll: 25ms
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.Equal(t, "/tmp/profiles", cfg.Profiles.Dir)
		assert.Equal(t, "ak", cfg.Profiles.Default)
		assert.Equal(t, 0.0, cfg.Humanizer.SkipChance)
		assert.Equal(t, 45*time.Millisecond, cfg.Humanizer.ActivationDelayMax)
		assert.Equal(t, 25*time.Millisecond, cfg.Loop.IdlePoll)
		// Untouched keys keep their defaults.
		assert.Equal(t, 0.2, cfg.Humanizer.TimingVariation)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("humanizer.level", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "level must be between 1 and 5")
	})
}

func TestNewViper(t *testing.T) {
	t.Run("Environment Variable Override", func(t *testing.T) {
		t.Setenv("STEADYAIM_LOGGER_LEVEL", "warn")
		t.Setenv("STEADYAIM_HUMANIZER_SKIP_CHANCE", "0.1")

		v, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
		// An explicit file that does not exist is an error, not a silent fallback.
		require.Error(t, err)
		assert.Nil(t, v)

		v, err = NewViper("")
		require.NoError(t, err)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logger.Level)
		assert.Equal(t, 0.1, cfg.Humanizer.SkipChance)
	})

	t.Run("Explicit Config File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "steadyaim.yaml")
		require.NoError(t, os.WriteFile(path, []byte("loop:\n  join_timeout: 2s\n"), 0o600))

		v, err := NewViper(path)
		require.NoError(t, err)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Loop.JoinTimeout)
	})
}
