// File: internal/config/humanizer_config.go
// HumanizerConfig holds the tunable parameters of the movement humanizer: how
// much the magnitude and timing of each correction is perturbed, how often a
// correction is skipped, and the shape of the curved trajectories. Loaded by
// Viper so the statistical "personality" can be tuned without code changes.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// HumanizerConfig mirrors humanoid.Config in file-friendly form.
type HumanizerConfig struct {
	// Level scales the variation and skip parameters, 1 (subtle) to 5 (heavy). 3 is neutral.
	Level             int     `mapstructure:"level" yaml:"level"`
	TimingVariation   float64 `mapstructure:"timing_variation" yaml:"timing_variation"`
	MovementVariation float64 `mapstructure:"movement_variation" yaml:"movement_variation"`
	MicroPauseChance  float64 `mapstructure:"micro_pause_chance" yaml:"micro_pause_chance"`
	SkipChance        float64 `mapstructure:"skip_chance" yaml:"skip_chance"`

	MicroPauseMin      time.Duration `mapstructure:"micro_pause_min" yaml:"micro_pause_min"`
	MicroPauseMax      time.Duration `mapstructure:"micro_pause_max" yaml:"micro_pause_max"`
	ActivationDelayMin time.Duration `mapstructure:"activation_delay_min" yaml:"activation_delay_min"`
	ActivationDelayMax time.Duration `mapstructure:"activation_delay_max" yaml:"activation_delay_max"`
	RecoveryPauseMin   time.Duration `mapstructure:"recovery_pause_min" yaml:"recovery_pause_min"`
	RecoveryPauseMax   time.Duration `mapstructure:"recovery_pause_max" yaml:"recovery_pause_max"`
	ToggleDebounceMin  time.Duration `mapstructure:"toggle_debounce_min" yaml:"toggle_debounce_min"`
	ToggleDebounceMax  time.Duration `mapstructure:"toggle_debounce_max" yaml:"toggle_debounce_max"`
	MinDelay           time.Duration `mapstructure:"min_delay" yaml:"min_delay"`

	BezierPoints     int  `mapstructure:"bezier_points" yaml:"bezier_points"`
	AdvancedMovement bool `mapstructure:"advanced_movement" yaml:"advanced_movement"`
	VariableTiming   bool `mapstructure:"variable_timing" yaml:"variable_timing"`
	SmartActivation  bool `mapstructure:"smart_activation" yaml:"smart_activation"`
}

func setHumanizerDefaults(v *viper.Viper) {
	v.SetDefault("humanizer.level", 3)
	v.SetDefault("humanizer.timing_variation", 0.2)
	v.SetDefault("humanizer.movement_variation", 0.15)
	v.SetDefault("humanizer.micro_pause_chance", 0.05)
	v.SetDefault("humanizer.skip_chance", 0.03)
	v.SetDefault("humanizer.micro_pause_min", 5*time.Millisecond)
	v.SetDefault("humanizer.micro_pause_max", 20*time.Millisecond)
	v.SetDefault("humanizer.activation_delay_min", 10*time.Millisecond)
	v.SetDefault("humanizer.activation_delay_max", 30*time.Millisecond)
	v.SetDefault("humanizer.recovery_pause_min", 50*time.Millisecond)
	v.SetDefault("humanizer.recovery_pause_max", 150*time.Millisecond)
	v.SetDefault("humanizer.toggle_debounce_min", 50*time.Millisecond)
	v.SetDefault("humanizer.toggle_debounce_max", 200*time.Millisecond)
	v.SetDefault("humanizer.min_delay", time.Millisecond)
	v.SetDefault("humanizer.bezier_points", 3)
	v.SetDefault("humanizer.advanced_movement", true)
	v.SetDefault("humanizer.variable_timing", true)
	v.SetDefault("humanizer.smart_activation", true)
}

// Validate checks probability and range settings.
func (h *HumanizerConfig) Validate() error {
	if h.Level < 1 || h.Level > 5 {
		return fmt.Errorf("level must be between 1 and 5, got %d", h.Level)
	}
	for name, p := range map[string]float64{
		"timing_variation":   h.TimingVariation,
		"movement_variation": h.MovementVariation,
		"micro_pause_chance": h.MicroPauseChance,
		"skip_chance":        h.SkipChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %v", name, p)
		}
	}
	ranges := []struct {
		name     string
		min, max time.Duration
	}{
		{"micro_pause", h.MicroPauseMin, h.MicroPauseMax},
		{"activation_delay", h.ActivationDelayMin, h.ActivationDelayMax},
		{"recovery_pause", h.RecoveryPauseMin, h.RecoveryPauseMax},
		{"toggle_debounce", h.ToggleDebounceMin, h.ToggleDebounceMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			return fmt.Errorf("%s range is invalid: min=%s max=%s", r.name, r.min, r.max)
		}
	}
	if h.MinDelay <= 0 {
		return fmt.Errorf("min_delay must be a positive duration")
	}
	if h.BezierPoints < 2 {
		return fmt.Errorf("bezier_points must be at least 2, got %d", h.BezierPoints)
	}
	return nil
}
