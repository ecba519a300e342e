// -- internal/humanoid/humanoid.go --
package humanoid

import (
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/steadyaim/internal/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

// neutralLevel is the humanization level at which the base config applies unscaled.
const neutralLevel = 3

// Config holds the statistical parameters of the humanizer.
type Config struct {
	Level             int
	TimingVariation   float64 // fraction, delay scale is drawn from [1-v, 1+v]
	MovementVariation float64 // fraction, each axis scale is drawn from [1-v, 1+v]
	MicroPauseChance  float64
	SkipChance        float64

	MicroPauseMin, MicroPauseMax           time.Duration
	ActivationDelayMin, ActivationDelayMax time.Duration
	RecoveryPauseMin, RecoveryPauseMax     time.Duration
	ToggleDebounceMin, ToggleDebounceMax   time.Duration
	// MinDelay floors every humanized delay.
	MinDelay time.Duration

	// BezierPoints is the number of control points, endpoints included.
	BezierPoints     int
	AdvancedMovement bool
	VariableTiming   bool
	SmartActivation  bool
}

// DefaultConfig returns the stock humanization parameters.
func DefaultConfig() Config {
	return Config{
		Level:              neutralLevel,
		TimingVariation:    0.2,
		MovementVariation:  0.15,
		MicroPauseChance:   0.05,
		SkipChance:         0.03,
		MicroPauseMin:      5 * time.Millisecond,
		MicroPauseMax:      20 * time.Millisecond,
		ActivationDelayMin: 10 * time.Millisecond,
		ActivationDelayMax: 30 * time.Millisecond,
		RecoveryPauseMin:   50 * time.Millisecond,
		RecoveryPauseMax:   150 * time.Millisecond,
		ToggleDebounceMin:  50 * time.Millisecond,
		ToggleDebounceMax:  200 * time.Millisecond,
		MinDelay:           time.Millisecond,
		BezierPoints:       3,
		AdvancedMovement:   true,
		VariableTiming:     true,
		SmartActivation:    true,
	}
}

// ConfigFromSettings converts the file configuration into a Config.
func ConfigFromSettings(s config.HumanizerConfig) Config {
	return Config{
		Level:              s.Level,
		TimingVariation:    s.TimingVariation,
		MovementVariation:  s.MovementVariation,
		MicroPauseChance:   s.MicroPauseChance,
		SkipChance:         s.SkipChance,
		MicroPauseMin:      s.MicroPauseMin,
		MicroPauseMax:      s.MicroPauseMax,
		ActivationDelayMin: s.ActivationDelayMin,
		ActivationDelayMax: s.ActivationDelayMax,
		RecoveryPauseMin:   s.RecoveryPauseMin,
		RecoveryPauseMax:   s.RecoveryPauseMax,
		ToggleDebounceMin:  s.ToggleDebounceMin,
		ToggleDebounceMax:  s.ToggleDebounceMax,
		MinDelay:           s.MinDelay,
		BezierPoints:       s.BezierPoints,
		AdvancedMovement:   s.AdvancedMovement,
		VariableTiming:     s.VariableTiming,
		SmartActivation:    s.SmartActivation,
	}
}

// Humanoid perturbs corrective movements and their timing.
// It is safe for concurrent use.
type Humanoid struct {
	// Base configuration, as supplied.
	baseConfig Config
	// Dynamic configuration, the base scaled by the current level.
	dynamicConfig Config

	logger *zap.Logger
	mu     sync.Mutex
}

// New creates a new Humanoid instance with the given configuration.
func New(cfg Config, logger *zap.Logger) *Humanoid {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Level < 1 || cfg.Level > 5 {
		cfg.Level = neutralLevel
	}
	if cfg.BezierPoints < 2 {
		cfg.BezierPoints = 2
	}
	h := &Humanoid{
		baseConfig: cfg,
		logger:     logger.Named("humanoid"),
	}
	h.applyLevel(cfg.Level)
	return h
}

// Config returns the configuration currently in effect.
func (h *Humanoid) Config() Config {
	return h.config()
}

// SetLevel changes the humanization level (1-5). Variation and skip
// probabilities scale linearly with level/3 and are capped at 1.
func (h *Humanoid) SetLevel(level int) error {
	if level < 1 || level > 5 {
		return fmt.Errorf("humanoid: level must be between 1 and 5, got %d", level)
	}
	h.mu.Lock()
	h.applyLevel(level)
	h.mu.Unlock()
	h.logger.Debug("Humanization level changed.", zap.Int("level", level))
	return nil
}

// applyLevel rebuilds the dynamic config from the base. Caller holds mu
// (or is the constructor).
func (h *Humanoid) applyLevel(level int) {
	factor := float64(level) / neutralLevel
	d := h.baseConfig
	d.Level = level
	d.TimingVariation = capUnit(d.TimingVariation * factor)
	d.MovementVariation = capUnit(d.MovementVariation * factor)
	d.MicroPauseChance = capUnit(d.MicroPauseChance * factor)
	d.SkipChance = capUnit(d.SkipChance * factor)
	h.dynamicConfig = d
}

func (h *Humanoid) config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dynamicConfig
}

func capUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// uniform draws from U(min, max). A degenerate range returns min.
func uniform(min, max float64) float64 {
	if !(max > min) {
		return min
	}
	return distuv.Uniform{Min: min, Max: max}.Rand()
}

// uniformDuration draws a duration from U(min, max).
func uniformDuration(min, max time.Duration) time.Duration {
	return time.Duration(uniform(float64(min), float64(max)))
}

// chance is a Bernoulli draw with success probability p.
func chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return distuv.Bernoulli{P: p}.Rand() == 1
}
