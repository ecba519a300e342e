package humanoid

import (
	"math"
	"time"
)

// Fatigue model: each consecutive shot stretches the delay by 0.5%, capped at 10%.
const (
	fatiguePerShot = 0.005
	fatigueCap     = 0.1
)

// HumanizeDelay scales d by U(1-tv, 1+tv), occasionally adds a micro-pause,
// and floors the result at MinDelay. With variable timing disabled d is
// returned unchanged.
func (h *Humanoid) HumanizeDelay(d time.Duration) time.Duration {
	cfg := h.config()
	if !cfg.VariableTiming {
		return d
	}

	out := time.Duration(float64(d) * uniform(1-cfg.TimingVariation, 1+cfg.TimingVariation))
	if chance(cfg.MicroPauseChance) {
		out += uniformDuration(cfg.MicroPauseMin, cfg.MicroPauseMax)
	}
	if out < cfg.MinDelay {
		out = cfg.MinDelay
	}
	return out
}

// ActivationDelay is the reaction lag before the first correction of a burst.
func (h *Humanoid) ActivationDelay() time.Duration {
	cfg := h.config()
	if !cfg.SmartActivation {
		return 0
	}
	return uniformDuration(cfg.ActivationDelayMin, cfg.ActivationDelayMax)
}

// AdaptiveTiming stretches base as a burst goes on: base * (1 + min(shots*0.005, 0.1)).
func (h *Humanoid) AdaptiveTiming(base time.Duration, shots int) time.Duration {
	if shots <= 0 {
		return base
	}
	fatigue := float64(shots) * fatiguePerShot
	if fatigue > fatigueCap {
		fatigue = fatigueCap
	}
	return time.Duration(math.Round(float64(base) * (1 + fatigue)))
}

// RecoveryPause is the rest taken after a burst ends.
func (h *Humanoid) RecoveryPause() time.Duration {
	cfg := h.config()
	return uniformDuration(cfg.RecoveryPauseMin, cfg.RecoveryPauseMax)
}

// ToggleDebounce is the pause served after the toggle key flips the active state.
func (h *Humanoid) ToggleDebounce() time.Duration {
	cfg := h.config()
	return uniformDuration(cfg.ToggleDebounceMin, cfg.ToggleDebounceMax)
}
