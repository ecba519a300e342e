package humanoid

// HumanizeMovement perturbs a corrective displacement. With probability
// SkipChance the correction is dropped entirely and (0, 0) is returned, as a
// person occasionally misses one. Otherwise each axis is scaled independently
// by 1 + U(-v, v).
func (h *Humanoid) HumanizeMovement(dx, dy float64) (float64, float64) {
	cfg := h.config()
	if chance(cfg.SkipChance) {
		return 0, 0
	}
	v := cfg.MovementVariation
	return dx * (1 + uniform(-v, v)), dy * (1 + uniform(-v, v))
}

// ShouldSkipCompensation is a Bernoulli draw at SkipChance.
func (h *Humanoid) ShouldSkipCompensation() bool {
	return chance(h.config().SkipChance)
}
