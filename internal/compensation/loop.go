// File: internal/compensation/loop.go
package compensation

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/xkilldash9x/steadyaim/internal/pattern"
	"github.com/xkilldash9x/steadyaim/internal/profile"
	"go.uber.org/zap"
)

// skipPausePerRateUnit is the pause per delay_rate unit when a skip draw fires.
const skipPausePerRateUnit = 10 * time.Millisecond

// loop runs ticks until ctx is done. A failed tick is logged and followed by
// ErrorBackoff; it never ends the loop.
func (c *Controller) loop(ctx context.Context, logger *zap.Logger, gen uint64, done chan struct{}) {
	defer close(done)
	defer func() {
		// A parent context cancellation ends the loop without Stop.
		if c.gen.Load() == gen {
			c.running.Store(false)
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if d := c.state.TakeDebounce(); d > 0 {
			if err := c.sleeper.Sleep(ctx, d); err != nil {
				return
			}
			continue
		}

		if err := c.safeTick(ctx, logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logTickError(logger, err)
			if err := c.sleeper.Sleep(ctx, c.opts.ErrorBackoff); err != nil {
				return
			}
		}
	}
}

// safeTick runs one tick and converts a panic into an error.
func (c *Controller) safeTick(ctx context.Context, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, r)
			logger.Debug("Recovered tick panic.", zap.ByteString("stack", debug.Stack()))
		}
	}()
	return c.tick(ctx, logger)
}

// tick is one iteration of the state machine. Errors from a cancelled
// sleep are returned as is; the loop exits on them.
func (c *Controller) tick(ctx context.Context, logger *zap.Logger) error {
	p := c.profile.Load()
	firing := p.ControlMode.Firing(c.state.Mouse1Down(), c.state.Mouse2Down())

	if !c.state.IsActive() || !firing {
		if shots := c.state.ResetShots(); shots > 0 {
			logger.Debug("Burst ended.", zap.Int("shots", shots))
			return c.sleeper.Sleep(ctx, c.humanizer.RecoveryPause())
		}
		return c.sleeper.Sleep(ctx, c.opts.IdlePoll)
	}

	shots := c.state.ConsecutiveShots()
	if shots == 0 {
		if err := c.sleeper.Sleep(ctx, c.humanizer.ActivationDelay()); err != nil {
			return err
		}
	}

	if p.DetectionAvoidance && c.humanizer.ShouldSkipCompensation() {
		return c.sleeper.Sleep(ctx, time.Duration(p.DelayRate)*skipPausePerRateUnit)
	}

	d, err := pattern.Step(p.Pattern, shots)
	switch {
	case errors.Is(err, pattern.ErrEmptyPattern):
		return c.sleeper.Sleep(ctx, c.opts.EmptyPatternBackoff)
	case errors.Is(err, pattern.ErrMalformedStep):
		logger.Debug("Skipping malformed pattern step.", zap.Int("shot", shots), zap.Error(err))
		return c.sleeper.Sleep(ctx, c.opts.MalformedStepBackoff)
	case err != nil:
		return err
	}

	dx, dy := Compensate(d, p)
	if err := c.mover.Move(ctx, dx, dy, p.MovementMethod, p.DetectionAvoidance); err != nil {
		return fmt.Errorf("compensation: move: %w", err)
	}

	if err := c.sleeper.Sleep(ctx, c.tickDelay(p, d, shots)); err != nil {
		return err
	}
	c.state.IncrementShots()
	return nil
}

// Compensate turns a pattern displacement into the corrective cursor offset:
// (dx, -dy * recoil_strength * sensitivity).
func Compensate(d pattern.Displacement, p *profile.Profile) (float64, float64) {
	return float64(d.DX), -float64(d.DY) * p.RecoilStrength * p.Sensitivity
}

// tickDelay is the pause after a correction: the step delay plus
// delay_rate/100 ms, stretched by fatigue and humanized when avoidance is on.
func (c *Controller) tickDelay(p *profile.Profile, d pattern.Displacement, shots int) time.Duration {
	base := d.Delay + p.DelayRateDuration()/100
	if !p.DetectionAvoidance {
		return base
	}
	return c.humanizer.HumanizeDelay(c.humanizer.AdaptiveTiming(base, shots))
}

// logTickError logs a tick failure, at most ErrorLogRate lines per second.
// Dropped lines are counted and reported with the next one.
func (c *Controller) logTickError(logger *zap.Logger, err error) {
	if !c.errLimiter.Allow() {
		c.suppressed++
		return
	}
	fields := []zap.Field{zap.Error(err)}
	if c.suppressed > 0 {
		fields = append(fields, zap.Int("suppressed", c.suppressed))
		c.suppressed = 0
	}
	logger.Error("Compensation tick failed.", fields...)
}
