// File: internal/compensation/controller.go
package compensation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/steadyaim/internal/input"
	"github.com/xkilldash9x/steadyaim/internal/movement"
	"github.com/xkilldash9x/steadyaim/internal/profile"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidMovementMethod = errors.New("invalid movement method")
	ErrInvalidControlMode    = errors.New("invalid control mode")
	// ErrTickPanic wraps a panic recovered at the loop boundary.
	ErrTickPanic = errors.New("panic during compensation tick")
	// ErrStopTimeout is returned by Stop when the loop outlives the join timeout.
	ErrStopTimeout = errors.New("compensation loop did not stop in time")
)

// Humanizer supplies the loop's randomized timing decisions.
type Humanizer interface {
	ActivationDelay() time.Duration
	ShouldSkipCompensation() bool
	AdaptiveTiming(base time.Duration, shots int) time.Duration
	HumanizeDelay(d time.Duration) time.Duration
	RecoveryPause() time.Duration
	ToggleDebounce() time.Duration
	SetLevel(level int) error
}

// Mover applies a displacement to the cursor.
type Mover interface {
	Move(ctx context.Context, dx, dy float64, method profile.MovementMethod, avoidance bool) error
}

// Controller runs the compensation loop. One loop runs at a time.
//
// The profile is an immutable snapshot behind an atomic pointer. Setters and
// Reconfigure publish a new snapshot; the loop loads it once per tick, so
// every change takes effect on the next tick.
type Controller struct {
	logger    *zap.Logger
	opts      Options
	humanizer Humanizer
	mover     Mover
	sleeper   movement.Sleeper
	source    input.Source

	state   input.State
	tracker *input.Tracker
	profile atomic.Pointer[profile.Profile]
	running atomic.Bool
	gen     atomic.Uint64
	session atomic.Pointer[string]

	// mu serializes Start, Stop and Reconfigure. It is never taken by the loop
	// or the event dispatcher.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// loop goroutine only
	errLimiter *rate.Limiter
	suppressed int
}

// New builds a stopped controller. A nil sleeper uses movement.TimerSleeper.
func New(logger *zap.Logger, opts Options, humanizer Humanizer, mover Mover, sleeper movement.Sleeper, source input.Source) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sleeper == nil {
		sleeper = movement.TimerSleeper{}
	}
	c := &Controller{
		logger:     logger.Named("compensation"),
		opts:       opts,
		humanizer:  humanizer,
		mover:      mover,
		sleeper:    sleeper,
		source:     source,
		errLimiter: rate.NewLimiter(rate.Limit(opts.ErrorLogRate), opts.ErrorLogBurst),
	}
	c.tracker = input.NewTracker(&c.state, humanizer.ToggleDebounce, c.logger)
	c.profile.Store(profile.Default())
	return c
}

// -- Lifecycle --

// Start validates p, binds the toggle key, subscribes to input events and
// spawns the loop. The active flag starts as !p.RequireToggle. Calling Start
// while running is a no-op; use Reconfigure to change settings. A session
// whose parent context ended is released and replaced.
func (c *Controller) Start(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return fmt.Errorf("compensation: start: %w: nil profile", profile.ErrInvalidProfile)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("compensation: start: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		select {
		case <-c.done:
			// The loop ended with its parent context; the subscription is still open.
			c.logger.Debug("Releasing session ended by its context.")
			c.release()
		default:
			c.logger.Debug("Start called while running, ignoring.")
			return nil
		}
	}

	code, err := c.resolveKey(p.ToggleKey)
	if err != nil {
		return fmt.Errorf("compensation: start: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	events, err := c.source.Events(loopCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("compensation: subscribe to input events: %w", err)
	}

	snapshot := p.Clone()
	c.profile.Store(snapshot)
	c.state.Reset(!snapshot.RequireToggle)
	c.tracker.SetToggleKey(code)

	id := uuid.NewString()
	c.session.Store(&id)
	gen := c.gen.Add(1)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.running.Store(true)

	logger := c.logger.With(zap.String("session_id", id))
	go c.tracker.Run(loopCtx, events)
	go c.loop(loopCtx, logger, gen, done)

	logger.Info("Compensation started.",
		zap.String("profile", snapshot.Name),
		zap.String("control_mode", string(snapshot.ControlMode)),
		zap.String("movement_method", string(snapshot.MovementMethod)),
		zap.Bool("active", c.state.IsActive()),
		zap.String("toggle_key", snapshot.ToggleKey),
	)
	for _, w := range snapshot.Warnings() {
		logger.Warn("Profile warning.", zap.String("warning", w))
	}
	return nil
}

// Stop halts the loop, unsubscribes from input and waits up to the join
// timeout for the loop to exit. It is idempotent and never waits on the
// event dispatcher, so it is safe to call from an input callback.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return nil
	}
	done := c.release()

	timer := time.NewTimer(c.opts.JoinTimeout)
	defer timer.Stop()
	select {
	case <-done:
		c.logger.Info("Compensation stopped.")
		return nil
	case <-timer.C:
		c.logger.Warn("Compensation loop did not exit within the join timeout.",
			zap.Duration("timeout", c.opts.JoinTimeout))
		return ErrStopTimeout
	}
}

// release cancels the current session, unsubscribes from input and returns
// the loop's done channel. Caller holds mu and c.cancel is set.
func (c *Controller) release() chan struct{} {
	c.running.Store(false)
	c.state.SetActive(false)
	c.tracker.ClearToggleKey()
	c.cancel()
	if err := c.source.Close(); err != nil {
		c.logger.Warn("Failed to close input source.", zap.Error(err))
	}
	done := c.done
	c.cancel, c.done = nil, nil
	return done
}

// Reconfigure replaces the profile snapshot. Every field takes effect on the
// next tick, the toggle key on the next key event. RequireToggle only seeds
// the active flag at Start.
func (c *Controller) Reconfigure(p *profile.Profile) error {
	if p == nil {
		return fmt.Errorf("compensation: reconfigure: %w: nil profile", profile.ErrInvalidProfile)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("compensation: reconfigure: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		code, err := c.resolveKey(p.ToggleKey)
		if err != nil {
			return fmt.Errorf("compensation: reconfigure: %w", err)
		}
		c.tracker.SetToggleKey(code)
	}
	c.profile.Store(p.Clone())
	c.logger.Info("Profile reconfigured.", zap.String("profile", p.Name))
	return nil
}

func (c *Controller) resolveKey(name string) (uint16, error) {
	code, err := c.source.KeyCode(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return 0, fmt.Errorf("toggle key %q: %w", name, err)
	}
	return code, nil
}

// -- Setters --

// update publishes a modified copy of the current snapshot.
func (c *Controller) update(mutate func(*profile.Profile)) *profile.Profile {
	for {
		old := c.profile.Load()
		next := old.Clone()
		mutate(next)
		if c.profile.CompareAndSwap(old, next) {
			return next
		}
	}
}

// SetMovementMethod changes the movement method. An unknown method is
// rejected and the current one kept.
func (c *Controller) SetMovementMethod(m profile.MovementMethod) error {
	m = profile.MovementMethod(strings.ToLower(string(m)))
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMovementMethod, m)
	}
	c.update(func(p *profile.Profile) { p.MovementMethod = m })
	c.logger.Info("Movement method changed.", zap.String("movement_method", string(m)))
	return nil
}

// SetControlMode changes the control mode. An unknown mode is rejected and
// the current one kept.
func (c *Controller) SetControlMode(m profile.ControlMode) error {
	m = profile.ControlMode(strings.ToLower(string(m)))
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidControlMode, m)
	}
	c.update(func(p *profile.Profile) { p.ControlMode = m })
	c.logger.Info("Control mode changed.", zap.String("control_mode", string(m)))
	return nil
}

// ToggleDetectionAvoidance flips detection avoidance and returns the new value.
func (c *Controller) ToggleDetectionAvoidance() bool {
	next := c.update(func(p *profile.Profile) { p.DetectionAvoidance = !p.DetectionAvoidance })
	c.logger.Info("Detection avoidance toggled.", zap.Bool("enabled", next.DetectionAvoidance))
	return next.DetectionAvoidance
}

// SetHumanizationLevel changes the humanization level (1-5). It takes effect
// on the next draw.
func (c *Controller) SetHumanizationLevel(level int) error {
	if err := c.humanizer.SetLevel(level); err != nil {
		return fmt.Errorf("compensation: %w", err)
	}
	c.logger.Info("Humanization level changed.", zap.Int("level", level))
	return nil
}

// Toggle flips the active flag as the toggle key does, and returns the new value.
func (c *Controller) Toggle() bool {
	active := c.state.Toggle(c.humanizer.ToggleDebounce())
	c.logger.Info("Compensation toggled.", zap.Bool("active", active))
	return active
}

// -- Accessors --

func (c *Controller) Running() bool { return c.running.Load() }

func (c *Controller) IsActive() bool { return c.state.IsActive() }

func (c *Controller) ConsecutiveShots() int { return c.state.ConsecutiveShots() }

// Profile returns a copy of the current snapshot.
func (c *Controller) Profile() *profile.Profile { return c.profile.Load().Clone() }

// Status is a point-in-time view of the controller.
type Status struct {
	SessionID          string
	Running            bool
	Active             bool
	ConsecutiveShots   int
	Mouse1Down         bool
	Mouse2Down         bool
	Profile            string
	ControlMode        profile.ControlMode
	MovementMethod     profile.MovementMethod
	DetectionAvoidance bool
}

func (c *Controller) Status() Status {
	p := c.profile.Load()
	s := Status{
		Running:            c.running.Load(),
		Active:             c.state.IsActive(),
		ConsecutiveShots:   c.state.ConsecutiveShots(),
		Mouse1Down:         c.state.Mouse1Down(),
		Mouse2Down:         c.state.Mouse2Down(),
		Profile:            p.Name,
		ControlMode:        p.ControlMode,
		MovementMethod:     p.MovementMethod,
		DetectionAvoidance: p.DetectionAvoidance,
	}
	if id := c.session.Load(); id != nil {
		s.SessionID = *id
	}
	return s
}
