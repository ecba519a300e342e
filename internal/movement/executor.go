// Package movement delivers corrective displacements to the cursor.
package movement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/steadyaim/internal/humanoid"
	"github.com/xkilldash9x/steadyaim/internal/profile"
	"go.uber.org/zap"
)

// ErrUnknownMethod is returned for a movement method the executor cannot apply.
var ErrUnknownMethod = errors.New("unknown movement method")

// waypointDelay is the base pause between trajectory waypoints, before humanization.
const waypointDelay = time.Millisecond

// Cursor is the low-level pointer control surface.
type Cursor interface {
	Position() (x, y int, err error)
	SetPosition(x, y int) error
	MoveRelative(dx, dy int) error
}

// Sleeper pauses execution. Implementations must return early with ctx.Err()
// when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Humanizer is the subset of the humanizer the executor needs.
type Humanizer interface {
	HumanizeMovement(dx, dy float64) (float64, float64)
	HumanizeDelay(d time.Duration) time.Duration
	NewTrajectory(start, end humanoid.Vector2D, numPoints int) *humanoid.Trajectory
}

// TimerSleeper sleeps on a timer and wakes early on cancellation.
type TimerSleeper struct{}

// Sleep pauses for d or until ctx is done.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Executor converts displacements into cursor calls.
type Executor struct {
	cursor    Cursor
	humanizer Humanizer
	sleeper   Sleeper
	logger    *zap.Logger
}

// NewExecutor wires an executor. A nil sleeper uses TimerSleeper.
func NewExecutor(cursor Cursor, humanizer Humanizer, sleeper Sleeper, logger *zap.Logger) *Executor {
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		cursor:    cursor,
		humanizer: humanizer,
		sleeper:   sleeper,
		logger:    logger.Named("movement"),
	}
}

// Move applies (dx, dy) with the given method. With avoidance off the raw
// displacement is applied as one relative move, with no jitter and no waypoints.
func (e *Executor) Move(ctx context.Context, dx, dy float64, method profile.MovementMethod, avoidance bool) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if !avoidance {
		return e.relative(dx, dy)
	}

	hx, hy := e.humanizer.HumanizeMovement(dx, dy)
	if method == profile.MethodDirect {
		return e.relative(hx, hy)
	}
	return e.curve(ctx, hx, hy, method.Samples())
}

// relative applies one relative move. Fractional pixels are truncated toward
// zero, so 7.5 moves 7 and -2.5 moves -2.
func (e *Executor) relative(dx, dy float64) error {
	ix, iy := int(dx), int(dy)
	if err := e.cursor.MoveRelative(ix, iy); err != nil {
		return fmt.Errorf("movement: relative move (%d, %d): %w", ix, iy, err)
	}
	return nil
}

// curve walks a bezier trajectory from the current position to the target,
// placing the cursor at each waypoint.
func (e *Executor) curve(ctx context.Context, dx, dy float64, samples int) error {
	x, y, err := e.cursor.Position()
	if err != nil {
		return fmt.Errorf("movement: read cursor position: %w", err)
	}
	start := humanoid.Vector2D{X: float64(x), Y: float64(y)}
	end := start.Add(humanoid.Vector2D{X: dx, Y: dy})

	traj := e.humanizer.NewTrajectory(start, end, samples)
	for p, ok := traj.Next(); ok; p, ok = traj.Next() {
		px, py := p.Pixel()
		if err := e.cursor.SetPosition(px, py); err != nil {
			return fmt.Errorf("movement: set position (%d, %d): %w", px, py, err)
		}
		if traj.Remaining() == 0 {
			break
		}
		if err := e.sleeper.Sleep(ctx, e.humanizer.HumanizeDelay(waypointDelay)); err != nil {
			return err
		}
	}
	return nil
}
