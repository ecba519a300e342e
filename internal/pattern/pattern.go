// Package pattern steps through a recoil pattern one shot at a time.
package pattern

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/steadyaim/internal/profile"
)

var (
	// ErrEmptyPattern means no displacement is available. Callers back off and retry.
	ErrEmptyPattern = errors.New("pattern is empty")
	// ErrMalformedStep means the selected step lacks dx or dy. Callers skip the
	// tick without advancing.
	ErrMalformedStep = errors.New("pattern step is malformed")
)

// Displacement is the recoil to counter for one shot.
type Displacement struct {
	DX, DY int
	Delay  time.Duration
}

// Index returns the pattern index for a shot count: min(count, length-1).
// The sequence clamps at its last entry. Negative counts map to 0.
func Index(length, count int) int {
	if count < 0 {
		count = 0
	}
	if count > length-1 {
		return length - 1
	}
	return count
}

// Step returns the displacement for the given consecutive-shot count.
func Step(steps []profile.Step, count int) (Displacement, error) {
	if len(steps) == 0 {
		return Displacement{}, ErrEmptyPattern
	}
	i := Index(len(steps), count)
	s := steps[i]
	if !s.Complete() {
		return Displacement{}, fmt.Errorf("%w: index %d", ErrMalformedStep, i)
	}
	return Displacement{DX: *s.DX, DY: *s.DY, Delay: s.DelayDuration()}, nil
}
