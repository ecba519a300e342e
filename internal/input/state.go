package input

import (
	"sync/atomic"
	"time"
)

// State is the runtime state shared by the event dispatcher and the
// compensation loop. Every field is atomic; reads never tear.
type State struct {
	mouse1 atomic.Bool
	mouse2 atomic.Bool
	active atomic.Bool
	shots  atomic.Int64
	// pending toggle debounce, in nanoseconds, served by the loop
	debounce atomic.Int64
}

// Reset clears all state and sets the active flag.
func (s *State) Reset(active bool) {
	s.mouse1.Store(false)
	s.mouse2.Store(false)
	s.active.Store(active)
	s.shots.Store(0)
	s.debounce.Store(0)
}

func (s *State) Mouse1Down() bool { return s.mouse1.Load() }
func (s *State) Mouse2Down() bool { return s.mouse2.Load() }

// SetButton records a button transition. A left-button press resets the
// pattern cursor.
func (s *State) SetButton(b Button, down bool) {
	switch b {
	case ButtonLeft:
		if prev := s.mouse1.Swap(down); down && !prev {
			s.shots.Store(0)
		}
	case ButtonRight:
		s.mouse2.Store(down)
	}
}

func (s *State) IsActive() bool { return s.active.Load() }

func (s *State) SetActive(active bool) { s.active.Store(active) }

// Toggle flips the active flag, resets the shot counter and records a
// debounce pause for the loop. It returns the new active value.
func (s *State) Toggle(debounce time.Duration) bool {
	for {
		old := s.active.Load()
		if s.active.CompareAndSwap(old, !old) {
			s.shots.Store(0)
			s.debounce.Store(int64(debounce))
			return !old
		}
	}
}

// TakeDebounce returns and clears the pending debounce pause.
func (s *State) TakeDebounce() time.Duration {
	return time.Duration(s.debounce.Swap(0))
}

func (s *State) ConsecutiveShots() int { return int(s.shots.Load()) }

// IncrementShots advances the pattern cursor and returns the new count.
func (s *State) IncrementShots() int { return int(s.shots.Add(1)) }

// ResetShots zeroes the counter and returns its previous value.
func (s *State) ResetShots() int { return int(s.shots.Swap(0)) }
