package input

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const noKey = -1

// Tracker applies input events to a State.
type Tracker struct {
	state    *State
	debounce func() time.Duration
	logger   *zap.Logger

	toggleKey  atomic.Int32 // keycode, or noKey
	toggleHeld atomic.Bool
}

// NewTracker returns a tracker writing to state. debounce supplies the pause
// recorded on every toggle; nil means none.
func NewTracker(state *State, debounce func() time.Duration, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce == nil {
		debounce = func() time.Duration { return 0 }
	}
	t := &Tracker{
		state:    state,
		debounce: debounce,
		logger:   logger.Named("input"),
	}
	t.toggleKey.Store(noKey)
	return t
}

// SetToggleKey binds the toggle hotkey. It takes effect on the next key event.
func (t *Tracker) SetToggleKey(code uint16) {
	t.toggleKey.Store(int32(code))
	t.toggleHeld.Store(false)
}

// ClearToggleKey unbinds the toggle hotkey.
func (t *Tracker) ClearToggleKey() {
	t.toggleKey.Store(noKey)
	t.toggleHeld.Store(false)
}

// Handle applies one event. Key auto-repeat is ignored: the toggle key
// fires once per press.
func (t *Tracker) Handle(ev Event) {
	switch ev.Kind {
	case ButtonDown:
		t.state.SetButton(ev.Button, true)
	case ButtonUp:
		t.state.SetButton(ev.Button, false)
	case KeyDown:
		if !t.isToggleKey(ev.Key) || t.toggleHeld.Swap(true) {
			return
		}
		active := t.state.Toggle(t.debounce())
		t.logger.Info("Compensation toggled.", zap.Bool("active", active))
	case KeyUp:
		if t.isToggleKey(ev.Key) {
			t.toggleHeld.Store(false)
		}
	}
}

func (t *Tracker) isToggleKey(code uint16) bool {
	k := t.toggleKey.Load()
	return k != noKey && uint16(k) == code
}

// Run dispatches events until the channel closes or ctx is done.
func (t *Tracker) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				t.logger.Debug("Input event stream closed.")
				return
			}
			t.Handle(ev)
		}
	}
}
