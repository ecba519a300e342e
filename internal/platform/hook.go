package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
	"github.com/xkilldash9x/steadyaim/internal/input"
	"go.uber.org/zap"
)

// ErrAlreadySubscribed is returned when Events is called on an open source.
// The OS hook is process-global, so only one subscription can exist.
var ErrAlreadySubscribed = errors.New("platform: input hook already running")

// keyAliases maps common spellings onto gohook key names.
var keyAliases = map[string]string{
	"caps_lock": "capslock",
	"caps":      "capslock",
	"escape":    "esc",
	"return":    "enter",
}

// uiohookKeycodes covers keys that some gohook releases leave out of
// hook.Keycode. Values are libuiohook virtual codes.
var uiohookKeycodes = map[string]uint16{
	"capslock":   0x003A,
	"numlock":    0x0045,
	"scrolllock": 0x0046,
	"f6":         0x0040,
}

// HookSource delivers global button and key events from gohook.
type HookSource struct {
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewHookSource returns an idle source; the hook starts on Events.
func NewHookSource(logger *zap.Logger) *HookSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HookSource{logger: logger.Named("hook")}
}

// Events starts the OS hook and forwards translated events until ctx is done
// or Close is called.
func (s *HookSource) Events(ctx context.Context) (<-chan input.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadySubscribed
	}

	raw := hook.Start()
	out := make(chan input.Event, 64)
	done := make(chan struct{})
	s.running, s.done = true, done

	go s.pump(ctx, raw, out, done)
	s.logger.Debug("Input hook started.")
	return out, nil
}

func (s *HookSource) pump(ctx context.Context, raw chan hook.Event, out chan<- input.Event, done <-chan struct{}) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			tr, ok := translate(ev)
			if !ok {
				continue
			}
			select {
			case out <- tr:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}
}

// Close stops the OS hook. It is safe to call more than once.
func (s *HookSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	close(s.done)
	hook.End()
	s.running = false
	s.logger.Debug("Input hook stopped.")
	return nil
}

// KeyCode resolves a key name to the gohook keycode carried in events.
func (s *HookSource) KeyCode(name string) (uint16, error) {
	return KeyCode(name)
}

// KeyCode resolves a key name, or one of its aliases, to a gohook keycode.
func KeyCode(name string) (uint16, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if code, ok := hook.Keycode[n]; ok {
		return code, nil
	}
	if alias, ok := keyAliases[n]; ok {
		n = alias
		if code, ok := hook.Keycode[n]; ok {
			return code, nil
		}
	}
	if code, ok := uiohookKeycodes[n]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %q", input.ErrUnknownKey, name)
}

// translate maps a gohook event to an input event. gohook reports a button
// press as MouseHold and its release as MouseDown, followed by a MouseUp
// click on release; both release kinds map to ButtonUp. A held key repeats
// as KeyHold.
func translate(ev hook.Event) (input.Event, bool) {
	switch ev.Kind {
	case hook.MouseHold:
		return input.Event{Kind: input.ButtonDown, Button: button(ev.Button)}, true
	case hook.MouseDown, hook.MouseUp:
		return input.Event{Kind: input.ButtonUp, Button: button(ev.Button)}, true
	case hook.KeyHold:
		return input.Event{Kind: input.KeyDown, Key: ev.Keycode}, true
	case hook.KeyUp:
		return input.Event{Kind: input.KeyUp, Key: ev.Keycode}, true
	}
	return input.Event{}, false
}

func button(b uint16) input.Button {
	switch b {
	case hook.MouseMap["left"]:
		return input.ButtonLeft
	case hook.MouseMap["right"]:
		return input.ButtonRight
	}
	return input.ButtonOther
}
