// Package input tracks pointer-button and toggle-key state fed by a global
// input event source.
package input

import (
	"context"
	"errors"
)

// ErrUnknownKey is returned when a key name has no keycode on this platform.
var ErrUnknownKey = errors.New("unknown key")

// Button identifies a pointer button.
type Button uint8

const (
	ButtonOther Button = iota
	ButtonLeft
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	}
	return "other"
}

// EventKind is the kind of an input event. Pointer motion is never delivered.
type EventKind uint8

const (
	ButtonDown EventKind = iota + 1
	ButtonUp
	KeyDown
	KeyUp
)

// Event is one button or key transition.
type Event struct {
	Kind   EventKind
	Button Button
	Key    uint16
}

// Source is a global input event stream.
type Source interface {
	// Events subscribes to button and key events. The channel is closed when
	// ctx ends or the source is closed.
	Events(ctx context.Context) (<-chan Event, error)
	// KeyCode resolves a key name (e.g. "capslock", "f6") to the code carried
	// in Event.Key.
	KeyCode(name string) (uint16, error)
	// Close unsubscribes. It is safe to call more than once.
	Close() error
}
