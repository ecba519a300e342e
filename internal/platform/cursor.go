// Package platform binds the input and movement abstractions to the host OS
// through gohook and robotgo.
package platform

import (
	"github.com/go-vgo/robotgo"
)

// Cursor drives the system pointer with robotgo.
type Cursor struct{}

// NewCursor returns a robotgo-backed cursor.
func NewCursor() *Cursor { return &Cursor{} }

func (*Cursor) Position() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

func (*Cursor) SetPosition(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (*Cursor) MoveRelative(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}
