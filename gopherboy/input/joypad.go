// Package input implements the host-agnostic button-state side of
// sink.InputSource: backends report Press/Release events as they observe
// keyboard or controller activity, and the bus polls PollInput once per
// joypad register read to resolve the currently selected group(s).
package input

import "github.com/gopherboy/gopherboy/sink"

// Button identifies one of the eight DMG joypad buttons.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// direction/action bit positions within the joypad register's low nibble,
// per the Game Boy programmer's manual.
const (
	bitRight = 0
	bitLeft  = 1
	bitUp    = 2
	bitDown  = 3

	bitA      = 0
	bitB      = 1
	bitSelect = 2
	bitStart  = 3
)

// Joypad tracks which buttons are currently held, independent of which
// group the CPU has selected; PollInput resolves the selection on demand.
type Joypad struct {
	direction uint8 // bit set = pressed
	action    uint8 // bit set = pressed
}

var _ sink.InputSource = (*Joypad)(nil)

// New returns a Joypad with no buttons held.
func New() *Joypad {
	return &Joypad{}
}

// Press marks b as held, until a matching Release.
func (j *Joypad) Press(b Button) { j.setPressed(b, true) }

// Release marks b as no longer held.
func (j *Joypad) Release(b Button) { j.setPressed(b, false) }

func (j *Joypad) setPressed(b Button, pressed bool) {
	group, bitPos := j.locate(b)
	if group == nil {
		return
	}
	if pressed {
		*group |= 1 << bitPos
	} else {
		*group &^= 1 << bitPos
	}
}

func (j *Joypad) locate(b Button) (*uint8, uint8) {
	switch b {
	case ButtonRight:
		return &j.direction, bitRight
	case ButtonLeft:
		return &j.direction, bitLeft
	case ButtonUp:
		return &j.direction, bitUp
	case ButtonDown:
		return &j.direction, bitDown
	case ButtonA:
		return &j.action, bitA
	case ButtonB:
		return &j.action, bitB
	case ButtonSelect:
		return &j.action, bitSelect
	case ButtonStart:
		return &j.action, bitStart
	default:
		return nil, 0
	}
}

// PollInput implements sink.InputSource. reg carries the group-select
// bits the CPU last wrote to P1 (bit 4: direction group, bit 5: action
// group, active-low); the returned value clears the low-nibble bit for
// every held button in a selected group and sets every other low bit,
// matching the joypad's active-low wiring.
func (j *Joypad) PollInput(reg uint8) uint8 {
	low := uint8(0x0F)
	if reg&0x10 == 0 {
		low &^= j.direction
	}
	if reg&0x20 == 0 {
		low &^= j.action
	}
	return (reg &^ 0x0F) | low
}
