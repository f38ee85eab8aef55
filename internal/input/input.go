// Package input implements the joypad and its P1/JOYP register.
package input

import (
	"fmt"
	"strings"

	"github.com/richardwooding/dmgcore/internal/interrupt"
)

// Button is one of the eight joypad buttons. The low nibble is the P1 bit the
// button pulls low, the high nibble the select line it answers on.
type Button uint8

const (
	ButtonRight  Button = 0x10 | 0x01
	ButtonLeft   Button = 0x10 | 0x02
	ButtonUp     Button = 0x10 | 0x04
	ButtonDown   Button = 0x10 | 0x08
	ButtonA      Button = 0x20 | 0x01
	ButtonB      Button = 0x20 | 0x02
	ButtonSelect Button = 0x20 | 0x04
	ButtonStart  Button = 0x20 | 0x08
)

// Buttons lists every button.
var Buttons = []Button{ButtonRight, ButtonLeft, ButtonUp, ButtonDown, ButtonA, ButtonB, ButtonSelect, ButtonStart}

var buttonNames = map[Button]string{
	ButtonRight:  "Right",
	ButtonLeft:   "Left",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Button(0x%02X)", uint8(b))
}

// ParseButton returns the button with the given name, ignoring case.
func ParseButton(name string) (Button, error) {
	for b, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

func (b Button) opposite() Button {
	switch b {
	case ButtonRight:
		return ButtonLeft
	case ButtonLeft:
		return ButtonRight
	case ButtonUp:
		return ButtonDown
	case ButtonDown:
		return ButtonUp
	}
	return 0
}

// Joypad represents the joypad state and the P1/JOYP register.
type Joypad struct {
	// Select lines as last written, active low (bit 5 action, bit 4 direction)
	selectBits uint8

	// Pressed buttons, one bit per line: low nibble directions, high nibble actions
	pressed uint8

	requestInterrupt func(interrupt.Source)
}

// New creates a joypad with no line selected. requestInterrupt may be nil.
func New(requestInterrupt func(interrupt.Source)) *Joypad {
	return &Joypad{
		selectBits:       0x30,
		requestInterrupt: requestInterrupt,
	}
}

// stateBit returns the bit of b in the pressed set.
func stateBit(b Button) uint8 {
	if b&0x20 != 0 {
		return uint8(b&0x0F) << 4
	}
	return uint8(b & 0x0F)
}

// Read returns the P1/JOYP register value (0xFF00).
func (j *Joypad) Read() uint8 {
	result := 0xC0 | j.selectBits
	lines := uint8(0x0F)

	if j.selectBits&0x20 == 0 {
		lines &^= j.pressed >> 4
	}
	if j.selectBits&0x10 == 0 {
		lines &^= j.pressed & 0x0F
	}

	return result | lines
}

// Write updates the P1/JOYP register (only bits 4-5 are writable).
func (j *Joypad) Write(value uint8) {
	j.selectBits = value & 0x30
}

// Press marks b as held and requests the joypad interrupt when it was not
// held before. A direction is ignored while its opposite is held.
func (j *Joypad) Press(b Button) {
	if opp := b.opposite(); opp != 0 && j.IsPressed(opp) {
		return
	}
	bit := stateBit(b)
	if j.pressed&bit != 0 {
		return
	}
	j.pressed |= bit
	if j.requestInterrupt != nil {
		j.requestInterrupt(interrupt.Joypad)
	}
}

// Release marks b as no longer held.
func (j *Joypad) Release(b Button) {
	j.pressed &^= stateBit(b)
}

// IsPressed reports whether b is held.
func (j *Joypad) IsPressed(b Button) bool {
	return j.pressed&stateBit(b) != 0
}
