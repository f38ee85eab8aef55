// Package interrupt names the five interrupt sources and their registers.
package interrupt

import "fmt"

// Register addresses.
const (
	FlagAddr   = 0xFF0F // IF: pending requests
	EnableAddr = 0xFFFF // IE: enabled sources
)

// Mask covers the five source bits of IF and IE.
const Mask = 0x1F

// Source identifies one interrupt line. The value is its bit position in IF
// and IE, which is also its priority (lower wins).
type Source uint8

// Interrupt sources in priority order.
const (
	VBlank Source = iota
	STAT
	Timer
	Serial
	Joypad
)

// Bit returns the IF/IE mask of the source.
func (s Source) Bit() uint8 {
	return 1 << s
}

// Vector returns the address the CPU jumps to when servicing the source.
func (s Source) Vector() uint16 {
	return 0x0040 + 8*uint16(s)
}

func (s Source) String() string {
	switch s {
	case VBlank:
		return "VBlank"
	case STAT:
		return "STAT"
	case Timer:
		return "Timer"
	case Serial:
		return "Serial"
	case Joypad:
		return "Joypad"
	}
	return fmt.Sprintf("Source(%d)", uint8(s))
}

// Highest returns the highest priority source set in both flags and enable.
// ok is false when nothing is pending.
func Highest(flags, enable uint8) (s Source, ok bool) {
	pending := flags & enable & Mask
	if pending == 0 {
		return 0, false
	}
	for s = VBlank; s <= Joypad; s++ {
		if pending&s.Bit() != 0 {
			break
		}
	}
	return s, true
}
