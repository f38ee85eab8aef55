// Package timer implements the DMG timer.
//
// The timer consists of:
//   - DIV: upper byte of a free-running 16-bit divider
//   - TIMA: counter incremented on falling edges of a divider bit
//   - TMA: value reloaded into TIMA after an overflow
//   - TAC: enable bit and divider bit select
//
// The timer is stepped once per dot. An overflow leaves TIMA at zero for four
// steps before TMA is reloaded and the interrupt is requested.
package timer

// InterruptCallback is the function type for timer interrupt requests.
type InterruptCallback func()

// Register addresses.
const (
	DIV  = 0xFF04
	TIMA = 0xFF05
	TMA  = 0xFF06
	TAC  = 0xFF07
)

// TAC register bits.
const (
	tacEnableBit = 0x04
	tacClockMask = 0x03
)

// ReloadDelay is the number of steps between an overflow and the reload.
const ReloadDelay = 4

// selectBits maps the TAC clock select field to the watched divider bit.
var selectBits = [4]uint{9, 3, 5, 7}

// Timer represents the DMG timer.
type Timer struct {
	divider uint16
	tima    uint8
	tma     uint8
	tac     uint8

	// reloadDelay counts down to the TMA reload; -1 when idle.
	reloadDelay int
	// lastBit is the selected divider bit ANDed with the enable bit, as of the
	// previous evaluation.
	lastBit bool

	requestInterrupt InterruptCallback
}

// New creates a new Timer with the given interrupt callback.
func New(requestInterrupt InterruptCallback) *Timer {
	return &Timer{
		reloadDelay:      -1,
		requestInterrupt: requestInterrupt,
	}
}

// Read reads a timer register.
func (t *Timer) Read(addr uint16) uint8 {
	switch addr {
	case DIV:
		return uint8(t.divider >> 8) //nolint:gosec // DIV is upper 8 bits
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

// Write writes a timer register.
func (t *Timer) Write(addr uint16, value uint8) {
	switch addr {
	case DIV:
		t.SetDivider(0)

	case TIMA:
		t.tima = value
		t.reloadDelay = -1

	case TMA:
		t.tma = value
		if t.reloadDelay >= 0 {
			t.tima = value
		}

	case TAC:
		t.tac = value & 0x07
		t.evaluate()
	}
}

// Step advances the timer by one dot.
func (t *Timer) Step() {
	if t.reloadDelay >= 0 {
		t.reloadDelay--
		if t.reloadDelay == 0 {
			t.reloadDelay = -1
			t.tima = t.tma
			if t.requestInterrupt != nil {
				t.requestInterrupt()
			}
		}
	}

	t.divider++
	t.evaluate()
}

// SetDivider replaces the internal divider. The change is evaluated like any
// other divider update, so clearing a set bit increments TIMA.
func (t *Timer) SetDivider(v uint16) {
	t.divider = v
	t.evaluate()
}

// Divider returns the full 16-bit divider.
func (t *Timer) Divider() uint16 {
	return t.divider
}

func (t *Timer) evaluate() {
	bit := t.tac&tacEnableBit != 0 && t.divider&(1<<selectBits[t.tac&tacClockMask]) != 0
	if t.lastBit && !bit {
		t.increment()
	}
	t.lastBit = bit
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.reloadDelay = ReloadDelay
	}
}

// Reset resets the timer to its power-on state.
func (t *Timer) Reset() {
	t.divider = 0
	t.tima = 0
	t.tma = 0
	t.tac = 0
	t.reloadDelay = -1
	t.lastBit = false
}
