// Package memory implements the DMG address bus.
//
// Every component reaches memory through Bus. The bus owns a single 64 KiB
// backing store and routes the cartridge windows, the boot ROM overlay, echo
// RAM and the I/O registers that belong to other components.
package memory

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/interrupt"
	"github.com/richardwooding/dmgcore/internal/log"
	"github.com/richardwooding/dmgcore/internal/timer"
)

// BootROMSize is the size of the DMG boot ROM image.
const BootROMSize = 0x100

// I/O register addresses handled by the bus itself.
const (
	P1   = 0xFF00
	SB   = 0xFF01
	SC   = 0xFF02
	LCDC = 0xFF40
	STAT = 0xFF41
	LY   = 0xFF44
	DMA  = 0xFF46
	BOOT = 0xFF50
)

// Joypad is an interface for joypad input handling.
type Joypad interface {
	Read() uint8
	Write(value uint8)
}

// SerialHandler receives each byte shifted out over the link port.
type SerialHandler func(value uint8)

// ErrBootROMSize indicates a boot ROM image of the wrong length.
var ErrBootROMSize = errors.New("boot ROM must be exactly 256 bytes")

// Bus represents the DMG memory bus.
type Bus struct {
	mem [0x10000]uint8

	boot   []byte
	cart   cartridge.Cartridge
	timer  *timer.Timer
	joypad Joypad
	serial SerialHandler

	logger log.Logger
	gaps   *log.Once
}

// NewBus creates a bus for cart. boot is either nil or a 256-byte boot ROM
// that overlays 0x0000-0x00FF until 0xFF50 is written.
func NewBus(cart cartridge.Cartridge, boot []byte, logger log.Logger) (*Bus, error) {
	if boot != nil && len(boot) != BootROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrBootROMSize, len(boot))
	}
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Bus{
		boot:   boot,
		cart:   cart,
		logger: logger,
		gaps:   log.NewOnce(logger),
	}, nil
}

// SetTimer sets the timer for the memory bus.
func (b *Bus) SetTimer(t *timer.Timer) {
	b.timer = t
}

// SetJoypad sets the joypad for the memory bus.
func (b *Bus) SetJoypad(joypad Joypad) {
	b.joypad = joypad
}

// SetSerialHandler installs fn as the receiver of serial transfers.
func (b *Bus) SetSerialHandler(fn SerialHandler) {
	b.serial = fn
}

// Cartridge returns the mapped cartridge.
func (b *Bus) Cartridge() cartridge.Cartridge {
	return b.cart
}

// BootROMMapped reports whether reads below 0x0100 still hit the boot ROM.
func (b *Bus) BootROMMapped() bool {
	return b.boot != nil && b.mem[BOOT] == 0
}

// Read reads a byte from the memory bus.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	// Boot ROM overlay (0000-00FF)
	case addr < BootROMSize && b.BootROMMapped():
		return b.boot[addr]

	// Cartridge ROM (0000-7FFF)
	case addr < 0x8000:
		return b.readCartridge(addr)

	// VRAM (8000-9FFF)
	case addr < 0xA000:
		return b.mem[addr]

	// External RAM (A000-BFFF)
	case addr < 0xC000:
		return b.readCartridge(addr)

	// Work RAM (C000-DFFF)
	case addr < 0xE000:
		return b.mem[addr]

	// Echo RAM (E000-FDFF)
	case addr < 0xFE00:
		return b.mem[addr-0x2000]

	// OAM (FE00-FE9F)
	case addr < 0xFEA0:
		return b.mem[addr]

	// Not Usable (FEA0-FEFF)
	case addr < 0xFF00:
		return 0xFF

	// I/O Registers (FF00-FF7F)
	case addr < 0xFF80:
		return b.readIO(addr)

	// High RAM and IE (FF80-FFFF)
	default:
		return b.mem[addr]
	}
}

// Write writes a byte to the memory bus.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		b.writeCartridge(addr, value)

	case addr < 0xA000:
		b.mem[addr] = value

	case addr < 0xC000:
		b.writeCartridge(addr, value)

	case addr < 0xE000:
		b.mem[addr] = value

	case addr < 0xFE00:
		b.mem[addr-0x2000] = value

	case addr < 0xFEA0:
		b.mem[addr] = value

	case addr < 0xFF00:
		// Ignore writes to unusable memory

	case addr < 0xFF80:
		b.writeIO(addr, value)

	default:
		b.mem[addr] = value
	}
}

func (b *Bus) readCartridge(addr uint16) uint8 {
	if b.cart == nil {
		return 0xFF
	}
	return b.cart.Read(addr)
}

func (b *Bus) writeCartridge(addr uint16, value uint8) {
	if b.cart != nil {
		b.cart.Write(addr, value)
	}
}

// readIO reads from I/O registers.
func (b *Bus) readIO(addr uint16) uint8 {
	switch {
	case addr == P1:
		if b.joypad != nil {
			return b.joypad.Read()
		}
		return 0xFF
	case addr >= timer.DIV && addr <= timer.TAC && b.timer != nil:
		return b.timer.Read(addr)
	case addr == interrupt.FlagAddr:
		return b.mem[addr] | 0xE0
	case addr == STAT:
		return b.mem[addr] | 0x80
	}
	return b.mem[addr]
}

// writeIO writes to I/O registers.
func (b *Bus) writeIO(addr uint16, value uint8) {
	switch {
	case addr == P1:
		if b.joypad != nil {
			b.joypad.Write(value)
		}

	case addr == SC:
		b.mem[addr] = value
		if value&0x81 == 0x81 {
			b.transferSerial()
		}

	case addr >= timer.DIV && addr <= timer.TAC && b.timer != nil:
		b.timer.Write(addr, value)

	case addr == interrupt.FlagAddr:
		b.mem[addr] = value & interrupt.Mask

	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.gaps.Warn("sound", "bus: sound hardware not emulated, registers act as storage")
		b.mem[addr] = value

	case addr == STAT:
		// Bits 0-2 belong to the PPU.
		b.mem[addr] = b.mem[addr]&0x07 | value&0x78

	case addr == LY:
		// Read-only to the CPU; see StorePPU.

	case addr == DMA:
		b.mem[addr] = value
		b.copyOAM(uint16(value) << 8)

	case addr == BOOT:
		if b.mem[addr] == 0 && value != 0 {
			b.mem[addr] = value
			b.logger.Debugf("bus: boot ROM unmapped")
		}

	default:
		b.mem[addr] = value
	}
}

// transferSerial completes an internally clocked transfer at once: the byte in
// SB goes to the handler, SB reads back as a disconnected line, and the
// serial interrupt is raised.
func (b *Bus) transferSerial() {
	if b.serial != nil {
		b.serial(b.mem[SB])
	}
	b.mem[SB] = 0xFF
	b.mem[SC] &^= 0x80
	b.RequestInterrupt(interrupt.Serial)
}

// copyOAM performs an OAM DMA transfer in a single step. Sprite rendering is
// not emulated, so the transfer timing is not observable.
func (b *Bus) copyOAM(src uint16) {
	b.gaps.Warn("dma", "bus: OAM DMA completes instantly, sprites not emulated")
	for i := uint16(0); i < 0xA0; i++ {
		b.mem[0xFE00+i] = b.Read(src + i)
	}
}

// StorePPU is the PPU's write path to the registers the CPU cannot fully
// write: LY, and the mode and coincidence bits of STAT. It panics on any other
// address.
func (b *Bus) StorePPU(addr uint16, value uint8) {
	switch addr {
	case LY:
		b.mem[addr] = value
	case STAT:
		b.mem[addr] = b.mem[addr]&0x78 | value&0x07
	default:
		panic(fmt.Sprintf("memory: StorePPU to 0x%04X", addr))
	}
}

// RequestInterrupt sets the IF bit of src.
func (b *Bus) RequestInterrupt(src interrupt.Source) {
	b.mem[interrupt.FlagAddr] |= src.Bit()
}
