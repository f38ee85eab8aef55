// Package cartridge maps cartridge images into the 0x0000-0x7FFF and
// 0xA000-0xBFFF windows of the address space.
package cartridge

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/log"
)

// Cartridge is the bus-facing view of a cartridge. Implementations with a bank
// controller decode their register writes in Write.
type Cartridge interface {
	// Read reads a byte from 0x0000-0x7FFF (ROM) or 0xA000-0xBFFF (RAM).
	Read(addr uint16) uint8

	// Write writes a byte to RAM or to the controller registers.
	Write(addr uint16, value uint8)

	// Header returns the parsed cartridge header.
	Header() *Header
}

// Size limits for cartridge images.
const (
	MinROMSize = 0x8000
	MaxROMSize = 8 * 1024 * 1024
)

// ErrROMTooSmall indicates the image cannot fill both ROM banks.
var ErrROMTooSmall = errors.New("ROM smaller than 32 KiB")

// ErrROMTooLarge indicates the ROM size exceeds the maximum allowed size.
var ErrROMTooLarge = errors.New("ROM size exceeds maximum allowed size of 8 MiB")

// New creates a cartridge from a raw image. Images whose header asks for a
// bank controller are mapped statically; only the first 32 KiB are visible.
func New(rom []byte, logger log.Logger) (Cartridge, error) {
	if len(rom) < MinROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMTooSmall, len(rom))
	}
	if len(rom) > MaxROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMTooLarge, len(rom))
	}
	if logger == nil {
		logger = log.NewNullLogger()
	}

	header := ParseHeader(rom)
	logger.Infof("cartridge: %q type %s, %d KiB", header.Title, header.Type, len(rom)/1024)
	if !header.ChecksumValid {
		logger.Warnf("cartridge: header checksum mismatch (0x%02X)", header.Checksum)
	}
	if header.Type != TypeROMOnly && header.Type != TypeROMRAM && header.Type != TypeROMRAMBattery {
		logger.Warnf("cartridge: %s bank switching not emulated, mapping first 32 KiB", header.Type)
	}

	return NewStatic(rom, header), nil
}
