package cartridge

import (
	"fmt"
	"strings"
)

// Header holds the informational fields of the cartridge header
// (0x0134-0x014D). Nothing in it affects how the image is mapped.
type Header struct {
	Title         string
	CGBFlag       byte
	SGBFlag       byte
	Type          Type
	ROMSize       byte
	RAMSize       byte
	Checksum      byte
	ChecksumValid bool
}

// Type is the cartridge type byte at 0x0147.
type Type byte

// Cartridge types understood by String.
const (
	TypeROMOnly             Type = 0x00
	TypeMBC1                Type = 0x01
	TypeMBC1RAM             Type = 0x02
	TypeMBC1RAMBattery      Type = 0x03
	TypeMBC2                Type = 0x05
	TypeMBC2Battery         Type = 0x06
	TypeROMRAM              Type = 0x08
	TypeROMRAMBattery       Type = 0x09
	TypeMBC3TimerBattery    Type = 0x0F
	TypeMBC3TimerRAMBattery Type = 0x10
	TypeMBC3                Type = 0x11
	TypeMBC3RAM             Type = 0x12
	TypeMBC3RAMBattery      Type = 0x13
	TypeMBC5                Type = 0x19
	TypeMBC5RAM             Type = 0x1A
	TypeMBC5RAMBattery      Type = 0x1B
)

var typeNames = map[Type]string{
	TypeROMOnly:             "ROM ONLY",
	TypeMBC1:                "MBC1",
	TypeMBC1RAM:             "MBC1+RAM",
	TypeMBC1RAMBattery:      "MBC1+RAM+BATTERY",
	TypeMBC2:                "MBC2",
	TypeMBC2Battery:         "MBC2+BATTERY",
	TypeROMRAM:              "ROM+RAM",
	TypeROMRAMBattery:       "ROM+RAM+BATTERY",
	TypeMBC3TimerBattery:    "MBC3+TIMER+BATTERY",
	TypeMBC3TimerRAMBattery: "MBC3+TIMER+RAM+BATTERY",
	TypeMBC3:                "MBC3",
	TypeMBC3RAM:             "MBC3+RAM",
	TypeMBC3RAMBattery:      "MBC3+RAM+BATTERY",
	TypeMBC5:                "MBC5",
	TypeMBC5RAM:             "MBC5+RAM",
	TypeMBC5RAMBattery:      "MBC5+RAM+BATTERY",
}

// String returns a human-readable name for the cartridge type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", byte(t))
}

// ROMSizeBytes returns the ROM size the header declares.
func (h *Header) ROMSizeBytes() int {
	if h.ROMSize <= 0x08 {
		return 0x8000 << h.ROMSize
	}
	return 0
}

// ParseHeader reads the header fields from rom. Short images yield a zero
// header with ChecksumValid false.
func ParseHeader(rom []byte) *Header {
	h := &Header{}
	if len(rom) < 0x0150 {
		return h
	}

	title := string(rom[0x0134:0x0144])
	if i := strings.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	h.Title = title
	h.CGBFlag = rom[0x0143]
	h.SGBFlag = rom[0x0146]
	h.Type = Type(rom[0x0147])
	h.ROMSize = rom[0x0148]
	h.RAMSize = rom[0x0149]
	h.Checksum = rom[0x014D]
	h.ChecksumValid = HeaderChecksum(rom) == h.Checksum

	return h
}

// HeaderChecksum computes the checksum over 0x0134-0x014C that the boot ROM
// verifies: x = x - byte - 1 for every byte.
func HeaderChecksum(rom []byte) byte {
	checksum := byte(0)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		checksum = checksum - rom[addr] - 1
	}
	return checksum
}
