package cartridge

// Static is a cartridge without a bank controller: 32 KiB of ROM and an
// always present 8 KiB RAM window.
type Static struct {
	header *Header
	rom    []byte
	ram    [0x2000]uint8
}

// NewStatic wraps rom. Header may be nil.
func NewStatic(rom []byte, header *Header) *Static {
	if header == nil {
		header = ParseHeader(rom)
	}
	return &Static{header: header, rom: rom}
}

// Read reads a byte from the cartridge.
func (c *Static) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		return c.ram[addr-0xA000]
	}
	return 0xFF
}

// Write writes a byte to cartridge RAM. ROM writes are ignored.
func (c *Static) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr < 0xC000 {
		c.ram[addr-0xA000] = value
	}
}

// Header returns the cartridge header.
func (c *Static) Header() *Header {
	return c.header
}
