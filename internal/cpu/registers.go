package cpu

// Flags represents CPU flag register bits.
const (
	FlagZ uint8 = 0b10000000 // Zero flag (bit 7)
	FlagN uint8 = 0b01000000 // Subtraction flag (bit 6)
	FlagH uint8 = 0b00100000 // Half-carry flag (bit 5)
	FlagC uint8 = 0b00010000 // Carry flag (bit 4)
)

// Registers represents the SM83 CPU registers.
type Registers struct {
	A  uint8  // Accumulator
	F  uint8  // Flags (only upper 4 bits used)
	B  uint8  // General purpose
	C  uint8  // General purpose
	D  uint8  // General purpose
	E  uint8  // General purpose
	H  uint8  // General purpose (high byte of HL pointer)
	L  uint8  // General purpose (low byte of HL pointer)
	SP uint16 // Stack pointer
	PC uint16 // Program counter
}

// NewRegisters returns the register file as the DMG boot ROM leaves it.
func NewRegisters() *Registers {
	return &Registers{
		A:  0x01,
		F:  0xB0,
		B:  0x00,
		C:  0x13,
		D:  0x00,
		E:  0xD8,
		H:  0x01,
		L:  0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// reg8 indexes an 8-bit register in opcode encoding order. Index 6 encodes
// (HL) and never reaches the register file.
type reg8 uint8

const (
	regB reg8 = iota
	regC
	regD
	regE
	regH
	regL
	_
	regA
)

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

func (r reg8) String() string { return reg8Names[r&7] }

// pair names a 16-bit register view.
type pair uint8

const (
	pairBC pair = iota
	pairDE
	pairHL
	pairSP
	pairAF
)

var pairNames = [5]string{"BC", "DE", "HL", "SP", "AF"}

func (p pair) String() string { return pairNames[p] }

func (r *Registers) get(reg reg8) uint8 {
	switch reg {
	case regB:
		return r.B
	case regC:
		return r.C
	case regD:
		return r.D
	case regE:
		return r.E
	case regH:
		return r.H
	case regL:
		return r.L
	default:
		return r.A
	}
}

func (r *Registers) set(reg reg8, v uint8) {
	switch reg {
	case regB:
		r.B = v
	case regC:
		r.C = v
	case regD:
		r.D = v
	case regE:
		r.E = v
	case regH:
		r.H = v
	case regL:
		r.L = v
	default:
		r.A = v
	}
}

func (r *Registers) pair(p pair) uint16 {
	switch p {
	case pairBC:
		return r.BC()
	case pairDE:
		return r.DE()
	case pairHL:
		return r.HL()
	case pairSP:
		return r.SP
	default:
		return r.AF()
	}
}

func (r *Registers) setPair(p pair, v uint16) {
	switch p {
	case pairBC:
		r.SetBC(v)
	case pairDE:
		r.SetDE(v)
	case pairHL:
		r.SetHL(v)
	case pairSP:
		r.SP = v
	default:
		r.SetAF(v)
	}
}

// AF returns the 16-bit AF register pair.
func (r *Registers) AF() uint16 {
	return uint16(r.A)<<8 | uint16(r.F)
}

// BC returns the 16-bit BC register pair.
func (r *Registers) BC() uint16 {
	return uint16(r.B)<<8 | uint16(r.C)
}

// DE returns the 16-bit DE register pair.
func (r *Registers) DE() uint16 {
	return uint16(r.D)<<8 | uint16(r.E)
}

// HL returns the 16-bit HL register pair.
func (r *Registers) HL() uint16 {
	return uint16(r.H)<<8 | uint16(r.L)
}

// SetAF sets the 16-bit AF register pair. The low nibble of F is dropped.
func (r *Registers) SetAF(value uint16) {
	r.A = uint8(value >> 8)   //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.F = uint8(value) & 0xF0 //nolint:gosec // G115: Lower 4 bits always 0
}

// SetBC sets the 16-bit BC register pair.
func (r *Registers) SetBC(value uint16) {
	r.B = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.C = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// SetDE sets the 16-bit DE register pair.
func (r *Registers) SetDE(value uint16) {
	r.D = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.E = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// SetHL sets the 16-bit HL register pair.
func (r *Registers) SetHL(value uint16) {
	r.H = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.L = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// GetFlag checks if a flag is set.
func (r *Registers) GetFlag(flag uint8) bool {
	return r.F&flag != 0
}

// SetFlagTo sets a flag to a specific boolean value.
func (r *Registers) SetFlagTo(flag uint8, value bool) {
	if value {
		r.F |= flag
	} else {
		r.F &^= flag
	}
}

// setFlags replaces all four flags.
func (r *Registers) setFlags(z, n, h, c bool) {
	r.F = 0
	r.SetFlagTo(FlagZ, z)
	r.SetFlagTo(FlagN, n)
	r.SetFlagTo(FlagH, h)
	r.SetFlagTo(FlagC, c)
}

// ZeroFlag returns the Zero flag state.
func (r *Registers) ZeroFlag() bool {
	return r.GetFlag(FlagZ)
}

// SubtractFlag returns the Subtract flag state.
func (r *Registers) SubtractFlag() bool {
	return r.GetFlag(FlagN)
}

// HalfCarryFlag returns the Half-carry flag state.
func (r *Registers) HalfCarryFlag() bool {
	return r.GetFlag(FlagH)
}

// CarryFlag returns the Carry flag state.
func (r *Registers) CarryFlag() bool {
	return r.GetFlag(FlagC)
}
