package cpu

// aluOp is an accumulator operation, in opcode encoding order (bits 5-3 of
// 0x80-0xBF and 0xC6-0xFE).
type aluOp uint8

const (
	aluADD aluOp = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

// rotOp is a CB-prefixed shift or rotate, in encoding order.
type rotOp uint8

const (
	rotRLC rotOp = iota
	rotRRC
	rotRL
	rotRR
	rotSLA
	rotSRA
	rotSWAP
	rotSRL
)

var rotNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

// alu applies op to A and v.
func (c *CPU) alu(op aluOp, v uint8) {
	r := c.Registers
	switch op {
	case aluADD:
		r.A = c.add8(r.A, v, false)
	case aluADC:
		r.A = c.add8(r.A, v, true)
	case aluSUB:
		r.A = c.sub8(r.A, v, false)
	case aluSBC:
		r.A = c.sub8(r.A, v, true)
	case aluAND:
		r.A &= v
		r.setFlags(r.A == 0, false, true, false)
	case aluXOR:
		r.A ^= v
		r.setFlags(r.A == 0, false, false, false)
	case aluOR:
		r.A |= v
		r.setFlags(r.A == 0, false, false, false)
	case aluCP:
		c.sub8(r.A, v, false)
	}
}

// add8 performs 8-bit addition and sets flags.
func (c *CPU) add8(a, b uint8, carry bool) uint8 {
	carryVal := uint8(0)
	if carry && c.Registers.CarryFlag() {
		carryVal = 1
	}
	result := a + b + carryVal
	c.Registers.setFlags(
		result == 0,
		false,
		(a&0x0F)+(b&0x0F)+carryVal > 0x0F,
		uint16(a)+uint16(b)+uint16(carryVal) > 0xFF,
	)
	return result
}

// sub8 performs 8-bit subtraction. H and C report a borrow from bit 4 and
// from bit 8 respectively.
func (c *CPU) sub8(a, b uint8, carry bool) uint8 {
	carryVal := uint8(0)
	if carry && c.Registers.CarryFlag() {
		carryVal = 1
	}
	result := a - b - carryVal
	c.Registers.setFlags(
		result == 0,
		true,
		uint16(a&0x0F) < uint16(b&0x0F)+uint16(carryVal),
		uint16(a) < uint16(b)+uint16(carryVal),
	)
	return result
}

// inc8 increments an 8-bit value. C is not affected.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.Registers.setFlags(result == 0, false, value&0x0F == 0x0F, c.Registers.CarryFlag())
	return result
}

// dec8 decrements an 8-bit value. C is not affected.
func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.Registers.setFlags(result == 0, true, value&0x0F == 0, c.Registers.CarryFlag())
	return result
}

// add16 performs ADD HL,rr. Z is not affected.
func (c *CPU) add16(a, b uint16) uint16 {
	c.Registers.setFlags(
		c.Registers.ZeroFlag(),
		false,
		(a&0x0FFF)+(b&0x0FFF) > 0x0FFF,
		uint32(a)+uint32(b) > 0xFFFF,
	)
	return a + b
}

// addSPe computes SP plus a signed offset for ADD SP,e and LD HL,SP+e. Z and
// N are cleared; H and C come from the unsigned low-byte addition.
func (c *CPU) addSPe(e uint8) uint16 {
	sp := c.Registers.SP
	c.Registers.setFlags(
		false,
		false,
		(sp&0x0F)+uint16(e&0x0F) > 0x0F,
		(sp&0xFF)+uint16(e) > 0xFF,
	)
	return sp + uint16(int16(int8(e))) //nolint:gosec // G115: sign extension
}

// rotate applies a CB shift or rotate and sets all flags.
func (c *CPU) rotate(op rotOp, value uint8) uint8 {
	var result, carry uint8
	oldCarry := uint8(0)
	if c.Registers.CarryFlag() {
		oldCarry = 1
	}

	switch op {
	case rotRLC:
		carry = value >> 7
		result = value<<1 | carry
	case rotRRC:
		carry = value & 0x01
		result = value>>1 | carry<<7
	case rotRL:
		carry = value >> 7
		result = value<<1 | oldCarry
	case rotRR:
		carry = value & 0x01
		result = value>>1 | oldCarry<<7
	case rotSLA:
		carry = value >> 7
		result = value << 1
	case rotSRA:
		carry = value & 0x01
		result = value>>1 | value&0x80
	case rotSWAP:
		result = value<<4 | value>>4
	case rotSRL:
		carry = value & 0x01
		result = value >> 1
	}

	c.Registers.setFlags(result == 0, false, false, carry == 1)
	return result
}

// bit tests a bit. C is not affected.
func (c *CPU) bit(value, n uint8) {
	c.Registers.setFlags(value&(1<<n) == 0, false, true, c.Registers.CarryFlag())
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	r := c.Registers
	a := r.A
	carry := r.CarryFlag()

	if !r.SubtractFlag() {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if r.HalfCarryFlag() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if r.HalfCarryFlag() {
			a -= 0x06
		}
	}

	r.A = a
	r.setFlags(a == 0, r.SubtractFlag(), false, carry)
}
