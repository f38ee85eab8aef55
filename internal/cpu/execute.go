package cpu

import "github.com/richardwooding/dmgcore/internal/log"

// begin runs the decode cycle of ins: single-cycle instructions take effect
// now, everything else queues its remaining machine cycles.
func (c *CPU) begin(ins *instruction) {
	c.ins = ins
	r := c.Registers

	if t := ins.target(); t.mode == modeIndirect {
		c.addr = r.pair(t.pair)
		if t.step != 0 {
			r.setPair(t.pair, c.addr+uint16(int16(t.step))) //nolint:gosec // G115: sign extension
		}
	}

	switch ins.kind {
	case kindNOP:

	case kindLD8:
		c.beginLoad(ins)

	case kindLD16:
		c.queue.push(opFetchZ, done(opFetchW))

	case kindLDnnSP:
		c.queue.push(opFetchZ, opFetchW, write(addrWZ, valSPLow), write(addrWZNext, valSPHigh))

	case kindLDSPHL, kindINC16, kindDEC16, kindADDHL:
		c.queue.push(done(opIdle))

	case kindLDHLSP:
		c.queue.push(opFetchZ, done(opIdle))

	case kindADDSP:
		c.queue.push(opFetchZ, opIdle, done(opIdle))

	case kindPUSH:
		c.queue.push(opIdle, push(valPairHigh), push(valPairLow))

	case kindPOP:
		c.queue.push(opPopZ, done(opPopW))

	case kindJP:
		if c.condition(ins.cond) {
			c.queue.push(opFetchZ, opFetchW, done(opIdle))
		} else {
			c.queue.push(opFetchZ, opFetchW)
		}

	case kindJPHL:
		r.PC = r.HL()

	case kindJR:
		if c.condition(ins.cond) {
			c.queue.push(opFetchZ, done(opIdle))
		} else {
			c.queue.push(opFetchZ)
		}

	case kindCALL:
		if c.condition(ins.cond) {
			c.queue.push(opFetchZ, opFetchW, opIdle, push(valPCHigh), done(push(valPCLow)))
		} else {
			c.queue.push(opFetchZ, opFetchW)
		}

	case kindRET, kindRETI:
		c.queue.push(opPopZ, opPopW, done(opIdle))

	case kindRETcc:
		if c.condition(ins.cond) {
			c.queue.push(opIdle, opPopZ, opPopW, done(opIdle))
		} else {
			c.queue.push(opIdle)
		}

	case kindRST:
		c.queue.push(opIdle, push(valPCHigh), done(push(valPCLow)))

	case kindALU, kindINC, kindDEC, kindRot, kindBIT, kindRES, kindSET:
		c.beginOp8(ins)

	case kindRotA:
		r.A = c.rotate(ins.rot, r.A)
		r.SetFlagTo(FlagZ, false)

	case kindDAA:
		c.daa()

	case kindCPL:
		r.A = ^r.A
		r.SetFlagTo(FlagN, true)
		r.SetFlagTo(FlagH, true)

	case kindSCF:
		r.setFlags(r.ZeroFlag(), false, false, true)

	case kindCCF:
		r.setFlags(r.ZeroFlag(), false, false, !r.CarryFlag())

	case kindHALT:
		c.halt()

	case kindSTOP:
		c.gapf("stop", "cpu: STOP at 0x%04X treated as NOP", r.PC-1)
		c.queue.push(opFetchZ)

	case kindDI:
		c.diDelay = imeDelay
		c.eiDelay = 0

	case kindEI:
		c.eiDelay = imeDelay
		c.diDelay = 0

	case kindPrefix:
		c.queue.push(opFetchCB)
	}
}

// beginLoad queues an 8-bit load. At most one side is a memory operand.
func (c *CPU) beginLoad(ins *instruction) {
	r := c.Registers
	switch {
	case ins.dst.mode == modeReg && ins.src.mode == modeReg:
		r.set(ins.dst.reg, r.get(ins.src.reg))

	case ins.src.mode == modeImm8 && ins.dst.mode == modeReg:
		c.queue.push(done(opFetchZ))

	case ins.src.mode == modeImm8:
		c.queue.push(opFetchZ, write(addrOperand, valZ))

	case ins.dst.mode == modeReg:
		c.queueAddress(ins.src)
		c.queue.push(done(opRead))

	default:
		c.queueAddress(ins.dst)
		c.queue.push(write(addrOperand, valReg))
	}
}

// queueAddress queues the immediate bytes that form a memory operand's
// address.
func (c *CPU) queueAddress(o operand) {
	switch o.mode {
	case modeHigh:
		c.queue.push(opFetchZ)
	case modeAbsolute:
		c.queue.push(opFetchZ, opFetchW)
	}
}

// beginOp8 handles the 8-bit arithmetic and bit operations, whose operand is
// a register, an immediate or (HL).
func (c *CPU) beginOp8(ins *instruction) {
	switch ins.src.mode {
	case modeReg:
		v := c.exec8(ins, c.Registers.get(ins.src.reg))
		if ins.writesBack() {
			c.Registers.set(ins.src.reg, v)
		}
	case modeImm8:
		c.queue.push(done(opFetchZ))
	default:
		if ins.writesBack() {
			c.queue.push(done(opRead), write(addrOperand, valZ))
		} else {
			c.queue.push(done(opRead))
		}
	}
}

// exec8 applies an 8-bit operation to v and returns the value to store back.
func (c *CPU) exec8(ins *instruction, v uint8) uint8 {
	switch ins.kind {
	case kindALU:
		c.alu(ins.alu, v)
	case kindINC:
		return c.inc8(v)
	case kindDEC:
		return c.dec8(v)
	case kindRot:
		return c.rotate(ins.rot, v)
	case kindBIT:
		c.bit(v, ins.bit)
	case kindRES:
		return v &^ (1 << ins.bit)
	case kindSET:
		return v | 1<<ins.bit
	}
	return v
}

// complete applies the effect of the current instruction after its last bus
// access.
func (c *CPU) complete() {
	r := c.Registers
	ins := c.ins

	switch ins.kind {
	case kindLD8:
		if ins.dst.mode == modeReg {
			r.set(ins.dst.reg, c.z)
		}
	case kindLD16, kindPOP:
		r.setPair(ins.dst.pair, c.wz())
	case kindLDSPHL:
		r.SP = r.HL()
	case kindLDHLSP:
		r.SetHL(c.addSPe(c.z))
	case kindADDSP:
		r.SP = c.addSPe(c.z)
	case kindINC16:
		r.setPair(ins.dst.pair, r.pair(ins.dst.pair)+1)
	case kindDEC16:
		r.setPair(ins.dst.pair, r.pair(ins.dst.pair)-1)
	case kindADDHL:
		r.SetHL(c.add16(r.HL(), r.pair(ins.src.pair)))
	case kindJP, kindCALL, kindRET, kindRETcc, kindDispatch:
		r.PC = c.wz()
	case kindRETI:
		r.PC = c.wz()
		c.IME = true
	case kindJR:
		r.PC += uint16(int16(int8(c.z))) //nolint:gosec // G115: sign extension
	case kindRST:
		r.PC = ins.vector
	case kindALU, kindINC, kindDEC, kindRot, kindBIT, kindRES, kindSET:
		c.z = c.exec8(ins, c.z)
	}
}

// halt enters HALT. With IME clear and an interrupt already pending the CPU
// keeps running and the next opcode byte is fetched twice.
func (c *CPU) halt() {
	if !c.IME && c.pending() != 0 {
		c.haltBug = true
		return
	}
	c.halted = true
}

// gapf logs an unemulated feature the first time key is seen.
func (c *CPU) gapf(key, format string, args ...interface{}) {
	if c.gaps == nil {
		c.gaps = log.NewOnce(c.Logger)
	}
	c.gaps.Warn(key, format, args...)
}
