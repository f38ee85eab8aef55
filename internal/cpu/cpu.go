// Package cpu implements the Sharp SM83 CPU of the DMG.
//
// The CPU is stepped once per machine cycle. The opcode fetch and decode take
// one step; every further machine cycle of the instruction is a queued
// micro-op that runs on a later step, so bus accesses land on the cycle where
// the hardware performs them.
package cpu

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/interrupt"
	"github.com/richardwooding/dmgcore/internal/log"
)

// Memory interface for CPU to access memory bus.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// ErrInvalidOpcode is returned once the CPU has fetched an unused opcode.
var ErrInvalidOpcode = errors.New("invalid opcode")

// imeDelay is the number of fetches before an EI or DI takes effect: the one
// following the instruction's own fetch, then the next.
const imeDelay = 2

// CPU represents the Sharp SM83 CPU.
type CPU struct {
	Registers *Registers
	Memory    Memory
	Logger    log.Logger

	// Interrupt master enable flag
	IME bool

	// Executed machine cycles, including halted ones
	Cycles uint64

	eiDelay int
	diDelay int
	halted  bool
	haltBug bool

	queue queue
	ins   *instruction
	addr  uint16 // memory operand address for (rr) modes
	w, z  uint8  // operand latches
	err   error
	gaps  *log.Once
}

// New creates a CPU in the state the boot ROM hands over to the cartridge.
func New(mem Memory) *CPU {
	return &CPU{
		Registers: NewRegisters(),
		Memory:    mem,
		Logger:    log.NewNullLogger(),
		ins:       &primary[0x00],
	}
}

// ResetForBoot clears all registers so execution starts at 0x0000, as it does
// when a boot ROM is mapped.
func (c *CPU) ResetForBoot() {
	*c.Registers = Registers{}
	c.IME = false
	c.eiDelay, c.diDelay = 0, 0
	c.halted, c.haltBug = false, false
	c.queue.reset()
	c.err = nil
}

// Step advances the CPU by one machine cycle. Once an error is returned the
// CPU is stopped and every further call returns the same error.
func (c *CPU) Step() error {
	if c.err != nil {
		return c.err
	}
	c.Cycles++

	if c.queue.len() > 0 {
		c.run(c.queue.pop())
		return c.err
	}

	if c.halted {
		if c.pending() == 0 {
			return nil
		}
		c.halted = false
	}

	c.tickIME()

	if c.IME {
		if src, ok := interrupt.Highest(c.Memory.Read(interrupt.FlagAddr), c.Memory.Read(interrupt.EnableAddr)); ok {
			c.dispatch(src)
			return nil
		}
	}

	pc := c.Registers.PC
	opcode := c.Memory.Read(pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.Registers.PC++
	}

	ins := &primary[opcode]
	if ins.kind == kindInvalid {
		c.err = fmt.Errorf("%w 0x%02X at PC=0x%04X after %s", ErrInvalidOpcode, opcode, pc, c.ins.mnemonic)
		return c.err
	}
	c.begin(ins)
	return nil
}

// Busy reports whether an instruction still has machine cycles queued.
func (c *CPU) Busy() bool {
	return c.queue.len() > 0
}

// Err returns the error that stopped the CPU, if any.
func (c *CPU) Err() error {
	return c.err
}

// fetch reads the byte at PC and increments PC.
func (c *CPU) fetch() uint8 {
	value := c.Memory.Read(c.Registers.PC)
	c.Registers.PC++
	return value
}

// pending returns the requested and enabled interrupt bits.
func (c *CPU) pending() uint8 {
	return c.Memory.Read(interrupt.FlagAddr) & c.Memory.Read(interrupt.EnableAddr) & interrupt.Mask
}

// tickIME counts down pending EI and DI transitions. Called once per
// fetch-decode.
func (c *CPU) tickIME() {
	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.IME = true
		}
	}
	if c.diDelay > 0 {
		c.diDelay--
		if c.diDelay == 0 {
			c.IME = false
		}
	}
}

// dispatch starts servicing src. With this cycle the sequence takes five.
// A halt bug still pending returns to the HALT opcode, and an EI not yet in
// effect is dropped.
func (c *CPU) dispatch(src interrupt.Source) {
	c.Memory.Write(interrupt.FlagAddr, c.Memory.Read(interrupt.FlagAddr)&^src.Bit())
	c.IME = false
	c.eiDelay = 0
	if c.haltBug {
		c.haltBug = false
		c.Registers.PC--
	}
	c.ins = &dispatchInstruction
	c.z = uint8(src.Vector()) //nolint:gosec // G115: vectors fit in a byte
	c.w = 0
	c.queue.push(opIdle, push(valPCHigh), push(valPCLow), done(opIdle))
}

// condition evaluates a branch condition against the current flags.
func (c *CPU) condition(cc cond) bool {
	r := c.Registers
	switch cc {
	case condNZ:
		return !r.ZeroFlag()
	case condZ:
		return r.ZeroFlag()
	case condNC:
		return !r.CarryFlag()
	case condC:
		return r.CarryFlag()
	}
	return true
}
