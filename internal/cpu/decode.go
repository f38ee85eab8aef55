package cpu

import "fmt"

// mode is an operand addressing mode.
type mode uint8

const (
	modeNone     mode = iota
	modeReg           // 8-bit register
	modePair          // 16-bit register pair
	modeImm8          // n, e
	modeImm16         // nn
	modeIndirect      // (rr), optionally post-incremented or decremented
	modeHigh          // (0xFF00+n)
	modeHighC         // (0xFF00+C)
	modeAbsolute      // (nn)
)

// operand describes where an instruction reads or writes a value.
type operand struct {
	mode mode
	reg  reg8
	pair pair
	step int8 // post-increment for modeIndirect
}

// memory reports whether the operand is a bus access.
func (o operand) memory() bool {
	return o.mode >= modeIndirect
}

func (o operand) String() string {
	switch o.mode {
	case modeReg:
		return o.reg.String()
	case modePair:
		return o.pair.String()
	case modeImm8:
		return "n"
	case modeImm16:
		return "nn"
	case modeIndirect:
		switch o.step {
		case 1:
			return "(" + o.pair.String() + "+)"
		case -1:
			return "(" + o.pair.String() + "-)"
		}
		return "(" + o.pair.String() + ")"
	case modeHigh:
		return "(n)"
	case modeHighC:
		return "(C)"
	case modeAbsolute:
		return "(nn)"
	}
	return ""
}

// kind selects the execution routine of an instruction.
type kind uint8

const (
	kindInvalid kind = iota
	kindNOP
	kindLD8      // LD dst,src
	kindLD16     // LD rr,nn
	kindLDnnSP   // LD (nn),SP
	kindLDSPHL   // LD SP,HL
	kindLDHLSP   // LD HL,SP+e
	kindADDSP    // ADD SP,e
	kindINC16    // INC rr
	kindDEC16    // DEC rr
	kindADDHL    // ADD HL,rr
	kindPUSH     // PUSH rr
	kindPOP      // POP rr
	kindJP       // JP [cc,]nn
	kindJPHL     // JP HL
	kindJR       // JR [cc,]e
	kindCALL     // CALL [cc,]nn
	kindRET      // RET
	kindRETI     // RETI
	kindRETcc    // RET cc
	kindRST      // RST n
	kindALU      // A op src
	kindINC      // INC r/(HL)
	kindDEC      // DEC r/(HL)
	kindRotA     // RLCA RRCA RLA RRA
	kindDAA      // DAA
	kindCPL      // CPL
	kindSCF      // SCF
	kindCCF      // CCF
	kindHALT     // HALT
	kindSTOP     // STOP
	kindDI       // DI
	kindEI       // EI
	kindPrefix   // 0xCB
	kindRot      // CB shifts and rotates
	kindBIT      // BIT b,r
	kindRES      // RES b,r
	kindSET      // SET b,r
	kindDispatch // interrupt service, never decoded from memory
)

// cond is a branch condition.
type cond uint8

const (
	condAlways cond = iota
	condNZ
	condZ
	condNC
	condC
)

var condNames = [5]string{"", "NZ", "Z", "NC", "C"}

// instruction is one decoded opcode. The tables below are built once at init
// and never modified.
type instruction struct {
	mnemonic string
	kind     kind
	dst, src operand
	alu      aluOp
	rot      rotOp
	cond     cond
	bit      uint8  // BIT/RES/SET bit number
	vector   uint16 // RST target
}

// target returns the memory operand of the instruction, or the zero operand.
func (ins *instruction) target() operand {
	if ins.dst.memory() {
		return ins.dst
	}
	if ins.src.memory() {
		return ins.src
	}
	return operand{}
}

// writesBack reports whether an 8-bit operation stores its result into its
// operand.
func (ins *instruction) writesBack() bool {
	switch ins.kind {
	case kindINC, kindDEC, kindRot, kindRES, kindSET:
		return true
	}
	return false
}

var (
	primary  [256]instruction
	extended [256]instruction

	dispatchInstruction = instruction{mnemonic: "INT", kind: kindDispatch}
)

func reg(r reg8) operand { return operand{mode: modeReg, reg: r} }

func rp(p pair) operand { return operand{mode: modePair, pair: p} }

// r8 decodes the 3-bit register field used throughout the opcode space.
func r8(i uint8) operand {
	if i == 6 {
		return operand{mode: modeIndirect, pair: pairHL}
	}
	return reg(reg8(i))
}

var (
	imm8   = operand{mode: modeImm8}
	imm16  = operand{mode: modeImm16}
	high   = operand{mode: modeHigh}
	highC  = operand{mode: modeHighC}
	absNN  = operand{mode: modeAbsolute}
	rpBase = [4]pair{pairBC, pairDE, pairHL, pairSP}
	rpPush = [4]pair{pairBC, pairDE, pairHL, pairAF}
)

func init() {
	// Entries left untouched below are the eleven unused opcodes.
	for i := range primary {
		primary[i] = instruction{mnemonic: fmt.Sprintf("DB 0x%02X", i), kind: kindInvalid}
	}

	set := func(op uint8, ins instruction) {
		if ins.mnemonic == "" {
			ins.mnemonic = describe(ins)
		}
		primary[op] = ins
	}

	set(0x00, instruction{mnemonic: "NOP", kind: kindNOP})
	set(0x08, instruction{mnemonic: "LD (nn),SP", kind: kindLDnnSP})
	set(0x10, instruction{mnemonic: "STOP", kind: kindSTOP})
	set(0x76, instruction{mnemonic: "HALT", kind: kindHALT})
	set(0xCB, instruction{mnemonic: "PREFIX CB", kind: kindPrefix})
	set(0xF3, instruction{mnemonic: "DI", kind: kindDI})
	set(0xFB, instruction{mnemonic: "EI", kind: kindEI})
	set(0x27, instruction{mnemonic: "DAA", kind: kindDAA})
	set(0x2F, instruction{mnemonic: "CPL", kind: kindCPL})
	set(0x37, instruction{mnemonic: "SCF", kind: kindSCF})
	set(0x3F, instruction{mnemonic: "CCF", kind: kindCCF})
	set(0x07, instruction{mnemonic: "RLCA", kind: kindRotA, rot: rotRLC})
	set(0x0F, instruction{mnemonic: "RRCA", kind: kindRotA, rot: rotRRC})
	set(0x17, instruction{mnemonic: "RLA", kind: kindRotA, rot: rotRL})
	set(0x1F, instruction{mnemonic: "RRA", kind: kindRotA, rot: rotRR})

	// 16-bit loads and arithmetic
	for i, p := range rpBase {
		row := uint8(i) << 4 //nolint:gosec // G115: i < 4
		set(0x01|row, instruction{kind: kindLD16, dst: rp(p), src: imm16})
		set(0x03|row, instruction{kind: kindINC16, dst: rp(p)})
		set(0x0B|row, instruction{kind: kindDEC16, dst: rp(p)})
		set(0x09|row, instruction{kind: kindADDHL, dst: rp(pairHL), src: rp(p)})
	}
	set(0xF9, instruction{mnemonic: "LD SP,HL", kind: kindLDSPHL})
	set(0xF8, instruction{mnemonic: "LD HL,SP+e", kind: kindLDHLSP})
	set(0xE8, instruction{mnemonic: "ADD SP,e", kind: kindADDSP})

	// Accumulator loads through register pairs
	indirect := [4]operand{
		{mode: modeIndirect, pair: pairBC},
		{mode: modeIndirect, pair: pairDE},
		{mode: modeIndirect, pair: pairHL, step: 1},
		{mode: modeIndirect, pair: pairHL, step: -1},
	}
	for i, o := range indirect {
		row := uint8(i) << 4 //nolint:gosec // G115: i < 4
		set(0x02|row, instruction{kind: kindLD8, dst: o, src: reg(regA)})
		set(0x0A|row, instruction{kind: kindLD8, dst: reg(regA), src: o})
	}
	set(0xE0, instruction{mnemonic: "LDH (n),A", kind: kindLD8, dst: high, src: reg(regA)})
	set(0xF0, instruction{mnemonic: "LDH A,(n)", kind: kindLD8, dst: reg(regA), src: high})
	set(0xE2, instruction{kind: kindLD8, dst: highC, src: reg(regA)})
	set(0xF2, instruction{kind: kindLD8, dst: reg(regA), src: highC})
	set(0xEA, instruction{kind: kindLD8, dst: absNN, src: reg(regA)})
	set(0xFA, instruction{kind: kindLD8, dst: reg(regA), src: absNN})

	// 8-bit INC, DEC, LD r,n and the LD r,r' block
	for i := uint8(0); i < 8; i++ {
		set(0x04|i<<3, instruction{kind: kindINC, src: r8(i)})
		set(0x05|i<<3, instruction{kind: kindDEC, src: r8(i)})
		set(0x06|i<<3, instruction{kind: kindLD8, dst: r8(i), src: imm8})
		for j := uint8(0); j < 8; j++ {
			op := 0x40 | i<<3 | j
			if op == 0x76 {
				continue
			}
			set(op, instruction{kind: kindLD8, dst: r8(i), src: r8(j)})
		}
	}

	// ALU block and immediate forms
	for i := uint8(0); i < 8; i++ {
		for j := uint8(0); j < 8; j++ {
			set(0x80|i<<3|j, instruction{kind: kindALU, alu: aluOp(i), src: r8(j)})
		}
		set(0xC6|i<<3, instruction{kind: kindALU, alu: aluOp(i), src: imm8})
		set(0xC7|i<<3, instruction{mnemonic: fmt.Sprintf("RST %02XH", i*8), kind: kindRST, vector: uint16(i) * 8})
	}

	// Control flow
	set(0x18, instruction{kind: kindJR, src: imm8})
	set(0xC3, instruction{kind: kindJP, src: imm16})
	set(0xE9, instruction{mnemonic: "JP HL", kind: kindJPHL})
	set(0xCD, instruction{kind: kindCALL, src: imm16})
	set(0xC9, instruction{mnemonic: "RET", kind: kindRET})
	set(0xD9, instruction{mnemonic: "RETI", kind: kindRETI})
	for i := uint8(0); i < 4; i++ {
		cc := cond(i + 1)
		set(0x20|i<<3, instruction{kind: kindJR, cond: cc, src: imm8})
		set(0xC0|i<<3, instruction{kind: kindRETcc, cond: cc})
		set(0xC2|i<<3, instruction{kind: kindJP, cond: cc, src: imm16})
		set(0xC4|i<<3, instruction{kind: kindCALL, cond: cc, src: imm16})
	}
	for i, p := range rpPush {
		row := uint8(i) << 4 //nolint:gosec // G115: i < 4
		set(0xC1|row, instruction{kind: kindPOP, dst: rp(p)})
		set(0xC5|row, instruction{kind: kindPUSH, src: rp(p)})
	}

	// CB-prefixed space
	for op := 0; op < 256; op++ {
		b := uint8(op) //nolint:gosec // G115: op < 256
		ins := instruction{src: r8(b & 7), bit: b >> 3 & 7}
		switch b >> 6 {
		case 0:
			ins.kind = kindRot
			ins.rot = rotOp(b >> 3 & 7)
		case 1:
			ins.kind = kindBIT
		case 2:
			ins.kind = kindRES
		case 3:
			ins.kind = kindSET
		}
		ins.mnemonic = describe(ins)
		extended[b] = ins
	}
}

// describe builds the mnemonic of a table-generated instruction.
func describe(ins instruction) string {
	cc := ""
	if ins.cond != condAlways {
		cc = condNames[ins.cond] + ","
	}

	switch ins.kind {
	case kindLD8, kindLD16:
		return fmt.Sprintf("LD %s,%s", ins.dst, ins.src)
	case kindINC16:
		return "INC " + ins.dst.String()
	case kindDEC16:
		return "DEC " + ins.dst.String()
	case kindADDHL:
		return "ADD HL," + ins.src.String()
	case kindINC:
		return "INC " + ins.src.String()
	case kindDEC:
		return "DEC " + ins.src.String()
	case kindALU:
		return aluNames[ins.alu] + ins.src.String()
	case kindPUSH:
		return "PUSH " + ins.src.String()
	case kindPOP:
		return "POP " + ins.dst.String()
	case kindJR:
		return "JR " + cc + "e"
	case kindJP:
		return "JP " + cc + "nn"
	case kindCALL:
		return "CALL " + cc + "nn"
	case kindRETcc:
		return "RET " + condNames[ins.cond]
	case kindRot:
		return rotNames[ins.rot] + " " + ins.src.String()
	case kindBIT:
		return fmt.Sprintf("BIT %d,%s", ins.bit, ins.src)
	case kindRES:
		return fmt.Sprintf("RES %d,%s", ins.bit, ins.src)
	case kindSET:
		return fmt.Sprintf("SET %d,%s", ins.bit, ins.src)
	}
	return "?"
}

// Disassemble returns the mnemonic of a primary opcode.
func Disassemble(opcode uint8) string {
	return primary[opcode].mnemonic
}

// DisassembleCB returns the mnemonic of a CB-prefixed opcode.
func DisassembleCB(opcode uint8) string {
	return extended[opcode].mnemonic
}
