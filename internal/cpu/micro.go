package cpu

// microKind is the bus activity of one machine cycle.
type microKind uint8

const (
	microIdle    microKind = iota // internal cycle, no bus access
	microFetchZ                   // Z = [PC++]
	microFetchW                   // W = [PC++]
	microFetchCB                  // decode [PC++] in the CB table
	microRead                     // Z = [addr]
	microWrite                    // [addr] = value
	microPopZ                     // Z = [SP++]
	microPopW                     // W = [SP++]
	microPush                     // [--SP] = value
)

// addrSrc selects the address of a read or write cycle.
type addrSrc uint8

const (
	addrOperand addrSrc = iota // the instruction's memory operand
	addrWZ                     // WZ
	addrWZNext                 // WZ+1
)

// valueSrc selects the byte written by a write or push cycle.
type valueSrc uint8

const (
	valReg      valueSrc = iota // the instruction's source register
	valZ                        // Z latch
	valSPLow                    // low byte of SP
	valSPHigh                   // high byte of SP
	valPCHigh                   // high byte of PC
	valPCLow                    // low byte of PC
	valPairHigh                 // high byte of the source pair
	valPairLow                  // low byte of the source pair
)

// microOp is one queued machine cycle of the current instruction.
type microOp struct {
	kind  microKind
	addr  addrSrc
	value valueSrc
	// done completes the instruction once the cycle's bus access is over.
	done bool
}

var (
	opIdle    = microOp{kind: microIdle}
	opFetchZ  = microOp{kind: microFetchZ}
	opFetchW  = microOp{kind: microFetchW}
	opFetchCB = microOp{kind: microFetchCB}
	opPopZ    = microOp{kind: microPopZ}
	opPopW    = microOp{kind: microPopW}
	opRead    = microOp{kind: microRead, addr: addrOperand}
)

func done(op microOp) microOp {
	op.done = true
	return op
}

func write(addr addrSrc, value valueSrc) microOp {
	return microOp{kind: microWrite, addr: addr, value: value}
}

func push(value valueSrc) microOp {
	return microOp{kind: microPush, value: value}
}

// queueSize covers the longest sequence: CALL with five cycles after fetch.
const queueSize = 6

// queue is a fixed-capacity FIFO of micro-ops.
type queue struct {
	ops  [queueSize]microOp
	head int
	size int
}

func (q *queue) push(ops ...microOp) {
	for _, op := range ops {
		if q.size == queueSize {
			panic("cpu: micro-op queue overflow")
		}
		q.ops[(q.head+q.size)%queueSize] = op
		q.size++
	}
}

func (q *queue) pop() microOp {
	op := q.ops[q.head]
	q.head = (q.head + 1) % queueSize
	q.size--
	return op
}

func (q *queue) len() int { return q.size }

func (q *queue) reset() {
	q.head = 0
	q.size = 0
}

// run performs one queued machine cycle.
func (c *CPU) run(op microOp) {
	r := c.Registers
	switch op.kind {
	case microIdle:
	case microFetchZ:
		c.z = c.fetch()
	case microFetchW:
		c.w = c.fetch()
	case microFetchCB:
		c.begin(&extended[c.fetch()])
	case microRead:
		c.z = c.Memory.Read(c.address(op.addr))
	case microWrite:
		c.Memory.Write(c.address(op.addr), c.value(op.value))
	case microPopZ:
		c.z = c.Memory.Read(r.SP)
		r.SP++
	case microPopW:
		c.w = c.Memory.Read(r.SP)
		r.SP++
	case microPush:
		r.SP--
		c.Memory.Write(r.SP, c.value(op.value))
	}

	if op.done {
		c.complete()
	}
}

func (c *CPU) wz() uint16 {
	return uint16(c.w)<<8 | uint16(c.z)
}

func (c *CPU) address(a addrSrc) uint16 {
	switch a {
	case addrWZ:
		return c.wz()
	case addrWZNext:
		return c.wz() + 1
	}

	switch c.ins.target().mode {
	case modeHigh:
		return 0xFF00 | uint16(c.z)
	case modeHighC:
		return 0xFF00 | uint16(c.Registers.C)
	case modeAbsolute:
		return c.wz()
	default:
		return c.addr
	}
}

func (c *CPU) value(v valueSrc) uint8 {
	r := c.Registers
	switch v {
	case valReg:
		return r.get(c.ins.src.reg)
	case valZ:
		return c.z
	case valSPLow:
		return uint8(r.SP) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	case valSPHigh:
		return uint8(r.SP >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	case valPCHigh:
		return uint8(r.PC >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	case valPCLow:
		return uint8(r.PC) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	case valPairHigh:
		return uint8(r.pair(c.ins.src.pair) >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	default:
		return uint8(r.pair(c.ins.src.pair)) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	}
}
