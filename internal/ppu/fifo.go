package ppu

// fifoSize is the pixel FIFO capacity: eight pixels waiting to be shifted out
// plus one freshly fetched tile row.
const fifoSize = 16

// fifoThreshold is the depth the FIFO keeps in reserve. It only shifts pixels
// out above it and the fetcher only pushes at or below it.
const fifoThreshold = 8

// palette selects the palette register a pixel is resolved through.
type palette uint8

const (
	paletteBG palette = iota
	paletteOBP0
	paletteOBP1
)

// register returns the address of the palette register.
func (pal palette) register() uint16 {
	return BGP + uint16(pal)
}

type pixel struct {
	color   uint8 // 2-bit colour index
	palette palette
}

// fifo is a fixed-capacity ring buffer of pixels.
type fifo struct {
	buf  [fifoSize]pixel
	head int
	size int
}

func (f *fifo) push(px pixel) {
	if f.size == fifoSize {
		panic("ppu: pixel FIFO overflow")
	}
	f.buf[(f.head+f.size)%fifoSize] = px
	f.size++
}

func (f *fifo) pop() pixel {
	px := f.buf[f.head]
	f.head = (f.head + 1) % fifoSize
	f.size--
	return px
}

func (f *fifo) len() int { return f.size }

func (f *fifo) reset() {
	f.head = 0
	f.size = 0
}
