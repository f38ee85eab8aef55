package ppu

import (
	"testing"

	"github.com/richardwooding/dmgcore/internal/interrupt"
	"github.com/richardwooding/dmgcore/internal/video"
)

// fakeBus is a flat memory with the bus's PPU write rules.
type fakeBus struct {
	mem      [0x10000]uint8
	requests map[interrupt.Source]int
}

func newFakeBus() *fakeBus {
	b := &fakeBus{requests: make(map[interrupt.Source]int)}
	b.mem[LCDC] = 0x91
	b.mem[BGP] = 0xE4
	return b
}

func (b *fakeBus) Read(addr uint16) uint8 {
	return b.mem[addr]
}

func (b *fakeBus) StorePPU(addr uint16, value uint8) {
	switch addr {
	case LY:
		b.mem[addr] = value
	case STAT:
		b.mem[addr] = b.mem[addr]&0x78 | value&0x07
	default:
		panic("StorePPU to unexpected address")
	}
}

func (b *fakeBus) RequestInterrupt(src interrupt.Source) {
	b.requests[src]++
	b.mem[interrupt.FlagAddr] |= src.Bit()
}

// countingPresenter records presented frames.
type countingPresenter struct {
	count int
	last  *video.Frame
}

func (c *countingPresenter) Present(frame *video.Frame) {
	c.count++
	c.last = frame
}

func setupPPU() (*PPU, *fakeBus, *countingPresenter) {
	bus := newFakeBus()
	presenter := &countingPresenter{}
	return New(bus, presenter, nil), bus, presenter
}

// stepMany steps the PPU by the given number of dots.
func stepMany(p *PPU, dots int) {
	for i := 0; i < dots; i++ {
		p.Step()
	}
}

// fillTile writes the same two bit planes to every row of a tile.
func fillTile(b *fakeBus, addr uint16, low, high uint8) {
	for row := uint16(0); row < 8; row++ {
		b.mem[addr+row*2] = low
		b.mem[addr+row*2+1] = high
	}
}

func TestInitialState(t *testing.T) {
	p, _, _ := setupPPU()

	if p.Stage() != StageDisabled {
		t.Errorf("initial stage = %v, want DISABLED", p.Stage())
	}
	if p.Dot() != -1 {
		t.Errorf("initial dot = %d, want -1", p.Dot())
	}
}

func TestStaysDisabledWithLCDOff(t *testing.T) {
	p, bus, presenter := setupPPU()
	bus.mem[LCDC] = 0x00

	stepMany(p, DotsPerFrame)

	if p.Stage() != StageDisabled {
		t.Errorf("stage = %v, want DISABLED", p.Stage())
	}
	if presenter.count != 0 {
		t.Errorf("presented %d frames with the LCD off", presenter.count)
	}
}

func TestLineStages(t *testing.T) {
	tests := []struct {
		name      string
		scx       uint8
		hblankDot int
	}{
		{"no scroll", 0, 247},
		{"fine scroll 3", 3, 250},
		{"coarse scroll only", 16, 247},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus, _ := setupPPU()
			bus.mem[SCX] = tt.scx

			p.Step()
			if p.Stage() != StageOAMSearch || p.LY() != 0 || p.Dot() != 0 {
				t.Fatalf("first dot: stage=%v LY=%d dot=%d, want OAM_SEARCH 0 0", p.Stage(), p.LY(), p.Dot())
			}

			stepMany(p, DotsOAMScan-1)
			if p.Stage() != StageOAMSearch {
				t.Fatalf("dot %d: stage = %v, want OAM_SEARCH", p.Dot(), p.Stage())
			}

			p.Step()
			if p.Stage() != StagePixelTransfer {
				t.Fatalf("dot %d: stage = %v, want PIXEL_TRANSFER", p.Dot(), p.Stage())
			}

			for p.Stage() == StagePixelTransfer {
				if p.x >= ScreenWidth {
					t.Fatalf("cursor reached %d while still transferring", p.x)
				}
				p.Step()
			}

			if p.Stage() != StageHBlank {
				t.Fatalf("stage after transfer = %v, want HBLANK", p.Stage())
			}
			if p.x != ScreenWidth {
				t.Errorf("pixels written = %d, want %d", p.x, ScreenWidth)
			}
			if p.Dot() != tt.hblankDot {
				t.Errorf("HBLANK entered at dot %d, want %d", p.Dot(), tt.hblankDot)
			}

			stepMany(p, DotsPerScanline-1-p.Dot())
			if p.Stage() != StageHBlank || p.LY() != 0 {
				t.Fatalf("end of line: stage=%v LY=%d", p.Stage(), p.LY())
			}

			p.Step()
			if p.Stage() != StageOAMSearch || p.LY() != 1 || bus.mem[LY] != 1 {
				t.Errorf("next line: stage=%v LY=%d bus LY=%d, want OAM_SEARCH 1 1", p.Stage(), p.LY(), bus.mem[LY])
			}
		})
	}
}

func TestFrameTiming(t *testing.T) {
	p, _, _ := setupPPU()

	oamLines := make(map[uint8]bool)
	vblankLines := make(map[uint8]bool)
	vblankDots := 0

	for i := 0; i < DotsPerFrame; i++ {
		p.Step()
		switch p.Stage() {
		case StageOAMSearch:
			oamLines[p.LY()] = true
		case StageVBlank:
			vblankLines[p.LY()] = true
			vblankDots++
		}
	}

	if len(oamLines) != ScanlinesVisible {
		t.Errorf("visible lines = %d, want %d", len(oamLines), ScanlinesVisible)
	}
	if len(vblankLines) != ScanlinesVBlank {
		t.Errorf("VBLANK lines = %d, want %d", len(vblankLines), ScanlinesVBlank)
	}
	if vblankDots != ScanlinesVBlank*DotsPerScanline {
		t.Errorf("VBLANK dots = %d, want %d", vblankDots, ScanlinesVBlank*DotsPerScanline)
	}
	if p.LY() != ScanlinesTotal-1 || p.Dot() != DotsPerScanline-1 {
		t.Fatalf("after one frame: LY=%d dot=%d, want 153 455", p.LY(), p.Dot())
	}

	p.Step()
	if p.LY() != 0 || p.Dot() != 0 || p.Stage() != StageOAMSearch {
		t.Errorf("wrap: LY=%d dot=%d stage=%v, want 0 0 OAM_SEARCH", p.LY(), p.Dot(), p.Stage())
	}
}

func TestVBlankInterruptAndPresent(t *testing.T) {
	p, bus, presenter := setupPPU()

	stepMany(p, ScanlinesVisible*DotsPerScanline)
	if bus.requests[interrupt.VBlank] != 0 || presenter.count != 0 {
		t.Fatalf("VBlank before line 144: requests=%d presents=%d", bus.requests[interrupt.VBlank], presenter.count)
	}

	p.Step()
	if p.Stage() != StageVBlank || p.LY() != ScanlinesVisible {
		t.Fatalf("stage=%v LY=%d, want VBLANK 144", p.Stage(), p.LY())
	}
	if bus.requests[interrupt.VBlank] != 1 {
		t.Errorf("VBlank requests = %d, want 1", bus.requests[interrupt.VBlank])
	}
	if presenter.count != 1 {
		t.Errorf("presents = %d, want 1", presenter.count)
	}
	if presenter.last != p.Frame() {
		t.Error("presented frame is not the front buffer")
	}

	stepMany(p, 3*DotsPerFrame)
	if presenter.count != 4 || p.Frames() != 4 {
		t.Errorf("after four frames: presents=%d Frames()=%d, want 4", presenter.count, p.Frames())
	}
	if bus.requests[interrupt.VBlank] != 4 {
		t.Errorf("VBlank requests = %d, want 4", bus.requests[interrupt.VBlank])
	}
}

func TestDoubleBuffer(t *testing.T) {
	p, _, presenter := setupPPU()

	stepMany(p, DotsPerFrame)
	first := presenter.last
	stepMany(p, DotsPerFrame)
	second := presenter.last

	if first == nil || second == nil {
		t.Fatal("no frame presented")
	}
	if first == second {
		t.Error("consecutive frames share a buffer")
	}
}

func TestBackgroundPixels(t *testing.T) {
	p, bus, presenter := setupPPU()
	// Tile 0 at 0x8000, every map entry is 0.
	fillTile(bus, 0x8000, 0x0F, 0x33)

	stepMany(p, DotsPerFrame)
	if presenter.count != 1 {
		t.Fatalf("presents = %d, want 1", presenter.count)
	}

	want := [8]uint8{0, 0, 2, 2, 1, 1, 3, 3}
	frame := presenter.last
	for _, y := range []int{0, 77, ScreenHeight - 1} {
		for x := 0; x < ScreenWidth; x++ {
			if got := frame.Shade(x, y); got != want[x%8] {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want[x%8])
			}
		}
	}
}

func TestPalette(t *testing.T) {
	p, bus, presenter := setupPPU()
	fillTile(bus, 0x8000, 0xFF, 0x00) // colour index 1 everywhere
	bus.mem[BGP] = 0x0C               // index 1 -> shade 3

	stepMany(p, DotsPerFrame)

	if got := presenter.last.Shade(10, 10); got != 3 {
		t.Errorf("shade = %d, want 3", got)
	}
	if got := presenter.last.Pix[0]; got != 0x00 {
		t.Errorf("grey level = %02X, want 0x00", got)
	}
}

func TestSignedTileData(t *testing.T) {
	p, bus, presenter := setupPPU()
	bus.mem[LCDC] = 0x81 // tile data at 0x8800-0x97FF, signed
	for i := uint16(0); i < 0x400; i++ {
		bus.mem[0x9800+i] = 0x80
	}
	fillTile(bus, 0x8800, 0xFF, 0xFF) // tile -128
	fillTile(bus, 0x8000, 0x00, 0x00) // what unsigned 0x80 would miss

	stepMany(p, DotsPerFrame)

	if got := presenter.last.Shade(0, 0); got != 3 {
		t.Errorf("shade = %d, want 3 from tile 0x8800", got)
	}
}

func TestTileMapSelect(t *testing.T) {
	p, bus, presenter := setupPPU()
	bus.mem[LCDC] = 0x99 // map at 0x9C00
	for i := uint16(0); i < 0x400; i++ {
		bus.mem[0x9C00+i] = 1
	}
	fillTile(bus, 0x8010, 0xFF, 0xFF)

	stepMany(p, DotsPerFrame)

	if got := presenter.last.Shade(80, 80); got != 3 {
		t.Errorf("shade = %d, want 3 from map 0x9C00", got)
	}
}

func TestScroll(t *testing.T) {
	tests := []struct {
		name     string
		scx, scy uint8
		check    map[[2]int]uint8
	}{
		{
			name: "coarse X",
			scx:  8,
			check: map[[2]int]uint8{
				{0, 0}: 3, {7, 0}: 3, {8, 0}: 0,
			},
		},
		{
			name: "fine X",
			scx:  4,
			check: map[[2]int]uint8{
				{0, 0}: 0, {3, 0}: 0, {4, 0}: 3, {11, 0}: 3, {12, 0}: 0,
			},
		},
		{
			name: "Y selects map row",
			scy:  8,
			check: map[[2]int]uint8{
				{8, 0}: 3, {0, 0}: 0, {8, 8}: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus, presenter := setupPPU()
			bus.mem[SCX] = tt.scx
			bus.mem[SCY] = tt.scy
			fillTile(bus, 0x8010, 0xFF, 0xFF) // tile 1 is solid
			if tt.scy == 0 {
				bus.mem[0x9801] = 1 // row 0, column 1
			} else {
				bus.mem[0x9821] = 1 // row 1, column 1
			}

			stepMany(p, DotsPerFrame)

			for pos, want := range tt.check {
				if got := presenter.last.Shade(pos[0], pos[1]); got != want {
					t.Errorf("pixel (%d,%d) = %d, want %d", pos[0], pos[1], got, want)
				}
			}
		})
	}
}

func TestBackgroundDisabled(t *testing.T) {
	p, bus, presenter := setupPPU()
	bus.mem[LCDC] = 0x90
	bus.mem[BGP] = 0x02 // index 0 -> shade 2
	fillTile(bus, 0x8000, 0xFF, 0xFF)

	stepMany(p, DotsPerFrame)

	for _, x := range []int{0, 50, ScreenWidth - 1} {
		if got := presenter.last.Shade(x, 20); got != 2 {
			t.Errorf("pixel (%d,20) = %d, want 2", x, got)
		}
	}
}

func TestDisableAndEnable(t *testing.T) {
	p, bus, presenter := setupPPU()

	stepMany(p, 10*DotsPerScanline+100)
	if p.LY() != 10 {
		t.Fatalf("setup: LY = %d, want 10", p.LY())
	}

	bus.mem[LCDC] &^= LCDCLCDEnable
	p.Step()

	if p.Stage() != StageDisabled || p.LY() != 0 || bus.mem[LY] != 0 {
		t.Errorf("after disable: stage=%v LY=%d bus LY=%d", p.Stage(), p.LY(), bus.mem[LY])
	}
	if bus.mem[STAT]&STATModeMask != ModeHBlank {
		t.Errorf("STAT mode = %d, want 0 while disabled", bus.mem[STAT]&STATModeMask)
	}
	if presenter.count != 1 {
		t.Fatalf("presents = %d, want the blank screen once", presenter.count)
	}
	if got := presenter.last.Shade(0, 0); got != 0 {
		t.Errorf("blank screen shade = %d, want 0", got)
	}

	stepMany(p, 1000)
	if presenter.count != 1 {
		t.Errorf("presents = %d while disabled, want 1", presenter.count)
	}

	bus.mem[LCDC] |= LCDCLCDEnable
	p.Step()
	if p.Stage() != StageOAMSearch || p.LY() != 0 || p.Dot() != 0 {
		t.Errorf("after enable: stage=%v LY=%d dot=%d, want OAM_SEARCH 0 0", p.Stage(), p.LY(), p.Dot())
	}

	stepMany(p, DotsPerFrame-1)
	if presenter.count != 2 {
		t.Errorf("presents after a full frame = %d, want 2", presenter.count)
	}
}

func TestSTATMode(t *testing.T) {
	p, bus, _ := setupPPU()

	check := func(want uint8) {
		t.Helper()
		if got := bus.mem[STAT] & STATModeMask; got != want {
			t.Errorf("LY=%d dot=%d: STAT mode = %d, want %d", p.LY(), p.Dot(), got, want)
		}
	}

	p.Step()
	check(ModeOAMScan)
	stepMany(p, DotsOAMScan)
	check(ModeDrawing)
	stepMany(p, 200)
	check(ModeHBlank)
	stepMany(p, ScanlinesVisible*DotsPerScanline-DotsOAMScan-200)
	check(ModeVBlank)
}

func TestLYCCoincidence(t *testing.T) {
	p, bus, _ := setupPPU()
	bus.mem[LYC] = 5
	bus.mem[STAT] = STATLYCInterrupt

	stepMany(p, 5*DotsPerScanline)
	if bus.mem[STAT]&STATLYCFlag != 0 {
		t.Error("coincidence flag set before LY=LYC")
	}
	if bus.requests[interrupt.STAT] != 0 {
		t.Error("STAT interrupt before LY=LYC")
	}

	p.Step()
	if bus.mem[STAT]&STATLYCFlag == 0 {
		t.Error("coincidence flag not set at LY=LYC")
	}
	if bus.requests[interrupt.STAT] != 1 {
		t.Errorf("STAT requests = %d, want 1", bus.requests[interrupt.STAT])
	}

	// The source stays active for the whole line and raises no new request.
	stepMany(p, DotsPerScanline)
	if bus.requests[interrupt.STAT] != 1 {
		t.Errorf("STAT requests = %d after the line, want 1", bus.requests[interrupt.STAT])
	}
	if bus.mem[STAT]&STATLYCFlag != 0 {
		t.Error("coincidence flag still set at LY=6")
	}
}

func TestSTATModeInterrupts(t *testing.T) {
	tests := []struct {
		name   string
		enable uint8
		want   int
	}{
		{"HBlank", STATMode0Interrupt, ScanlinesVisible},
		{"VBlank", STATMode1Interrupt, 1},
		{"OAM", STATMode2Interrupt, ScanlinesVisible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus, _ := setupPPU()
			bus.mem[LYC] = 0xFF
			bus.mem[STAT] = tt.enable

			stepMany(p, DotsPerFrame)

			if got := bus.requests[interrupt.STAT]; got != tt.want {
				t.Errorf("STAT requests = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	if StagePixelTransfer.String() != "PIXEL_TRANSFER" {
		t.Errorf("String() = %q", StagePixelTransfer.String())
	}
	if Stage(9).String() != "UNKNOWN" {
		t.Errorf("String() = %q", Stage(9).String())
	}
}

func BenchmarkFrame(b *testing.B) {
	p, _, _ := setupPPU()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stepMany(p, DotsPerFrame)
	}
}
