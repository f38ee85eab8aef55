// Package ppu implements the background pixel pipeline of the DMG Picture
// Processing Unit.
//
// The PPU is stepped once per dot. It reads its registers and VRAM through
// the bus like any other component, writes LY and the STAT status bits
// through the bus's privileged path, and hands each completed frame to a
// Presenter.
package ppu

import (
	"github.com/richardwooding/dmgcore/internal/interrupt"
	"github.com/richardwooding/dmgcore/internal/log"
	"github.com/richardwooding/dmgcore/internal/video"
)

const (
	// ScreenWidth is the Game Boy screen width in pixels.
	ScreenWidth = video.Width
	// ScreenHeight is the Game Boy screen height in pixels.
	ScreenHeight = video.Height
)

const (
	// ModeHBlank is the STAT mode for H-Blank (end of scanline).
	ModeHBlank = 0
	// ModeVBlank is the STAT mode for V-Blank (vertical blank period).
	ModeVBlank = 1
	// ModeOAMScan is the STAT mode for OAM Scan (searching for sprites).
	ModeOAMScan = 2
	// ModeDrawing is the STAT mode for drawing pixels.
	ModeDrawing = 3
)

const (
	// DotsPerScanline is the total number of dots per scanline.
	DotsPerScanline = 456
	// DotsOAMScan is the duration of OAM search in dots.
	DotsOAMScan = 80
	// ScanlinesVisible is the number of visible scanlines.
	ScanlinesVisible = 144
	// ScanlinesVBlank is the number of V-Blank scanlines.
	ScanlinesVBlank = 10
	// ScanlinesTotal is the total number of scanlines per frame.
	ScanlinesTotal = 154
	// DotsPerFrame is the total number of dots per frame.
	DotsPerFrame = 70224
)

// Register addresses read or written by the PPU.
const (
	LCDC = 0xFF40
	STAT = 0xFF41
	SCY  = 0xFF42
	SCX  = 0xFF43
	LY   = 0xFF44
	LYC  = 0xFF45
	BGP  = 0xFF47
	OBP0 = 0xFF48
	OBP1 = 0xFF49
)

const (
	// LCDCLCDEnable is the LCDC bit for LCD Display Enable.
	LCDCLCDEnable = 1 << 7
	// LCDCBGTileData is the LCDC bit for BG tile data select (1 = 0x8000 unsigned).
	LCDCBGTileData = 1 << 4
	// LCDCBGTileMap is the LCDC bit for BG tile map select (1 = 0x9C00).
	LCDCBGTileMap = 1 << 3
	// LCDCBGEnable is the LCDC bit for BG display.
	LCDCBGEnable = 1 << 0
)

const (
	// STATLYCInterrupt is the STAT bit for LYC=LY Interrupt.
	STATLYCInterrupt = 1 << 6
	// STATMode2Interrupt is the STAT bit for Mode 2 OAM Interrupt.
	STATMode2Interrupt = 1 << 5
	// STATMode1Interrupt is the STAT bit for Mode 1 V-Blank Interrupt.
	STATMode1Interrupt = 1 << 4
	// STATMode0Interrupt is the STAT bit for Mode 0 H-Blank Interrupt.
	STATMode0Interrupt = 1 << 3
	// STATLYCFlag is the STAT bit for LYC=LY Flag.
	STATLYCFlag = 1 << 2
	// STATModeMask is the mask for STAT mode bits.
	STATModeMask = 0x03
)

// Bus is the PPU's view of the memory bus.
type Bus interface {
	Read(addr uint16) uint8
	StorePPU(addr uint16, value uint8)
	RequestInterrupt(src interrupt.Source)
}

// Presenter receives completed frames. The frame stays valid until the next
// call to Present.
type Presenter interface {
	Present(frame *video.Frame)
}

// Stage is the state of the scanline state machine.
type Stage uint8

const (
	StageDisabled Stage = iota
	StageOAMSearch
	StagePixelTransfer
	StageHBlank
	StageVBlank
)

var stageNames = [...]string{"DISABLED", "OAM_SEARCH", "PIXEL_TRANSFER", "HBLANK", "VBLANK"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "UNKNOWN"
}

// Mode returns the STAT mode bits reported for the stage.
func (s Stage) Mode() uint8 {
	switch s {
	case StageOAMSearch:
		return ModeOAMScan
	case StagePixelTransfer:
		return ModeDrawing
	case StageVBlank:
		return ModeVBlank
	}
	return ModeHBlank
}

// PPU represents the Game Boy Picture Processing Unit.
type PPU struct {
	bus       Bus
	presenter Presenter
	logger    log.Logger
	gaps      *log.Once

	stage Stage
	dot   int // dot within the line, -1 before the first
	ly    uint8

	fetcher fetcher
	fifo    fifo
	discard uint8 // pixels still dropped for fine horizontal scroll
	x       int   // output cursor within the line

	front, back *video.Frame
	written     int // pixels written to back since the frame started
	frames      uint64

	statLine bool
}

// New creates a PPU in the DISABLED stage. presenter may be nil.
func New(bus Bus, presenter Presenter, logger log.Logger) *PPU {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &PPU{
		bus:       bus,
		presenter: presenter,
		logger:    logger,
		gaps:      log.NewOnce(logger),
		dot:       -1,
		front:     new(video.Frame),
		back:      new(video.Frame),
	}
}

// SetPresenter replaces the frame consumer.
func (p *PPU) SetPresenter(presenter Presenter) {
	p.presenter = presenter
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	if p.bus.Read(LCDC)&LCDCLCDEnable == 0 {
		if p.stage != StageDisabled {
			p.disable()
		}
		return
	}
	if p.stage == StageDisabled {
		p.enable()
	}

	p.dot++
	if p.dot == DotsPerScanline {
		p.dot = 0
		p.ly++
		if p.ly == ScanlinesTotal {
			p.ly = 0
		}
		p.bus.StorePPU(LY, p.ly)
	}

	switch {
	case p.ly >= ScanlinesVisible:
		if p.ly == ScanlinesVisible && p.dot == 0 {
			p.enterVBlank()
		}
	case p.dot == 0:
		if p.ly == 0 {
			p.written = 0
		}
		p.stage = StageOAMSearch
	case p.dot == DotsOAMScan:
		p.startPixelTransfer()
	}

	if p.stage == StagePixelTransfer {
		p.drain()
		if p.stage == StagePixelTransfer {
			p.fetcher.step(p)
		}
	}

	p.updateSTAT()
}

// enable powers the LCD on. The same step then begins line 0.
func (p *PPU) enable() {
	p.gaps.Warn("objects", "ppu: sprites and window are not rendered")
	p.stage = StageOAMSearch
	p.dot = -1
	p.ly = 0
	p.statLine = false
	p.bus.StorePPU(LY, 0)
}

// disable powers the LCD off and blanks the screen.
func (p *PPU) disable() {
	p.stage = StageDisabled
	p.dot = -1
	p.ly = 0
	p.fifo.reset()
	p.fetcher.reset()
	p.bus.StorePPU(LY, 0)
	p.bus.StorePPU(STAT, 0)
	p.statLine = false

	p.back.Fill(0)
	p.written = ScreenWidth * ScreenHeight
	p.present()
}

func (p *PPU) startPixelTransfer() {
	p.stage = StagePixelTransfer
	p.fifo.reset()
	p.fetcher.reset()
	p.x = 0
	p.discard = p.bus.Read(SCX) & 7
}

func (p *PPU) enterHBlank() {
	p.stage = StageHBlank
	p.fifo.reset()
	p.fetcher.reset()
}

func (p *PPU) enterVBlank() {
	p.stage = StageVBlank
	p.bus.RequestInterrupt(interrupt.VBlank)
	p.present()
}

// present swaps the buffers and hands the finished frame over, provided
// every pixel of it was written.
func (p *PPU) present() {
	if p.written != ScreenWidth*ScreenHeight {
		p.logger.Debugf("ppu: dropping incomplete frame (%d pixels)", p.written)
		return
	}
	p.front, p.back = p.back, p.front
	p.written = 0
	p.frames++
	if p.presenter != nil {
		p.presenter.Present(p.front)
	}
}

// updateSTAT publishes the mode and coincidence bits and raises the STAT
// interrupt when any enabled source becomes active.
func (p *PPU) updateSTAT() {
	stat := p.bus.Read(STAT)
	coincidence := p.ly == p.bus.Read(LYC)

	status := p.stage.Mode()
	if coincidence {
		status |= STATLYCFlag
	}
	p.bus.StorePPU(STAT, status)

	line := coincidence && stat&STATLYCInterrupt != 0
	switch p.stage {
	case StageHBlank:
		line = line || stat&STATMode0Interrupt != 0
	case StageVBlank:
		line = line || stat&STATMode1Interrupt != 0
	case StageOAMSearch:
		line = line || stat&STATMode2Interrupt != 0
	}

	if line && !p.statLine {
		p.bus.RequestInterrupt(interrupt.STAT)
	}
	p.statLine = line
}

// Stage returns the current stage.
func (p *PPU) Stage() Stage {
	return p.stage
}

// LY returns the current scanline.
func (p *PPU) LY() uint8 {
	return p.ly
}

// Dot returns the dot within the current line, or -1 before the first.
func (p *PPU) Dot() int {
	return p.dot
}

// Frame returns the most recently presented frame.
func (p *PPU) Frame() *video.Frame {
	return p.front
}

// Frames returns the number of frames presented.
func (p *PPU) Frames() uint64 {
	return p.frames
}
