package ppu

// fetchStage is a step of the background fetcher. Each takes one dot.
type fetchStage uint8

const (
	fetchTileNumber fetchStage = iota
	fetchDataLow
	fetchDataHigh
	fetchPush
)

const (
	tileMap0  = 0x9800
	tileMap1  = 0x9C00
	tileData0 = 0x9000 // signed tile numbers
	tileData1 = 0x8000 // unsigned tile numbers
	tileBytes = 16
)

// fetcher reads background tile rows from VRAM and pushes them into the FIFO.
type fetcher struct {
	stage fetchStage
	tileX uint8 // tiles pushed on this line
	row   uint8 // pixel row within the tile
	tile  uint8
	low   uint8
	high  uint8
}

func (f *fetcher) reset() {
	*f = fetcher{}
}

func (f *fetcher) step(p *PPU) {
	switch f.stage {
	case fetchTileNumber:
		lcdc := p.bus.Read(LCDC)
		base := uint16(tileMap0)
		if lcdc&LCDCBGTileMap != 0 {
			base = tileMap1
		}
		y := p.ly + p.bus.Read(SCY)
		col := (uint16(p.bus.Read(SCX)/8) + uint16(f.tileX)) & 31
		f.row = y % 8
		f.tile = p.bus.Read(base + uint16(y/8)*32 + col)
		f.stage = fetchDataLow

	case fetchDataLow:
		f.low = p.bus.Read(f.address(p.bus.Read(LCDC)))
		f.stage = fetchDataHigh

	case fetchDataHigh:
		f.high = p.bus.Read(f.address(p.bus.Read(LCDC)) + 1)
		f.stage = fetchPush

	case fetchPush:
		if p.fifo.len() > fifoThreshold {
			return
		}
		bg := p.bus.Read(LCDC)&LCDCBGEnable != 0
		for i := 7; i >= 0; i-- {
			color := (f.high>>i&1)<<1 | f.low>>i&1
			if !bg {
				color = 0
			}
			p.fifo.push(pixel{color: color, palette: paletteBG})
		}
		f.tileX++
		f.stage = fetchTileNumber
	}
}

// address returns the address of the low bit plane of the current tile row.
func (f *fetcher) address(lcdc uint8) uint16 {
	var base uint16
	if lcdc&LCDCBGTileData != 0 {
		base = tileData1 + uint16(f.tile)*tileBytes
	} else {
		base = uint16(int32(tileData0) + int32(int8(f.tile))*tileBytes) //nolint:gosec // G115: signed tile index
	}
	return base + uint16(f.row)*2
}
