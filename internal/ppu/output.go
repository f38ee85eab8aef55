package ppu

// drain shifts one pixel out of the FIFO while it holds more than the
// reserve, resolves it through its palette and writes it to the back buffer.
func (p *PPU) drain() {
	if p.fifo.len() <= fifoThreshold {
		return
	}
	px := p.fifo.pop()
	if p.discard > 0 {
		p.discard--
		return
	}

	p.back.SetShade(int(p.ly)*ScreenWidth+p.x, applyPalette(px.color, p.bus.Read(px.palette.register())))
	p.x++
	p.written++

	if p.x == ScreenWidth {
		p.enterHBlank()
	}
}

// applyPalette maps a colour index (0-3) to a shade (0-3). Each palette entry
// is two bits, entry 0 in the lowest.
func applyPalette(colorIndex, palette uint8) uint8 {
	return (palette >> (colorIndex * 2)) & 0x03
}
