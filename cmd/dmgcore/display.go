package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/input"
	"github.com/richardwooding/dmgcore/internal/ppu"
	"github.com/richardwooding/dmgcore/internal/video"
)

var defaultKeys = map[ebiten.Key]input.Button{
	ebiten.KeyArrowUp:    input.ButtonUp,
	ebiten.KeyArrowDown:  input.ButtonDown,
	ebiten.KeyArrowLeft:  input.ButtonLeft,
	ebiten.KeyArrowRight: input.ButtonRight,
	ebiten.KeyZ:          input.ButtonA,
	ebiten.KeyX:          input.ButtonB,
	ebiten.KeyEnter:      input.ButtonStart,
	ebiten.KeyShift:      input.ButtonSelect,
}

// keyBindings returns the default key map with overrides applied. Overrides
// map a button name to an ebiten key name and replace the button's default key.
func keyBindings(overrides map[string]string) (map[ebiten.Key]input.Button, error) {
	keys := make(map[ebiten.Key]input.Button, len(defaultKeys))
	for k, b := range defaultKeys {
		keys[k] = b
	}

	for name, keyName := range overrides {
		button, err := input.ParseButton(name)
		if err != nil {
			return nil, err
		}
		var key ebiten.Key
		if err := key.UnmarshalText([]byte(keyName)); err != nil {
			return nil, fmt.Errorf("key for %s: %w", button, err)
		}
		for k, b := range keys {
			if b == button {
				delete(keys, k)
			}
		}
		keys[key] = button
	}
	return keys, nil
}

// Display implements the Ebiten game interface and receives frames from the
// PPU.
type Display struct {
	emulator *emulator.Emulator
	keys     map[ebiten.Key]input.Button
	screen   *ebiten.Image
	frame    video.Frame
	digest   uint64
	dirty    bool
}

// NewDisplay creates a display reading input through keys. Attach must be
// called before the game runs.
func NewDisplay(keys map[ebiten.Key]input.Button) *Display {
	return &Display{keys: keys}
}

// Attach sets the emulator driven by Update.
func (d *Display) Attach(emu *emulator.Emulator) {
	d.emulator = emu
}

// Present copies a completed frame unless it matches the last one shown.
func (d *Display) Present(f *video.Frame) {
	digest := f.Digest()
	if digest == d.digest && d.screen != nil {
		return
	}
	d.digest = digest
	d.frame = *f
	d.dirty = true
}

// Update runs the emulator until the next frame.
func (d *Display) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	d.handleInput()
	return d.emulator.RunFrame()
}

func (d *Display) handleInput() {
	for key, button := range d.keys {
		if ebiten.IsKeyPressed(key) {
			d.emulator.Joypad.Press(button)
		} else {
			d.emulator.Joypad.Release(button)
		}
	}
}

// Draw draws the game screen.
func (d *Display) Draw(screen *ebiten.Image) {
	if d.screen == nil {
		d.screen = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
		d.dirty = true
	}
	if d.dirty {
		d.screen.WritePixels(d.frame.Pix[:])
		d.dirty = false
	}
	screen.DrawImage(d.screen, nil)
}

// Layout returns the game screen size.
func (d *Display) Layout(_, _ int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}
