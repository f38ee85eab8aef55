// Package video holds the frame buffer produced by the PPU.
package video

import (
	"errors"
	"image"
	"image/png"
	"io"

	"github.com/cespare/xxhash"
	"golang.org/x/image/draw"
)

const (
	// Width is the LCD width in pixels.
	Width = 160
	// Height is the LCD height in pixels.
	Height = 144
	// Stride is the number of bytes in one row of Pix.
	Stride = Width * 4
)

// ErrInvalidScale is returned for screenshot scales below 1.
var ErrInvalidScale = errors.New("scale must be at least 1")

// Frame is one RGBA8888 picture of the LCD.
type Frame struct {
	Pix [Width * Height * 4]byte
}

// Shades maps a palette shade (0-3) to its grey intensity, lightest first.
var Shades = [4]uint8{0xFF, 0xAA, 0x55, 0x00}

// SetShade writes the grey level of shade to pixel i, counted row-major from
// the top-left corner.
func (f *Frame) SetShade(i int, shade uint8) {
	g := Shades[shade&3]
	o := i * 4
	f.Pix[o] = g
	f.Pix[o+1] = g
	f.Pix[o+2] = g
	f.Pix[o+3] = 0xFF
}

// Shade returns the palette shade of the pixel at (x, y).
func (f *Frame) Shade(x, y int) uint8 {
	g := f.Pix[(y*Width+x)*4]
	for s, v := range Shades {
		if v == g {
			return uint8(s) //nolint:gosec // G115: s < 4
		}
	}
	return 0
}

// Fill sets every pixel to shade.
func (f *Frame) Fill(shade uint8) {
	for i := 0; i < Width*Height; i++ {
		f.SetShade(i, shade)
	}
}

// Digest returns a hash of the pixel data. Equal frames have equal digests.
func (f *Frame) Digest() uint64 {
	return xxhash.Sum64(f.Pix[:])
}

// Image returns a copy of the frame as an image.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	copy(img.Pix, f.Pix[:])
	return img
}

// WritePNG encodes the frame as a PNG, enlarged by an integer scale with
// nearest-neighbour sampling so pixel edges stay sharp.
func WritePNG(w io.Writer, f *Frame, scale int) error {
	if scale < 1 {
		return ErrInvalidScale
	}

	src := f.Image()
	if scale == 1 {
		return png.Encode(w, src)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return png.Encode(w, dst)
}
