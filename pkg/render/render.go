// Package render turns display frames into images: plane combinations are
// mapped through a four colour palette and, optionally, pixels fade in and
// out to mimic phosphor persistence.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"gochip8/pkg/display"
	"gochip8/pkg/grid"
)

const (
	decayOn  = 200
	decayOff = 25

	Width  = display.Cols
	Height = display.Rows
)

var ErrPalette = errors.New("palette needs at most 4 colours")

// Palette maps a cell value (plane 0 is bit 0, plane 1 is bit 1) to a colour.
type Palette [4]color.RGBA

var DefaultPalette = Palette{
	colornames.Black,
	colornames.Whitesmoke,
	colornames.Darkorange,
	colornames.Dimgray,
}

// PaletteFromRGB builds a palette from 0xRRGGBB values. Missing entries keep
// the default colour.
func PaletteFromRGB(values []uint32) (Palette, error) {
	p := DefaultPalette
	if len(values) > len(p) {
		return p, fmt.Errorf("%w: got %d", ErrPalette, len(values))
	}
	for i, v := range values {
		p[i] = color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
	}
	return p, nil
}

type cell struct {
	intensity uint8
	value     uint8
}

// Renderer keeps per-cell fade state between frames. It is not safe for
// concurrent use; one renderer belongs to one frontend goroutine.
type Renderer struct {
	palette Palette
	decay   bool
	frame   display.Frame
	cells   [Width * Height]cell
	img     *image.RGBA
}

func New(p Palette, decay bool) *Renderer {
	return &Renderer{
		palette: p,
		decay:   decay,
		img:     image.NewRGBA(image.Rect(0, 0, Width, Height)),
	}
}

// Update snapshots src and redraws the image. The returned image is reused
// by the next call.
func (r *Renderer) Update(src display.Reader) *image.RGBA {
	src.Snapshot(&r.frame)

	for i := range r.cells {
		x, y := grid.GetGridCoords(i, Width)
		v := r.frame[y][x].Value()
		c := &r.cells[i]

		switch {
		case !r.decay:
			c.value = v
			c.intensity = 0xFF
		case v != 0:
			c.value = v
			c.intensity = uint8(min(int(c.intensity)+decayOn, 0xFF))
		default:
			c.intensity = uint8(max(int(c.intensity)-decayOff, 0))
		}

		col := r.palette[0]
		if c.value != 0 {
			col = blend(r.palette[0], r.palette[c.value], c.intensity)
		}
		off := r.img.PixOffset(x, y)
		r.img.Pix[off+0] = col.R
		r.img.Pix[off+1] = col.G
		r.img.Pix[off+2] = col.B
		r.img.Pix[off+3] = 0xFF
	}
	return r.img
}

func blend(bg, fg color.RGBA, alpha uint8) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8((int(a)*(0xFF-int(alpha)) + int(b)*int(alpha)) / 0xFF)
	}
	return color.RGBA{R: mix(bg.R, fg.R), G: mix(bg.G, fg.G), B: mix(bg.B, fg.B), A: 0xFF}
}

// Scale returns img enlarged by an integer factor with hard pixel edges.
func Scale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SaveScreenshot writes img, scaled by factor, as a PNG.
func SaveScreenshot(img image.Image, factor int, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, Scale(img, factor))
}
