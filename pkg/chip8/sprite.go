package chip8

import (
	"math/bits"

	"gochip8/pkg/display"
)

const (
	loResCols = display.Cols / 2
	loResRows = display.Rows / 2

	bigSpriteSize  = 16
	bigSpriteBytes = bigSpriteSize * 2
)

// scrollDistance converts a scroll amount in program pixels to buffer
// cells. Lo-res pixels are two cells wide.
func (m *Machine) scrollDistance(n int) int {
	if m.hiRes {
		return n
	}
	return n * 2
}

// geometry returns the logical screen size for the current resolution.
func (m *Machine) geometry() (cols, rows int) {
	if m.hiRes {
		return display.Cols, display.Rows
	}
	return loResCols, loResRows
}

// draw implements Dxyn. Every plane selected by the plane mask gets its own
// page of sprite data, read consecutively from I. VF is set if any pixel on
// any plane was turned off.
func (m *Machine) draw(pc uint16, x, y int, n uint8) error {
	height, width, pageSize := int(n), 8, int(n)
	if n == 0 {
		if !m.hiRes {
			m.V[0xF] = 0
			return nil
		}
		height, width, pageSize = bigSpriteSize, bigSpriteSize, bigSpriteBytes
	}

	mask := m.planeMask & display.AllPlanes
	pages := bits.OnesCount8(mask)
	if pages > 0 {
		if end := int(m.I) + pages*pageSize - 1; end >= MemorySize {
			return invalidMemoryAccess(pc, end)
		}
	}

	cols, rows := m.geometry()
	originX := int(m.V[x]) % cols
	originY := int(m.V[y]) % rows
	clip := m.quirks.Clipping
	scale := 1
	if !m.hiRes {
		scale = 2
	}

	collided := false
	m.V[0xF] = 0

	m.screen.Update(func(f *display.Frame) {
		addr := int(m.I)
		for plane := 0; plane < display.Planes; plane++ {
			if mask&(1<<plane) == 0 {
				continue
			}
			sprite := m.Memory[addr : addr+pageSize]
			addr += pageSize

			for row := 0; row < height; row++ {
				var line uint16
				if width == bigSpriteSize {
					line = uint16(sprite[row*2])<<8 | uint16(sprite[row*2+1])
				} else {
					line = uint16(sprite[row]) << 8
				}

				py := originY + row
				if py >= rows {
					if clip {
						break
					}
					py %= rows
				}

				for col := 0; col < width; col++ {
					if line&(0x8000>>col) == 0 {
						continue
					}
					px := originX + col
					if px >= cols {
						if clip {
							break
						}
						px %= cols
					}
					if togglePixel(f, px*scale, py*scale, scale, plane) {
						collided = true
					}
				}
			}
		}
	})

	if collided {
		m.V[0xF] = 1
	}
	return nil
}

// togglePixel flips a scale x scale block of cells on one plane and reports
// whether any of them was set beforehand.
func togglePixel(f *display.Frame, col, row, scale, plane int) bool {
	hit := false
	for dy := 0; dy < scale; dy++ {
		for dx := 0; dx < scale; dx++ {
			cell := &f[row+dy][col+dx][plane]
			if *cell {
				hit = true
			}
			*cell = !*cell
		}
	}
	return hit
}
