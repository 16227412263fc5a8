// Package display implements the two plane pixel grid shared between the
// interpreter (single writer) and any number of renderers (readers).
//
// The grid always has the hi-res geometry. Lo-res programs are drawn at
// double scale by the interpreter, so renderers never need to know which
// resolution is active.
package display

import "sync"

const (
	Rows   = 64
	Cols   = 128
	Planes = 2

	// AllPlanes selects every plane.
	AllPlanes uint8 = 1<<Planes - 1
)

// Cell holds one boolean per plane.
type Cell [Planes]bool

// Value packs the planes into a colour index (plane n is bit n).
func (c Cell) Value() uint8 {
	var v uint8
	for p := 0; p < Planes; p++ {
		if c[p] {
			v |= 1 << p
		}
	}
	return v
}

// Frame is a complete copy of the grid, indexed [row][col].
type Frame [Rows][Cols]Cell

// Buffer owns the grid and the lock guarding it. The zero value is an
// empty, ready to use buffer.
type Buffer struct {
	mu    sync.RWMutex
	cells Frame
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

func selected(mask uint8, plane int) bool {
	return (mask>>plane)&1 == 1
}

// Update runs f with exclusive access to the grid. One call is one batch;
// renderers never see a half applied batch.
func (b *Buffer) Update(f func(*Frame)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f(&b.cells)
}

// Clear zeroes the planes selected by mask.
func (b *Buffer) Clear(mask uint8) {
	b.Update(func(f *Frame) {
		for r := range f {
			for c := range f[r] {
				for p := 0; p < Planes; p++ {
					if selected(mask, p) {
						f[r][c][p] = false
					}
				}
			}
		}
	})
}

// ScrollDown moves the selected planes n rows down. Vacated rows are cleared.
func (b *Buffer) ScrollDown(n int, mask uint8) {
	if n <= 0 {
		return
	}
	b.Update(func(f *Frame) {
		for p := 0; p < Planes; p++ {
			if !selected(mask, p) {
				continue
			}
			for r := Rows - 1; r >= 0; r-- {
				for c := 0; c < Cols; c++ {
					if r >= n {
						f[r][c][p] = f[r-n][c][p]
					} else {
						f[r][c][p] = false
					}
				}
			}
		}
	})
}

// ScrollUp moves the selected planes n rows up. Vacated rows are cleared.
func (b *Buffer) ScrollUp(n int, mask uint8) {
	if n <= 0 {
		return
	}
	b.Update(func(f *Frame) {
		for p := 0; p < Planes; p++ {
			if !selected(mask, p) {
				continue
			}
			for r := 0; r < Rows; r++ {
				for c := 0; c < Cols; c++ {
					if r+n < Rows {
						f[r][c][p] = f[r+n][c][p]
					} else {
						f[r][c][p] = false
					}
				}
			}
		}
	})
}

// ScrollLeft moves the selected planes n columns left.
func (b *Buffer) ScrollLeft(n int, mask uint8) {
	if n <= 0 {
		return
	}
	b.Update(func(f *Frame) {
		for p := 0; p < Planes; p++ {
			if !selected(mask, p) {
				continue
			}
			for r := 0; r < Rows; r++ {
				for c := 0; c < Cols; c++ {
					if c+n < Cols {
						f[r][c][p] = f[r][c+n][p]
					} else {
						f[r][c][p] = false
					}
				}
			}
		}
	})
}

// ScrollRight moves the selected planes n columns right.
func (b *Buffer) ScrollRight(n int, mask uint8) {
	if n <= 0 {
		return
	}
	b.Update(func(f *Frame) {
		for p := 0; p < Planes; p++ {
			if !selected(mask, p) {
				continue
			}
			for r := 0; r < Rows; r++ {
				for c := Cols - 1; c >= 0; c-- {
					if c >= n {
						f[r][c][p] = f[r][c-n][p]
					} else {
						f[r][c][p] = false
					}
				}
			}
		}
	})
}

// Reader returns the read-only view of the buffer.
func (b *Buffer) Reader() Reader {
	return Reader{b: b}
}

// Reader is a synchronised, read-only view of a Buffer.
type Reader struct {
	b *Buffer
}

// Snapshot copies the whole grid into dst under the read lock.
func (r Reader) Snapshot(dst *Frame) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	*dst = r.b.cells
}

// Pixel reports a single plane of a single cell. Out of range coordinates
// report false.
func (r Reader) Pixel(row, col, plane int) bool {
	if row < 0 || row >= Rows || col < 0 || col >= Cols || plane < 0 || plane >= Planes {
		return false
	}
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	return r.b.cells[row][col][plane]
}
