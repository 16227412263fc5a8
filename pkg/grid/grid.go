// Package grid converts between flat cell indices and (x, y) coordinates
// for row-major grids such as the display buffer.
package grid

// GetGridCoords returns the column and row of a flat, row-major index.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetGridIndex is the inverse of GetGridCoords.
func GetGridIndex(x, y, cols int) int {
	return y*cols + x
}
