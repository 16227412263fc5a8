package grid

import "testing"

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 128 cols (hi-res buffer)
		{0, 128, 0, 0},
		{1, 128, 1, 0},
		{127, 128, 127, 0},
		{128, 128, 0, 1},
		{129, 128, 1, 1},
		{8191, 128, 127, 63},

		// 64 cols (lo-res screen)
		{0, 64, 0, 0},
		{63, 64, 63, 0},
		{64, 64, 0, 1},
		{2047, 64, 63, 31},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
		if got := GetGridIndex(gotX, gotY, tc.cols); got != tc.index {
			t.Errorf("GetGridIndex(%d, %d, %d) = %d; want %d", gotX, gotY, tc.cols, got, tc.index)
		}
	}
}
