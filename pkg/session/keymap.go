package session

import "gochip8/pkg/chip8"

// Layout is the host keyboard, row by row, in the order of Keypad.
const Layout = "1234qwerasdfzxcv"

// Keypad is the hex keypad value under each key of Layout.
var Keypad = [chip8.NumKeys]uint8{
	0x1, 0x2, 0x3, 0xC,
	0x4, 0x5, 0x6, 0xD,
	0x7, 0x8, 0x9, 0xE,
	0xA, 0x0, 0xB, 0xF,
}

// KeyForChar maps a host character to a keypad value. Letters match in
// either case.
func KeyForChar(r rune) (uint8, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	for i, c := range Layout {
		if c == r {
			return Keypad[i], true
		}
	}
	return 0, false
}
