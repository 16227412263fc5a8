//go:build linux || darwin

package main

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gochip8/pkg/chip8"
	"gochip8/pkg/session"
)

const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	resetColour = "\x1b[0m"
	upperHalf   = "▀"

	keyEscape = 0x1b
	keyCtrlC  = 0x03

	// terminals only report presses, so a key counts as held for this many
	// frames after each one
	holdFrames = 6
)

// drawFrame renders img with one character per column and two pixel rows per
// line: the upper pixel is the foreground of a half block, the lower one the
// background. Colour codes are only emitted when they change.
func drawFrame(sb *strings.Builder, img *image.RGBA, status string) {
	sb.WriteString(cursorHome)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var fg, bg color.RGBA
		first := true
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := img.RGBAAt(x, y+1)
			if first || top != fg {
				fmt.Fprintf(sb, "\x1b[38;2;%d;%d;%dm", top.R, top.G, top.B)
				fg = top
			}
			if first || bottom != bg {
				fmt.Fprintf(sb, "\x1b[48;2;%d;%d;%dm", bottom.R, bottom.G, bottom.B)
				bg = bottom
			}
			first = false
			sb.WriteString(upperHalf)
		}
		sb.WriteString(resetColour + "\r\n")
	}
	sb.WriteString("\x1b[K" + status)
}

// keypad tracks which keys are considered held.
type keypad struct {
	held [chip8.NumKeys]int
}

// feed registers the bytes read since the last frame. It returns true if
// the user asked to quit: a lone escape or ctrl-c.
func (k *keypad) feed(input []byte) (quit bool) {
	if len(input) == 1 && input[0] == keyEscape {
		return true
	}
	// escape sequences (arrows, function keys) are ignored
	if len(input) > 1 && input[0] == keyEscape {
		return false
	}
	for _, c := range input {
		if c == keyCtrlC {
			return true
		}
		if key, ok := session.KeyForChar(rune(c)); ok {
			k.held[key] = holdFrames
		}
	}
	return false
}

// frame returns the keys held this frame and ages them by one.
func (k *keypad) frame() [chip8.NumKeys]bool {
	var keys [chip8.NumKeys]bool
	for i, n := range k.held {
		if n > 0 {
			keys[i] = true
			k.held[i]--
		}
	}
	return keys
}
