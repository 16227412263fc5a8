//go:build linux || darwin

package main

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestKeypadHold(t *testing.T) {
	var pad keypad
	if pad.feed([]byte("q")) {
		t.Fatalf("feed(q): unexpected quit")
	}
	for i := 0; i < holdFrames; i++ {
		if keys := pad.frame(); !keys[0x4] {
			t.Fatalf("frame %d: expected keypad 4 held", i)
		}
	}
	if keys := pad.frame(); keys[0x4] {
		t.Errorf("after %d frames: expected keypad 4 released", holdFrames)
	}
}

func TestKeypadQuit(t *testing.T) {
	tests := []struct {
		input []byte
		quit  bool
	}{
		{[]byte{keyEscape}, true},
		{[]byte{keyCtrlC}, true},
		{[]byte("\x1b[A"), false},
		{[]byte("1v"), false},
	}
	for _, tc := range tests {
		var pad keypad
		if got := pad.feed(tc.input); got != tc.quit {
			t.Errorf("feed(%q): expected quit=%v, got %v", tc.input, tc.quit, got)
		}
	}

	var pad keypad
	pad.feed([]byte("\x1b[A"))
	for k, held := range pad.frame() {
		if held {
			t.Errorf("escape sequence pressed key %X", k)
		}
	}
}

func TestDrawFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 4))
	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	img.SetRGBA(1, 0, white)

	var sb strings.Builder
	drawFrame(&sb, img, "status")
	out := sb.String()

	if !strings.HasPrefix(out, cursorHome) || !strings.HasSuffix(out, "status") {
		t.Errorf("drawFrame: missing home or status in %q", out)
	}
	if n := strings.Count(out, upperHalf); n != 6 {
		t.Errorf("drawFrame: expected 6 half blocks for 3x4 pixels, got %d", n)
	}
	if n := strings.Count(out, "\r\n"); n != 2 {
		t.Errorf("drawFrame: expected 2 lines, got %d", n)
	}
	// black fg, white fg, black fg again on the first line only
	if n := strings.Count(out, "\x1b[38;2;255;255;255m"); n != 1 {
		t.Errorf("drawFrame: expected one white foreground, got %d", n)
	}
}
