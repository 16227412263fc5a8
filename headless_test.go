package main

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/render"
	"gochip8/pkg/sound"
)

func writeROM(t *testing.T, words ...uint16) string {
	t.Helper()
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	path := filepath.Join(t.TempDir(), "test.ch8")
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.StoragePath = ""
	cfg.TicksPerFrame = 100
	return cfg
}

// glyph 0 at the origin, a one second tone, then spin
var drawAndBeep = []uint16{
	0x6000, 0xF029, 0x6100, 0x6200, 0xD125,
	0x6A3C, 0xFA18, 0x120E,
}

func TestHeadlessOutputs(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		rom:        writeROM(t, drawAndBeep...),
		frames:     3,
		screenshot: filepath.Join(dir, "screen.png"),
		wav:        filepath.Join(dir, "tone.wav"),
		snapshot:   filepath.Join(dir, "state.zip"),
	}

	s, err := runHeadless(headlessConfig(), opts)
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if s.Frames() != 3 {
		t.Errorf("frames: expected 3, got %d", s.Frames())
	}

	f, err := os.Open(opts.screenshot)
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("screenshot decode: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)); got != render.DefaultPalette[1] {
		t.Errorf("screenshot origin: expected lit pixel %v, got %v", render.DefaultPalette[1], got)
	}
	if b := img.Bounds(); b.Dx() != render.Width*8 || b.Dy() != render.Height*8 {
		t.Errorf("screenshot size: got %v", b)
	}

	info, err := os.Stat(opts.wav)
	if err != nil {
		t.Fatalf("wav: %v", err)
	}
	if want := int64(3 * samplesPerFrame * sound.BytesPerFrame); info.Size() < want {
		t.Errorf("wav: expected at least %d bytes, got %d", want, info.Size())
	}

	m := chip8.New()
	if err := m.RestoreStateFromFile(opts.snapshot); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if m.V[0xA] != 0x3C || m.PC != 0x20E {
		t.Errorf("snapshot: expected VA=0x3C PC=0x20E, got VA=0x%02X PC=0x%04X", m.V[0xA], m.PC)
	}
}

func TestHeadlessRestore(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.zip")

	rom := writeROM(t, 0x7101, 0x1200)
	if _, err := runHeadless(headlessConfig(), options{rom: rom, frames: 1, snapshot: state}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	s, err := runHeadless(headlessConfig(), options{rom: rom, frames: 1, restore: state})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	// 100 ticks per frame, half of them ADD
	if s.Machine.V[1] != 100 {
		t.Errorf("restored run: expected V1=100, got %d", s.Machine.V[1])
	}
}

func TestHeadlessFault(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		rom:      writeROM(t, 0x6107, 0x00EE),
		frames:   10,
		snapshot: filepath.Join(dir, "crash.zip"),
	}

	s, err := runHeadless(headlessConfig(), opts)
	if !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf("runHeadless: expected a stack fault, got %v", err)
	}
	if s == nil || s.Frames() != 1 {
		t.Fatalf("fault should stop after the first frame")
	}
	if _, err := os.Stat(opts.snapshot); err != nil {
		t.Errorf("snapshot after fault: %v", err)
	}
}

func TestHeadlessExit(t *testing.T) {
	s, err := runHeadless(headlessConfig(), options{rom: writeROM(t, 0x00FD), frames: 50})
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if !s.Done() || s.Frames() != 1 {
		t.Errorf("exit: expected done after 1 frame, got done=%v frames=%d", s.Done(), s.Frames())
	}
}

func TestHeadlessMissingROM(t *testing.T) {
	if _, err := runHeadless(headlessConfig(), options{rom: filepath.Join(t.TempDir(), "none.ch8"), frames: 1}); err == nil {
		t.Errorf("runHeadless(missing rom): expected error")
	}
}
