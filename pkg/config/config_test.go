package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"

	"gochip8/pkg/quirks"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}
	if m, _ := c.QuirksMode(); m != quirks.XoChip {
		t.Errorf("default mode: expected XoChip, got %v", m)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "c64" }},
		{"zero ticks", func(c *Config) { c.TicksPerFrame = 0 }},
		{"too many ticks", func(c *Config) { c.TicksPerFrame = 100001 }},
		{"loud", func(c *Config) { c.Volume = 1.5 }},
		{"negative volume", func(c *Config) { c.Volume = -0.1 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"big palette", func(c *Config) { c.Palette = make([]uint32, 5) }},
	}
	for _, tc := range tests {
		c := Default()
		tc.modify(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}

	c := Default()
	c.Mode = "c64"
	if err := c.Validate(); !errors.Is(err, quirks.ErrUnknownMode) {
		t.Errorf("unknown mode: expected ErrUnknownMode in chain, got %v", err)
	}
}

func TestRegisterFlags(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	err := fs.Parse([]string{"-mode", "superchip", "-ticks", "30", "-offset", "0x600", "-superchip=false", "-log"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := Default()
	want.Mode = "superchip"
	want.TicksPerFrame = 30
	want.LoadOffset = 0x600
	want.SuperChip = false
	want.Log = true
	if diff := deep.Equal(c, want); diff != nil {
		t.Errorf("flags: %v", diff)
	}

	c = Default()
	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(new(discard))
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-offset", "0x10000"}); err == nil {
		t.Errorf("-offset 0x10000: expected error")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gochip8.json")
	if err := os.WriteFile(path, []byte(`{"mode": "chip8", "scale": 4, "palette": [1193046]}`), 0644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Mode != "chip8" || c.Scale != 4 || len(c.Palette) != 1 || c.Palette[0] != 0x123456 {
		t.Errorf("LoadFile: unexpected %+v", c)
	}
	if c.TicksPerFrame != 500 {
		t.Errorf("LoadFile: missing keys must keep defaults, got ticks %d", c.TicksPerFrame)
	}

	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadFile(path); err == nil {
		t.Errorf("LoadFile(bad json): expected error")
	}
}

func TestParseArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gochip8.json")
	if err := os.WriteFile(path, []byte(`{"mode": "chip8", "ticks_per_frame": 11, "scale": 3}`), 0644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	frames := fs.Int("frames", 0, "")
	c, err := ParseArgs(fs, []string{"-config", path, "-ticks", "20", "-frames", "7", "game.ch8"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if c.Mode != "chip8" || c.Scale != 3 {
		t.Errorf("file settings: got mode %q scale %d", c.Mode, c.Scale)
	}
	if c.TicksPerFrame != 20 {
		t.Errorf("flag must override file: expected ticks 20, got %d", c.TicksPerFrame)
	}
	if *frames != 7 || fs.Arg(0) != "game.ch8" {
		t.Errorf("frontend flags: got frames %d arg %q", *frames, fs.Arg(0))
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseArgs(fs, []string{"-ticks", "0"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseArgs(-ticks 0): expected ErrInvalid, got %v", err)
	}
}
