// Package config holds the settings shared by every frontend: which quirks
// to run with, how fast, and how to present the machine.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gochip8/pkg/quirks"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Mode          string   `json:"mode"`
	TicksPerFrame int      `json:"ticks_per_frame"`
	SuperChip     bool     `json:"super_chip"`
	LoadOffset    uint16   `json:"load_offset"`
	Volume        float64  `json:"volume"`
	Scale         int      `json:"scale"`
	Palette       []uint32 `json:"palette,omitempty"`
	Decay         bool     `json:"decay"`
	StoragePath   string   `json:"storage_path"`
	Log           bool     `json:"log"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Mode:          "xochip",
		TicksPerFrame: 500,
		SuperChip:     true,
		LoadOffset:    0x200,
		Volume:        0.25,
		Scale:         8,
		Decay:         true,
		StoragePath:   "gochip8_store",
	}
}

// QuirksMode parses the configured mode name.
func (c Config) QuirksMode() (quirks.Mode, error) {
	return quirks.ParseMode(c.Mode)
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	if _, err := c.QuirksMode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case c.TicksPerFrame < 1 || c.TicksPerFrame > 100000:
		return fmt.Errorf("%w: ticks per frame %d not in 1..100000", ErrInvalid, c.TicksPerFrame)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume %v not in 0..1", ErrInvalid, c.Volume)
	case c.Scale < 1 || c.Scale > 32:
		return fmt.Errorf("%w: scale %d not in 1..32", ErrInvalid, c.Scale)
	case len(c.Palette) > 4:
		return fmt.Errorf("%w: palette has %d colours, at most 4", ErrInvalid, len(c.Palette))
	}
	return nil
}

// offsetFlag binds a uint16 to a flag that accepts hex (0x200) or decimal.
type offsetFlag struct{ v *uint16 }

func (o offsetFlag) String() string {
	if o.v == nil {
		return ""
	}
	return fmt.Sprintf("%#x", *o.v)
}

func (o offsetFlag) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return err
	}
	*o.v = uint16(n)
	return nil
}

// RegisterFlags binds the settings to fs. Defaults are the current values of
// c, so flags override whatever was loaded before they are parsed.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Mode, "mode", c.Mode, "quirks mode: chip8, superchip, superchiplegacy or xochip")
	fs.IntVar(&c.TicksPerFrame, "ticks", c.TicksPerFrame, "instructions per 60Hz frame")
	fs.BoolVar(&c.SuperChip, "superchip", c.SuperChip, "enable SuperChip instructions")
	fs.Var(offsetFlag{&c.LoadOffset}, "offset", "rom load address")
	fs.Float64Var(&c.Volume, "volume", c.Volume, "audio volume 0..1")
	fs.IntVar(&c.Scale, "scale", c.Scale, "window / screenshot scale")
	fs.BoolVar(&c.Decay, "decay", c.Decay, "fade pixels in and out")
	fs.StringVar(&c.StoragePath, "storage", c.StoragePath, "directory for flags and save states")
	fs.BoolVar(&c.Log, "log", c.Log, "echo the log to stderr")
}

// LoadFile overlays the JSON settings in path onto c. Keys missing from the
// file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// ParseArgs registers the settings on fs, plus -config, and parses args.
// Precedence is defaults, then the -config file, then the command line.
// Frontends register their own flags on fs before calling it.
func ParseArgs(fs *flag.FlagSet, args []string) (Config, error) {
	c := Default()
	path := fs.String("config", "", "json settings file; flags override it")
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if *path != "" {
		if err := c.LoadFile(*path); err != nil {
			return c, err
		}
		// again, so the command line wins over the file
		if err := fs.Parse(args); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}
