//go:build linux || darwin

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gochip8/pkg/config"
	"gochip8/pkg/logger"
	"gochip8/pkg/render"
	"gochip8/pkg/session"
	"gochip8/pkg/utils"
)

const frameInterval = time.Second / 60

func status(s *session.Session, title string) string {
	switch {
	case s.Fault() != nil:
		return fmt.Sprintf("%s: %v (esc quits)", title, s.Fault())
	case s.Machine.HaltedForInput():
		return fmt.Sprintf("%s: waiting for a key", title)
	default:
		return fmt.Sprintf("%s: frame %d", title, s.Frames())
	}
}

func run(s *session.Session, term *terminal, r *render.Renderer, title string) {
	input := term.readKeys()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var pad keypad
	var sb strings.Builder
	for {
		select {
		case b, ok := <-input:
			if !ok || pad.feed(b) {
				return
			}
		case <-ticker.C:
			// a fault leaves the last frame on screen
			_ = s.RunFrame(pad.frame())
			if s.Done() {
				return
			}
			sb.Reset()
			drawFrame(&sb, r.Update(s.Machine.Display()), status(s, title))
			term.output.WriteString(sb.String())
		}
	}
}

func main() {
	cfg, err := config.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <rom>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	rom, fullPath, err := utils.ReadROM(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read rom: %v", err)
	}
	palette, err := render.PaletteFromRGB(cfg.Palette)
	if err != nil {
		log.Fatalf("Bad palette: %v", err)
	}
	s, err := session.New(cfg, rom)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	if err := s.StartSync(); err != nil {
		logger.Logf(logger.Allow, "console", "storage disabled: %v", err)
	}

	term, err := newTerminal(os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if err := term.rawMode(); err != nil {
		log.Fatal(err)
	}

	run(s, term, render.New(palette, cfg.Decay), utils.RomTitle(fullPath))

	if err := term.canonicalMode(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := s.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	// raw mode garbles echoed output, so the log is printed on the way out
	if cfg.Log {
		logger.Write(os.Stderr)
	}
	if s.Fault() != nil {
		fmt.Fprintln(os.Stderr, s.Machine.DebugState())
		os.Exit(1)
	}
}
