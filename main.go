//go:build !js

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/logger"
	"gochip8/pkg/render"
	"gochip8/pkg/session"
	"gochip8/pkg/sound"
	"gochip8/pkg/utils"
)

// samplesPerFrame is the audio generated for each 60Hz frame.
const samplesPerFrame = sound.SampleRate / 60

type options struct {
	rom        string
	frames     int
	screenshot string
	wav        string
	snapshot   string
	restore    string
}

func main() {
	var opts options
	flag.StringVar(&opts.rom, "rom", "", "rom file to run")
	flag.IntVar(&opts.frames, "frames", 600, "number of 60Hz frames to run")
	flag.StringVar(&opts.screenshot, "screenshot", "", "write the final display as a PNG")
	flag.StringVar(&opts.wav, "wav", "", "record the generated audio as a WAV file")
	flag.StringVar(&opts.snapshot, "snapshot", "", "write the final machine state to a file")
	flag.StringVar(&opts.restore, "restore", "", "start from a state written by -snapshot")

	cfg, err := config.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.rom == "" && flag.NArg() == 1 {
		opts.rom = flag.Arg(0)
	}
	if opts.rom == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -rom <file>")
		flag.Usage()
		os.Exit(2)
	}
	if cfg.Log {
		logger.SetEcho(os.Stderr)
	}

	s, err := runHeadless(cfg, opts)
	if s != nil {
		fmt.Println(s.Machine.DebugState())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", opts.rom, err)
		os.Exit(1)
	}
}

// runHeadless runs the rom for opts.frames frames, or until it exits or
// faults, then writes whatever outputs were asked for. Outputs are written
// even after a fault so the failure can be inspected.
func runHeadless(cfg config.Config, opts options) (*session.Session, error) {
	rom, _, err := utils.ReadROM(opts.rom)
	if err != nil {
		return nil, err
	}
	s, err := session.New(cfg, rom)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Logf(logger.Allow, "headless", "storage: %v", err)
		}
	}()

	if opts.restore != "" {
		if err := s.Machine.RestoreStateFromFile(opts.restore); err != nil {
			return s, err
		}
	}

	var rec *sound.Recorder
	if opts.wav != "" {
		rec = sound.NewRecorder()
	}

	// nobody at the keyboard
	var keys [chip8.NumKeys]bool

	var runErr error
	for i := 0; i < opts.frames && !s.Done(); i++ {
		if runErr = s.RunFrame(keys); runErr != nil {
			break
		}
		if rec != nil {
			if _, err := io.CopyN(rec, s.Voice, samplesPerFrame*sound.BytesPerFrame); err != nil {
				return s, err
			}
		}
	}
	logger.Logf(logger.Allow, "headless", "ran %d frames", s.Frames())

	if err := writeOutputs(s, cfg, opts, rec); err != nil {
		return s, err
	}
	return s, runErr
}

func writeOutputs(s *session.Session, cfg config.Config, opts options, rec *sound.Recorder) error {
	if opts.screenshot != "" {
		palette, err := render.PaletteFromRGB(cfg.Palette)
		if err != nil {
			return err
		}
		// no decay: the screenshot shows the display as the program left it
		img := render.New(palette, false).Update(s.Machine.Display())
		if err := render.SaveScreenshot(img, cfg.Scale, opts.screenshot); err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
	}
	if rec != nil {
		if err := rec.WriteFile(opts.wav); err != nil {
			return err
		}
	}
	if opts.snapshot != "" {
		if err := s.Machine.SaveStateToFile(opts.snapshot); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return nil
}
