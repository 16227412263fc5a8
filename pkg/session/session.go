// Package session drives a Machine one video frame at a time and connects it
// to the persistent store and the audio voice. Every frontend, windowed,
// terminal or headless, runs the same loop through a Session.
package session

import (
	"errors"
	"fmt"
	"time"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/logger"
	"gochip8/pkg/quirks"
	"gochip8/pkg/sound"
	"gochip8/pkg/store"
)

// SyncInterval is how often a running session flushes the store to disk.
const SyncInterval = 3 * time.Second

var ErrNoStorage = errors.New("no storage path configured")

type Session struct {
	Machine *chip8.Machine
	Voice   *sound.Voice
	Store   *store.Store
	ROMKey  string

	cfg    config.Config
	rom    []byte
	fault  error
	paused bool
	frames int

	stopSync chan struct{}
	syncDone chan struct{}
}

// New validates cfg, builds a machine for it and loads rom. RPL flags saved
// by an earlier run of the same ROM are restored.
func New(cfg config.Config, rom []byte) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := cfg.QuirksMode()

	s := &Session{
		Machine: chip8.New(),
		Voice:   sound.NewVoice(cfg.Volume),
		Store:   store.New(),
		ROMKey:  store.ROMKey(rom),
		cfg:     cfg,
		rom:     rom,
	}
	s.Machine.SetQuirks(quirks.New(mode))
	s.Machine.SetSuperChip(cfg.SuperChip)
	if _, err := s.Machine.LoadROM(rom, cfg.LoadOffset); err != nil {
		return nil, err
	}

	if cfg.StoragePath != "" {
		if err := s.Store.LoadFrom(cfg.StoragePath); err != nil {
			logger.Logf(logger.Allow, "session", "storage: %v", err)
		}
	}
	flags, err := s.Store.LoadFlags(s.ROMKey)
	switch {
	case err == nil:
		s.Machine.SetRPLFlags(flags)
		logger.Logf(logger.Allow, "session", "restored flags for %s", s.ROMKey)
	case !errors.Is(err, store.ErrNotFound):
		logger.Logf(logger.Allow, "session", "flags for %s: %v", s.ROMKey, err)
	}

	return s, nil
}

func (s *Session) Config() config.Config { return s.cfg }

// Fault is the error that stopped emulation, if any.
func (s *Session) Fault() error { return s.fault }

func (s *Session) Paused() bool { return s.paused }

func (s *Session) SetPaused(paused bool) { s.paused = paused }

// Frames counts the frames emulated since the session started.
func (s *Session) Frames() int { return s.frames }

// Done reports whether the program ran 00FD.
func (s *Session) Done() bool { return s.Machine.Exited() }

// RunFrame emulates one 60Hz frame: keys are applied, up to TicksPerFrame
// instructions run, then the vblank and timer tick happen. Nothing runs
// while the session is paused or faulted; the fault is returned instead.
func (s *Session) RunFrame(keys [chip8.NumKeys]bool) error {
	if s.fault != nil {
		return s.fault
	}
	if s.paused {
		return nil
	}

	m := s.Machine
	m.SetKeys(keys)

	for i := 0; i < s.cfg.TicksPerFrame; i++ {
		if m.HaltedForInput() || m.WaitingForVBlank() || m.Exited() {
			break
		}
		if err := m.Step(); err != nil {
			s.fault = err
			s.paused = true
			logger.Logf(logger.Allow, "session", "fault: %v", err)
			break
		}
	}

	m.VBlank()
	st, _ := m.TickTimers()

	if snd, dirty := m.Sound(); dirty {
		s.Voice.SetPattern(snd.Pitch, snd.Pattern)
	}
	s.Voice.SetActive(st > 0)

	if flags, dirty := m.RPLFlags(); dirty {
		if err := s.Store.SaveFlags(s.ROMKey, flags); err != nil {
			logger.Logf(logger.Allow, "session", "save flags: %v", err)
		}
	}

	s.frames++
	return s.fault
}

// Reset restarts the ROM from a cold machine and clears any fault.
func (s *Session) Reset() error {
	s.Machine.Reset()
	if _, err := s.Machine.LoadROM(s.rom, s.cfg.LoadOffset); err != nil {
		return err
	}
	s.Voice.SetActive(false)
	s.fault = nil
	s.paused = false
	logger.Log(logger.Allow, "session", "reset")
	return nil
}

// SaveSlot stores a snapshot of the machine in slot.
func (s *Session) SaveSlot(slot int) error {
	data, err := s.Machine.SaveState()
	if err != nil {
		return err
	}
	if err := s.Store.SaveSlot(s.ROMKey, slot, data); err != nil {
		return err
	}
	logger.Logf(logger.Allow, "session", "saved state to slot %d", slot)
	return nil
}

// LoadSlot restores the snapshot in slot. A successful restore clears any
// fault.
func (s *Session) LoadSlot(slot int) error {
	data, err := s.Store.LoadSlot(s.ROMKey, slot)
	if err != nil {
		return err
	}
	if err := s.Machine.RestoreState(data); err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	s.fault = nil
	s.paused = false
	logger.Logf(logger.Allow, "session", "loaded state from slot %d", slot)
	return nil
}

// DeleteSlot clears a saved snapshot.
func (s *Session) DeleteSlot(slot int) error {
	if err := s.Store.DeleteSlot(s.ROMKey, slot); err != nil {
		return err
	}
	logger.Logf(logger.Allow, "session", "deleted slot %d", slot)
	return nil
}

// Slots lists the slots holding a snapshot for this ROM.
func (s *Session) Slots() []int { return s.Store.Slots(s.ROMKey) }

func (s *Session) Volume() float64 { return s.cfg.Volume }

// SetVolume changes the voice volume, clamped to 0..1.
func (s *Session) SetVolume(volume float64) {
	volume = min(max(volume, 0), 1)
	s.cfg.Volume = volume
	s.Voice.SetVolume(volume)
}

// StartSync flushes the store in the background until Close.
func (s *Session) StartSync() error {
	if s.cfg.StoragePath == "" {
		return ErrNoStorage
	}
	if s.stopSync != nil {
		return nil
	}
	s.stopSync = make(chan struct{})
	s.syncDone = make(chan struct{})
	go func() {
		defer close(s.syncDone)
		s.Store.Sync(s.cfg.StoragePath, SyncInterval, s.stopSync)
	}()
	return nil
}

// Close stops the syncer and flushes anything still unwritten.
func (s *Session) Close() error {
	if s.stopSync != nil {
		close(s.stopSync)
		<-s.syncDone
		s.stopSync = nil
	}
	if s.cfg.StoragePath == "" || !s.Store.Dirty() {
		return nil
	}
	return s.Store.PersistTo(s.cfg.StoragePath)
}
