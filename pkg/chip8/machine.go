// Package chip8 implements the CHIP-8 / SuperChip / XO-CHIP execution core:
// machine state, instruction decoding, the step executor and the sprite and
// scroll engine.
//
// A Machine is owned by one driver goroutine. The only state shared across
// goroutines is the display buffer, which renderers read through
// Machine.Display.
package chip8

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gochip8/pkg/display"
	"gochip8/pkg/logger"
	"gochip8/pkg/quirks"
)

const (
	MemorySize   = 1 << 16
	ProgramStart = 0x200
	StackDepth   = 16
	NumRegisters = 16
	NumKeys      = 16

	// NumFlags is the size of the persistent flag bank. SuperChip only
	// exposes the first eight; XO-CHIP extends the bank to sixteen.
	NumFlags = 16
	// maxFlagRegister is the highest register index Fx75/Fx85 accept.
	maxFlagRegister = 8

	// wideLoadOpcode is the first word of the 4 byte XO-CHIP "F000 nnnn".
	wideLoadOpcode = 0xF000

	defaultPitch = 64
)

// Sound is the XO-CHIP audio state: a 128 bit, one bit per sample
// pattern played back at a rate derived from Pitch.
type Sound struct {
	Pitch   uint8
	Pattern [16]byte
}

func defaultSound() Sound {
	return Sound{
		Pitch: defaultPitch,
		Pattern: [16]byte{
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		},
	}
}

type Machine struct {
	Memory [MemorySize]byte
	V      [NumRegisters]uint8
	RPL    [NumFlags]uint8
	I      uint16
	PC     uint16
	Stack  [StackDepth]uint16
	SP     int
	DT     uint8
	ST     uint8
	Keys   [NumKeys]bool

	screen *display.Buffer
	quirks quirks.Quirks
	rng    *rand.Rand

	superChip bool
	hiRes     bool
	planeMask uint8

	haltedForInput bool
	inputRegister  int
	waitingVBlank  bool
	exited         bool

	sound      Sound
	soundDirty bool
	rplDirty   bool
}

// New returns a powered-on machine: font loaded, PC at ProgramStart,
// XO-CHIP quirks, SuperChip extensions enabled.
func New() *Machine {
	m := &Machine{
		screen:    display.New(),
		quirks:    quirks.New(quirks.XoChip),
		superChip: true,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	m.Reset()
	return m
}

// Reset re-initialises registers, memory, timers and the display. The
// quirks record, SuperChip setting and RPL flags survive a reset.
func (m *Machine) Reset() {
	m.Memory = [MemorySize]byte{}
	copy(m.Memory[FontOffset:], fontSet[:])

	m.V = [NumRegisters]uint8{}
	m.I = 0
	m.PC = ProgramStart
	m.Stack = [StackDepth]uint16{}
	m.SP = 0
	m.DT = 0
	m.ST = 0
	m.Keys = [NumKeys]bool{}

	m.hiRes = false
	m.planeMask = 1
	m.haltedForInput = false
	m.inputRegister = 0
	m.waitingVBlank = false
	m.exited = false

	m.sound = defaultSound()
	m.soundDirty = true

	m.screen.Clear(display.AllPlanes)
}

// LoadROM copies rom into memory at offset. It fails with ErrInvalidRom if
// the image does not fit.
func (m *Machine) LoadROM(rom []byte, offset uint16) (int, error) {
	if len(rom)+int(offset) > MemorySize {
		return 0, invalidRom("rom size %d + offset %#x exceeds %#x bytes of memory", len(rom), offset, MemorySize)
	}
	copy(m.Memory[offset:], rom)
	logger.Logf(logger.Allow, "chip8", "loaded %d byte rom at %#04x", len(rom), offset)
	return len(rom), nil
}

// Display returns the read-only view of the display buffer.
func (m *Machine) Display() display.Reader {
	return m.screen.Reader()
}

// Quirks returns the active compatibility record.
func (m *Machine) Quirks() quirks.Quirks {
	return m.quirks
}

// SetQuirks replaces the compatibility record. It takes effect on the next
// instruction.
func (m *Machine) SetQuirks(q quirks.Quirks) {
	m.quirks = q
	logger.Logf(logger.Allow, "chip8", "quirks set to %v", q.Mode)
}

// SetCoreMode selects a compatibility record by name. Unknown names are a
// configuration error and leave the current record in place.
func (m *Machine) SetCoreMode(name string) error {
	mode, err := quirks.ParseMode(name)
	if err != nil {
		return err
	}
	m.SetQuirks(quirks.New(mode))
	return nil
}

// SetSuperChip enables or disables the SuperChip only instructions.
func (m *Machine) SetSuperChip(enabled bool) {
	m.superChip = enabled
}

// SetRandSource replaces the generator used by Cxkk.
func (m *Machine) SetRandSource(src rand.Source) {
	m.rng = rand.New(src)
}

func (m *Machine) HiRes() bool            { return m.hiRes }
func (m *Machine) HaltedForInput() bool   { return m.haltedForInput }
func (m *Machine) WaitingForVBlank() bool { return m.waitingVBlank }
func (m *Machine) Exited() bool           { return m.exited }
func (m *Machine) PlaneMask() uint8       { return m.planeMask }

// TickTimers decrements both timers towards zero. It should be called at
// 60Hz and returns the values from before the decrement.
func (m *Machine) TickTimers() (sound, delay uint8) {
	sound, delay = m.ST, m.DT
	if m.ST > 0 {
		m.ST--
	}
	if m.DT > 0 {
		m.DT--
	}
	return sound, delay
}

// VBlank releases an instruction waiting for the display.
func (m *Machine) VBlank() {
	m.waitingVBlank = false
}

// SetKeyState latches one key. Releasing a key that was held while the
// machine waits in Fx0A completes the wait. Keys above 0xF are ignored.
func (m *Machine) SetKeyState(key uint8, pressed bool) {
	if key >= NumKeys {
		return
	}
	if m.haltedForInput && m.Keys[key] && !pressed {
		m.V[m.inputRegister] = key
		m.haltedForInput = false
	}
	m.Keys[key] = pressed
}

// SetKeys replaces the whole keyboard latch, one key at a time so that
// releases are observed.
func (m *Machine) SetKeys(keys [NumKeys]bool) {
	for k, pressed := range keys {
		m.SetKeyState(uint8(k), pressed)
	}
}

// Sound returns the audio state if it changed since the last call.
func (m *Machine) Sound() (Sound, bool) {
	if !m.soundDirty {
		return Sound{}, false
	}
	m.soundDirty = false
	return m.sound, true
}

// RPLFlags returns the flag bank if Fx75 wrote it since the last call.
func (m *Machine) RPLFlags() ([NumFlags]uint8, bool) {
	if !m.rplDirty {
		return m.RPL, false
	}
	m.rplDirty = false
	return m.RPL, true
}

// SetRPLFlags restores a previously persisted flag bank.
func (m *Machine) SetRPLFlags(flags [NumFlags]uint8) {
	m.RPL = flags
	m.rplDirty = false
}

func (m *Machine) peekWord(addr uint16) (uint16, bool) {
	if int(addr)+1 >= MemorySize {
		return 0, false
	}
	return uint16(m.Memory[addr])<<8 | uint16(m.Memory[addr+1]), true
}

// DebugState renders the registers for overlays and crash reports.
func (m *Machine) DebugState() string {
	s := &strings.Builder{}

	opcode, _ := m.peekWord(m.PC)
	fmt.Fprintf(s, "Opcode: 0x%04X (%s)\n", opcode, Decode(opcode).Op)
	fmt.Fprintf(s, "PC: 0x%04X\nSP: %d\nI: 0x%04X\nDT: %d\nST: %d\n", m.PC, m.SP, m.I, m.DT, m.ST)

	fmt.Fprint(s, "V: [")
	for i, v := range m.V {
		if i > 0 {
			s.WriteString(" ")
		}
		fmt.Fprintf(s, "%02X", v)
	}
	fmt.Fprint(s, "]\nStack: [")
	for i := 0; i < m.SP; i++ {
		if i > 0 {
			s.WriteString(" ")
		}
		fmt.Fprintf(s, "%03X", m.Stack[i])
	}
	fmt.Fprint(s, "]\nKeys: [")
	for i, k := range m.Keys {
		if i > 0 {
			s.WriteString(" ")
		}
		if k {
			s.WriteString("X")
		} else {
			s.WriteString("-")
		}
	}
	s.WriteString("]\n")

	fmt.Fprintf(s, "halt_for_input: %v\n", m.haltedForInput)
	fmt.Fprintf(s, "vblank_wait: %v\n", m.waitingVBlank)
	fmt.Fprintf(s, "hires: %v\n", m.hiRes)
	fmt.Fprintf(s, "mode: %v\n", m.quirks.Mode)
	fmt.Fprintf(s, "bit_plane_select: 0b%02b", m.planeMask)

	return s.String()
}
