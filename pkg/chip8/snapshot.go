package chip8

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gochip8/pkg/display"
	"gochip8/pkg/grid"
	"gochip8/pkg/logger"
	"gochip8/pkg/quirks"
)

const (
	stateEntry   = "state.json"
	memoryEntry  = "memory.bin"
	displayEntry = "display.bin"
)

// machineState is the JSON part of a snapshot. Memory and the display are
// stored as raw entries next to it. Only the mode name is saved; the quirk
// record is rebuilt from it on restore.
type machineState struct {
	V              [NumRegisters]uint8 `json:"v"`
	RPL            [NumFlags]uint8     `json:"rpl"`
	I              uint16              `json:"i"`
	PC             uint16              `json:"pc"`
	Stack          [StackDepth]uint16  `json:"stack"`
	SP             int                 `json:"sp"`
	DT             uint8               `json:"dt"`
	ST             uint8               `json:"st"`
	Mode           string              `json:"mode"`
	SuperChip      bool                `json:"super_chip"`
	HiRes          bool                `json:"hires"`
	PlaneMask      uint8               `json:"plane_mask"`
	HaltedForInput bool                `json:"halted_for_input"`
	InputRegister  int                 `json:"input_register"`
	WaitingVBlank  bool                `json:"waiting_vblank"`
	Exited         bool                `json:"exited"`
	Pitch          uint8               `json:"pitch"`
	Pattern        [16]byte            `json:"pattern"`
}

// SaveState serialises the machine into a zip archive holding state.json,
// memory.bin and display.bin. Key state is not saved.
func (m *Machine) SaveState() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		V:              m.V,
		RPL:            m.RPL,
		I:              m.I,
		PC:             m.PC,
		Stack:          m.Stack,
		SP:             m.SP,
		DT:             m.DT,
		ST:             m.ST,
		Mode:           m.quirks.Mode.String(),
		SuperChip:      m.superChip,
		HiRes:          m.hiRes,
		PlaneMask:      m.planeMask,
		HaltedForInput: m.haltedForInput,
		InputRegister:  m.inputRegister,
		WaitingVBlank:  m.waitingVBlank,
		Exited:         m.exited,
		Pitch:          m.sound.Pitch,
		Pattern:        m.sound.Pattern,
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", stateEntry, err)
	}
	if err := writeZipEntry(zw, stateEntry, jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, memoryEntry, m.Memory[:]); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, displayEntry, encodeFrame(m.screen.Reader())); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreState applies an archive produced by SaveState. The machine is
// left untouched if the archive cannot be read.
func (m *Machine) RestoreState(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, stateEntry)
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal %s: %w", stateEntry, err)
	}
	if state.SP < 0 || state.SP > StackDepth || state.InputRegister < 0 || state.InputRegister >= NumRegisters {
		return fmt.Errorf("%s: register state out of range", stateEntry)
	}
	mode, err := quirks.ParseMode(state.Mode)
	if err != nil {
		return fmt.Errorf("%s: %w", stateEntry, err)
	}

	mem, err := readZipEntry(fileMap, memoryEntry)
	if err != nil {
		return err
	}
	if len(mem) != MemorySize {
		return fmt.Errorf("%s: expected %d bytes, got %d", memoryEntry, MemorySize, len(mem))
	}
	cells, err := readZipEntry(fileMap, displayEntry)
	if err != nil {
		return err
	}
	if len(cells) != display.Rows*display.Cols {
		return fmt.Errorf("%s: expected %d bytes, got %d", displayEntry, display.Rows*display.Cols, len(cells))
	}

	m.V = state.V
	m.RPL = state.RPL
	m.I = state.I
	m.PC = state.PC
	m.Stack = state.Stack
	m.SP = state.SP
	m.DT = state.DT
	m.ST = state.ST
	m.quirks = quirks.New(mode)
	m.superChip = state.SuperChip
	m.hiRes = state.HiRes
	m.planeMask = state.PlaneMask & display.AllPlanes
	m.haltedForInput = state.HaltedForInput
	m.inputRegister = state.InputRegister
	m.waitingVBlank = state.WaitingVBlank
	m.exited = state.Exited
	m.sound = Sound{Pitch: state.Pitch, Pattern: state.Pattern}
	m.soundDirty = true
	m.Keys = [NumKeys]bool{}

	copy(m.Memory[:], mem)
	decodeFrame(m.screen, cells)

	logger.Logf(logger.Allow, "chip8", "restored state (%s, pc %#04x)", state.Mode, m.PC)
	return nil
}

// SaveStateToFile writes the snapshot archive to path.
func (m *Machine) SaveStateToFile(path string) error {
	data, err := m.SaveState()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreStateFromFile reads a snapshot archive from path.
func (m *Machine) RestoreStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.RestoreState(data)
}

// encodeFrame stores one byte per cell holding the plane bits.
func encodeFrame(r display.Reader) []byte {
	var f display.Frame
	r.Snapshot(&f)
	out := make([]byte, display.Rows*display.Cols)
	for row := range f {
		for col := range f[row] {
			out[grid.GetGridIndex(col, row, display.Cols)] = f[row][col].Value()
		}
	}
	return out
}

func decodeFrame(b *display.Buffer, cells []byte) {
	b.Update(func(f *display.Frame) {
		for i, v := range cells {
			col, row := grid.GetGridCoords(i, display.Cols)
			cell := &f[row][col]
			for p := 0; p < display.Planes; p++ {
				cell[p] = v&(1<<p) != 0
			}
		}
	})
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
