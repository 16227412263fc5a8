package chip8

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"gochip8/pkg/quirks"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m1 := newMachine(quirks.SuperChipModern, 0x00FF, 0xF301, 0xA300, 0x6A07, 0xDA01, 0x2400)
	m1.Memory[0x300] = 0xC0
	m1.Memory[0x301] = 0x30
	mustStep(t, m1, 6)
	m1.DT, m1.ST = 9, 4
	m1.SetRPLFlags([NumFlags]uint8{0xAB})

	data, err := m1.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	m2 := New()
	if err := m2.RestoreState(data); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}

	if diff := deep.Equal(m2.V, m1.V); diff != nil {
		t.Errorf("V: %v", diff)
	}
	if m2.I != m1.I || m2.PC != m1.PC || m2.SP != m1.SP || m2.Stack != m1.Stack {
		t.Errorf("control state mismatch:\n%s\n%s", m1.DebugState(), m2.DebugState())
	}
	if m2.DT != 9 || m2.ST != 4 || m2.RPL[0] != 0xAB {
		t.Errorf("timers/flags: got DT=%d ST=%d RPL0=0x%02X", m2.DT, m2.ST, m2.RPL[0])
	}
	if m2.Memory != m1.Memory {
		t.Errorf("memory mismatch")
	}
	if m2.Quirks() != m1.Quirks() || !m2.HiRes() || m2.PlaneMask() != 3 {
		t.Errorf("mode state mismatch: %s", spew.Sdump(m2.Quirks()))
	}
	if diff := deep.Equal(frame(m2), frame(m1)); diff != nil {
		t.Errorf("display: %v", diff)
	}
	if _, dirty := m2.Sound(); !dirty {
		t.Errorf("restored sound: expected dirty so the audio voice is re-patterned")
	}
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.zip")

	m1 := newMachine(quirks.XoChip, 0x6142)
	mustStep(t, m1, 1)
	if err := m1.SaveStateToFile(path); err != nil {
		t.Fatalf("SaveStateToFile: %v", err)
	}

	m2 := New()
	if err := m2.RestoreStateFromFile(path); err != nil {
		t.Fatalf("RestoreStateFromFile: %v", err)
	}
	if m2.V[1] != 0x42 || m2.PC != 0x202 {
		t.Errorf("restored from file: expected V1=0x42 PC=0x202, got V1=0x%02X PC=0x%04X", m2.V[1], m2.PC)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	m := New()
	m.V[3] = 7
	if err := m.RestoreState([]byte("not a zip")); err == nil {
		t.Fatalf("RestoreState(garbage): expected error")
	}
	if m.V[3] != 7 {
		t.Errorf("failed restore must leave the machine untouched")
	}
}

// editState rewrites the state.json entry of a snapshot archive.
func editState(t *testing.T, data []byte, edit func(map[string]any)) []byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if f.Name == stateEntry {
			var state map[string]any
			if err := json.Unmarshal(content, &state); err != nil {
				t.Fatalf("unmarshal %s: %v", f.Name, err)
			}
			edit(state)
			if content, err = json.Marshal(state); err != nil {
				t.Fatalf("marshal %s: %v", f.Name, err)
			}
		}
		if err := writeZipEntry(zw, f.Name, content); err != nil {
			t.Fatalf("write %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestRestoreRejectsUnknownMode(t *testing.T) {
	src := newMachine(quirks.Chip8Modern, 0x6142)
	mustStep(t, src, 1)
	data, err := src.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	data = editState(t, data, func(state map[string]any) { state["mode"] = "amiga" })

	m := New()
	m.V[3] = 7
	before := m.Quirks()
	if err := m.RestoreState(data); !errors.Is(err, quirks.ErrUnknownMode) {
		t.Fatalf("RestoreState(unknown mode): expected ErrUnknownMode, got %v", err)
	}
	if m.V[3] != 7 || m.V[1] != 0 || m.Quirks() != before {
		t.Errorf("failed restore must leave the machine untouched")
	}
}

func TestRestoreRebuildsQuirksFromMode(t *testing.T) {
	src := newMachine(quirks.SuperChipLegacy, 0x6142)
	mustStep(t, src, 1)
	data, err := src.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	// a stray quirk override next to the mode name must not survive
	data = editState(t, data, func(state map[string]any) {
		state["quirks"] = map[string]any{"Mode": 0, "VFReset": true, "JumpPlusVX": false}
	})

	m := New()
	if err := m.RestoreState(data); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if diff := deep.Equal(m.Quirks(), quirks.New(quirks.SuperChipLegacy)); diff != nil {
		t.Errorf("restored quirks: %v", diff)
	}
}
