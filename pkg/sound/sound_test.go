package sound

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

var halfLowHalfHigh = [16]byte{0, 0, 0, 0, 0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func samples(t *testing.T, r io.Reader, frames int) []int16 {
	t.Helper()
	buf := make([]byte, frames*BytesPerFrame)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	out := make([]int16, frames)
	for i := range out {
		left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		if left != right {
			t.Fatalf("frame %d: channels differ (%d, %d)", i, left, right)
		}
		out[i] = left
	}
	return out
}

func TestPlaybackRate(t *testing.T) {
	tests := []struct {
		pitch uint8
		want  float64
	}{
		{64, 4000},
		{112, 8000},
		{16, 2000},
	}
	for _, tc := range tests {
		if got := PlaybackRate(tc.pitch); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("PlaybackRate(%d): expected %v, got %v", tc.pitch, tc.want, got)
		}
	}
}

func TestInactiveVoiceIsSilent(t *testing.T) {
	v := NewVoice(0.5)
	v.SetPattern(64, halfLowHalfHigh)
	for i, s := range samples(t, v, 100) {
		if s != 0 {
			t.Fatalf("sample %d: expected silence, got %d", i, s)
		}
	}
}

func TestPatternPlayback(t *testing.T) {
	v := NewVoice(0.5)
	v.SetPattern(64, halfLowHalfHigh)
	v.SetActive(true)

	// 4000 bits/s at 44100 Hz: the 64 low bits last about 705 samples
	s := samples(t, v, 1400)
	vol := 0.5
	amp := int16(vol * math.MaxInt16)
	if s[0] != -amp || s[700] != -amp {
		t.Errorf("low half: expected %d, got %d and %d", -amp, s[0], s[700])
	}
	if s[710] != amp || s[1399] != amp {
		t.Errorf("high half: expected %d, got %d and %d", amp, s[710], s[1399])
	}
}

func TestReadWholeFrames(t *testing.T) {
	v := NewVoice(1)
	n, err := v.Read(make([]byte, 10))
	if err != nil || n != 8 {
		t.Errorf("Read(10 bytes): expected 8, got %d (%v)", n, err)
	}
}

func TestRecorder(t *testing.T) {
	v := NewVoice(0.25)
	v.SetPattern(64, halfLowHalfHigh)
	v.SetActive(true)

	rec := NewRecorder()
	if _, err := io.CopyN(rec, v, 735*BytesPerFrame); err != nil {
		t.Fatalf("CopyN: %v", err)
	}
	if rec.Frames() != 735 {
		t.Fatalf("Frames: expected 735, got %d", rec.Frames())
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := rec.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("decoder: not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if dec.NumChans != 2 || dec.SampleRate != SampleRate || dec.BitDepth != 16 {
		t.Errorf("header: got %d channels, %d Hz, %d bits", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}
	if len(buf.Data) != 735*2 {
		t.Errorf("data: expected %d samples, got %d", 735*2, len(buf.Data))
	}
}

func TestEmptyRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := NewRecorder().WriteFile(path); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("empty recording: expected ErrEmptyRecording, got %v", err)
	}
}
