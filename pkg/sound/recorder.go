package sound

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"gochip8/pkg/logger"
)

var ErrEmptyRecording = errors.New("nothing recorded")

// Recorder buffers PCM frames written to it and encodes them as a WAV file.
// Everything is held in memory until Encode, so it is meant for headless
// runs and tests rather than long sessions.
type Recorder struct {
	data []int
}

func NewRecorder() *Recorder {
	return &Recorder{data: make([]int, 0)}
}

// Write accepts 16 bit little endian stereo frames, the format Voice
// produces. A trailing partial frame is dropped.
func (r *Recorder) Write(p []byte) (int, error) {
	n := len(p) / BytesPerFrame * BytesPerFrame
	for i := 0; i < n; i += 2 {
		r.data = append(r.data, int(int16(uint16(p[i])|uint16(p[i+1])<<8)))
	}
	return len(p), nil
}

// Frames is the number of stereo frames recorded so far.
func (r *Recorder) Frames() int {
	return len(r.data) / 2
}

// Encode writes the recording as a 16 bit stereo WAV.
func (r *Recorder) Encode(w io.WriteSeeker) error {
	if len(r.data) == 0 {
		return ErrEmptyRecording
	}

	enc := wav.NewEncoder(w, SampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: SampleRate},
		Data:           r.data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// WriteFile encodes the recording to filename.
func (r *Recorder) WriteFile(filename string) (rerr error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav: %w", err)
		}
	}()

	logger.Logf(logger.Allow, "wav", "writing %d frames to %s", r.Frames(), filename)
	return r.Encode(f)
}
