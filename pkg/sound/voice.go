// Package sound turns the interpreter's XO-CHIP audio state into PCM.
//
// A Voice plays the 128 bit pattern as a square-ish wave while the sound
// timer is running. It is an io.Reader producing 16 bit little endian
// stereo frames, which is the format ebiten's audio players consume.
package sound

import (
	"math"
	"sync"
)

const (
	SampleRate = 44100

	// BytesPerFrame is one 16 bit sample for each of two channels.
	BytesPerFrame = 4

	patternBits = 128
	basePitch   = 64
	baseRate    = 4000.0
)

// PlaybackRate returns the pattern playback rate in bits per second for an
// XO-CHIP pitch register value.
func PlaybackRate(pitch uint8) float64 {
	return baseRate * math.Pow(2, (float64(pitch)-basePitch)/48)
}

type Voice struct {
	mu      sync.Mutex
	pattern [16]byte
	step    float64
	phase   float64
	active  bool
	volume  float64
}

// NewVoice returns a silent voice at the default pitch.
func NewVoice(volume float64) *Voice {
	v := &Voice{volume: volume}
	v.step = PlaybackRate(basePitch) / SampleRate
	return v
}

// SetPattern replaces the pattern and pitch. The playback position is kept
// so a change mid-note does not click.
func (v *Voice) SetPattern(pitch uint8, pattern [16]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pattern = pattern
	v.step = PlaybackRate(pitch) / SampleRate
}

// SetActive gates the output. It should follow "sound timer > 0".
func (v *Voice) SetActive(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = active
}

func (v *Voice) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = volume
}

// Read fills p with whole frames. It never returns an error; an inactive
// voice produces silence.
func (v *Voice) Read(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := len(p) / BytesPerFrame * BytesPerFrame
	amp := int16(v.volume * math.MaxInt16)

	for i := 0; i < n; i += BytesPerFrame {
		var s int16
		if v.active {
			bit := int(v.phase)
			if v.pattern[bit/8]&(0x80>>(bit%8)) != 0 {
				s = amp
			} else {
				s = -amp
			}
			v.phase = math.Mod(v.phase+v.step, patternBits)
		}
		p[i] = byte(s)
		p[i+1] = byte(uint16(s) >> 8)
		p[i+2] = p[i]
		p[i+3] = p[i+1]
	}
	return n, nil
}
