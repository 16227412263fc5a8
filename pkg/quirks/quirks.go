// Package quirks holds the compatibility records that reconcile the
// behaviour of the different CHIP-8 interpreters.
package quirks

import (
	"errors"
	"fmt"
	"strings"
)

// Mode names one of the supported interpreter families.
type Mode int

const (
	Chip8Modern Mode = iota
	SuperChipModern
	SuperChipLegacy
	XoChip
)

// Modes lists every supported mode in menu order.
var Modes = []Mode{Chip8Modern, SuperChipModern, SuperChipLegacy, XoChip}

var ErrUnknownMode = errors.New("unknown core mode")

func (m Mode) String() string {
	switch m {
	case Chip8Modern:
		return "Chip8-Modern"
	case SuperChipModern:
		return "SuperChip-Modern"
	case SuperChipLegacy:
		return "SuperChip-Legacy"
	case XoChip:
		return "xo-chip"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Quirks is the immutable behaviour record for one Mode. Switching modes
// replaces the whole record.
type Quirks struct {
	Mode Mode

	// VFReset clears VF after 8xy1/8xy2/8xy3.
	VFReset bool
	// LoadStoreIndexIncrease advances I by x+1 after Fx55/Fx65.
	LoadStoreIndexIncrease bool
	// DisplayWait makes Dxyn wait for the next vblank.
	DisplayWait bool
	// Clipping drops sprite pixels past the screen edge instead of wrapping.
	Clipping bool
	// ShiftingVX shifts Vx in place; otherwise Vy is copied into Vx first.
	ShiftingVX bool
	// JumpPlusVX makes Bnnn jump to Vx+nnn instead of V0+nnn.
	JumpPlusVX bool
}

// New returns the fixed record for mode. Unknown modes get the XO-CHIP record.
func New(mode Mode) Quirks {
	switch mode {
	case Chip8Modern:
		return Quirks{
			Mode:                   mode,
			VFReset:                true,
			LoadStoreIndexIncrease: true,
			DisplayWait:            true,
			Clipping:               true,
		}
	case SuperChipModern:
		return Quirks{
			Mode:       mode,
			Clipping:   true,
			ShiftingVX: true,
			JumpPlusVX: true,
		}
	case SuperChipLegacy:
		return Quirks{
			Mode:        mode,
			DisplayWait: true,
			Clipping:    true,
			ShiftingVX:  true,
			JumpPlusVX:  true,
		}
	}
	return Quirks{
		Mode:                   XoChip,
		LoadStoreIndexIncrease: true,
	}
}

// ParseMode matches name case-insensitively against the known mode names.
// Dashes, underscores and spaces are ignored so that labels such as
// "SuperChip-Legacy" are accepted too.
func ParseMode(name string) (Mode, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	switch key {
	case "chip8modern", "chip8":
		return Chip8Modern, nil
	case "superchipmodern", "superchip":
		return SuperChipModern, nil
	case "superchiplegacy":
		return SuperChipLegacy, nil
	case "xochip":
		return XoChip, nil
	}
	return XoChip, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}
