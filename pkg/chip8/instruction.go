package chip8

import "fmt"

// Op identifies one instruction form.
type Op uint8

const (
	OpInvalid Op = iota

	OpScrollDown  // 00Cn
	OpScrollUp    // 00Dn
	OpCLS         // 00E0
	OpRET         // 00EE
	OpScrollRight // 00FB
	OpScrollLeft  // 00FC
	OpExit        // 00FD
	OpLoRes       // 00FE
	OpHiRes       // 00FF

	OpJP        // 1nnn
	OpCALL      // 2nnn
	OpSEByte    // 3xkk
	OpSNEByte   // 4xkk
	OpSEReg     // 5xy0
	OpSaveRange // 5xy2
	OpLoadRange // 5xy3
	OpLDByte    // 6xkk
	OpADDByte   // 7xkk

	OpLDReg // 8xy0
	OpOR    // 8xy1
	OpAND   // 8xy2
	OpXOR   // 8xy3
	OpADD   // 8xy4
	OpSUB   // 8xy5
	OpSHR   // 8xy6
	OpSUBN  // 8xy7
	OpSHL   // 8xyE

	OpSNEReg // 9xy0
	OpLDI    // Annn
	OpJPV0   // Bnnn
	OpRND    // Cxkk
	OpDRW    // Dxyn
	OpSKP    // Ex9E
	OpSKNP   // ExA1

	OpLDILong   // F000 nnnn
	OpAudio     // F002
	OpPlane     // Fx01
	OpLDVxDT    // Fx07
	OpLDKey     // Fx0A
	OpLDDT      // Fx15
	OpLDST      // Fx18
	OpADDI      // Fx1E
	OpFont      // Fx29
	OpBigFont   // Fx30
	OpBCD       // Fx33
	OpPitch     // Fx3A
	OpStore     // Fx55
	OpLoad      // Fx65
	OpSaveFlags // Fx75
	OpLoadFlags // Fx85
)

var opNames = [...]string{
	OpInvalid:     "???",
	OpScrollDown:  "SCD",
	OpScrollUp:    "SCU",
	OpCLS:         "CLS",
	OpRET:         "RET",
	OpScrollRight: "SCR",
	OpScrollLeft:  "SCL",
	OpExit:        "EXIT",
	OpLoRes:       "LOW",
	OpHiRes:       "HIGH",
	OpJP:          "JP",
	OpCALL:        "CALL",
	OpSEByte:      "SE",
	OpSNEByte:     "SNE",
	OpSEReg:       "SE",
	OpSaveRange:   "SAVE",
	OpLoadRange:   "LOAD",
	OpLDByte:      "LD",
	OpADDByte:     "ADD",
	OpLDReg:       "LD",
	OpOR:          "OR",
	OpAND:         "AND",
	OpXOR:         "XOR",
	OpADD:         "ADD",
	OpSUB:         "SUB",
	OpSHR:         "SHR",
	OpSUBN:        "SUBN",
	OpSHL:         "SHL",
	OpSNEReg:      "SNE",
	OpLDI:         "LD",
	OpJPV0:        "JP",
	OpRND:         "RND",
	OpDRW:         "DRW",
	OpSKP:         "SKP",
	OpSKNP:        "SKNP",
	OpLDILong:     "LD",
	OpAudio:       "AUDIO",
	OpPlane:       "PLANE",
	OpLDVxDT:      "LD",
	OpLDKey:       "LD",
	OpLDDT:        "LD",
	OpLDST:        "LD",
	OpADDI:        "ADD",
	OpFont:        "LD",
	OpBigFont:     "LD",
	OpBCD:         "LD",
	OpPitch:       "PITCH",
	OpStore:       "LD",
	OpLoad:        "LD",
	OpSaveFlags:   "LD",
	OpLoadFlags:   "LD",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// SuperChipOnly reports whether the form is rejected unless SuperChip
// extensions are enabled.
func (o Op) SuperChipOnly() bool {
	switch o {
	case OpScrollDown, OpScrollRight, OpScrollLeft, OpExit, OpLoRes, OpHiRes,
		OpBigFont, OpSaveFlags, OpLoadFlags:
		return true
	}
	return false
}

// Instruction is a decoded opcode. Every operand field is filled whether
// or not the form uses it.
type Instruction struct {
	Op  Op
	Raw uint16
	X   int
	Y   int
	N   uint8
	KK  uint8
	NNN uint16
}

func (in Instruction) String() string {
	return fmt.Sprintf("%s (%04X)", in.Op, in.Raw)
}

func nibbleX(opcode uint16) int { return int(opcode>>8) & 0xF }
func nibbleY(opcode uint16) int { return int(opcode>>4) & 0xF }
func nibbleN(opcode uint16) uint8 { return uint8(opcode & 0xF) }
func byteKK(opcode uint16) uint8 { return uint8(opcode & 0xFF) }
func addrNNN(opcode uint16) uint16 { return opcode & 0x0FFF }

// Decode maps an opcode to its instruction form. It is pure: mode
// legality is checked by the executor, not here.
func Decode(opcode uint16) Instruction {
	in := Instruction{
		Raw: opcode,
		X:   nibbleX(opcode),
		Y:   nibbleY(opcode),
		N:   nibbleN(opcode),
		KK:  byteKK(opcode),
		NNN: addrNNN(opcode),
	}
	in.Op = decodeOp(opcode)
	return in
}

func decodeOp(opcode uint16) Op {
	nnn := addrNNN(opcode)
	n := nibbleN(opcode)
	kk := byteKK(opcode)

	switch opcode & 0xF000 {
	case 0x0000:
		switch {
		case nnn&0xFF0 == 0x0C0:
			return OpScrollDown
		case nnn&0xFF0 == 0x0D0:
			return OpScrollUp
		}
		switch nnn {
		case 0x0E0:
			return OpCLS
		case 0x0EE:
			return OpRET
		case 0x0FB:
			return OpScrollRight
		case 0x0FC:
			return OpScrollLeft
		case 0x0FD:
			return OpExit
		case 0x0FE:
			return OpLoRes
		case 0x0FF:
			return OpHiRes
		}
	case 0x1000:
		return OpJP
	case 0x2000:
		return OpCALL
	case 0x3000:
		return OpSEByte
	case 0x4000:
		return OpSNEByte
	case 0x5000:
		switch n {
		case 0x0:
			return OpSEReg
		case 0x2:
			return OpSaveRange
		case 0x3:
			return OpLoadRange
		}
	case 0x6000:
		return OpLDByte
	case 0x7000:
		return OpADDByte
	case 0x8000:
		switch n {
		case 0x0:
			return OpLDReg
		case 0x1:
			return OpOR
		case 0x2:
			return OpAND
		case 0x3:
			return OpXOR
		case 0x4:
			return OpADD
		case 0x5:
			return OpSUB
		case 0x6:
			return OpSHR
		case 0x7:
			return OpSUBN
		case 0xE:
			return OpSHL
		}
	case 0x9000:
		if n == 0 {
			return OpSNEReg
		}
	case 0xA000:
		return OpLDI
	case 0xB000:
		return OpJPV0
	case 0xC000:
		return OpRND
	case 0xD000:
		return OpDRW
	case 0xE000:
		switch kk {
		case 0x9E:
			return OpSKP
		case 0xA1:
			return OpSKNP
		}
	case 0xF000:
		switch nnn {
		case 0x000:
			return OpLDILong
		case 0x002:
			return OpAudio
		}
		switch kk {
		case 0x01:
			return OpPlane
		case 0x07:
			return OpLDVxDT
		case 0x0A:
			return OpLDKey
		case 0x15:
			return OpLDDT
		case 0x18:
			return OpLDST
		case 0x1E:
			return OpADDI
		case 0x29:
			return OpFont
		case 0x30:
			return OpBigFont
		case 0x33:
			return OpBCD
		case 0x3A:
			return OpPitch
		case 0x55:
			return OpStore
		case 0x65:
			return OpLoad
		case 0x75:
			return OpSaveFlags
		case 0x85:
			return OpLoadFlags
		}
	}
	return OpInvalid
}
