package chip8

import "gochip8/pkg/display"

// Step executes one instruction. A machine that is waiting for a key
// release, waiting for vblank or has exited returns immediately without
// error.
//
// On a fault PC has already moved past the faulting opcode; the caller
// decides whether to stop, reset or carry on.
func (m *Machine) Step() error {
	if m.exited || m.haltedForInput || m.waitingVBlank {
		return nil
	}

	pc := m.PC
	opcode, ok := m.peekWord(pc)
	m.PC += 2
	if !ok {
		return invalidMemoryAccess(pc, int(pc)+1)
	}

	in := Decode(opcode)
	if in.Op == OpInvalid || (in.Op.SuperChipOnly() && !m.superChip) {
		return invalidOpcode(pc, opcode)
	}
	return m.execute(pc, in)
}

// skip advances over the next instruction, which is 4 bytes long if it is
// the wide "F000 nnnn" load.
func (m *Machine) skip() {
	if next, ok := m.peekWord(m.PC); ok && next == wideLoadOpcode {
		m.PC += 4
		return
	}
	m.PC += 2
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.skip()
	}
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) execute(pc uint16, in Instruction) error {
	x, y := in.X, in.Y
	q := m.quirks

	switch in.Op {
	case OpScrollDown:
		m.screen.ScrollDown(m.scrollDistance(int(in.N)), m.planeMask)
	case OpScrollUp:
		m.screen.ScrollUp(m.scrollDistance(int(in.N)), m.planeMask)
	case OpScrollRight:
		m.screen.ScrollRight(m.scrollDistance(4), m.planeMask)
	case OpScrollLeft:
		m.screen.ScrollLeft(m.scrollDistance(4), m.planeMask)
	case OpCLS:
		m.screen.Clear(m.planeMask)
	case OpRET:
		if m.SP == 0 {
			return stackUnderflow(pc, m.SP)
		}
		m.SP--
		m.PC = m.Stack[m.SP]
	case OpExit:
		m.exited = true
	case OpLoRes:
		m.hiRes = false
		m.screen.Clear(display.AllPlanes)
	case OpHiRes:
		m.hiRes = true
		m.screen.Clear(display.AllPlanes)

	case OpJP:
		m.PC = in.NNN
	case OpCALL:
		if m.SP >= StackDepth {
			return stackOverflow(pc, m.SP)
		}
		m.Stack[m.SP] = m.PC
		m.SP++
		m.PC = in.NNN
	case OpSEByte:
		m.skipIf(m.V[x] == in.KK)
	case OpSNEByte:
		m.skipIf(m.V[x] != in.KK)
	case OpSEReg:
		m.skipIf(m.V[x] == m.V[y])
	case OpSNEReg:
		m.skipIf(m.V[x] != m.V[y])
	case OpSaveRange, OpLoadRange:
		return m.transferRange(pc, x, y, in.Op == OpSaveRange)
	case OpLDByte:
		m.V[x] = in.KK
	case OpADDByte:
		m.V[x] += in.KK

	case OpLDReg:
		m.V[x] = m.V[y]
	case OpOR:
		m.V[x] |= m.V[y]
		if q.VFReset {
			m.V[0xF] = 0
		}
	case OpAND:
		m.V[x] &= m.V[y]
		if q.VFReset {
			m.V[0xF] = 0
		}
	case OpXOR:
		m.V[x] ^= m.V[y]
		if q.VFReset {
			m.V[0xF] = 0
		}
	case OpADD:
		sum := uint16(m.V[x]) + uint16(m.V[y])
		m.V[x] = uint8(sum)
		m.V[0xF] = flag(sum > 0xFF)
	case OpSUB:
		vx, vy := m.V[x], m.V[y]
		m.V[x] = vx - vy
		m.V[0xF] = flag(vx >= vy)
	case OpSUBN:
		vx, vy := m.V[x], m.V[y]
		m.V[x] = vy - vx
		m.V[0xF] = flag(vy >= vx)
	case OpSHR:
		src := m.V[y]
		if q.ShiftingVX {
			src = m.V[x]
		}
		m.V[x] = src >> 1
		m.V[0xF] = src & 1
	case OpSHL:
		src := m.V[y]
		if q.ShiftingVX {
			src = m.V[x]
		}
		m.V[x] = src << 1
		m.V[0xF] = src >> 7

	case OpLDI:
		m.I = in.NNN
	case OpJPV0:
		if q.JumpPlusVX {
			m.PC = in.NNN + uint16(m.V[x])
		} else {
			m.PC = in.NNN + uint16(m.V[0])
		}
	case OpRND:
		m.V[x] = uint8(m.rng.Uint32()) & in.KK
	case OpDRW:
		if err := m.draw(pc, x, y, in.N); err != nil {
			return err
		}
		if q.DisplayWait {
			m.waitingVBlank = true
		}
	case OpSKP:
		m.skipIf(m.Keys[m.V[x]&0xF])
	case OpSKNP:
		m.skipIf(!m.Keys[m.V[x]&0xF])

	case OpLDILong:
		if end := int(pc) + 3; end >= MemorySize {
			return invalidMemoryAccess(pc, end)
		}
		m.I = uint16(m.Memory[pc+2])<<8 | uint16(m.Memory[pc+3])
		m.PC += 2
	case OpAudio:
		if end := int(m.I) + len(m.sound.Pattern) - 1; end >= MemorySize {
			return invalidMemoryAccess(pc, end)
		}
		copy(m.sound.Pattern[:], m.Memory[m.I:])
		m.soundDirty = true
	case OpPlane:
		m.planeMask = uint8(x) & display.AllPlanes
	case OpPitch:
		m.sound.Pitch = m.V[x]
		m.soundDirty = true
	case OpLDVxDT:
		m.V[x] = m.DT
	case OpLDKey:
		m.haltedForInput = true
		m.inputRegister = x
	case OpLDDT:
		m.DT = m.V[x]
	case OpLDST:
		m.ST = m.V[x]
	case OpADDI:
		sum := int(m.I) + int(m.V[x])
		if sum >= MemorySize {
			return invalidMemoryPtr(pc, sum)
		}
		m.I = uint16(sum)
	case OpFont:
		m.I = FontOffset + uint16(m.V[x]&0xF)*smallGlyphSize
	case OpBigFont:
		m.I = BigFontOffset + uint16(m.V[x]&0xF)*bigGlyphSize
	case OpBCD:
		if end := int(m.I) + 2; end >= MemorySize {
			return invalidMemoryAccess(pc, end)
		}
		v := m.V[x]
		m.Memory[m.I] = v / 100
		m.Memory[m.I+1] = v / 10 % 10
		m.Memory[m.I+2] = v % 10
	case OpStore:
		if end := int(m.I) + x; end >= MemorySize {
			return invalidMemoryPtr(pc, end)
		}
		copy(m.Memory[m.I:], m.V[:x+1])
		if q.LoadStoreIndexIncrease {
			m.I += uint16(x + 1)
		}
	case OpLoad:
		if end := int(m.I) + x; end >= MemorySize {
			return invalidMemoryPtr(pc, end)
		}
		copy(m.V[:x+1], m.Memory[m.I:])
		if q.LoadStoreIndexIncrease {
			m.I += uint16(x + 1)
		}
	case OpSaveFlags:
		if x > maxFlagRegister {
			return invalidOpcode(pc, in.Raw)
		}
		copy(m.RPL[:x+1], m.V[:x+1])
		m.rplDirty = true
	case OpLoadFlags:
		if x > maxFlagRegister {
			return invalidOpcode(pc, in.Raw)
		}
		copy(m.V[:x+1], m.RPL[:x+1])

	default:
		return invalidOpcode(pc, in.Raw)
	}
	return nil
}

// transferRange implements 5xy2/5xy3: registers Vx through Vy inclusive,
// in either direction, to or from memory starting at I. I is not changed.
func (m *Machine) transferRange(pc uint16, x, y int, save bool) error {
	step, dist := 1, y-x
	if x > y {
		step, dist = -1, x-y
	}
	if end := int(m.I) + dist; end >= MemorySize {
		return invalidMemoryAccess(pc, end)
	}
	for i := 0; i <= dist; i++ {
		r := x + i*step
		addr := int(m.I) + i
		if save {
			m.Memory[addr] = m.V[r]
		} else {
			m.V[r] = m.Memory[addr]
		}
	}
	return nil
}
