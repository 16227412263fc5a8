package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrStackOverflow       = errors.New("stack overflow")
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrInvalidMemoryPtr    = errors.New("invalid memory pointer")
	ErrInvalidMemoryAccess = errors.New("invalid memory access")
	ErrInvalidRom          = errors.New("invalid rom")
)

// CoreError is a fault raised by the interpreter. Kind is one of the
// sentinel errors above; the remaining fields carry whatever context the
// fault has (unused fields are left at zero).
//
// A return from an empty stack has Kind ErrStackUnderflow but still matches
// ErrStackOverflow with errors.Is, so callers that only care about "the
// stack went wrong" can test a single value.
type CoreError struct {
	Kind    error
	PC      uint16
	Opcode  uint16
	SP      int
	Addr    int
	Message string
}

func (e *CoreError) Error() string {
	switch e.Kind {
	case ErrInvalidOpcode:
		return fmt.Sprintf("%v %#04x at pc %#04x", e.Kind, e.Opcode, e.PC)
	case ErrStackOverflow, ErrStackUnderflow:
		return fmt.Sprintf("%v (sp %d) at pc %#04x", e.Kind, e.SP, e.PC)
	case ErrInvalidMemoryPtr, ErrInvalidMemoryAccess:
		return fmt.Sprintf("%v %#x at pc %#04x", e.Kind, e.Addr, e.PC)
	case ErrInvalidRom:
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v at pc %#04x", e.Kind, e.PC)
}

func (e *CoreError) Unwrap() error {
	return e.Kind
}

func (e *CoreError) Is(target error) bool {
	return e.Kind == ErrStackUnderflow && target == ErrStackOverflow
}

func invalidOpcode(pc, opcode uint16) error {
	return &CoreError{Kind: ErrInvalidOpcode, PC: pc, Opcode: opcode}
}

func stackOverflow(pc uint16, sp int) error {
	return &CoreError{Kind: ErrStackOverflow, PC: pc, SP: sp}
}

func stackUnderflow(pc uint16, sp int) error {
	return &CoreError{Kind: ErrStackUnderflow, PC: pc, SP: sp}
}

func invalidMemoryPtr(pc uint16, addr int) error {
	return &CoreError{Kind: ErrInvalidMemoryPtr, PC: pc, Addr: addr}
}

func invalidMemoryAccess(pc uint16, addr int) error {
	return &CoreError{Kind: ErrInvalidMemoryAccess, PC: pc, Addr: addr}
}

func invalidRom(format string, args ...any) error {
	return &CoreError{Kind: ErrInvalidRom, Message: fmt.Sprintf(format, args...)}
}
