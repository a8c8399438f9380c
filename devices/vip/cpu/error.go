package cpu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hexaflex/c8vm/arch"
	"github.com/hexaflex/c8vm/devices/vip/keypad"
)

// Fatal runtime conditions. They are reported wrapped in an *Error.
var (
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrBounds          = errors.New("bounds violation")
	ErrWaitPending     = keypad.ErrWaitPending
	ErrProgramTooLarge = errors.New("program too large")
)

// Error defines a runtime error.
type Error struct {
	Instruction
	Err error
}

// NewError wraps err with the location and opcode of the given instruction.
func NewError(instr *Instruction, err error) *Error {
	return &Error{
		Instruction: *instr,
		Err:         err,
	}
}

func (e *Error) Error() string {
	if e.Op == arch.Unknown && e.Word == 0 {
		return fmt.Sprintf("%03x: fetch: %v", e.IP, e.Err)
	}
	return fmt.Sprintf("%03x: %04x %s: %v", e.IP, e.Word, e.Instruction.Instruction, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
