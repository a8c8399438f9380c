package cpu

import "github.com/pkg/errors"

const (
	MemoryCapacity = 0x1000 // Size of the address space.
	ProgramStart   = 0x200  // Address at which programs are loaded and started.
	AddressMask    = MemoryCapacity - 1
)

// Memory defines the system's memory bank.
// All accessors fail with ErrBounds instead of reading or writing past the end.
type Memory []byte

// U8 returns the 8-bit value at the given address.
func (m Memory) U8(addr int) (uint8, error) {
	if err := m.check(addr, 1); err != nil {
		return 0, err
	}
	return m[addr], nil
}

// SetU8 sets the 8-bit value at the given address.
func (m Memory) SetU8(addr int, value uint8) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	m[addr] = value
	return nil
}

// U16 returns the big-endian 16-bit value at the given address.
func (m Memory) U16(addr int) (uint16, error) {
	if err := m.check(addr, 2); err != nil {
		return 0, err
	}
	return uint16(m[addr])<<8 | uint16(m[addr+1]), nil
}

// Write writes len(p) bytes from p into memory, starting at the given address.
// Nothing is written if the range does not fit.
func (m Memory) Write(address int, p []byte) error {
	if err := m.check(address, len(p)); err != nil {
		return err
	}
	copy(m[address:], p)
	return nil
}

// Read reads len(p) bytes from memory into p, starting at the given address.
func (m Memory) Read(address int, p []byte) error {
	if err := m.check(address, len(p)); err != nil {
		return err
	}
	copy(p, m[address:])
	return nil
}

// check ensures [addr, addr+size) lies within the memory bank.
func (m Memory) check(addr, size int) error {
	if addr < 0 || size < 0 || addr+size > len(m) {
		return errors.Wrapf(ErrBounds, "address %03x+%d", addr, size)
	}
	return nil
}
