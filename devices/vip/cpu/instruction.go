package cpu

import "github.com/hexaflex/c8vm/arch"

// Instruction defines decoded instruction data along with its address.
type Instruction struct {
	IP int // Instruction address.
	arch.Instruction
}

// Decode fetches and decodes the instruction at the given address.
func (i *Instruction) Decode(m Memory, addr uint16) error {
	i.IP = int(addr)
	i.Instruction = arch.Instruction{}

	word, err := m.U16(i.IP)
	if err != nil {
		return err
	}

	i.Instruction = arch.Decode(word)
	return nil
}
