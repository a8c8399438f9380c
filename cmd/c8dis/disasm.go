package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hexaflex/c8vm/arch"
	"github.com/hexaflex/c8vm/devices/vip/cpu"
)

// disassemble writes a listing of program, loaded at cpu.ProgramStart, to w.
//
// Instructions are decoded at every even offset; data embedded in code
// therefore shows up as whatever it happens to decode to. A trailing odd
// byte is listed as DB.
func disassemble(w io.Writer, program []byte, c *Config) error {
	labels := make(map[uint16]bool)
	if c.Labels {
		labels = findLabels(program)
	}

	var sb strings.Builder

	for off := 0; off < len(program); off += arch.InstructionSize {
		addr := uint16(cpu.ProgramStart + off)
		sb.Reset()

		if labels[addr] {
			fmt.Fprintf(&sb, "\n%s:\n", label(addr))
		}

		if off+1 >= len(program) {
			writeLine(&sb, c, addr, fmt.Sprintf("%02x", program[off]), fmt.Sprintf("DB $%02X", program[off]))
		} else {
			instr := arch.Decode(uint16(program[off])<<8 | uint16(program[off+1]))
			writeLine(&sb, c, addr, fmt.Sprintf("%04x", instr.Word), mnemonic(instr, labels))

			if arch.IsBranch(instr.Op) && instr.Op != arch.CALL {
				sb.WriteString("\n")
			}
		}

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}

	return nil
}

// findLabels returns the addresses inside the program referenced by jumps and calls.
func findLabels(program []byte) map[uint16]bool {
	set := make(map[uint16]bool)
	end := cpu.ProgramStart + len(program)

	for off := 0; off+1 < len(program); off += arch.InstructionSize {
		instr := arch.Decode(uint16(program[off])<<8 | uint16(program[off+1]))
		if instr.Op != arch.JP && instr.Op != arch.CALL {
			continue
		}

		if addr, ok := instr.Target(); ok && int(addr) >= cpu.ProgramStart && int(addr) < end {
			set[addr] = true
		}
	}

	return set
}

// mnemonic returns the instruction text, with known jump and call
// targets replaced by their label.
func mnemonic(instr arch.Instruction, labels map[uint16]bool) string {
	text := instr.String()

	if instr.Op == arch.JP || instr.Op == arch.CALL {
		if addr, _ := instr.Target(); labels[addr] {
			name, _ := arch.Name(instr.Op)
			text = name + " " + label(addr)
		}
	}

	if arch.IsSkip(instr.Op) {
		text += " ; skip"
	}

	return text
}

func writeLine(sb *strings.Builder, c *Config, addr uint16, raw, text string) {
	if c.Raw {
		fmt.Fprintf(sb, "%03x  %-4s  ", addr, raw)
	}
	fmt.Fprintf(sb, "    %s\n", text)
}

func label(addr uint16) string {
	return fmt.Sprintf("L%03X", addr)
}
