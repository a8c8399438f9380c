package arch

import "fmt"

// InstructionSize is the width of every CHIP-8 instruction in bytes.
const InstructionSize = 2

// Instruction defines decoded instruction data.
type Instruction struct {
	Word uint16 // Raw big-endian instruction word.
	Op   Op     // Symbolic operation. Unknown if the pattern is not recognized.
	NNN  uint16 // 12-bit address: hl·256 + lh·16 + ll.
	KK   uint8  // 8-bit immediate: lh·16 + ll.
	N    uint8  // Lowest nibble.
	X    uint8  // Register index from the second nibble.
	Y    uint8  // Register index from the third nibble.
}

// Nibbles returns the four nibbles of the instruction word, highest first.
func (i Instruction) Nibbles() (hh, hl, lh, ll uint8) {
	w := i.Word
	return uint8(w >> 12), uint8(w>>8) & 0xf, uint8(w>>4) & 0xf, uint8(w) & 0xf
}

// Decode splits the given word into its operand fields and determines
// the operation it encodes. It never fails; unrecognized patterns yield Op Unknown.
func Decode(word uint16) Instruction {
	i := Instruction{Word: word}
	hh, hl, lh, ll := i.Nibbles()

	i.NNN = uint16(hl)<<8 | uint16(lh)<<4 | uint16(ll)
	i.KK = lh<<4 | ll
	i.N = ll
	i.X = hl
	i.Y = lh
	i.Op = lookup(hh, i.KK, ll, word)
	return i
}

// lookup dispatches on the high nibble, and on the low nibble(s)
// for the families where the high nibble is ambiguous.
func lookup(hh, kk, ll uint8, word uint16) Op {
	switch hh {
	case 0x0:
		switch word {
		case 0x0000:
			return HALT
		case 0x00e0:
			return CLS
		case 0x00ee:
			return RET
		}
		return SYS
	case 0x1:
		return JP
	case 0x2:
		return CALL
	case 0x3:
		return SEI
	case 0x4:
		return SNEI
	case 0x5:
		if ll == 0 {
			return SE
		}
	case 0x6:
		return LDI
	case 0x7:
		return ADDI
	case 0x8:
		switch ll {
		case 0x0:
			return LD
		case 0x1:
			return OR
		case 0x2:
			return AND
		case 0x3:
			return XOR
		case 0x4:
			return ADD
		case 0x5:
			return SUB
		case 0x6:
			return SHR
		case 0x7:
			return SUBN
		case 0xe:
			return SHL
		}
	case 0x9:
		if ll == 0 {
			return SNE
		}
	case 0xa:
		return LDIA
	case 0xb:
		return JPV0
	case 0xc:
		return RND
	case 0xd:
		return DRW
	case 0xe:
		switch kk {
		case 0x9e:
			return SKP
		case 0xa1:
			return SKNP
		}
	case 0xf:
		switch kk {
		case 0x07:
			return LDVDT
		case 0x0a:
			return LDK
		case 0x15:
			return LDDTV
		case 0x18:
			return LDSTV
		case 0x1e:
			return ADDIV
		case 0x29:
			return LDF
		case 0x33:
			return LDB
		case 0x55:
			return STM
		case 0x65:
			return LDM
		}
	}
	return Unknown
}

// Target returns the absolute address referenced by jumps, calls and LD I.
func (i Instruction) Target() (uint16, bool) {
	switch i.Op {
	case JP, CALL, LDIA, SYS:
		return i.NNN, true
	}
	return 0, false
}

// String returns the instruction in assembler notation.
// Unrecognized words are rendered as a data directive.
func (i Instruction) String() string {
	name, ok := Name(i.Op)
	if !ok {
		return fmt.Sprintf("DW $%04X", i.Word)
	}

	if params := i.params(); params != "" {
		return name + " " + params
	}
	return name
}

func (i Instruction) params() string {
	x, y := RegisterName(int(i.X)), RegisterName(int(i.Y))

	switch i.Op {
	case SYS, JP, CALL:
		return fmt.Sprintf("$%03X", i.NNN)
	case JPV0:
		return fmt.Sprintf("V0, $%03X", i.NNN)
	case SEI, SNEI, LDI, ADDI, RND:
		return fmt.Sprintf("%s, $%02X", x, i.KK)
	case SE, SNE, LD, OR, AND, XOR, ADD, SUB, SUBN:
		return fmt.Sprintf("%s, %s", x, y)
	case SHR, SHL, SKP, SKNP:
		return x
	case LDIA:
		return fmt.Sprintf("I, $%03X", i.NNN)
	case DRW:
		return fmt.Sprintf("%s, %s, $%X", x, y, i.N)
	case LDVDT:
		return x + ", DT"
	case LDK:
		return x + ", K"
	case LDDTV:
		return "DT, " + x
	case LDSTV:
		return "ST, " + x
	case ADDIV:
		return "I, " + x
	case LDF:
		return "F, " + x
	case LDB:
		return "B, " + x
	case STM:
		return "[I], " + x
	case LDM:
		return x + ", [I]"
	}
	return ""
}
