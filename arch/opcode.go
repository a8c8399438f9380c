// Package arch defines the CHIP-8 instruction set along with
// some related helper functions.
package arch

// Op identifies a decoded operation.
type Op int

// Known operations.
const (
	Unknown Op = iota
	HALT
	SYS
	CLS
	RET
	JP
	CALL
	SEI // 3xkk
	SNEI
	SE // 5xy0
	SNE
	LDI // 6xkk
	ADDI
	LD // 8xy0
	OR
	AND
	XOR
	ADD
	SUB
	SHR
	SUBN
	SHL
	LDIA // Annn
	JPV0
	RND
	DRW
	SKP
	SKNP
	LDVDT // Fx07
	LDK
	LDDTV
	LDSTV
	ADDIV
	LDF
	LDB
	STM // Fx55
	LDM // Fx65
)

// Name returns the assembler mnemonic for the given operation.
// Returns false if the operation is not recognized.
func Name(op Op) (string, bool) {
	switch op {
	case HALT:
		return "HALT", true
	case SYS:
		return "SYS", true
	case CLS:
		return "CLS", true
	case RET:
		return "RET", true
	case JP, JPV0:
		return "JP", true
	case CALL:
		return "CALL", true
	case SEI, SE:
		return "SE", true
	case SNEI, SNE:
		return "SNE", true
	case LDI, LD, LDIA, LDVDT, LDK, LDDTV, LDSTV, LDF, LDB, STM, LDM:
		return "LD", true
	case ADDI, ADD, ADDIV:
		return "ADD", true
	case OR:
		return "OR", true
	case AND:
		return "AND", true
	case XOR:
		return "XOR", true
	case SUB:
		return "SUB", true
	case SHR:
		return "SHR", true
	case SUBN:
		return "SUBN", true
	case SHL:
		return "SHL", true
	case RND:
		return "RND", true
	case DRW:
		return "DRW", true
	case SKP:
		return "SKP", true
	case SKNP:
		return "SKNP", true
	}

	return "", false
}

// IsSkip returns true if the operation conditionally skips the next instruction.
func IsSkip(op Op) bool {
	switch op {
	case SEI, SNEI, SE, SNE, SKP, SKNP:
		return true
	}
	return false
}

// IsBranch returns true if the operation unconditionally transfers control.
func IsBranch(op Op) bool {
	switch op {
	case JP, JPV0, CALL, RET, HALT:
		return true
	}
	return false
}
