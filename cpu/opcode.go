package cpu

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// CodeOp is an instruction byte.
type CodeOp uint8

const (
	OP_HLT  = CodeOp(0b00000001) // hlt
	OP_LDI  = CodeOp(0b10000010) // ldi
	OP_PRN  = CodeOp(0b01000111) // prn
	OP_MUL  = CodeOp(0b10100010) // mul
	OP_ADD  = CodeOp(0b10100000) // add
	OP_PUSH = CodeOp(0b01000101) // push
	OP_POP  = CodeOp(0b01000110) // pop
	OP_CALL = CodeOp(0b01010000) // call
	OP_RET  = CodeOp(0b00010001) // ret
	OP_CMP  = CodeOp(0b10100111) // cmp
	OP_JMP  = CodeOp(0b01010100) // jmp
	OP_JEQ  = CodeOp(0b01010101) // jeq
	OP_JNE  = CodeOp(0b01010110) // jne
)

// Instruction byte fields.
const (
	OP_OPERANDS_SHIFT = 6
	OP_ALU_BIT        = CodeOp(0b00100000)
	OP_SETS_PC_BIT    = CodeOp(0b00010000)
	OP_ID_MASK        = CodeOp(0b00001111)
)

// opMnemonic is the opcode table.
var opMnemonic = map[CodeOp]string{
	OP_HLT:  "HLT",
	OP_LDI:  "LDI",
	OP_PRN:  "PRN",
	OP_MUL:  "MUL",
	OP_ADD:  "ADD",
	OP_PUSH: "PUSH",
	OP_POP:  "POP",
	OP_CALL: "CALL",
	OP_RET:  "RET",
	OP_CMP:  "CMP",
	OP_JMP:  "JMP",
	OP_JEQ:  "JEQ",
	OP_JNE:  "JNE",
}

// opLookup maps mnemonics back to their instruction byte.
var opLookup = func() map[string]CodeOp {
	lookup := make(map[string]CodeOp, len(opMnemonic))
	for op, name := range opMnemonic {
		lookup[name] = op
	}
	return lookup
}()

// LookupOp returns the instruction byte for a mnemonic, ignoring case.
func LookupOp(mnemonic string) (op CodeOp, ok bool) {
	op, ok = opLookup[strings.ToUpper(mnemonic)]
	return
}

// Ops returns all known instruction bytes in ascending order.
func Ops() []CodeOp {
	return slices.Sorted(maps.Keys(opMnemonic))
}

// Valid returns true if the byte is in the opcode table.
func (op CodeOp) Valid() bool {
	_, ok := opMnemonic[op]
	return ok
}

// Operands returns the number of operand bytes following the instruction.
func (op CodeOp) Operands() int {
	return int(op >> OP_OPERANDS_SHIFT)
}

// Size returns the instruction length in bytes, including operands.
func (op CodeOp) Size() int {
	return 1 + op.Operands()
}

// SetsPc returns true if the instruction is responsible for the PC.
func (op CodeOp) SetsPc() bool {
	return (op & OP_SETS_PC_BIT) != 0
}

// IsAlu returns true if the instruction is executed by the ALU.
func (op CodeOp) IsAlu() bool {
	return (op & OP_ALU_BIT) != 0
}

// AluOp returns the ALU operation selected by the instruction identifier.
func (op CodeOp) AluOp() CodeAluOp {
	return CodeAluOp(op & OP_ID_MASK)
}

func (op CodeOp) String() string {
	name, ok := opMnemonic[op]
	if !ok {
		return fmt.Sprintf("0x%02X", uint8(op))
	}
	return name
}

// CodeAluOp is an ALU operation type.
type CodeAluOp int

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_ADD = CodeAluOp(OP_ADD & OP_ID_MASK) // add
	ALU_OP_MUL = CodeAluOp(OP_MUL & OP_ID_MASK) // mul
	ALU_OP_CMP = CodeAluOp(OP_CMP & OP_ID_MASK) // cmp
)

// CodeState is the execution state of the CPU.
type CodeState int

//go:generate go tool stringer -linecomment -type=CodeState
const (
	STATE_RUNNING = CodeState(0) // running
	STATE_HALTED  = CodeState(1) // halted
	STATE_FAULTED = CodeState(2) // faulted
)

// Code is a fetched instruction with its two prefetched operand bytes.
type Code struct {
	Op CodeOp
	A  uint8
	B  uint8
}

// Bytes returns the instruction and the operands it uses.
func (code Code) Bytes() []uint8 {
	return []uint8{uint8(code.Op), code.A, code.B}[:min(code.Op.Size(), 3)]
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	switch code.Op {
	case OP_LDI:
		out = fmt.Sprintf("%v R%d,%d", code.Op, code.A, code.B)
	default:
		switch code.Op.Operands() {
		case 0:
			out = code.Op.String()
		case 1:
			out = fmt.Sprintf("%v R%d", code.Op, code.A)
		default:
			out = fmt.Sprintf("%v R%d,R%d", code.Op, code.A, code.B)
		}
	}

	return
}

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo    int
	Address   int
	Words     []string
	Bytes     []uint8
	LinkLabel string
}
