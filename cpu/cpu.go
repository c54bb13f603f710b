// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/internal"
	lsio "github.com/ezrec/ls8/io"
)

// Channel is an output channel interface.
type Channel lsio.Channel

const (
	MEMORY_SIZE    = 256  // Bytes of memory.
	REGISTER_COUNT = 8    // General purpose registers.
	REG_SP         = 7    // Register used as the stack pointer.
	SP_INIT        = 0xf4 // Stack pointer after reset.
)

// Flag register bits, written by CMP.
const (
	FL_EQUAL   = uint8(0b001)
	FL_GREATER = uint8(0b010)
	FL_LESS    = uint8(0b100)
)

var _cpu_defines = map[string]string{
	"SP":          fmt.Sprintf("R%d", REG_SP),
	"SP_INIT":     fmt.Sprintf("0x%02x", SP_INIT),
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
	"FL_EQUAL":    fmt.Sprintf("0b%03b", FL_EQUAL),
	"FL_GREATER":  fmt.Sprintf("0b%03b", FL_GREATER),
	"FL_LESS":     fmt.Sprintf("0b%03b", FL_LESS),
}

// Cpu is the simulation context for the LS8 processor.
type Cpu struct {
	Verbose bool      // Set to enable verbose logging.
	Trace   io.Writer // If set, receives a trace line before each instruction.

	Memory   [MEMORY_SIZE]uint8    // Code, data and stack.
	Register [REGISTER_COUNT]uint8 // Register bank.
	Pc       uint8                 // Program counter.
	Fl       uint8                 // Flags register.

	State CodeState // Execution state.
	Fault error     // Reason the CPU entered STATE_FAULTED.
	Ticks int       // Executed instruction counter.

	Output Channel // Destination of PRN.
}

// NewCpu creates a new CPU in the reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Defines returns the predefined assembler equates: the CPU constants,
// followed by an OP_<mnemonic> entry for every instruction.
func Defines() iter.Seq2[string, string] {
	ops := make(map[string]string, len(opMnemonic))
	for op, name := range opMnemonic {
		ops["OP_"+name] = fmt.Sprintf("0b%08b", uint8(op))
	}

	return internal.IterSeq2Concat(maps.All(_cpu_defines), maps.All(ops))
}

// Reset the CPU state.
// - Clears memory, registers, and flags.
// - Sets the stack pointer to SP_INIT and the PC to 0.
// - Rewinds the output channel.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	clear(cpu.Register[:])
	cpu.Register[REG_SP] = SP_INIT
	cpu.Pc = 0
	cpu.Fl = 0
	cpu.State = STATE_RUNNING
	cpu.Fault = nil
	cpu.Ticks = 0

	if cpu.Output != nil {
		cpu.Output.Rewind()
	}
}

// Load copies a program image into memory, starting at address 0.
func (cpu *Cpu) Load(image []uint8) (err error) {
	if len(image) > MEMORY_SIZE {
		err = ErrImageTooLarge
		return
	}

	copy(cpu.Memory[:], image)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(image))
	}

	return
}

// ReadMemory returns the byte at an address.
func (cpu *Cpu) ReadMemory(address uint8) uint8 {
	return cpu.Memory[address]
}

// WriteMemory stores a byte at an address.
func (cpu *Cpu) WriteMemory(address uint8, value uint8) {
	cpu.Memory[address] = value
}

// register returns the register selected by an operand byte.
func (cpu *Cpu) register(index uint8) (reg *uint8, err error) {
	if int(index) >= len(cpu.Register) {
		err = ErrRegister(index)
		return
	}

	reg = &cpu.Register[index]
	return
}

// Running returns true until the CPU halts or faults.
func (cpu *Cpu) Running() bool {
	return cpu.State == STATE_RUNNING
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %02X\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %03b\n", "fl", cpu.Fl)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %02X\n", fmt.Sprintf("r%d", n), val)
	}
	text += fmt.Sprintf("% 5s: %v\n", "state", cpu.State)

	return
}

// TraceLine renders the PC, the next three memory bytes, and the registers.
func (cpu *Cpu) TraceLine() (text string) {
	pc := cpu.Pc
	text = fmt.Sprintf("TRACE: %02X | %02X %02X %02X |",
		pc, cpu.Memory[pc], cpu.Memory[pc+1], cpu.Memory[pc+2])

	for _, val := range cpu.Register {
		text += fmt.Sprintf(" %02X", val)
	}

	return
}

// Fetch reads the instruction at the PC and the two bytes after it.
// The operand bytes are always read, wrapping at the top of memory.
func (cpu *Cpu) Fetch() (code Code) {
	pc := cpu.Pc
	code = Code{
		Op: CodeOp(cpu.Memory[pc]),
		A:  cpu.Memory[pc+1],
		B:  cpu.Memory[pc+2],
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.State != STATE_RUNNING {
		err = ErrNotRunning
		return
	}

	if cpu.Trace != nil {
		fmt.Fprintln(cpu.Trace, cpu.TraceLine())
	}

	code := cpu.Fetch()

	err = cpu.Execute(code)
	if err != nil {
		cpu.State = STATE_FAULTED
		cpu.Fault = err
	}

	return
}

// Run ticks the CPU until it halts or faults.
func (cpu *Cpu) Run() (err error) {
	for cpu.State == STATE_RUNNING {
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = &ErrInstruction{Pc: cpu.Pc, Code: code, Err: err}
		}
	}()

	if cpu.Verbose {
		log.Printf("%02x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + uint8(code.Op.Size())

	var reg *uint8

	switch code.Op {
	case OP_HLT:
		cpu.State = STATE_HALTED
	case OP_LDI:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		*reg = code.B
	case OP_PRN:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		if cpu.Output == nil {
			err = ErrChannelInvalid
			return
		}
		err = cpu.Output.Send(*reg)
		if err != nil {
			return
		}
	case OP_ADD, OP_MUL, OP_CMP:
		err = cpu.Alu(code.Op.AluOp(), code.A, code.B)
		if err != nil {
			return
		}
	case OP_PUSH:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		// PUSH R7 stores the already decremented stack pointer.
		cpu.Register[REG_SP]--
		cpu.Memory[cpu.Register[REG_SP]] = *reg
	case OP_POP:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		// POP R7 loads, then increments, the stack pointer.
		*reg = cpu.Memory[cpu.Register[REG_SP]]
		cpu.Register[REG_SP]++
	case OP_CALL:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		cpu.Push(cpu.Pc + 2)
		next_pc = *reg
	case OP_RET:
		next_pc = cpu.Pop()
	case OP_JMP:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		next_pc = *reg
	case OP_JEQ, OP_JNE:
		reg, err = cpu.register(code.A)
		if err != nil {
			return
		}
		equal := (cpu.Fl & FL_EQUAL) != 0
		if equal == (code.Op == OP_JEQ) {
			next_pc = *reg
		} else {
			next_pc = cpu.Pc + 2
		}
	default:
		// Graceful stop: the PC stays on the offending byte.
		cpu.State = STATE_FAULTED
		cpu.Fault = ErrOpcode(code.Op)
		if cpu.Verbose {
			log.Printf("cpu: %02x: %v", cpu.Pc, cpu.Fault)
		}
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// Alu performs the requested ALU action on two registers.
// Results are truncated to 8 bits.
func (cpu *Cpu) Alu(op CodeAluOp, reg_a, reg_b uint8) (err error) {
	a, err := cpu.register(reg_a)
	if err != nil {
		return
	}
	b, err := cpu.register(reg_b)
	if err != nil {
		return
	}

	switch op {
	case ALU_OP_ADD:
		*a += *b
	case ALU_OP_MUL:
		*a *= *b
	case ALU_OP_CMP:
		switch {
		case *a < *b:
			cpu.Fl = FL_LESS
		case *a > *b:
			cpu.Fl = FL_GREATER
		default:
			cpu.Fl = FL_EQUAL
		}
	default:
		err = ErrAluUnsupported
	}

	return
}
