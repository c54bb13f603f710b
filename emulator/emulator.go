// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"io"
	"log"

	"github.com/ezrec/ls8/cpu"
	lsio "github.com/ezrec/ls8/io"
)

// Emulator state. CPU + loaded program + output tape.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	Tape lsio.Tape // PRN output channel.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.Output = &emu.Tape

	return
}

// SetTrace sends a trace line for every instruction to w, or disables
// tracing when w is nil.
func (emu *Emulator) SetTrace(w io.Writer) {
	emu.Cpu.Trace = w
}

// Reset the CPU and load the program image into memory.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()

	err = emu.Cpu.Load(emu.Program.Binary())
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d bytes loaded", emu.Program.Size())
	}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// Halted returns true if the program stopped on HLT.
func (emu *Emulator) Halted() bool {
	return emu.Cpu.State == cpu.STATE_HALTED
}

// Faulted returns true if the program stopped on an invalid instruction.
func (emu *Emulator) Faulted() bool {
	return emu.Cpu.State == cpu.STATE_FAULTED
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() cpu.Code {
	return emu.Cpu.Fetch()
}

// LineNo returns the source line number for the byte at the program counter.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
// done is set once the CPU has halted or stopped on an invalid instruction.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	address := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Address: address, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrNotRunning) {
		err = nil
		done = true
		return
	}
	if err != nil {
		done = true
		return
	}

	done = !emu.Cpu.Running()
	if done && emu.Faulted() && emu.Verbose {
		log.Printf("emulator: line %d: %v", lineno, emu.Cpu.Fault)
	}

	return
}

// Run ticks the emulator until the program halts or faults.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
