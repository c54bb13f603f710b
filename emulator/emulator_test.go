package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(&emu.Tape, emu.Cpu.Output)
}

func doAssemble(emu *Emulator, program []string, t *testing.T) (output *bytes.Buffer) {
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	err = emu.Reset()
	assert.NoError(err)

	output = &bytes.Buffer{}
	emu.Tape.Output = output

	return
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	tape_output := doAssemble(emu, program, t)

	for _, op := range emu.Program.Opcodes {
		if !emu.Cpu.Running() {
			break
		}
		assert.Equal(op.LineNo, emu.LineNo())
		assert.Equal(op.Address, emu.Pc())
		assert.Equal(op.Bytes, emu.Code().Bytes())
		_, err := emu.Tick()
		assert.NoError(err, program[op.LineNo-1])
		if err != nil {
			t.Log(emu.Cpu.String())
			t.Fatalf("%v", err)
		}
	}

	output = tape_output.String()
	return
}

func doRunBranch(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	tape_output := doAssemble(emu, program, t)

	assert.NoError(emu.Run())

	output = tape_output.String()
	return
}

func TestEmulatorPrint8(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"PRN R0",
		"HLT",
	}

	output := doRunSingle(emu, program, t)

	assert.Equal("8\n", output)
	assert.True(emu.Halted())
	assert.False(emu.Faulted())
	assert.Equal(3, emu.Ticks())
}

func TestEmulatorMult(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"LDI R1,9",
		"MUL R0,R1",
		"PRN R0",
		"HLT",
	}

	output := doRunSingle(emu, program, t)

	assert.Equal("72\n", output)
}

func TestEmulatorStack(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,1",
		"LDI R1,2",
		"PUSH R0",
		"PUSH R1",
		"LDI R0,3",
		"POP R0",
		"PRN R0",
		"LDI R0,4",
		"PUSH R0",
		"POP R2",
		"POP R1",
		"PRN R2",
		"PRN R1",
		"HLT",
	}

	output := doRunSingle(emu, program, t)

	assert.Equal("2\n4\n1\n", output)
	assert.Equal(uint8(cpu.SP_INIT), emu.Cpu.Register[cpu.REG_SP])
}

func TestEmulatorCall(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"        LDI R1, Mult2Print",
		"        LDI R0, 10",
		"        CALL R1",
		"        LDI R0, 15",
		"        CALL R1",
		"        LDI R0, 18",
		"        CALL R1",
		"        LDI R0, 30",
		"        CALL R1",
		"        HLT",
		"Mult2Print:",
		"        ADD R0, R0",
		"        PRN R0",
		"        RET",
	}

	output := doRunBranch(emu, program, t)

	assert.Equal("20\n30\n36\n60\n", output)
	assert.True(emu.Halted())
}

func TestEmulatorRecursion(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"        LDI R0, 5",
		"        LDI R1, -1",
		"        LDI R3, 0",
		"        LDI R2, Recurse",
		"        LDI R4, Done",
		"        CALL R2",
		"        PRN R0",
		"        HLT",
		"Recurse:",
		"        PRN R0",
		"        CMP R0, R3",
		"        JEQ R4",
		"        ADD R0, R1",
		"        CALL R2",
		"Done:   RET",
	}

	output := doRunBranch(emu, program, t)

	assert.Equal("5\n4\n3\n2\n1\n0\n0\n", output)
	assert.Equal(uint8(cpu.SP_INIT), emu.Cpu.Register[cpu.REG_SP])
}

func TestEmulatorCompare(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"        LDI R0, 10",
		"        LDI R1, 20",
		"        LDI R2, Equal",
		"        LDI R3, Test2",
		"        CMP R0, R1",
		"        JEQ R2",
		"        LDI R4, 1",
		"        PRN R4",
		"Test2:  LDI R2, NotEqual",
		"        CMP R0, R1",
		"        JNE R2",
		"        LDI R4, 2",
		"        PRN R4",
		"NotEqual:",
		"        LDI R4, 3",
		"        PRN R4",
		"        HLT",
		"Equal:  LDI R4, 99",
		"        PRN R4",
		"        HLT",
	}

	output := doRunBranch(emu, program, t)

	assert.Equal("1\n3\n", output)
	assert.Equal(cpu.FL_LESS, emu.Cpu.Fl)
}

func TestEmulatorInvalid(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0, 1",
		"PRN R0",
		"DB 0xff",
		"PRN R0",
		"HLT",
	}

	output := doRunBranch(emu, program, t)

	assert.Equal("1\n", output)
	assert.True(emu.Faulted())
	assert.False(emu.Halted())
	assert.Equal(3, emu.LineNo())
	assert.ErrorIs(emu.Cpu.Fault, cpu.ErrInstructionInvalid)

	// Ticking a stopped machine is done, not an error.
	done, err := emu.Tick()
	assert.True(done)
	assert.NoError(err)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0, 1",
		"DB OP_PRN 9",
		"HLT",
	}

	doAssemble(emu, program, t)

	done, err := emu.Tick()
	assert.False(done)
	assert.NoError(err)

	done, err = emu.Tick()
	assert.True(done)
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(2, rt.LineNo)
		assert.Equal(uint8(3), rt.Address)
	}

	assert.True(emu.Faulted())
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{"LDI R0, 1", "DB OP_PRN 9"}, t)

	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0, 42",
		"PRN R0",
		"HLT",
	}

	tape_output := doAssemble(emu, program, t)
	assert.NoError(emu.Run())
	assert.Equal("42\n", tape_output.String())
	assert.Equal(1, emu.Tape.Count)

	// A reset machine runs the same program again.
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Tape.Count)
	assert.True(emu.Cpu.Running())
	assert.NoError(emu.Run())
	assert.Equal("42\n42\n", tape_output.String())
	assert.Equal(1, emu.Tape.Count)
}

func TestEmulatorTrace(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	trace := &bytes.Buffer{}
	emu.SetTrace(trace)

	doRunBranch(emu, []string{"HLT"}, t)
	assert.Equal("TRACE: 00 | 01 00 00 | 00 00 00 00 00 00 00 F4\n", trace.String())

	emu.SetTrace(nil)
	assert.Nil(emu.Cpu.Trace)
}
