package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, name string, lines ...string) (path string) {
	path = filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
	assert.NoError(t, err)
	return
}

func doRun(args ...string) (status int, stdout, stderr string) {
	var out, errout bytes.Buffer
	status = run("ls8", args, &out, &errout)
	stdout = out.String()
	stderr = errout.String()
	return
}

func TestRun_Print8(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "print8.ls8",
		"# Print the number 8",
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	)

	status, stdout, _ := doRun(path)
	assert.Equal(EXIT_OK, status)
	assert.Equal("8\n", stdout)
}

func TestRun_Usage(t *testing.T) {
	assert := assert.New(t)

	status, stdout, stderr := doRun()
	assert.Equal(EXIT_USAGE, status)
	assert.Empty(stdout)
	assert.Contains(stderr, "Usage:")

	status, _, _ = doRun("a.ls8", "b.ls8")
	assert.Equal(EXIT_USAGE, status)

	status, _, _ = doRun("-no-such-flag", "a.ls8")
	assert.Equal(EXIT_USAGE, status)
}

func TestRun_NotFound(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "missing.ls8")
	status, _, stderr := doRun(path)
	assert.Equal(EXIT_NOT_FOUND, status)
	assert.Contains(stderr, "file not found")
}

func TestRun_Malformed(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "bad.ls8", "10000010", "LDI")
	status, stdout, stderr := doRun(path)
	assert.Equal(EXIT_LOAD, status)
	assert.Empty(stdout)
	assert.Contains(stderr, "line 2")
}

func TestRun_InvalidInstruction(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "invalid.ls8",
		"10000010", "00000000", "00000111", // LDI R0,7
		"01000111", "00000000", // PRN R0
		"11111111",
		"01000111", "00000000", // PRN R0
		"00000001",
	)

	status, stdout, stderr := doRun(path)
	assert.Equal(EXIT_OK, status)
	assert.Equal("7\n", stdout)
	assert.Contains(stderr, "invalid instruction")

	status, stdout, _ = doRun("-fault-status", "5", path)
	assert.Equal(5, status)
	assert.Equal("7\n", stdout)
}

func TestRun_RuntimeFault(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "fault.ls8",
		"01000111", "00001000", // PRN R8
		"00000001",
	)

	status, _, stderr := doRun(path)
	assert.Equal(EXIT_RUNTIME, status)
	assert.Contains(stderr, "register")
}

func TestRun_Assemble(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "call.asm",
		"        LDI R1, Double",
		"        LDI R0, 21",
		"        CALL R1",
		"        HLT",
		"Double: ADD R0, R0",
		"        PRN R0",
		"        RET",
	)

	status, stdout, _ := doRun(path)
	assert.Equal(EXIT_OK, status)
	assert.Equal("42\n", stdout)

	source := writeFile(t, "call.txt", "LDI R0, 3", "PRN R0", "HLT")
	status, stdout, _ = doRun("-a", source)
	assert.Equal(EXIT_OK, status)
	assert.Equal("3\n", stdout)
}

func TestRun_Trace(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "halt.ls8", "00000001")

	status, stdout, stderr := doRun("-t", path)
	assert.Equal(EXIT_OK, status)
	assert.Empty(stdout)
	assert.Equal("TRACE: 00 | 01 00 00 | 00 00 00 00 00 00 00 F4\n", stderr)
}
