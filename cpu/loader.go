package cpu

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
)

// Loader reads the LS8 binary text format.
type Loader struct {
	Verbose bool // If set, logs each loaded byte.
}

// Read parses one base-2 byte per line. Text after '#' is a comment;
// blank and comment-only lines are skipped.
func (ld *Loader) Read(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
			prog = nil
		}
	}()

	prog = &Program{}
	address := 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		text_comment := strings.SplitN(text, "#", 2)
		line = strings.TrimSpace(text_comment[0])
		if len(line) == 0 {
			continue
		}

		var value uint64
		value, err = strconv.ParseUint(line, 2, 8)
		if err != nil {
			err = errors.Join(ErrParseBinary, err)
			return
		}

		if address >= MEMORY_SIZE {
			err = ErrImageTooLarge
			return
		}

		if ld.Verbose {
			log.Printf("%v: %02x: %08b", lineno, address, value)
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo:  lineno,
			Address: address,
			Bytes:   []uint8{uint8(value)},
		})
		address++
	}

	line = ""
	err = scanner.Err()

	return
}

// ReadProgram parses an LS8 binary text stream with a default Loader.
func ReadProgram(input io.Reader) (prog *Program, err error) {
	ld := &Loader{}
	return ld.Read(input)
}
