package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Program is an assembled or loaded LS8 image, with source locations.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode covering an address.
func (prog *Program) Debug(address uint8) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(address) >= op.Address && int(address) < op.Address+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address) - op.Address,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes spanned by the image.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		size = max(size, op.Address+len(op.Bytes))
	}

	return
}

// Binary returns the memory image, starting at address 0.
func (prog *Program) Binary() (image []uint8) {
	image = make([]uint8, prog.Size())
	for address, value := range prog.Codes() {
		image[address] = value
	}

	return
}

// Codes iterates over every address and byte of the image.
func (prog *Program) Codes() iter.Seq2[int, uint8] {
	return func(yield func(address int, value uint8) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Bytes {
				if !yield(op.Address+n, value) {
					return
				}
			}
		}
	}
}

// WriteBinary writes the image in the LS8 binary text format, one byte
// per line, with the source words as a comment on the first byte.
func (prog *Program) WriteBinary(output io.Writer) (err error) {
	w := bufio.NewWriter(output)

	next := 0
	for _, op := range prog.Opcodes {
		for ; next < op.Address; next++ {
			fmt.Fprintf(w, "%08b\n", 0)
		}
		for n, value := range op.Bytes {
			if n == 0 && len(op.Words) > 0 {
				fmt.Fprintf(w, "%08b # %v\n", value, strings.Join(op.Words, " "))
			} else {
				fmt.Fprintf(w, "%08b\n", value)
			}
		}
		next = op.Address + len(op.Bytes)
	}

	err = w.Flush()
	return
}
