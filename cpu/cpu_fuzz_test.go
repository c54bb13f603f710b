package cpu

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"

	lsio "github.com/ezrec/ls8/io"
)

const fuzzTickLimit = 1024

func FuzzCpu(f *testing.F) {
	f.Add([]byte{0x82, 0x00, 0x08, 0x47, 0x00, 0x01})
	f.Add([]byte{0x82, 0x00, 0x05, 0x50, 0x00, 0x01})
	f.Add([]byte{0xa7, 0x00, 0x01, 0x55, 0x02, 0x56, 0x03, 0x11})
	f.Add([]byte{0x45, 0x07, 0x46, 0x07, 0xff})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, image []byte) {
		assert := assert.New(t)

		if len(image) > MEMORY_SIZE {
			image = image[:MEMORY_SIZE]
		}

		cpu := NewCpu()
		cpu.Output = &lsio.Temporary{}
		assert.NoError(cpu.Load(image))

		for range fuzzTickLimit {
			if !cpu.Running() {
				break
			}

			pc := cpu.Pc
			code := cpu.Fetch()
			sp := cpu.Register[REG_SP]
			fl := cpu.Fl

			err := cpu.Tick()

			if bits.OnesCount8(cpu.Fl) > 1 {
				t.Fatalf("%v: flags %03b", code, cpu.Fl)
			}
			if code.Op != OP_CMP && err == nil {
				assert.Equal(fl, cpu.Fl, code.String())
			}

			if err != nil {
				assert.Equal(STATE_FAULTED, cpu.State)
				assert.Equal(pc, cpu.Pc, code.String())
				assert.True(errors.Is(err, ErrRegisterInvalid), "%v: %v", code, err)
				break
			}

			if !code.Op.Valid() {
				assert.Equal(STATE_FAULTED, cpu.State)
				assert.ErrorIs(cpu.Fault, ErrInstructionInvalid)
				assert.Equal(pc, cpu.Pc)
				break
			}

			if !code.Op.SetsPc() {
				assert.Equal(pc+uint8(code.Op.Size()), cpu.Pc, code.String())
			}

			switch code.Op {
			case OP_PUSH, OP_CALL:
				assert.Equal(sp-1, cpu.Register[REG_SP], code.String())
			case OP_RET:
				assert.Equal(sp+1, cpu.Register[REG_SP], code.String())
			case OP_POP:
				if code.A != REG_SP {
					assert.Equal(sp+1, cpu.Register[REG_SP], code.String())
				}
			}
		}
	})
}
