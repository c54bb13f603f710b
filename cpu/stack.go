package cpu

// Push decrements the stack pointer and stores a value at it.
func (cpu *Cpu) Push(value uint8) {
	cpu.Register[REG_SP]--
	cpu.Memory[cpu.Register[REG_SP]] = value
}

// Pop returns the value at the stack pointer and increments it.
func (cpu *Cpu) Pop() (value uint8) {
	value = cpu.Memory[cpu.Register[REG_SP]]
	cpu.Register[REG_SP]++
	return
}

// Peek returns the value at the stack pointer.
func (cpu *Cpu) Peek() uint8 {
	return cpu.Memory[cpu.Register[REG_SP]]
}

// Depth returns the number of bytes pushed below SP_INIT.
func (cpu *Cpu) Depth() int {
	return int(uint8(SP_INIT - cpu.Register[REG_SP]))
}
