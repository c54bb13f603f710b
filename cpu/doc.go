// Package cpu implements the LS8 microprocessor, its program loader, and
// its assembler.
//
// The CPU consists of 256 bytes of memory shared by code, data and the
// stack, eight 8-bit general-purpose registers (R0-R7, with R7 the stack
// pointer), a program counter, and a flags register written by CMP.
//
// Instructions are a single byte, laid out as AABCDDDD:
//   - AA:   number of operand bytes that follow (0-2)
//   - B:    ALU operation
//   - C:    instruction sets the PC itself
//   - DDDD: instruction identifier
//
// All address arithmetic wraps modulo 256. Register indices outside R0-R7
// fault the machine.
//
// The assembler provides a small assembly language for the LS8 instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu
