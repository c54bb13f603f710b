// Package io provides the output channels for the LS8 emulator.
// The PRN instruction sends register values to a Channel: either a Tape,
// which prints decimal lines to a stream, or a Temporary, which keeps the
// values in memory.
package io

// Channel defines the interface for an LS8 output channel.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single byte value to the channel.
	Send(value uint8) error
}
