package io

import (
	"slices"
)

// Temporary captures the values sent to it in memory.
// A zero Capacity is unbounded.
type Temporary struct {
	Capacity int // Capacity in values.

	Data []uint8
}

var _ Channel = (*Temporary)(nil)

// Rewind discards all captured values.
func (temp *Temporary) Rewind() {
	temp.Data = temp.Data[:0]
}

// Send appends a value, or returns ErrChannelFull when at capacity.
func (temp *Temporary) Send(value uint8) (err error) {
	if temp.Capacity > 0 && len(temp.Data) >= temp.Capacity {
		err = ErrChannelFull
		return
	}

	temp.Data = append(temp.Data, value)

	return
}

// Values returns a copy of the captured values.
func (temp *Temporary) Values() []uint8 {
	return slices.Clone(temp.Data)
}
