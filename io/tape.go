package io

import (
	"errors"
	"fmt"
	"io"
)

// Tape prints each value sent to it as a decimal line on Output.
type Tape struct {
	Output io.Writer

	Count int // Values written since the last rewind.
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape; only the counter is cleared.
func (tc *Tape) Rewind() {
	tc.Count = 0
}

// Send writes the decimal value followed by a newline.
func (tc *Tape) Send(value uint8) (err error) {
	if tc.Output == nil {
		err = ErrChannelOutput
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	if err != nil {
		err = errors.Join(ErrChannelOutput, err)
		return
	}

	tc.Count++

	return
}
