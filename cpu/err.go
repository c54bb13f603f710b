package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrNotRunning      = errors.New(f("cpu not running"))
	ErrAluUnsupported  = errors.New(f("unsupported alu operation"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrChannelInvalid  = errors.New(f("channel invalid"))
	ErrImageTooLarge   = errors.New(f("image exceeds memory"))

	// Loader errors
	ErrParseBinary = errors.New(f("not a binary byte"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrValueRange         = errors.New(f("value out of byte range"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is an instruction byte with no entry in the opcode table.
type ErrOpcode CodeOp

func (eo ErrOpcode) Error() string {
	return f("invalid instruction 0b%08b (%d)", uint8(eo), uint8(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	if err == ErrInstructionInvalid {
		return true
	}
	_, ok = err.(ErrOpcode)
	return
}

// ErrRegister is a register index outside R0-R7.
type ErrRegister uint8

func (er ErrRegister) Error() string {
	return f("register index %d invalid", uint8(er))
}

func (er ErrRegister) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

// ErrInstruction locates an execution error.
type ErrInstruction struct {
	Pc   uint8
	Code Code
	Err  error
}

func (err *ErrInstruction) Error() string {
	return f("%02x: %v: %v", err.Pc, err.Code, err.Err)
}

func (err *ErrInstruction) Unwrap() error {
	return err.Err
}
