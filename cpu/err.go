package cpu

import (
	"errors"

	"github.com/asmkit/asmvm/translate"
)

var f = translate.From

var (
	// Execution errors
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrDivideByZero   = errors.New(f("division by zero"))
	ErrSyscallUnknown = errors.New(f("syscall unknown"))
	ErrOperandCount   = errors.New(f("operand count"))
	ErrOperandKind    = errors.New(f("operand kind"))
	ErrTargetInvalid  = errors.New(f("target invalid"))

	// Assembler errors
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrDirectiveData    = errors.New(f("directive outside .DATA"))
	ErrDirectiveEmpty   = errors.New(f("directive value missing"))
	ErrOrgBackwards     = errors.New(f(".org behind emission address"))
	ErrStringSyntax     = errors.New(f("string literal syntax"))
	ErrByteRange        = errors.New(f(".byte value out of range"))
	ErrOperandExtra     = errors.New(f("excessive operands"))
)

// ErrOutOfBounds is a memory access outside [0, capacity).
type ErrOutOfBounds int32

func (err ErrOutOfBounds) Error() string {
	return f("address %#x out of bounds", int32(err))
}

func (err ErrOutOfBounds) Is(target error) (ok bool) {
	_, ok = target.(ErrOutOfBounds)
	return
}

// ErrSyntax locates an assembly failure on its 1-based source line.
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

// ErrLabelMissing is a reference to a label that was never defined.
type ErrLabelMissing string

func (err ErrLabelMissing) Error() string {
	return f("label %v missing", string(err))
}

func (err ErrLabelMissing) Is(target error) (ok bool) {
	_, ok = target.(ErrLabelMissing)
	return
}

// ErrParseNumber is a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrParseNumber) Is(target error) (ok bool) {
	_, ok = target.(ErrParseNumber)
	return
}

// ErrParseOperand is an operand token that fits no operand form.
type ErrParseOperand string

func (err ErrParseOperand) Error() string {
	return f("'%v' is not a value, register, or label", string(err))
}

func (err ErrParseOperand) Is(target error) (ok bool) {
	_, ok = target.(ErrParseOperand)
	return
}

// ErrParseExpression is a malformed $( ... ) compile-time expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrRegisterInvalid is a reference to a register the machine does not have.
type ErrRegisterInvalid string

func (err ErrRegisterInvalid) Error() string {
	return f("register %v invalid", string(err))
}

// ErrOpcodeUnknown is a mnemonic outside the instruction set.
type ErrOpcodeUnknown string

func (err ErrOpcodeUnknown) Error() string {
	return f("opcode %v unknown", string(err))
}

func (err ErrOpcodeUnknown) Is(target error) (ok bool) {
	_, ok = target.(ErrOpcodeUnknown)
	return
}

// ErrDirectiveUnknown is a dot-directive the assembler does not recognize.
type ErrDirectiveUnknown string

func (err ErrDirectiveUnknown) Error() string {
	return f("directive %v unknown", string(err))
}

// ErrInstruction identifies the instruction a Step failure occurred in.
type ErrInstruction Instruction

func (err ErrInstruction) Error() string {
	return f("instruction '%v'", Instruction(err))
}

func (err ErrInstruction) Is(target error) (ok bool) {
	_, ok = target.(ErrInstruction)
	return
}
