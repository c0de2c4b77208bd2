package cpu

import (
	"errors"
	"strings"

	"github.com/ezrec/rv32sim/translate"
)

var f = translate.From

var (
	// Assembler diagnostics
	ErrEmptyInstruction             = errors.New(f("empty instruction"))
	ErrUnrecognizedInstruction      = errors.New(f("unrecognized instruction"))
	ErrOperandCountMismatch         = errors.New(f("operand count mismatch"))
	ErrInvalidRegister              = errors.New(f("invalid register"))
	ErrProgramCounterNotAddressable = errors.New(f("program counter not addressable"))
	ErrInvalidImmediate             = errors.New(f("invalid immediate"))
	ErrImmediateOutOfRange          = errors.New(f("immediate out of range"))
	ErrImmediateMisaligned          = errors.New(f("immediate misaligned"))
	ErrEquateSyntax                 = errors.New(f(".equ syntax"))
	ErrEquateDuplicate              = errors.New(f(".equ duplicated"))
	ErrLabelSyntax                  = errors.New(f("label syntax"))
	ErrLabelDuplicate               = errors.New(f("label duplicated"))
	ErrMacroSyntax                  = errors.New(f(".macro syntax"))
	ErrMacroNesting                 = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate               = errors.New(f(".macro duplicated"))
	ErrMacroLonely                  = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm              = errors.New(f(".endm without .macro"))
	ErrMacroRecursion               = errors.New(f(".macro expands itself"))

	// Processor errors
	ErrUnknownRegister = errors.New(f("unknown register"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrMemoryRange     = errors.New(f("memory index out of range"))
	ErrPcMisaligned    = errors.New(f("pc misaligned"))
)

// ErrOpcode identifies the instruction that failed to execute.
type ErrOpcode CodeOp

func (eo ErrOpcode) Error() string {
	return f("bad opcode %v", CodeOp(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrOperand ties a diagnostic to the operand word that caused it.
type ErrOperand struct {
	Word string
	Err  error
}

func (err *ErrOperand) Error() string {
	return f("'%v' %v", err.Word, err.Err)
}

func (err *ErrOperand) Unwrap() error {
	return err.Err
}

// ErrSyntax is a line tagged assembler diagnostic.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrLabelMissing names a jump label that is never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label '%v' missing", string(el))
}

// ErrMacro locates a diagnostic inside a macro body.
type ErrMacro struct {
	Macro  string
	LineNo int
	Err    error
}

func (err *ErrMacro) Error() string {
	return f("macro %v line %d %v", err.Macro, err.LineNo, err.Err)
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// Diagnostics is every syntax error found in a program, in source order.
type Diagnostics []*ErrSyntax

func (diags Diagnostics) Error() string {
	lines := make([]string, len(diags))
	for n, diag := range diags {
		lines[n] = diag.Error()
	}
	return strings.Join(lines, "\n")
}

func (diags Diagnostics) Unwrap() []error {
	errs := make([]error, len(diags))
	for n, diag := range diags {
		errs[n] = diag
	}
	return errs
}

// LineNos returns the line number of each diagnostic.
func (diags Diagnostics) LineNos() (linenos []int) {
	for _, diag := range diags {
		linenos = append(linenos, diag.LineNo)
	}
	return
}
