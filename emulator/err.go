package emulator

import (
	"errors"

	"github.com/ezrec/rv32sim/translate"
)

var f = translate.From

var (
	ErrProgramNotAssembled = errors.New(f("program not assembled"))
	ErrProgramHalted       = errors.New(f("program halted"))
	ErrStepLimit           = errors.New(f("step limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Pc     uint32
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d pc %08x %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
