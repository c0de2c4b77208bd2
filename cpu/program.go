package cpu

import (
	"iter"
)

// INSTRUCTION_BYTES is the size of every RV32I instruction.
const INSTRUCTION_BYTES = 4

// Program is an ordered list of validated instructions. The instruction
// at list index n lives at pc n*INSTRUCTION_BYTES.
type Program struct {
	Instructions []Instruction
}

// Len returns the number of instructions.
func (prog *Program) Len() int {
	if prog == nil {
		return 0
	}
	return len(prog.Instructions)
}

// At returns the instruction at a program counter value.
func (prog *Program) At(pc uint32) (inst *Instruction, ok bool) {
	if pc%INSTRUCTION_BYTES != 0 {
		return
	}

	index := uint64(pc / INSTRUCTION_BYTES)
	if index >= uint64(prog.Len()) {
		return
	}

	return &prog.Instructions[index], true
}

// Binary returns the machine code image of the program.
func (prog *Program) Binary() (codes []Code, err error) {
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}

	if len(codes) != prog.Len() {
		_, err = prog.Instructions[len(codes)].Encode()
	}

	return
}

// Codes iterates over the program counter and machine code of each
// instruction, stopping at the first that cannot be encoded.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(pc uint32, code Code) bool) {
		for n := range prog.Len() {
			code, err := prog.Instructions[n].Encode()
			if err != nil {
				return
			}
			if !yield(uint32(n*INSTRUCTION_BYTES), code) {
				return
			}
		}
	}
}
