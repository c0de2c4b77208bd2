// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/rv32sim/cpu"
	"github.com/ezrec/rv32sim/internal"
	"github.com/ezrec/rv32sim/word"
)

const (
	STEP_LIMIT = 1 << 20 // Default Run() instruction limit.
)

var _emulator_defines = map[string]string{
	"STEP_LIMIT": fmt.Sprintf("%v", STEP_LIMIT),
}

// State is the execution state of the emulator.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE     = State(0) // idle
	STATE_READY    = State(1) // ready
	STATE_STEPPING = State(2) // stepping
	STATE_HALTED   = State(3) // halted
)

// Emulator state. CPU + memory + the assembled program.
type Emulator struct {
	Verbose   bool          // If set, enables verbose logging.
	*cpu.Cpu                // Reference to the CPU simulation.
	Program   *cpu.Program  // Reference to the currently loaded program.
	Assembler cpu.Assembler // Assembler used by Assemble().
	Base      word.Base     // Display base for Registers() and Register().
	StepLimit int           // Maximum instructions per Run(). Zero is unlimited.

	state   State
	defines map[string]string
}

// NewEmulator creates a new emulator with the given number of memory
// cells. A cell count of zero selects MEMORY_CELLS.
func NewEmulator(cells int) (emu *Emulator) {
	if cells <= 0 {
		cells = cpu.MEMORY_CELLS
	}

	emu = &Emulator{
		Cpu:       cpu.NewCpu(cells),
		Base:      word.BASE_HEX,
		StepLimit: STEP_LIMIT,
		defines: map[string]string{
			"MEMORY_CELLS": fmt.Sprintf("%v", cells),
		},
	}

	for key, value := range emu.Defines() {
		emu.Assembler.Predefine(key, value)
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		maps.All(emu.defines),
		emu.Cpu.Defines(),
	)
}

// State returns the current execution state.
func (emu *Emulator) State() State {
	return emu.state
}

// load installs a validated program, clearing memory and the pc.
func (emu *Emulator) load(prog *cpu.Program) {
	emu.Program = prog
	emu.Cpu.Memory.Clear()
	emu.Cpu.Register.SetPc(0)
	emu.state = STATE_READY

	if emu.Verbose {
		log.Printf("emulator: loaded %v instructions", prog.Len())
	}
}

// Assemble validates source text and loads it. On failure the error is a
// cpu.Diagnostics, and the prior program and state are unchanged.
func (emu *Emulator) Assemble(source string) (count int, err error) {
	return emu.AssembleFrom(strings.NewReader(source))
}

// AssembleFrom validates and loads source text read from input.
func (emu *Emulator) AssembleFrom(input io.Reader) (count int, err error) {
	emu.Assembler.Verbose = emu.Verbose

	prog, err := emu.Assembler.Parse(input)
	if err != nil {
		return
	}

	emu.load(prog)
	count = prog.Len()
	return
}

// LineNo returns the source line number at the current pc, or 0.
func (emu *Emulator) LineNo() int {
	inst, ok := emu.Program.At(emu.Cpu.Pc())
	if !ok {
		return 0
	}

	return inst.LineNo
}

// Step executes the instruction at the current pc. halted is set when no
// instruction remains at the new pc.
func (emu *Emulator) Step() (halted bool, err error) {
	switch emu.state {
	case STATE_IDLE:
		err = ErrProgramNotAssembled
		return
	case STATE_HALTED:
		halted = true
		err = ErrProgramHalted
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc()
	inst, ok := emu.Program.At(pc)
	if !ok {
		emu.state = STATE_HALTED
		halted = true
		return
	}

	defer func() {
		if err != nil {
			emu.state = STATE_HALTED
			halted = true
			err = &ErrRuntime{LineNo: inst.LineNo, Pc: pc, Err: err}
		}
	}()

	// Instruction memory view.
	code, err := inst.Encode()
	if err != nil {
		return
	}
	index := int(pc / cpu.INSTRUCTION_BYTES)
	if index < emu.Cpu.Memory.Len() {
		emu.Cpu.Memory.Write(index, uint32(code))
	}

	err = emu.Cpu.Execute(*inst)
	if err != nil {
		return
	}

	emu.state = STATE_STEPPING
	if _, ok := emu.Program.At(emu.Cpu.Pc()); !ok {
		emu.state = STATE_HALTED
		halted = true

		if emu.Verbose {
			log.Printf("emulator: halted at pc %08x", emu.Cpu.Pc())
		}
	}

	return
}

// Run executes instructions until the program halts, an instruction fails,
// or StepLimit instructions have run. After ErrStepLimit the program can be
// resumed.
func (emu *Emulator) Run() (err error) {
	if emu.state == STATE_IDLE {
		err = ErrProgramNotAssembled
		return
	}

	for steps := 0; emu.StepLimit <= 0 || steps < emu.StepLimit; steps++ {
		var halted bool
		halted, err = emu.Step()
		if halted || err != nil {
			return
		}
	}

	err = fmt.Errorf("%w: %v", ErrStepLimit, emu.StepLimit)
	return
}

// ResetRegisters zeroes every register, including the pc. A loaded program
// is ready to run again from its first instruction.
func (emu *Emulator) ResetRegisters() {
	emu.Cpu.Reset()

	if emu.state != STATE_IDLE {
		emu.state = STATE_READY
	}
}

// SetDisplayBase selects the base used to format register values.
func (emu *Emulator) SetDisplayBase(base word.Base) {
	emu.Base = base
}

// Register returns the formatted value of a named register.
func (emu *Emulator) Register(name string) (text string, err error) {
	value, err := emu.Cpu.Register.Read(name)
	if err != nil {
		return
	}

	text = word.Format(value, emu.Base)
	return
}

// Registers iterates over the name and formatted value of x0-x31 and pc.
func (emu *Emulator) Registers() iter.Seq2[string, string] {
	return func(yield func(name, text string) bool) {
		for index := range cpu.REG_COUNT {
			value := emu.Cpu.Register.Get(index)
			if !yield(cpu.RegisterName(index), word.Format(value, emu.Base)) {
				return
			}
		}
	}
}
