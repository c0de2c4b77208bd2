package emulator

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rv32sim/cpu"
	"github.com/ezrec/rv32sim/word"
)

func doAssemble(t *testing.T, program ...string) (emu *Emulator) {
	assert := assert.New(t)

	emu = NewEmulator(0)
	_, err := emu.Assemble(strings.Join(program, "\n"))
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.Equal(STATE_READY, emu.State())

	return
}

func reg(emu *Emulator, name string) int32 {
	value, _ := emu.Cpu.Register.Read(name)
	return int32(value)
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(0)

	assert.False(emu.Verbose)
	assert.Equal(cpu.MEMORY_CELLS, emu.Cpu.Memory.Len())
	assert.Equal(STATE_IDLE, emu.State())
	assert.Equal(word.BASE_HEX, emu.Base)
	assert.Equal(STEP_LIMIT, emu.StepLimit)

	emu = NewEmulator(16)
	assert.Equal(16, emu.Cpu.Memory.Len())
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(64)
	defines := maps.Collect(emu.Defines())

	assert.Equal("64", defines["MEMORY_CELLS"])
	assert.Equal("33", defines["REG_COUNT"])
	assert.Equal("4", defines["INSTRUCTION_BYTES"])
	assert.Contains(defines, "STEP_LIMIT")

	_, err := emu.Assemble("ADDI x1, x0, MEMORY_CELLS")
	assert.NoError(err)
	assert.NoError(emu.Run())
	assert.Equal(int32(64), reg(emu, "x1"))
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t,
		"ADDI x1, x0, 5",
		"ADDI x2, x0, 3",
		"SUB x3, x1, x2",
	)

	err := emu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(int32(5), reg(emu, "x1"))
	assert.Equal(int32(3), reg(emu, "x2"))
	assert.Equal(int32(2), reg(emu, "x3"))
	assert.Equal(uint32(12), emu.Cpu.Pc())

	// Instruction memory view.
	assert.Equal(uint32(0x00500093), emu.Cpu.Memory.Read(0))
	assert.Equal(uint32(0x00300113), emu.Cpu.Memory.Read(1))
	assert.Equal(uint32(0x402081b3), emu.Cpu.Memory.Read(2))
	assert.Equal(uint32(0), emu.Cpu.Memory.Read(3))
}

func TestEmulator_Scenarios(t *testing.T) {
	table := [](struct {
		program []string
		expect  map[string]int32
	}){
		{
			program: []string{"ADDI x1, x0, -2048", "SLTI x2, x1, -2047"},
			expect:  map[string]int32{"x1": -2048, "x2": 1},
		},
		{
			program: []string{"SEQZ x1, x0"},
			expect:  map[string]int32{"x1": 1},
		},
		{
			program: []string{"ADDI x2, x0, 10", "SEQZ x3, x2"},
			expect:  map[string]int32{"x2": 10, "x3": 0},
		},
		{
			program: []string{"ADDI x1, x0, 42", "MV x0, x1"},
			expect:  map[string]int32{"x0": 0, "x1": 42, "zero": 0},
		},
		{
			program: []string{
				".equ COUNT 4",
				"ADDI t0, x0, COUNT",
				"ADDI a0, x0, 0",
				"ADD a0, a0, t0",
				"ADDI t0, t0, -1",
				"BNEZ t0, -8",
			},
			expect: map[string]int32{"a0": 10, "t0": 0},
		},
		{
			program: []string{
				"ADDI sp, x0, 16",
				"ADDI t0, x0, -3",
				"SW t0, 0(sp)",
				"LBU a0, 0(sp)",
				"LH a1, 0(sp)",
			},
			expect: map[string]int32{"a0": 0xfd, "a1": -3},
		},
		{
			program: []string{
				"JAL ra, 8",
				"ADDI a0, x0, 1",
				"ADDI a1, x0, 2",
			},
			expect: map[string]int32{"ra": 4, "a0": 0, "a1": 2},
		},
	}

	for _, entry := range table {
		emu := doAssemble(t, entry.program...)
		here := strings.Join(entry.program, "; ")

		err := emu.Run()
		assert.NoError(t, err, here)
		for name, value := range entry.expect {
			assert.Equal(t, value, reg(emu, name), "%v: %v", here, name)
		}
	}
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t,
		".equ FIVE 5",
		"ADDI x1, x0, FIVE",
		"ADDI x2, x0, 3",
		"SUB x3, x1, x2",
	)
	assert.Equal(2, emu.LineNo())

	halted, err := emu.Step()
	assert.NoError(err)
	assert.False(halted)
	assert.Equal(STATE_STEPPING, emu.State())
	assert.Equal(int32(5), reg(emu, "x1"))
	assert.Equal(3, emu.LineNo())

	halted, err = emu.Step()
	assert.NoError(err)
	assert.False(halted)
	assert.Equal(4, emu.LineNo())

	halted, err = emu.Step()
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(int32(2), reg(emu, "x3"))
	assert.Equal(0, emu.LineNo())

	halted, err = emu.Step()
	assert.ErrorIs(err, ErrProgramHalted)
	assert.True(halted)
}

func TestEmulator_Idle(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(0)

	_, err := emu.Step()
	assert.ErrorIs(err, ErrProgramNotAssembled)

	err = emu.Run()
	assert.ErrorIs(err, ErrProgramNotAssembled)

	emu.ResetRegisters()
	assert.Equal(STATE_IDLE, emu.State())
}

func TestEmulator_AssembleFailure(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(0)

	count, err := emu.Assemble("ADDI x1, x0, 9999")
	assert.Error(err)
	assert.Equal(0, count)
	assert.ErrorIs(err, cpu.ErrImmediateOutOfRange)
	assert.Equal(STATE_IDLE, emu.State())

	var diags cpu.Diagnostics
	if assert.True(errors.As(err, &diags)) {
		assert.Equal([]int{1}, diags.LineNos())
		assert.Contains(diags.Error(), "line 1")
	}

	// A failed assembly leaves the prior program untouched.
	_, err = emu.Assemble("ADDI x1, x0, 7")
	assert.NoError(err)
	assert.NoError(emu.Run())
	assert.Equal(int32(7), reg(emu, "x1"))
	memory := emu.Cpu.Memory.Read(0)

	_, err = emu.Assemble("ADDI x1, x0, 9999\nFROB x1")
	assert.Error(err)
	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(int32(7), reg(emu, "x1"))
	assert.Equal(memory, emu.Cpu.Memory.Read(0))
	assert.Equal(1, emu.Program.Len())
}

func TestEmulator_AssembleFrom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(0)
	emu.Assembler.SkipEmpty = true

	count, err := emu.AssembleFrom(strings.NewReader("# count\n\nADDI a0, x0, 1\nNOP\n"))
	assert.NoError(err)
	assert.Equal(2, count)
	assert.NoError(emu.Run())
	assert.Equal(int32(1), reg(emu, "a0"))
}

func TestEmulator_RuntimeError(t *testing.T) {
	table := [](struct {
		program []string
		lineno  int
		pc      uint32
		err     error
	}){
		{
			program: []string{"ADDI x1, x0, 1", "LW x2, x0, 1000"},
			lineno:  2,
			pc:      4,
			err:     cpu.ErrMemoryRange,
		},
		{
			program: []string{"JALR x0, x0, 2", "NOP"},
			lineno:  1,
			pc:      0,
			err:     cpu.ErrPcMisaligned,
		},
	}

	for _, entry := range table {
		emu := doAssemble(t, entry.program...)
		here := strings.Join(entry.program, "; ")

		err := emu.Run()
		assert.ErrorIs(t, err, entry.err, here)
		assert.Equal(t, STATE_HALTED, emu.State(), here)

		var rerr *ErrRuntime
		if assert.True(t, errors.As(err, &rerr), here) {
			assert.Equal(t, entry.lineno, rerr.LineNo, here)
			assert.Equal(t, entry.pc, rerr.Pc, here)
		}
		assert.Equal(t, entry.pc, emu.Cpu.Pc(), here)
	}
}

func TestEmulator_StepLimit(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t,
		"ADDI t0, t0, 1",
		"J -4",
	)
	emu.StepLimit = 10

	err := emu.Run()
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(STATE_STEPPING, emu.State())
	assert.Equal(int32(5), reg(emu, "t0"))

	// Resumable.
	err = emu.Run()
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(int32(10), reg(emu, "t0"))
}

func TestEmulator_ResetRegisters(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t,
		"ADDI x1, x0, 5",
		"ADDI x31, x0, -1",
	)
	assert.NoError(emu.Run())
	assert.Equal(STATE_HALTED, emu.State())

	changed := 0
	emu.Cpu.Register.OnChange = func(index int, value uint32) {
		changed++
		assert.Equal(uint32(0), value)
	}

	emu.ResetRegisters()
	assert.Equal(cpu.REG_COUNT, changed)
	once := emu.Cpu.Register.Value

	emu.ResetRegisters()
	assert.Equal(once, emu.Cpu.Register.Value)
	for name, text := range emu.Registers() {
		assert.Equal("0x00000000", text, name)
	}
	assert.Equal(STATE_READY, emu.State())

	// Memory is preserved, and the program runs again.
	assert.Equal(uint32(0x00500093), emu.Cpu.Memory.Read(0))
	emu.Cpu.Register.OnChange = nil
	assert.NoError(emu.Run())
	assert.Equal(int32(-1), reg(emu, "x31"))
}

func TestEmulator_Register(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, "ADDI a0, x0, -2")
	assert.NoError(emu.Run())

	table := [](struct {
		base   word.Base
		expect string
	}){
		{word.BASE_BINARY, "0b11111111111111111111111111111110"},
		{word.BASE_OCTAL, "0o37777777776"},
		{word.BASE_DECIMAL, "-2"},
		{word.BASE_HEX, "0xfffffffe"},
	}

	for _, entry := range table {
		emu.SetDisplayBase(entry.base)
		text, err := emu.Register("a0")
		assert.NoError(err)
		assert.Equal(entry.expect, text, entry.base)

		text, err = emu.Register("x10")
		assert.NoError(err)
		assert.Equal(entry.expect, text, entry.base)
	}

	_, err := emu.Register("x32")
	assert.ErrorIs(err, cpu.ErrUnknownRegister)

	emu.SetDisplayBase(word.BASE_DECIMAL)
	names := []string{}
	for name, text := range emu.Registers() {
		names = append(names, name)
		switch name {
		case "x10":
			assert.Equal("-2", text)
		case "pc":
			assert.Equal("4", text)
		}
	}
	assert.Equal(cpu.REG_COUNT, len(names))
	assert.Equal("x0", names[0])
	assert.Equal("pc", names[cpu.REG_COUNT-1])
}

func TestEmulator_AssembleCount(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		count  int
	}){
		{"ADDI a0, x0, 1", 1},
		{"ADDI a0, x0, 1\n", 1},
		{"ADDI a0, x0, 1\r\n", 1},
		{".equ ONE 1\nADDI a0, x0, ONE\nADDI a1, a0, ONE\n", 2},
		{".macro TWICE r\nADDI r, r, 1\nADDI r, r, 1\n.endm\nTWICE a0\n", 2},
	}

	for _, entry := range table {
		emu := NewEmulator(0)
		count, err := emu.Assemble(entry.source)
		assert.NoError(err, entry.source)
		assert.Equal(entry.count, count, entry.source)

		emu = NewEmulator(0)
		count, err = emu.AssembleFrom(strings.NewReader(entry.source))
		assert.NoError(err, entry.source)
		assert.Equal(entry.count, count, entry.source)
	}

	emu := NewEmulator(0)
	_, err := emu.Assemble("ADDI a0, x0, 1\n\n")
	assert.ErrorIs(err, cpu.ErrEmptyInstruction)
}

func TestEmulator_Labels(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t,
		".macro PUSH reg",
		"    ADDI sp, sp, -1",
		"    SW reg, 0(sp)",
		".endm",
		"        ADDI sp, x0, 64",
		"        ADDI t0, x0, 5",
		"        ADDI a0, x0, 1",
		"loop:   BEQZ t0, done",
		"        PUSH t0",
		"        ADD a0, a0, a0",
		"        ADDI t0, t0, -1",
		"        J loop",
		"done:   LW a1, 0(sp)",
	)

	assert.NoError(emu.Run())
	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(int32(32), reg(emu, "a0"))
	assert.Equal(int32(1), reg(emu, "a1"))
	assert.Equal(int32(59), reg(emu, "sp"))
	for n := range 5 {
		assert.Equal(uint32(n+1), emu.Cpu.Memory.Read(59+n))
	}
}
