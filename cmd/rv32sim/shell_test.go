package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rv32sim/cpu"
	"github.com/ezrec/rv32sim/emulator"
)

func newShell(t *testing.T, program ...string) (sh *shell) {
	emu := emulator.NewEmulator(0)
	_, err := emu.Assemble(strings.Join(program, "\n"))
	assert.NoError(t, err)

	sh = &shell{Emulator: emu}
	return
}

func TestShell(t *testing.T) {
	assert := assert.New(t)

	sh := newShell(t,
		"ADDI a0, x0, 7",
		"ADDI a1, a0, 1",
		"ADDI a2, a1, 1",
	)

	out := &bytes.Buffer{}
	err := sh.Run(strings.NewReader("s\n\nb dec\np a0 a1 a7 x99\nq\n"), out)
	assert.NoError(err)
	assert.Equal(emulator.STATE_STEPPING, sh.State())
	assert.Equal(uint32(8), sh.Cpu.Pc())

	text := out.String()
	assert.Contains(text, "00000000: ADDI a0 x0 7")
	assert.Contains(text, "00000004: ADDI a1 a0 1")
	assert.Contains(text, "a0 = 7")
	assert.Contains(text, "a1 = 8")
	assert.Contains(text, "a7 = 0")
	assert.ErrorIs(func() error { _, err := sh.Register("x99"); return err }(), cpu.ErrUnknownRegister)
}

func TestShell_Halt(t *testing.T) {
	assert := assert.New(t)

	sh := newShell(t, "ADDI a0, x0, 1", "ADDI a0, a0, 1")
	sh.Prompt = true

	out := &bytes.Buffer{}
	err := sh.Run(strings.NewReader("r\n"), out)
	assert.NoError(err)
	assert.Equal(emulator.STATE_HALTED, sh.State())
	assert.Contains(out.String(), "00000000 ADDI x10, x0, 1> ")
	assert.Contains(out.String(), "halted")

	value, _ := sh.Cpu.Register.Read("a0")
	assert.Equal(uint32(2), value)
}

func TestShell_Reset(t *testing.T) {
	assert := assert.New(t)

	sh := newShell(t, "ADDI a0, x0, 1")

	out := &bytes.Buffer{}
	err := sh.Run(strings.NewReader("s\n"), out)
	assert.NoError(err)
	assert.Equal(emulator.STATE_HALTED, sh.State())

	sh.ResetRegisters()
	err = sh.Run(strings.NewReader("reset\nbogus\nb\nb radix\n"), out)
	assert.NoError(err)
	assert.Equal(emulator.STATE_READY, sh.State())
	assert.Contains(out.String(), "unknown command \"bogus\"")
	assert.Contains(out.String(), "usage: b")
}

func TestShell_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	sh := newShell(t, "LW a0, x0, 2000")

	err := sh.Run(strings.NewReader("s\n"), &bytes.Buffer{})
	assert.ErrorIs(err, cpu.ErrMemoryRange)
}
