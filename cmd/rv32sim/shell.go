package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ezrec/rv32sim/emulator"
	"github.com/ezrec/rv32sim/word"
)

var errQuit = errors.New("quit")

// shell drives an emulator one command per input line.
//
//	(empty), s   step one instruction
//	r            run to completion
//	reset        zero the registers
//	p NAME       print a register
//	b BASE       set the display base
//	q            quit
type shell struct {
	*emulator.Emulator
	Prompt bool // If set, a prompt is written before each command.
}

// Run reads commands until the program halts, input ends, or 'q'.
func (sh *shell) Run(in io.Reader, out io.Writer) (err error) {
	scanner := bufio.NewScanner(in)
	for {
		if sh.State() == emulator.STATE_HALTED {
			fmt.Fprintln(out, "halted")
			return
		}

		if sh.Prompt {
			text := ""
			if inst, ok := sh.Program.At(sh.Cpu.Pc()); ok {
				text = inst.Disassemble()
			}
			fmt.Fprintf(out, "%08x %v> ", sh.Cpu.Pc(), text)
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		err = sh.command(strings.Fields(scanner.Text()), out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

func (sh *shell) command(args []string, out io.Writer) (err error) {
	if len(args) == 0 {
		args = []string{"s"}
	}

	switch args[0] {
	case "s":
		if inst, ok := sh.Program.At(sh.Cpu.Pc()); ok {
			fmt.Fprintf(out, "%08x: %v\n", sh.Cpu.Pc(), inst)
		}
		_, err = sh.Step()
	case "r":
		err = sh.Emulator.Run()
	case "reset":
		sh.ResetRegisters()
	case "p":
		for _, name := range args[1:] {
			var text string
			text, err = sh.Register(name)
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				err = nil
				continue
			}
			fmt.Fprintf(out, "%v = %v\n", name, text)
		}
	case "b":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: b bin|oct|dec|hex")
			return
		}
		var base word.Base
		base, err = word.ParseBase(args[1])
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return nil
		}
		sh.SetDisplayBase(base)
	case "q":
		err = errQuit
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
	}

	return
}
