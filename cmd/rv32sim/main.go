// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/ezrec/rv32sim/cpu"
	"github.com/ezrec/rv32sim/emulator"
	"github.com/ezrec/rv32sim/translate"
	"github.com/ezrec/rv32sim/word"
)

// load assembles a source file into the emulator.
func load(emu *emulator.Emulator, path string) (err error) {
	var inf io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "source")
		}
		defer file.Close()
		inf = file
	}

	_, err = emu.AssembleFrom(inf)
	if err != nil {
		var diags cpu.Diagnostics
		if errors.As(err, &diags) {
			for _, diag := range diags {
				log.Printf("%v: %v", path, diag)
			}
		}
		return errors.Wrapf(err, "%v", path)
	}

	return
}

// listing writes the machine code of the program.
func listing(out io.Writer, prog *cpu.Program) {
	for pc, code := range prog.Codes() {
		inst, _ := prog.At(pc)
		fmt.Fprintf(out, "%08x: %v %v  %-24v # %d: %v\n",
			pc, code.Hex(), code.String(), inst.Disassemble(), inst.LineNo, inst)
	}
}

// registers writes the register file in the display base.
func registers(out io.Writer, emu *emulator.Emulator) {
	for name, text := range emu.Registers() {
		index, _ := cpu.RegisterIndex(name)
		fmt.Fprintf(out, "%4s %-4s: %v\n", name, cpu.AbiName(index), text)
	}
}

func main() {
	var compile string
	var lang string
	var base string
	var cells int
	var limit int
	var step bool
	var list bool
	var dump bool
	var verbose bool

	flag.StringVar(&compile, "c", "", "RV32I source file to assemble ('-' for stdin)")
	flag.StringVar(&lang, "L", "", "Message language (BCP 47), default from the host locale")
	flag.StringVar(&base, "b", word.BASE_HEX.String(), "Register display base (bin, oct, dec, hex)")
	flag.IntVar(&cells, "m", cpu.MEMORY_CELLS, "Memory size, in cells")
	flag.IntVar(&limit, "l", emulator.STEP_LIMIT, "Maximum instructions to run, 0 for unlimited")
	flag.BoolVar(&step, "s", false, "Step through the program interactively")
	flag.BoolVar(&list, "x", false, "List the machine code of the program")
	flag.BoolVar(&dump, "d", false, "Dump the final machine state")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 {
		log.Fatalf("%v: no source file given, use -c", os.Args[0])
	}

	if len(lang) != 0 {
		translate.SetLocale(lang)
		if verbose {
			log.Printf("language: %v", translate.Language())
		}
	}

	display, err := word.ParseBase(base)
	if err != nil {
		log.Fatalf("-b: %v", err)
	}

	emu := emulator.NewEmulator(cells)
	emu.Verbose = verbose
	emu.StepLimit = limit
	emu.Assembler.SkipEmpty = true
	emu.SetDisplayBase(display)

	err = load(emu, compile)
	if err != nil {
		log.Fatal(err)
	}

	if list {
		listing(os.Stdout, emu.Program)
	}

	if step {
		if compile == "-" {
			log.Fatalf("%v: -s needs a source file, not stdin", os.Args[0])
		}
		sh := &shell{
			Emulator: emu,
			Prompt:   term.IsTerminal(int(os.Stdin.Fd())),
		}
		err = sh.Run(os.Stdin, os.Stdout)
	} else {
		err = emu.Run()
	}

	registers(os.Stdout, emu)

	if dump {
		pp.Println(emu.Cpu)
	}

	if err != nil {
		log.Fatal(errors.Wrap(err, compile))
	}
}
