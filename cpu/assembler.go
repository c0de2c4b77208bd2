// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rv32sim/word"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"XLEN":   fmt.Sprintf("%v", word.XLEN),
}

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the .macro line.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Assembler validates RV32I source, one instruction per line.
//
// Every line is checked, even after a failure, so the returned diagnostics
// describe the whole program.
type Assembler struct {
	Verbose   bool // If set, verbosely logs the assembler actions.
	SkipEmpty bool // If set, blank and comment-only lines are ignored.

	Instruction []Instruction     // List of validated instructions.
	Equate      map[string]string // Map of equates.
	Label       map[string]uint32 // Map of jump labels to program counters.
	Macro       map[string]*Macro // Map of macros.

	predefine map[string]string // Predefines
	defining  *Macro            // Macro whose body is being collected.
	expanding map[string]bool   // Macros being expanded.
	expansion int               // Expansion count, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of an immediate word. Literals are decimal
// unless they carry a 0x, 0b or 0o prefix.
func (asm *Assembler) valueOf(text string) (value int64, err error) {
	base := 10
	digits := strings.TrimLeft(text, "+-")
	if len(digits) > 1 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			base = 0
		}
	}

	if strings.ContainsRune(text, '_') {
		err = ErrInvalidImmediate
		return
	}

	value, err = strconv.ParseInt(text, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			err = ErrImmediateOutOfRange
		} else {
			err = ErrInvalidImmediate
		}
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reAddress = regexp.MustCompile(`^([^()]*)\(([^()]+)\)$`)
	reChar    = regexp.MustCompile(`'\\?[^']'`)
	reLabel   = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// charValue converts a 'c' character literal to its decimal value.
func charValue(literal string) string {
	str := literal[1 : len(literal)-1]
	if str[0] == '\\' {
		switch str[1:] {
		case "\\":
			str = "\\"
		case "0":
			str = "\000"
		case "n":
			str = "\n"
		case "r":
			str = "\r"
		case "t":
			str = "\t"
		case "e":
			str = "\033"
		default:
			return literal
		}
	} else if len(str) != 1 {
		return literal
	}
	return fmt.Sprintf("%v", str[0])
}

// expandParens replaces each $(...) in line with its evaluated value.
// Parentheses inside the expression must balance.
func (asm *Assembler) expandParens(line string) (out string, err error) {
	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			out += line
			return
		}

		depth := 0
		end := -1
		for n := start + 1; n < len(line) && end < 0; n++ {
			switch line[n] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = n
				}
			}
		}
		if end < 0 {
			err = ErrParseExpression(line[start+2:])
			return
		}

		var value int64
		value, err = asm.parenEval(line[start+2 : end])
		if err != nil {
			return
		}

		out += line[:start] + fmt.Sprintf("%v", value)
		line = line[end+1:]
	}
}

// tokenize strips the comment from a line and splits it into words.
// Character literals and compile-time expressions are evaluated, and
// imm(reg) operands are split into a register word and an immediate word.
func (asm *Assembler) tokenize(line string) (words []string, err error) {
	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, charValue)

	line, _, _ = strings.Cut(line, "#")

	// Do $() evaluations
	line, err = asm.expandParens(line)
	if err != nil {
		return
	}

	for _, single := range strings.Fields(strings.ReplaceAll(line, ",", " ")) {
		match := reAddress.FindStringSubmatch(single)
		if match == nil {
			words = append(words, single)
			continue
		}
		offset := match[1]
		if len(offset) == 0 {
			offset = "0"
		}
		words = append(words, match[2], offset)
	}

	return
}

// equate handles a '.equ NAME VALUE' line.
func (asm *Assembler) equate(words []string) (err error) {
	if len(words) != 3 {
		err = ErrEquateSyntax
		return
	}

	name := words[1]
	_, is_reg := RegisterIndex(name)
	_, is_base := Lookup(name)
	_, is_pseudo := LookupPseudo(name)
	if is_reg || is_base || is_pseudo {
		err = &ErrOperand{Word: name, Err: ErrEquateSyntax}
		return
	}

	_, ok := asm.Equate[name]
	if ok {
		err = &ErrOperand{Word: name, Err: ErrEquateDuplicate}
		return
	}

	asm.Equate[name] = words[2]
	return
}

// currentPc is the program counter of the next instruction.
func (asm *Assembler) currentPc() uint32 {
	return uint32(len(asm.Instruction) * INSTRUCTION_BYTES)
}

// label defines a jump label at the current program counter.
func (asm *Assembler) label(name string) (err error) {
	_, is_reg := RegisterIndex(name)
	if is_reg || !reLabel.MatchString(name) {
		err = &ErrOperand{Word: name, Err: ErrLabelSyntax}
		return
	}

	_, ok := asm.Label[name]
	if ok {
		err = &ErrOperand{Word: name, Err: ErrLabelDuplicate}
		return
	}

	asm.Label[name] = asm.currentPc()
	return
}

// define handles .macro and .endm lines, and collects macro bodies.
// ok is set if the line was consumed.
func (asm *Assembler) define(line string, lineno int) (ok bool, err error) {
	text, _, _ := strings.Cut(line, "#")
	words := strings.Fields(strings.ReplaceAll(text, ",", " "))

	directive := ""
	if len(words) > 0 {
		directive = words[0]
	}

	switch directive {
	case ".macro":
		ok = true
		if asm.defining != nil {
			err = ErrMacroNesting
			return
		}
		if len(words) < 2 {
			err = ErrMacroSyntax
			return
		}

		// An invalid definition still swallows its body.
		macro := &Macro{LineNo: lineno, Args: words[2:]}
		asm.defining = macro

		name := words[1]
		_, is_base := Lookup(name)
		_, is_pseudo := LookupPseudo(name)
		if is_base || is_pseudo || !reLabel.MatchString(name) {
			err = &ErrOperand{Word: name, Err: ErrMacroSyntax}
			return
		}
		_, dup := asm.Macro[name]
		if dup {
			err = &ErrOperand{Word: name, Err: ErrMacroDuplicate}
			return
		}
		asm.Macro[name] = macro
	case ".endm":
		ok = true
		if asm.defining == nil {
			err = ErrMacroLonelyEndm
			return
		}
		asm.defining = nil
	default:
		if asm.defining != nil {
			ok = true
			asm.defining.Lines = append(asm.defining.Lines, line)
		}
	}

	return
}

// expand checks the body of a macro with its arguments bound as equates.
// Instructions take the line number of the invocation.
func (asm *Assembler) expand(name string, args []string, lineno int) (errs []error) {
	macro := asm.Macro[name]
	if len(args) != len(macro.Args) {
		errs = append(errs, &ErrOperand{Word: name, Err: ErrMacroSyntax})
		return
	}

	if asm.expanding[name] {
		errs = append(errs, &ErrOperand{Word: name, Err: ErrMacroRecursion})
		return
	}
	asm.expanding[name] = true
	asm.expansion++
	local := fmt.Sprintf("%v_%v_", name, asm.expansion)

	// Turn args into equates
	old_equate := maps.Clone(asm.Equate)
	for n, arg := range macro.Args {
		value := args[n]
		equate, ok := asm.Equate[value]
		if ok {
			value = equate
		}
		asm.Equate[arg] = value
	}
	defer func() {
		asm.Equate = old_equate
		delete(asm.expanding, name)
	}()

	for n, line := range macro.Lines {
		text, _, _ := strings.Cut(line, "#")
		if len(strings.TrimSpace(text)) == 0 {
			continue
		}

		line = strings.ReplaceAll(line, "@", local)
		for _, err := range asm.parseLine(line, lineno) {
			errs = append(errs, &ErrMacro{Macro: name, LineNo: macro.LineNo + 1 + n, Err: err})
		}
	}

	return
}

// immediate validates an immediate operand against the format's range.
func (asm *Assembler) immediate(text string, format CodeFormat) (imm int32, err error) {
	value, err := asm.valueOf(text)
	if err != nil {
		err = &ErrOperand{Word: text, Err: err}
		return
	}

	return inRange(value, text, format)
}

// inRange checks a value against the immediate range of a format.
func inRange(value int64, text string, format CodeFormat) (imm int32, err error) {
	// B and J offsets are in bytes, so their ranges are 13 and 21 bits.
	lo, hi, align := format.ImmediateRange()
	if value < lo || value > hi {
		err = &ErrOperand{Word: text, Err: ErrImmediateOutOfRange}
		return
	}

	if value%align != 0 {
		err = &ErrOperand{Word: text, Err: ErrImmediateMisaligned}
		return
	}

	imm = int32(value)
	return
}

// parseWords validates the words of a line, and returns the instruction.
// Every operand is checked, so a line may produce several errors.
func (asm *Assembler) parseWords(words []string, lineno int) (inst Instruction, errs []error) {
	mnemonic := words[0]
	args := append([]string(nil), words[1:]...)

	// Substitute equates
	for n, arg := range args {
		equate, ok := asm.Equate[arg]
		if ok {
			args[n] = equate
		}
	}

	pseudo, is_pseudo := LookupPseudo(mnemonic)
	if is_pseudo {
		if len(args) != len(pseudo.Operands) {
			errs = append(errs, ErrOperandCountMismatch)
			return
		}
		mnemonic, args = pseudo.Expand(args)
	}

	entry, ok := Lookup(mnemonic)
	if !ok {
		errs = append(errs, &ErrOperand{Word: mnemonic, Err: ErrUnrecognizedInstruction})
		return
	}

	kinds := entry.Operands()
	if len(args) != len(kinds) {
		errs = append(errs, ErrOperandCountMismatch)
		return
	}

	var regs []int
	var imm int32
	var link string
	for n, kind := range kinds {
		switch kind {
		case OPERAND_REGISTER:
			index, err := asm.register(args[n])
			if err != nil {
				errs = append(errs, err)
			}
			regs = append(regs, index)
		case OPERAND_IMMEDIATE:
			value, err := asm.immediate(args[n], entry.Format)
			if err != nil && (entry.Format == FORMAT_B || entry.Format == FORMAT_J) && reLabel.MatchString(args[n]) {
				// Jump label, resolved by the link pass.
				link = args[n]
				err = nil
			}
			if err != nil {
				errs = append(errs, err)
			}
			imm = value
		}
	}

	if len(errs) != 0 {
		return
	}

	inst = Instruction{
		LineNo:    lineno,
		Words:     words,
		Op:        entry.Op,
		Imm:       imm,
		LinkLabel: link,
	}

	switch entry.Format {
	case FORMAT_R:
		inst.Rd, inst.Rs1, inst.Rs2 = regs[0], regs[1], regs[2]
	case FORMAT_I, FORMAT_I_SHIFT:
		inst.Rd, inst.Rs1 = regs[0], regs[1]
	case FORMAT_S:
		inst.Rs2, inst.Rs1 = regs[0], regs[1]
	case FORMAT_B:
		inst.Rs1, inst.Rs2 = regs[0], regs[1]
	case FORMAT_U, FORMAT_J:
		inst.Rd = regs[0]
	}

	return
}

// register validates a register operand.
func (asm *Assembler) register(name string) (index int, err error) {
	index, ok := RegisterIndex(name)
	if !ok {
		err = &ErrOperand{Word: name, Err: ErrInvalidRegister}
		return
	}

	if index == REG_PC {
		err = &ErrOperand{Word: name, Err: ErrProgramCounterNotAddressable}
		return
	}

	return
}

// parseLine checks a single line, appending valid instructions to the
// assembler's list.
func (asm *Assembler) parseLine(line string, lineno int) (errs []error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	words, err := asm.tokenize(line)
	if err != nil {
		errs = append(errs, err)
		return
	}

	labeled := false
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		labeled = true
		err = asm.label(strings.TrimSuffix(words[0], ":"))
		if err != nil {
			errs = append(errs, err)
		}
		words = words[1:]
	}

	if len(words) == 0 {
		if !labeled && !asm.SkipEmpty {
			errs = append(errs, ErrEmptyInstruction)
		}
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		err = asm.equate(words)
		if err != nil {
			errs = append(errs, err)
		}
		return
	}

	// .macro processing
	_, is_macro := asm.Macro[words[0]]
	if is_macro {
		errs = append(errs, asm.expand(words[0], words[1:], lineno)...)
		return
	}

	_, is_base := Lookup(words[0])
	_, is_pseudo := LookupPseudo(words[0])
	if !is_base && !is_pseudo {
		errs = append(errs, &ErrOperand{Word: words[0], Err: ErrUnrecognizedInstruction})
		return
	}

	inst, lerrs := asm.parseWords(words, lineno)
	if len(lerrs) != 0 {
		errs = append(errs, lerrs...)
		return
	}

	asm.Instruction = append(asm.Instruction, inst)
	return
}

// link resolves the jump label of an instruction at pc to a byte offset.
func (asm *Assembler) link(inst *Instruction, pc uint32) (err error) {
	target, ok := asm.Label[inst.LinkLabel]
	if !ok {
		err = ErrLabelMissing(inst.LinkLabel)
		return
	}

	entry, _ := inst.Op.Entry()
	inst.Imm, err = inRange(int64(target)-int64(pc), inst.LinkLabel, entry.Format)
	return
}

// ParseLines validates a program given as a list of source lines.
//
// On success, the program holds one instruction per instruction line, in
// source order, with jump labels resolved. Otherwise err is a Diagnostics
// listing every problem found, and prog is nil.
func (asm *Assembler) ParseLines(lines []string) (prog *Program, err error) {
	var diags Diagnostics

	diagnose := func(lineno int, lerr error) {
		diags = append(diags, &ErrSyntax{LineNo: lineno, Line: strings.TrimSpace(lines[lineno-1]), Err: lerr})
	}

	asm.Instruction = asm.Instruction[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.Label = map[string]uint32{}
	asm.Macro = map[string]*Macro{}
	asm.expanding = map[string]bool{}
	asm.defining = nil
	asm.expansion = 0

	for n, text := range lines {
		lineno := n + 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		ok, lerr := asm.define(text, lineno)
		if ok {
			if lerr != nil {
				diagnose(lineno, lerr)
			}
			continue
		}

		for _, lerr := range asm.parseLine(text, lineno) {
			diagnose(lineno, lerr)
		}
	}

	if asm.defining != nil {
		diagnose(asm.defining.LineNo, ErrMacroLonely)
		asm.defining = nil
	}

	// Final linking of jump labels.
	for n := range asm.Instruction {
		inst := &asm.Instruction[n]
		if len(inst.LinkLabel) == 0 {
			continue
		}

		lerr := asm.link(inst, uint32(n*INSTRUCTION_BYTES))
		if lerr != nil {
			diagnose(inst.LineNo, lerr)
		}
	}

	if len(diags) != 0 {
		slices.SortStableFunc(diags, func(a, b *ErrSyntax) int {
			return a.LineNo - b.LineNo
		})
		if asm.Verbose {
			log.Printf("%v", diags)
		}
		err = diags
		return
	}

	prog = &Program{
		Instructions: append([]Instruction(nil), asm.Instruction...),
	}

	return
}

// Parse validates a program read from an input stream.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var lines []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	return asm.ParseLines(lines)
}
