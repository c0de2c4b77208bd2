package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezrec/rv32sim/word"
)

// Code is a 32-bit RV32I machine code word.
type Code uint32

// String returns the 32 character MSB-first bit string of the code.
func (code Code) String() string {
	return word.Bits(uint32(code))
}

// Hex returns the code as 8 hexadecimal digits.
func (code Code) Hex() string {
	return word.ToHex(code.String())
}

// Octal returns the code as 11 octal digits.
func (code Code) Octal() string {
	return word.ToOctal(code.String())
}

// Instruction is a validated source line, reduced to its base operation.
type Instruction struct {
	LineNo int      // Source line number, 1 based.
	Words  []string // Tokenized source, mnemonic first.
	Op     CodeOp   // Base operation, after pseudo-instruction expansion.
	Rd     int      // Destination register index.
	Rs1    int      // First source register index.
	Rs2    int      // Second source register index.
	Imm    int32    // Immediate operand, as written or linked.

	LinkLabel string // Jump label the immediate was linked from, if any.
}

// String returns the tokenized source of the instruction.
func (inst Instruction) String() string {
	return strings.Join(inst.Words, " ")
}

// Disassemble returns the base instruction in canonical source form.
func (inst Instruction) Disassemble() string {
	entry, ok := inst.Op.Entry()
	if !ok {
		return inst.Op.String()
	}

	var args []string
	switch entry.Format {
	case FORMAT_R:
		args = []string{RegisterName(inst.Rd), RegisterName(inst.Rs1), RegisterName(inst.Rs2)}
	case FORMAT_I, FORMAT_I_SHIFT:
		args = []string{RegisterName(inst.Rd), RegisterName(inst.Rs1), fmt.Sprint(inst.Imm)}
	case FORMAT_S:
		args = []string{RegisterName(inst.Rs2), RegisterName(inst.Rs1), fmt.Sprint(inst.Imm)}
	case FORMAT_B:
		args = []string{RegisterName(inst.Rs1), RegisterName(inst.Rs2), fmt.Sprint(inst.Imm)}
	case FORMAT_U, FORMAT_J:
		args = []string{RegisterName(inst.Rd), fmt.Sprint(inst.Imm)}
	}

	return inst.Op.String() + " " + strings.Join(args, ", ")
}

// Encode returns the machine code of the instruction.
func (inst Instruction) Encode() (code Code, err error) {
	entry, ok := inst.Op.Entry()
	if !ok {
		err = errors.Join(ErrOpcode(inst.Op), ErrOpcodeInvalid)
		return
	}

	code = Encode(inst, entry)
	return
}

// Encode lays out the fields of inst per the format of entry.
func Encode(inst Instruction, entry Entry) Code {
	rd := uint32(inst.Rd) & 0x1f
	rs1 := uint32(inst.Rs1) & 0x1f
	rs2 := uint32(inst.Rs2) & 0x1f
	imm := uint32(inst.Imm)
	funct3 := entry.Funct3 & 0x7
	funct7 := entry.Funct7 & 0x7f
	op := entry.Opcode & 0x7f

	var code uint32

	switch entry.Format {
	case FORMAT_R:
		code = (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | op
	case FORMAT_I:
		code = (word.Field(imm, 11, 0) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | op
	case FORMAT_I_SHIFT:
		code = (funct7 << 25) | (word.Field(imm, 4, 0) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | op
	case FORMAT_S:
		code = (word.Field(imm, 11, 5) << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
			(word.Field(imm, 4, 0) << 7) | op
	case FORMAT_B:
		code = (word.Field(imm, 12, 12) << 31) | (word.Field(imm, 10, 5) << 25) |
			(rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
			(word.Field(imm, 4, 1) << 8) | (word.Field(imm, 11, 11) << 7) | op
	case FORMAT_U:
		code = (word.Field(imm, 19, 0) << 12) | (rd << 7) | op
	case FORMAT_J:
		code = (word.Field(imm, 20, 20) << 31) | (word.Field(imm, 10, 1) << 21) |
			(word.Field(imm, 11, 11) << 20) | (word.Field(imm, 19, 12) << 12) |
			(rd << 7) | op
	}

	return Code(code)
}

// Decode recovers the base instruction of a machine code word.
func Decode(code Code) (inst Instruction, err error) {
	bits := uint32(code)
	op := word.Field(bits, 6, 0)
	funct3 := word.Field(bits, 14, 12)
	funct7 := word.Field(bits, 31, 25)

	var entry Entry
	var found bool
	for _, candidate := range opEntry {
		if candidate.Op == OP_INVALID || candidate.Opcode != op {
			continue
		}
		switch candidate.Format {
		case FORMAT_U, FORMAT_J:
		case FORMAT_R, FORMAT_I_SHIFT:
			if candidate.Funct3 != funct3 || candidate.Funct7 != funct7 {
				continue
			}
		default:
			if candidate.Funct3 != funct3 {
				continue
			}
		}
		entry = candidate
		found = true
		break
	}

	if !found {
		err = fmt.Errorf("%w: %v", ErrOpcodeInvalid, code.Hex())
		return
	}

	inst.Op = entry.Op
	inst.Rd = int(word.Field(bits, 11, 7))
	inst.Rs1 = int(word.Field(bits, 19, 15))
	inst.Rs2 = int(word.Field(bits, 24, 20))

	var imm uint32
	switch entry.Format {
	case FORMAT_I:
		imm = word.SignExtend(word.Field(bits, 31, 20), 12)
	case FORMAT_I_SHIFT:
		imm = word.Field(bits, 24, 20)
	case FORMAT_S:
		imm = word.SignExtend((word.Field(bits, 31, 25)<<5)|word.Field(bits, 11, 7), 12)
	case FORMAT_B:
		imm = word.SignExtend((word.Field(bits, 31, 31)<<12)|(word.Field(bits, 7, 7)<<11)|
			(word.Field(bits, 30, 25)<<5)|(word.Field(bits, 11, 8)<<1), 13)
	case FORMAT_U:
		imm = word.Field(bits, 31, 12)
	case FORMAT_J:
		imm = word.SignExtend((word.Field(bits, 31, 31)<<20)|(word.Field(bits, 19, 12)<<12)|
			(word.Field(bits, 20, 20)<<11)|(word.Field(bits, 30, 21)<<1), 21)
	}
	inst.Imm = int32(imm)

	// Clear fields the format does not carry.
	switch entry.Format {
	case FORMAT_I, FORMAT_I_SHIFT:
		inst.Rs2 = 0
	case FORMAT_S, FORMAT_B:
		inst.Rd = 0
	case FORMAT_U, FORMAT_J:
		inst.Rs1 = 0
		inst.Rs2 = 0
	}

	inst.Words = strings.Fields(strings.ReplaceAll(inst.Disassemble(), ",", ""))

	return
}
