package cpu

import (
	"github.com/ezrec/rv32sim/word"
)

// CodeFormat is an RV32I instruction encoding format.
type CodeFormat int

//go:generate go tool stringer -linecomment -type=CodeFormat
const (
	FORMAT_R       = CodeFormat(0) // R
	FORMAT_I       = CodeFormat(1) // I
	FORMAT_I_SHIFT = CodeFormat(2) // I-shift
	FORMAT_S       = CodeFormat(3) // S
	FORMAT_B       = CodeFormat(4) // B
	FORMAT_U       = CodeFormat(5) // U
	FORMAT_J       = CodeFormat(6) // J
)

// CodeOperand is the kind of an instruction operand.
type CodeOperand int

//go:generate go tool stringer -linecomment -type=CodeOperand
const (
	OPERAND_REGISTER  = CodeOperand(0) // register
	OPERAND_IMMEDIATE = CodeOperand(1) // immediate
)

var (
	operandsRRR = []CodeOperand{OPERAND_REGISTER, OPERAND_REGISTER, OPERAND_REGISTER}
	operandsRRI = []CodeOperand{OPERAND_REGISTER, OPERAND_REGISTER, OPERAND_IMMEDIATE}
	operandsRR  = []CodeOperand{OPERAND_REGISTER, OPERAND_REGISTER}
	operandsRI  = []CodeOperand{OPERAND_REGISTER, OPERAND_IMMEDIATE}
	operandsR   = []CodeOperand{OPERAND_REGISTER}
	operandsI   = []CodeOperand{OPERAND_IMMEDIATE}
)

// Operands returns the source operand kinds of the format, in source order.
//   - R: rd rs1 rs2
//   - I, I-shift: rd rs1 imm
//   - S: rs2 rs1 imm
//   - B: rs1 rs2 offset
//   - U, J: rd imm
func (format CodeFormat) Operands() []CodeOperand {
	switch format {
	case FORMAT_R:
		return operandsRRR
	case FORMAT_U, FORMAT_J:
		return operandsRI
	default:
		return operandsRRI
	}
}

// ImmediateRange returns the legal values of the format's immediate operand.
// Branch and jump offsets are byte offsets and must be a multiple of align.
func (format CodeFormat) ImmediateRange() (lo, hi, align int64) {
	align = 1
	switch format {
	case FORMAT_I, FORMAT_S:
		lo, hi = -2048, 2047
	case FORMAT_I_SHIFT:
		lo, hi = 0, word.XLEN-1
	case FORMAT_B:
		lo, hi, align = -4096, 4094, 2
	case FORMAT_U:
		lo, hi = -(1 << 19), (1<<20)-1
	case FORMAT_J:
		lo, hi, align = -(1 << 20), (1<<20)-2, 2
	}
	return
}

// CodeOp is a base RV32I operation.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_INVALID = CodeOp(0)  // INVALID
	OP_LUI     = CodeOp(1)  // LUI
	OP_AUIPC   = CodeOp(2)  // AUIPC
	OP_JAL     = CodeOp(3)  // JAL
	OP_JALR    = CodeOp(4)  // JALR
	OP_BEQ     = CodeOp(5)  // BEQ
	OP_BNE     = CodeOp(6)  // BNE
	OP_BLT     = CodeOp(7)  // BLT
	OP_BGE     = CodeOp(8)  // BGE
	OP_BLTU    = CodeOp(9)  // BLTU
	OP_BGEU    = CodeOp(10) // BGEU
	OP_LB      = CodeOp(11) // LB
	OP_LH      = CodeOp(12) // LH
	OP_LW      = CodeOp(13) // LW
	OP_LBU     = CodeOp(14) // LBU
	OP_LHU     = CodeOp(15) // LHU
	OP_SB      = CodeOp(16) // SB
	OP_SH      = CodeOp(17) // SH
	OP_SW      = CodeOp(18) // SW
	OP_ADDI    = CodeOp(19) // ADDI
	OP_SLTI    = CodeOp(20) // SLTI
	OP_SLTIU   = CodeOp(21) // SLTIU
	OP_XORI    = CodeOp(22) // XORI
	OP_ORI     = CodeOp(23) // ORI
	OP_ANDI    = CodeOp(24) // ANDI
	OP_SLLI    = CodeOp(25) // SLLI
	OP_SRLI    = CodeOp(26) // SRLI
	OP_SRAI    = CodeOp(27) // SRAI
	OP_ADD     = CodeOp(28) // ADD
	OP_SUB     = CodeOp(29) // SUB
	OP_SLL     = CodeOp(30) // SLL
	OP_SLT     = CodeOp(31) // SLT
	OP_SLTU    = CodeOp(32) // SLTU
	OP_XOR     = CodeOp(33) // XOR
	OP_SRL     = CodeOp(34) // SRL
	OP_SRA     = CodeOp(35) // SRA
	OP_OR      = CodeOp(36) // OR
	OP_AND     = CodeOp(37) // AND
	OP_COUNT   = CodeOp(38) // COUNT
)

// Major opcodes.
const (
	OPCODE_LUI    = 0b0110111
	OPCODE_AUIPC  = 0b0010111
	OPCODE_JAL    = 0b1101111
	OPCODE_JALR   = 0b1100111
	OPCODE_BRANCH = 0b1100011
	OPCODE_LOAD   = 0b0000011
	OPCODE_STORE  = 0b0100011
	OPCODE_OP_IMM = 0b0010011
	OPCODE_OP     = 0b0110011
)

// Entry is the catalog description of a base instruction.
type Entry struct {
	Op     CodeOp
	Format CodeFormat
	Opcode uint32
	Funct3 uint32 // Unused by U and J formats.
	Funct7 uint32 // Used by R and I-shift formats.
}

// Operands returns the operand kinds of the entry, in source order.
func (entry Entry) Operands() []CodeOperand {
	return entry.Format.Operands()
}

// catalog maps base mnemonics to their encoding.
var catalog = map[string]Entry{
	"LUI":   {OP_LUI, FORMAT_U, OPCODE_LUI, 0, 0},
	"AUIPC": {OP_AUIPC, FORMAT_U, OPCODE_AUIPC, 0, 0},
	"JAL":   {OP_JAL, FORMAT_J, OPCODE_JAL, 0, 0},
	"JALR":  {OP_JALR, FORMAT_I, OPCODE_JALR, 0b000, 0},

	"BEQ":  {OP_BEQ, FORMAT_B, OPCODE_BRANCH, 0b000, 0},
	"BNE":  {OP_BNE, FORMAT_B, OPCODE_BRANCH, 0b001, 0},
	"BLT":  {OP_BLT, FORMAT_B, OPCODE_BRANCH, 0b100, 0},
	"BGE":  {OP_BGE, FORMAT_B, OPCODE_BRANCH, 0b101, 0},
	"BLTU": {OP_BLTU, FORMAT_B, OPCODE_BRANCH, 0b110, 0},
	"BGEU": {OP_BGEU, FORMAT_B, OPCODE_BRANCH, 0b111, 0},

	"LB":  {OP_LB, FORMAT_I, OPCODE_LOAD, 0b000, 0},
	"LH":  {OP_LH, FORMAT_I, OPCODE_LOAD, 0b001, 0},
	"LW":  {OP_LW, FORMAT_I, OPCODE_LOAD, 0b010, 0},
	"LBU": {OP_LBU, FORMAT_I, OPCODE_LOAD, 0b100, 0},
	"LHU": {OP_LHU, FORMAT_I, OPCODE_LOAD, 0b101, 0},

	"SB": {OP_SB, FORMAT_S, OPCODE_STORE, 0b000, 0},
	"SH": {OP_SH, FORMAT_S, OPCODE_STORE, 0b001, 0},
	"SW": {OP_SW, FORMAT_S, OPCODE_STORE, 0b010, 0},

	"ADDI":  {OP_ADDI, FORMAT_I, OPCODE_OP_IMM, 0b000, 0},
	"SLTI":  {OP_SLTI, FORMAT_I, OPCODE_OP_IMM, 0b010, 0},
	"SLTIU": {OP_SLTIU, FORMAT_I, OPCODE_OP_IMM, 0b011, 0},
	"XORI":  {OP_XORI, FORMAT_I, OPCODE_OP_IMM, 0b100, 0},
	"ORI":   {OP_ORI, FORMAT_I, OPCODE_OP_IMM, 0b110, 0},
	"ANDI":  {OP_ANDI, FORMAT_I, OPCODE_OP_IMM, 0b111, 0},
	"SLLI":  {OP_SLLI, FORMAT_I_SHIFT, OPCODE_OP_IMM, 0b001, 0b0000000},
	"SRLI":  {OP_SRLI, FORMAT_I_SHIFT, OPCODE_OP_IMM, 0b101, 0b0000000},
	"SRAI":  {OP_SRAI, FORMAT_I_SHIFT, OPCODE_OP_IMM, 0b101, 0b0100000},

	"ADD":  {OP_ADD, FORMAT_R, OPCODE_OP, 0b000, 0b0000000},
	"SUB":  {OP_SUB, FORMAT_R, OPCODE_OP, 0b000, 0b0100000},
	"SLL":  {OP_SLL, FORMAT_R, OPCODE_OP, 0b001, 0b0000000},
	"SLT":  {OP_SLT, FORMAT_R, OPCODE_OP, 0b010, 0b0000000},
	"SLTU": {OP_SLTU, FORMAT_R, OPCODE_OP, 0b011, 0b0000000},
	"XOR":  {OP_XOR, FORMAT_R, OPCODE_OP, 0b100, 0b0000000},
	"SRL":  {OP_SRL, FORMAT_R, OPCODE_OP, 0b101, 0b0000000},
	"SRA":  {OP_SRA, FORMAT_R, OPCODE_OP, 0b101, 0b0100000},
	"OR":   {OP_OR, FORMAT_R, OPCODE_OP, 0b110, 0b0000000},
	"AND":  {OP_AND, FORMAT_R, OPCODE_OP, 0b111, 0b0000000},
}

// opEntry is the catalog indexed by operation.
var opEntry [OP_COUNT]Entry

func init() {
	for _, entry := range catalog {
		opEntry[entry.Op] = entry
	}
}

// Lookup returns the catalog entry of a base mnemonic.
func Lookup(mnemonic string) (entry Entry, ok bool) {
	entry, ok = catalog[mnemonic]
	return
}

// Pseudo is a mnemonic implemented as a rewrite into a base instruction.
type Pseudo struct {
	Operands []CodeOperand
	Expand   func(args []string) (mnemonic string, base []string)
}

// pseudoMap holds the supported pseudo-instructions.
var pseudoMap = map[string]Pseudo{
	"NOP": {nil, func(a []string) (string, []string) {
		return "ADDI", []string{"x0", "x0", "0"}
	}},
	"MV": {operandsRR, func(a []string) (string, []string) {
		return "ADDI", []string{a[0], a[1], "0"}
	}},
	"NOT": {operandsRR, func(a []string) (string, []string) {
		return "XORI", []string{a[0], a[1], "-1"}
	}},
	"NEG": {operandsRR, func(a []string) (string, []string) {
		return "SUB", []string{a[0], "x0", a[1]}
	}},
	"SEQZ": {operandsRR, func(a []string) (string, []string) {
		return "SLTIU", []string{a[0], a[1], "1"}
	}},
	"SNEZ": {operandsRR, func(a []string) (string, []string) {
		return "SLTU", []string{a[0], "x0", a[1]}
	}},
	"SLTZ": {operandsRR, func(a []string) (string, []string) {
		return "SLT", []string{a[0], a[1], "x0"}
	}},
	"SGTZ": {operandsRR, func(a []string) (string, []string) {
		return "SLT", []string{a[0], "x0", a[1]}
	}},
	"J": {operandsI, func(a []string) (string, []string) {
		return "JAL", []string{"x0", a[0]}
	}},
	"JR": {operandsR, func(a []string) (string, []string) {
		return "JALR", []string{"x0", a[0], "0"}
	}},
	"RET": {nil, func(a []string) (string, []string) {
		return "JALR", []string{"x0", "ra", "0"}
	}},
	"BEQZ": {operandsRI, func(a []string) (string, []string) {
		return "BEQ", []string{a[0], "x0", a[1]}
	}},
	"BNEZ": {operandsRI, func(a []string) (string, []string) {
		return "BNE", []string{a[0], "x0", a[1]}
	}},
	"BLEZ": {operandsRI, func(a []string) (string, []string) {
		return "BGE", []string{"x0", a[0], a[1]}
	}},
	"BGEZ": {operandsRI, func(a []string) (string, []string) {
		return "BGE", []string{a[0], "x0", a[1]}
	}},
	"BLTZ": {operandsRI, func(a []string) (string, []string) {
		return "BLT", []string{a[0], "x0", a[1]}
	}},
	"BGTZ": {operandsRI, func(a []string) (string, []string) {
		return "BLT", []string{"x0", a[0], a[1]}
	}},
	"BGT": {operandsRRI, func(a []string) (string, []string) {
		return "BLT", []string{a[1], a[0], a[2]}
	}},
	"BLE": {operandsRRI, func(a []string) (string, []string) {
		return "BGE", []string{a[1], a[0], a[2]}
	}},
	"BGTU": {operandsRRI, func(a []string) (string, []string) {
		return "BLTU", []string{a[1], a[0], a[2]}
	}},
	"BLEU": {operandsRRI, func(a []string) (string, []string) {
		return "BGEU", []string{a[1], a[0], a[2]}
	}},
}

// LookupPseudo returns the rewrite of a pseudo-instruction mnemonic.
func LookupPseudo(mnemonic string) (pseudo Pseudo, ok bool) {
	pseudo, ok = pseudoMap[mnemonic]
	return
}

// Entry returns the catalog entry of an operation.
func (op CodeOp) Entry() (entry Entry, ok bool) {
	if op <= OP_INVALID || op >= OP_COUNT {
		return
	}
	return opEntry[op], true
}
