package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rv32sim/word"
)

var _cpu_defines = map[string]string{
	"REG_COUNT":         fmt.Sprintf("%v", REG_COUNT),
	"INSTRUCTION_BYTES": fmt.Sprintf("%v", INSTRUCTION_BYTES),
}

// Cpu is the architectural state of an RV32I hart.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register RegFile // Register file, including the pc.
	Memory   *Memory // Word addressed memory.
}

// NewCpu creates a new CPU with a specifically sized memory.
func NewCpu(cells int) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(cells),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint32 {
	return cpu.Register.Pc()
}

// Reset zeroes every register. Memory is unchanged.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Register.Reset()
}

// String returns the current register state as a string.
func (cpu *Cpu) String() (text string) {
	for index := range REG_COUNT {
		val := cpu.Register.Get(index)
		text += fmt.Sprintf("%4s %-4s: %04X_%04X\n", RegisterName(index), AbiName(index), val>>16, val&0xffff)
	}

	return
}

// address computes the memory cell of a load or store.
func (cpu *Cpu) address(inst Instruction) (index int, err error) {
	addr := word.Add(cpu.Register.Get(inst.Rs1), uint32(inst.Imm))
	if !cpu.Memory.Contains(addr) {
		err = fmt.Errorf("%w: %v", ErrMemoryRange, int32(addr))
		return
	}

	index = int(addr)
	return
}

// Execute applies a single instruction to the processor state, and advances
// the program counter. On error, the program counter is not advanced.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(inst.Op), err)
		}
	}()

	regs := &cpu.Register
	pc := regs.Pc()

	if cpu.Verbose {
		log.Printf("%08x: %v", pc, inst)
	}

	next_pc := pc + INSTRUCTION_BYTES

	rs1 := regs.Get(inst.Rs1)
	rs2 := regs.Get(inst.Rs2)
	imm := uint32(inst.Imm)

	// set_rd defers the destination write until the pc is known good.
	var set_rd func()
	write := func(value uint32, width int, ext word.Extension) {
		set_rd = func() { regs.SetExtend(inst.Rd, value, width, ext) }
	}

	branch := func(taken bool) {
		if taken {
			next_pc = pc + imm
		}
	}

	switch inst.Op {
	case OP_LUI:
		write(imm<<12, word.XLEN, word.EXTEND_SIGN)
	case OP_AUIPC:
		write(word.Add(pc, imm<<12), word.XLEN, word.EXTEND_SIGN)
	case OP_JAL:
		write(pc+INSTRUCTION_BYTES, word.XLEN, word.EXTEND_ZERO)
		next_pc = pc + imm
	case OP_JALR:
		write(pc+INSTRUCTION_BYTES, word.XLEN, word.EXTEND_ZERO)
		next_pc = word.Add(rs1, imm) &^ 1
	case OP_BEQ:
		branch(rs1 == rs2)
	case OP_BNE:
		branch(rs1 != rs2)
	case OP_BLT:
		branch(int32(rs1) < int32(rs2))
	case OP_BGE:
		branch(int32(rs1) >= int32(rs2))
	case OP_BLTU:
		branch(rs1 < rs2)
	case OP_BGEU:
		branch(rs1 >= rs2)
	case OP_LB, OP_LH, OP_LW, OP_LBU, OP_LHU:
		var index int
		index, err = cpu.address(inst)
		if err != nil {
			return
		}
		cell := cpu.Memory.Read(index)
		switch inst.Op {
		case OP_LB:
			write(cell, 8, word.EXTEND_SIGN)
		case OP_LH:
			write(cell, 16, word.EXTEND_SIGN)
		case OP_LW:
			write(cell, word.XLEN, word.EXTEND_SIGN)
		case OP_LBU:
			write(cell, 8, word.EXTEND_ZERO)
		case OP_LHU:
			write(cell, 16, word.EXTEND_ZERO)
		}
	case OP_SB, OP_SH, OP_SW:
		var index int
		index, err = cpu.address(inst)
		if err != nil {
			return
		}
		width := word.XLEN
		switch inst.Op {
		case OP_SB:
			width = 8
		case OP_SH:
			width = 16
		}
		keep := ^word.ZeroExtend(0xffffffff, width)
		cell := cpu.Memory.Read(index)
		cpu.Memory.Write(index, (cell&keep)|word.ZeroExtend(rs2, width))
	case OP_ADDI:
		write(word.Add(rs1, imm), word.XLEN, word.EXTEND_SIGN)
	case OP_SLTI:
		write(flag(int32(rs1) < inst.Imm), 1, word.EXTEND_ZERO)
	case OP_SLTIU:
		write(flag(rs1 < imm), 1, word.EXTEND_ZERO)
	case OP_XORI:
		write(rs1^imm, word.XLEN, word.EXTEND_ZERO)
	case OP_ORI:
		write(rs1|imm, word.XLEN, word.EXTEND_ZERO)
	case OP_ANDI:
		write(rs1&imm, word.XLEN, word.EXTEND_ZERO)
	case OP_SLLI:
		write(rs1<<(imm&0x1f), word.XLEN, word.EXTEND_ZERO)
	case OP_SRLI:
		write(rs1>>(imm&0x1f), word.XLEN, word.EXTEND_ZERO)
	case OP_SRAI:
		write(uint32(int32(rs1)>>(imm&0x1f)), word.XLEN, word.EXTEND_SIGN)
	case OP_ADD:
		write(word.Add(rs1, rs2), word.XLEN, word.EXTEND_SIGN)
	case OP_SUB:
		write(word.Sub(rs1, rs2), word.XLEN, word.EXTEND_SIGN)
	case OP_SLL:
		write(rs1<<(rs2&0x1f), word.XLEN, word.EXTEND_ZERO)
	case OP_SLT:
		write(flag(int32(rs1) < int32(rs2)), 1, word.EXTEND_ZERO)
	case OP_SLTU:
		write(flag(rs1 < rs2), 1, word.EXTEND_ZERO)
	case OP_XOR:
		write(rs1^rs2, word.XLEN, word.EXTEND_ZERO)
	case OP_SRL:
		write(rs1>>(rs2&0x1f), word.XLEN, word.EXTEND_ZERO)
	case OP_SRA:
		write(uint32(int32(rs1)>>(rs2&0x1f)), word.XLEN, word.EXTEND_SIGN)
	case OP_OR:
		write(rs1|rs2, word.XLEN, word.EXTEND_ZERO)
	case OP_AND:
		write(rs1&rs2, word.XLEN, word.EXTEND_ZERO)
	default:
		err = ErrOpcodeInvalid
		return
	}

	if next_pc%INSTRUCTION_BYTES != 0 {
		err = fmt.Errorf("%w: %08x", ErrPcMisaligned, next_pc)
		return
	}

	if set_rd != nil {
		set_rd()
	}
	regs.SetPc(next_pc)

	return
}

// flag converts a comparison result to 0 or 1.
func flag(cond bool) uint32 {
	if cond {
		return 1
	}
	return 0
}
