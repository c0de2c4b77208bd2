package cpu

import (
	"fmt"

	"github.com/ezrec/rv32sim/word"
)

// Register file indexes.
const (
	REG_ZERO  = 0  // Hard-wired zero.
	REG_RA    = 1  // Return address.
	REG_SP    = 2  // Stack pointer.
	REG_FP    = 8  // Frame pointer, alias of s0.
	REG_PC    = 32 // Program counter.
	REG_COUNT = 33 // x0-x31 and pc.
)

// abiNames are the calling convention names of x0-x31.
var abiNames = [REG_COUNT - 1]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// registerMap resolves every register name to its index.
var registerMap = map[string]int{
	"fp": REG_FP,
	"pc": REG_PC,
}

func init() {
	for n, name := range abiNames {
		registerMap[name] = n
		registerMap[fmt.Sprintf("x%d", n)] = n
	}
}

// RegisterIndex resolves a register name to its index.
func RegisterIndex(name string) (index int, ok bool) {
	index, ok = registerMap[name]
	return
}

// RegisterName returns the display name of a register index.
func RegisterName(index int) string {
	if index == REG_PC {
		return "pc"
	}
	return fmt.Sprintf("x%d", index)
}

// AbiName returns the calling convention name of a register index.
func AbiName(index int) string {
	if index == REG_PC {
		return "pc"
	}
	return abiNames[index]
}

// RegFile is the RV32I register file, with the program counter at REG_PC.
type RegFile struct {
	Value [REG_COUNT]uint32 // Register values. Value[REG_ZERO] stays 0.

	// OnChange, if set, is called after every register update.
	OnChange func(index int, value uint32)
}

// Get returns the value of a register by index.
func (rf *RegFile) Get(index int) uint32 {
	return rf.Value[index]
}

// Set stores a full word into a register by index. Writes to x0 are dropped.
func (rf *RegFile) Set(index int, value uint32) {
	rf.SetExtend(index, value, word.XLEN, word.EXTEND_SIGN)
}

// SetExtend stores the low width bits of value, widened by ext.
func (rf *RegFile) SetExtend(index int, value uint32, width int, ext word.Extension) {
	if index == REG_ZERO {
		return
	}

	value = ext.Apply(value, width)
	rf.Value[index] = value

	if rf.OnChange != nil {
		rf.OnChange(index, value)
	}
}

// Pc returns the program counter.
func (rf *RegFile) Pc() uint32 {
	return rf.Value[REG_PC]
}

// SetPc sets the program counter.
func (rf *RegFile) SetPc(pc uint32) {
	rf.Set(REG_PC, pc)
}

// Read returns the value of a named register.
func (rf *RegFile) Read(name string) (value uint32, err error) {
	index, ok := RegisterIndex(name)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrUnknownRegister, name)
		return
	}

	value = rf.Value[index]
	return
}

// Write stores the low width bits of value, widened by ext, into a named
// register. A write to x0 succeeds and changes nothing.
func (rf *RegFile) Write(name string, value uint32, width int, ext word.Extension) (err error) {
	index, ok := RegisterIndex(name)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrUnknownRegister, name)
		return
	}

	rf.SetExtend(index, value, width, ext)
	return
}

// Reset zeroes every register, including the program counter.
func (rf *RegFile) Reset() {
	clear(rf.Value[:])

	if rf.OnChange != nil {
		for index := range rf.Value {
			rf.OnChange(index, 0)
		}
	}
}
