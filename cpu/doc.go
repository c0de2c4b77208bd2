// Package cpu implements the RV32I processor model and assembler.
//
// The processor consists of a register file of 33 words (x0-x31 and the
// program counter) and a word-addressed memory. x0 always reads as zero.
//
// The assembler validates one instruction per source line against a static
// instruction catalog, expands pseudo-instructions into their base RV32I
// form, and reports every diagnostic of a program in a single pass. Validated
// instructions encode to their exact 32-bit machine code and execute against
// the processor state one at a time.
package cpu
