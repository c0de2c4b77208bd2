// Package word implements the numeric codec of the RV32I simulator.
//
// Architectural values are 32-bit two's-complement words held in a uint32.
// The integer helpers (SignExtend, ZeroExtend, Field, Add, Sub) are what the
// encoder and the execution engine use. The bit-string helpers
// (ToTwosComplement, BinaryAdd, ToHex, ...) render the same arithmetic as
// strings of '0' and '1' characters, MSB first, for display and teaching.
package word
