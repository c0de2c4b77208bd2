package word

// XLEN is the architectural word width in bits.
const XLEN = 32

// Extension selects how a narrow value is widened to a full word.
type Extension int

//go:generate go tool stringer -linecomment -type=Extension
const (
	EXTEND_SIGN = Extension(0) // sign
	EXTEND_ZERO = Extension(1) // zero
)

// Apply widens the low width bits of value to XLEN bits.
func (ext Extension) Apply(value uint32, width int) uint32 {
	if ext == EXTEND_ZERO {
		return ZeroExtend(value, width)
	}
	return SignExtend(value, width)
}

// mask returns a mask of the low width bits.
func mask(width int) uint32 {
	if width >= XLEN {
		return 0xffffffff
	}
	return (uint32(1) << width) - 1
}

// SignExtend replicates bit (width-1) of value into all higher bits.
func SignExtend(value uint32, width int) uint32 {
	if width <= 0 || width >= XLEN {
		return value
	}
	value &= mask(width)
	if value&(1<<(width-1)) != 0 {
		value |= ^mask(width)
	}
	return value
}

// ZeroExtend clears all bits of value above width.
func ZeroExtend(value uint32, width int) uint32 {
	if width <= 0 {
		return 0
	}
	return value & mask(width)
}

// Field extracts bits hi..lo (inclusive) of value, shifted down to bit 0.
func Field(value uint32, hi, lo int) uint32 {
	return (value >> lo) & mask(hi-lo+1)
}

// Truncate returns the low width bits of a signed value, as hardware
// immediate fields do.
func Truncate(value int64, width int) uint32 {
	return uint32(value) & mask(width)
}

// Fits returns true if value is representable as a width-bit signed integer.
func Fits(value int64, width int) bool {
	lo := -(int64(1) << (width - 1))
	hi := (int64(1) << (width - 1)) - 1
	return value >= lo && value <= hi
}

// Add returns a + b modulo 2^32.
func Add(a, b uint32) uint32 {
	return a + b
}

// Sub returns a - b computed as a + (~b + 1).
func Sub(a, b uint32) uint32 {
	return a + ((^b) + 1)
}
