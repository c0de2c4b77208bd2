package word

import (
	"strconv"
	"strings"
)

// checkBits enforces the non-empty bit string precondition.
func checkBits(bits string) {
	if len(bits) == 0 {
		panic("word: empty bit string")
	}
}

// invert flips every bit of a bit string.
func invert(bits string) string {
	out := []byte(bits)
	for n, c := range out {
		if c == '0' {
			out[n] = '1'
		} else {
			out[n] = '0'
		}
	}
	return string(out)
}

// fit left pads with '0', or keeps the low width characters.
func fit(bits string, width int) string {
	if len(bits) >= width {
		return bits[len(bits)-width:]
	}
	return strings.Repeat("0", width-len(bits)) + bits
}

// ToTwosComplement returns the width-bit two's complement form of value.
// Values outside the signed width-bit range are truncated to their low bits.
func ToTwosComplement(value int64, width int) string {
	if value >= 0 {
		return fit(strconv.FormatUint(uint64(value), 2), width)
	}

	magnitude := fit(strconv.FormatUint(uint64(-value), 2), width)
	one := fit("1", width)

	return BinaryAdd(invert(magnitude), one, ZeroExtendBits)
}

// FromTwosComplement decodes a two's complement bit string.
func FromTwosComplement(bits string) int64 {
	checkBits(bits)

	if bits[0] == '0' {
		value, _ := strconv.ParseUint(bits, 2, 64)
		return int64(value)
	}

	value, _ := strconv.ParseUint(invert(bits), 2, 64)
	return -int64(value + 1)
}

// SignExtendBits left pads bits with copies of its MSB until it is width long.
func SignExtendBits(bits string, width int) string {
	checkBits(bits)
	if len(bits) >= width {
		return bits
	}
	return strings.Repeat(bits[:1], width-len(bits)) + bits
}

// ZeroExtendBits left pads bits with '0' until it is width long.
func ZeroExtendBits(bits string, width int) string {
	checkBits(bits)
	if len(bits) >= width {
		return bits
	}
	return strings.Repeat("0", width-len(bits)) + bits
}

// BinaryAdd adds two bit strings with a ripple carry from the LSB.
// Both operands are first widened to the longer length with extend.
// The carry out of the MSB is discarded.
func BinaryAdd(a, b string, extend func(bits string, width int) string) string {
	checkBits(a)
	checkBits(b)

	width := max(len(a), len(b))
	a = extend(a, width)
	b = extend(b, width)

	sum := make([]byte, width)
	carry := 0
	for n := width - 1; n >= 0; n-- {
		total := int(a[n]-'0') + int(b[n]-'0') + carry
		sum[n] = byte('0' + total&1)
		carry = total >> 1
	}

	return string(sum)
}

// BinarySubtract computes a - b as a + (~b + 1).
func BinarySubtract(a, b string, extend func(bits string, width int) string) string {
	checkBits(a)
	checkBits(b)

	width := max(len(a), len(b))
	b = extend(b, width)
	negated := BinaryAdd(invert(b), fit("1", width), ZeroExtendBits)

	return BinaryAdd(extend(a, width), negated, ZeroExtendBits)
}

const digits = "0123456789abcdef"

// group maps chunk-bit groups of bits, MSB first, to digits.
func group(bits string, chunk int) string {
	checkBits(bits)

	if pad := len(bits) % chunk; pad != 0 {
		bits = strings.Repeat("0", chunk-pad) + bits
	}

	var out strings.Builder
	for n := 0; n < len(bits); n += chunk {
		value := 0
		for _, c := range bits[n : n+chunk] {
			value = (value << 1) | int(c-'0')
		}
		out.WriteByte(digits[value])
	}

	return out.String()
}

// ToHex converts a bit string to hexadecimal digits, four bits per digit.
func ToHex(bits string) string {
	return group(bits, 4)
}

// ToOctal converts a bit string to octal digits, three bits per digit.
func ToOctal(bits string) string {
	return group(bits, 3)
}
