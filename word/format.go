package word

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ezrec/rv32sim/translate"
)

var f = translate.From

var ErrBaseInvalid = errors.New(f("display base invalid"))

// Base is a display radix for register and memory words.
type Base int

//go:generate go tool stringer -linecomment -type=Base
const (
	BASE_BINARY  = Base(0) // bin
	BASE_OCTAL   = Base(1) // oct
	BASE_DECIMAL = Base(2) // dec
	BASE_HEX     = Base(3) // hex
)

// ParseBase returns the Base named by its short name (bin, oct, dec, hex).
func ParseBase(name string) (base Base, err error) {
	for base = BASE_BINARY; base <= BASE_HEX; base++ {
		if base.String() == name {
			return
		}
	}

	err = fmt.Errorf("%w: %q", ErrBaseInvalid, name)
	return
}

// Bits returns the 32 character MSB-first bit string of value.
func Bits(value uint32) string {
	return fmt.Sprintf("%032b", value)
}

// Format renders value in the requested base.
//   - bin: 0b prefix, 32 digits
//   - oct: 0o prefix, 11 digits
//   - dec: signed two's complement, no prefix
//   - hex: 0x prefix, 8 digits
func Format(value uint32, base Base) string {
	switch base {
	case BASE_BINARY:
		return "0b" + Bits(value)
	case BASE_OCTAL:
		return "0o" + ToOctal(Bits(value))
	case BASE_DECIMAL:
		return strconv.FormatInt(int64(int32(value)), 10)
	default:
		return "0x" + ToHex(Bits(value))
	}
}
