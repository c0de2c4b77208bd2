package word

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToTwosComplement(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		value    int64
		width    int
		expected string
	}){
		{5, 12, "000000000101"},
		{0, 4, "0000"},
		{-1, 4, "1111"},
		{-2048, 12, "100000000000"},
		{2047, 12, "011111111111"},
		{-5, 8, "11111011"},
		{4097, 12, "000000000001"},  // truncated
		{-5000, 12, "110001111000"}, // truncated
		{math.MinInt32, 32, "10000000000000000000000000000000"},
		{math.MaxInt32, 32, "01111111111111111111111111111111"},
	}

	for _, entry := range table {
		assert.Equal(entry.expected, ToTwosComplement(entry.value, entry.width), "%v/%v", entry.value, entry.width)
	}
}

func TestFromTwosComplement(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int64(5), FromTwosComplement("0101"))
	assert.Equal(int64(-1), FromTwosComplement("1111"))
	assert.Equal(int64(-8), FromTwosComplement("1000"))
	assert.Equal(int64(-2048), FromTwosComplement("100000000000"))
	assert.Equal(int64(0), FromTwosComplement("0"))
	assert.Equal(int64(-1), FromTwosComplement("1"))
}

func TestTwosComplementRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, value := range []int64{0, 1, -1, 42, -42, 2047, -2048, math.MaxInt32, math.MinInt32, 123456789, -987654321} {
		assert.Equal(value, FromTwosComplement(ToTwosComplement(value, XLEN)))
	}
}

func TestExtendBits(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("11111010", SignExtendBits("1010", 8))
	assert.Equal("00000110", SignExtendBits("0110", 8))
	assert.Equal("00001010", ZeroExtendBits("1010", 8))
	assert.Equal("1010", ZeroExtendBits("1010", 2))

	assert.Panics(func() { SignExtendBits("", 8) })
	assert.Panics(func() { FromTwosComplement("") })
}

func TestBinaryAdd(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0101", BinaryAdd("0010", "0011", ZeroExtendBits))
	assert.Equal("0000", BinaryAdd("1111", "0001", ZeroExtendBits))
	assert.Equal("1110", BinaryAdd("1111", "1", SignExtendBits))
	assert.Equal("0000", BinaryAdd("1111", "01", SignExtendBits))

	// Wraparound law over 32-bit words.
	pairs := [][2]int64{
		{1, 2}, {-1, 1}, {math.MaxInt32, 1}, {math.MinInt32, -1}, {-123456, 654321},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		sum := BinaryAdd(ToTwosComplement(a, XLEN), ToTwosComplement(b, XLEN), SignExtendBits)
		assert.Equal(int64(int32(uint32(a)+uint32(b))), FromTwosComplement(sum), "%v+%v", a, b)
	}
}

func TestBinarySubtract(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0010", BinarySubtract("0101", "0011", ZeroExtendBits))
	assert.Equal("1111", BinarySubtract("0000", "0001", ZeroExtendBits))
	assert.Equal(int64(2), FromTwosComplement(BinarySubtract(ToTwosComplement(5, XLEN), ToTwosComplement(3, XLEN), SignExtendBits)))
	assert.Equal(int64(math.MaxInt32), FromTwosComplement(BinarySubtract(ToTwosComplement(math.MinInt32, XLEN), ToTwosComplement(1, XLEN), SignExtendBits)))
}

func TestToHexOctal(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("00500093", ToHex("00000000010100000000000010010011"))
	assert.Equal("f", ToHex("1111"))
	assert.Equal("1f", ToHex("11111"))
	assert.Equal("7", ToOctal("111"))
	assert.Equal("17", ToOctal("1111"))
	assert.Equal("37777777777", ToOctal(Bits(0xffffffff)))
}

func FuzzTwosComplement(f *testing.F) {
	f.Add(int32(0))
	f.Add(int32(-1))
	f.Add(int32(math.MinInt32))
	f.Add(int32(math.MaxInt32))

	f.Fuzz(func(t *testing.T, value int32) {
		assert := assert.New(t)

		bits := ToTwosComplement(int64(value), XLEN)
		assert.Equal(XLEN, len(bits))
		assert.Equal(Bits(uint32(value)), bits)
		assert.Equal(int64(value), FromTwosComplement(bits))
	})
}
