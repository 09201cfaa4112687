package bits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples64 = []uint64{0, 1, 0xdeadbeefcafebabe, math.MaxUint64, 1 << 63, 0x00ff00ff00ff00ff}

func TestWidth(t *testing.T) {
	assert.Equal(t, 32, Width[uint32]())
	assert.Equal(t, 64, Width[uint64]())
}

func TestFlipRoundTrip(t *testing.T) {
	for _, x := range samples64 {
		for i := 0; i < 64; i++ {
			w := x
			Flip(&w, i)
			require.NotEqual(t, x, w, "flip %d of %#x", i, x)
			Flip(&w, i)
			require.Equal(t, x, w, "double flip %d of %#x", i, x)
		}

		x32 := uint32(x)
		for i := 0; i < 32; i++ {
			w := x32
			Flip(&w, i)
			Flip(&w, i)
			require.Equal(t, x32, w)
		}
	}
}

func TestFlipGetReportsPreviousBit(t *testing.T) {
	for _, x := range samples64 {
		for i := 0; i < 64; i++ {
			want := x&(1<<i) != 0
			flipped := x
			Flip(&flipped, i)

			w := x
			got := FlipGet(&w, i)
			require.Equal(t, want, got, "bit %d of %#x", i, x)
			require.Equal(t, flipped, w)
		}
	}
}

func TestFlipGet32TopBit(t *testing.T) {
	w := uint32(1 << 31)
	assert.True(t, FlipGet(&w, 31))
	assert.Zero(t, w)
	assert.False(t, FlipGet(&w, 31))
	assert.Equal(t, uint32(1<<31), w)
}

func TestSubstringMasks(t *testing.T) {
	for _, x := range samples64 {
		for from := 0; from <= 64; from++ {
			for to := from; to <= 64; to++ {
				got := Substring(x, from, to)
				for i := 0; i < 64; i++ {
					bit := got&(1<<i) != 0
					if i < from || i >= to {
						require.False(t, bit, "bit %d outside [%d,%d) of %#x", i, from, to, x)
						continue
					}
					require.Equal(t, x&(1<<i) != 0, bit, "bit %d inside [%d,%d) of %#x", i, from, to, x)
				}
			}
		}
		assert.Equal(t, x, Substring(x, 0, 64))
		assert.Zero(t, Substring(x, 17, 17))
	}
}

func TestSubstring32Edges(t *testing.T) {
	x := uint32(0xffffffff)
	assert.Equal(t, x, Substring(x, 0, 32))
	assert.Equal(t, uint32(0x80000000), Substring(x, 31, 32))
	assert.Equal(t, uint32(1), Substring(x, 0, 1))
	assert.Zero(t, Substring(x, 0, 0))
	assert.Zero(t, Substring(x, 32, 32))
}

func TestViewWritesThrough(t *testing.T) {
	f := 1.5
	v := Of(&f)
	require.Equal(t, 64, v.Len())
	assert.Equal(t, math.Float64bits(1.5), v.Uint64())

	v.Flip(63)
	assert.Equal(t, -1.5, f)

	i := int32(-1)
	v32 := Of(&i)
	require.Equal(t, 32, v32.Len())
	assert.True(t, v32.FlipGet(31))
	assert.Equal(t, int32(math.MaxInt32), i)

	v32.Xor(0xffffffff00000001)
	assert.Equal(t, int32(math.MaxInt32-1), i)
}

func TestViewSubstringMatchesWord(t *testing.T) {
	f := float32(-3.25)
	v := Of(&f)
	w := math.Float32bits(f)
	for k := 0; k <= 32; k++ {
		assert.Equal(t, uint64(Substring(w, 0, k)), v.Substring(0, k))
	}
}

func TestBits64PreservesPattern(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000abc)
	assert.Equal(t, uint64(0x7ff8000000000abc), Bits64(nan))
	assert.Equal(t, uint64(0x8000000000000000), Bits64(math.Copysign(0, -1)))
	assert.Equal(t, uint64(math.MaxUint64-1), Bits64(int64(-2)))
}
