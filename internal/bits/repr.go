package bits

import "unsafe"

// Number lists the numeric kinds that can be viewed as a bit-string.
type Number interface {
	~float32 | ~int32 | ~uint32 | ~float64 | ~int64 | ~uint64
}

// Compile-time guards: every 32-bit kind must share its size with uint32 and
// every 64-bit kind with uint64.
var (
	_ [unsafe.Sizeof(float32(0)) - unsafe.Sizeof(uint32(0))]struct{}
	_ [unsafe.Sizeof(uint32(0)) - unsafe.Sizeof(float32(0))]struct{}
	_ [unsafe.Sizeof(int32(0)) - unsafe.Sizeof(uint32(0))]struct{}
	_ [unsafe.Sizeof(uint32(0)) - unsafe.Sizeof(int32(0))]struct{}
	_ [unsafe.Sizeof(float64(0)) - unsafe.Sizeof(uint64(0))]struct{}
	_ [unsafe.Sizeof(uint64(0)) - unsafe.Sizeof(float64(0))]struct{}
	_ [unsafe.Sizeof(int64(0)) - unsafe.Sizeof(uint64(0))]struct{}
	_ [unsafe.Sizeof(uint64(0)) - unsafe.Sizeof(int64(0))]struct{}
)

// View is a write-through bit-string view over a numeric value's own memory.
// Exactly one of the two pointers is set.
type View struct {
	w32 *uint32
	w64 *uint64
}

// Of returns a view over *p. Writes through the view change *p bit for bit,
// with no value normalisation.
func Of[T Number](p *T) View {
	if unsafe.Sizeof(*p) == 4 {
		return View{w32: (*uint32)(unsafe.Pointer(p))}
	}
	return View{w64: (*uint64)(unsafe.Pointer(p))}
}

func (v View) Len() int {
	if v.w32 != nil {
		return 32
	}
	return 64
}

// Uint64 returns the viewed bits, zero-extended for 32-bit values.
func (v View) Uint64() uint64 {
	if v.w32 != nil {
		return uint64(*v.w32)
	}
	return *v.w64
}

func (v View) Flip(i int) {
	if v.w32 != nil {
		Flip(v.w32, i)
		return
	}
	Flip(v.w64, i)
}

func (v View) FlipGet(i int) bool {
	if v.w32 != nil {
		return FlipGet(v.w32, i)
	}
	return FlipGet(v.w64, i)
}

// Substring returns the bits in [from, to) zero-extended to 64 bits.
func (v View) Substring(from, to int) uint64 {
	if v.w32 != nil {
		return uint64(Substring(*v.w32, from, to))
	}
	return Substring(*v.w64, from, to)
}

// Xor folds mask into the viewed value. For 32-bit values the upper half of
// mask is ignored.
func (v View) Xor(mask uint64) {
	if v.w32 != nil {
		*v.w32 ^= uint32(mask)
		return
	}
	*v.w64 ^= mask
}

// Bits64 returns the bit pattern of a 64-bit value.
func Bits64[T ~float64 | ~int64 | ~uint64](v T) uint64 {
	return *(*uint64)(unsafe.Pointer(&v))
}
