package managed

import "math"

// PointerWidth is the guest's address width in bits.
type PointerWidth uint8

const (
	Width32 PointerWidth = 32
	Width64 PointerWidth = 64
)

func (w PointerWidth) valid() bool {
	return w == Width32 || w == Width64
}

func (w PointerWidth) mask() uint64 {
	if w == Width64 {
		return math.MaxUint64
	}
	return math.MaxUint32
}

// wrap truncates v to the guest width.
func (w PointerWidth) wrap(v uint64) uint64 {
	return v & w.mask()
}

// fits reports whether v is representable in the guest width.
func (w PointerWidth) fits(v uint64) bool {
	return v&^w.mask() == 0
}
