package circuit

import "github.com/pkg/errors"

// ErrInvalidWidth is returned for bit widths outside 0..64.
var ErrInvalidWidth = errors.New("invalid bit width")

// Bits is a fixed-length bit vector. Index 0 is the first pin and the
// least-significant bit of any integer view.
type Bits []bool

func NewBits(n int) Bits { return make(Bits, n) }

func (b Bits) Get(i int) bool {
	if i < 0 || i >= len(b) {
		return false
	}
	return b[i]
}

func (b Bits) Set(i int, v bool) {
	if i < 0 || i >= len(b) {
		return
	}
	b[i] = v
}

func (b Bits) Clone() Bits {
	out := make(Bits, len(b))
	copy(out, b)
	return out
}

// Uint packs length bits starting at start into an unsigned integer,
// bit start being the least-significant.
func (b Bits) Uint(start, length int) (uint64, error) {
	if length < 0 || length > 64 {
		return 0, errors.Wrapf(ErrInvalidWidth, "width %d", length)
	}
	var v uint64
	for i := 0; i < length; i++ {
		if b.Get(start + i) {
			v |= 1 << uint(i)
		}
	}
	return v, nil
}

// UintToBits converts v to a fixed-width bit vector, truncating or
// zero-padding to length.
func UintToBits(v uint64, length int) (Bits, error) {
	if length < 0 || length > 64 {
		return nil, errors.Wrapf(ErrInvalidWidth, "width %d", length)
	}
	out := make(Bits, length)
	for i := 0; i < length; i++ {
		out[i] = v&(1<<uint(i)) != 0
	}
	return out, nil
}

// BinaryString renders the vector most-significant bit first, the way it
// appears in trace messages.
func (b Bits) BinaryString() string {
	if len(b) == 0 {
		return ""
	}
	buf := make([]byte, len(b))
	for i, v := range b {
		c := byte('0')
		if v {
			c = '1'
		}
		buf[len(b)-1-i] = c
	}
	return string(buf)
}
