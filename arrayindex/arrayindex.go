// Package arrayindex recognizes strings that spell a small non-negative
// integer and owns the two encodings derived from them: the index value
// cached inside a string hash field, and the tagged index sentinel handed
// back instead of an interned string.
package arrayindex

const (
	// MaxIndex is the largest index that fits the runtime small-integer range.
	MaxIndex = 1<<30 - 1

	// MaxLength is the longest decimal spelling of MaxIndex.
	MaxLength = 10

	// MaxCachedLength is the longest spelling whose value is cached in the
	// hash field instead of a content hash.
	MaxCachedLength = 7
)

// Hash field layout shared with the string heap.
//
//	regular string:  [ hash:30 | 0 | 1 ]
//	cached index:    [ length:6 | value:24 | 0 | 0 ]
//
// A zero field means the hash has not been computed yet.
const (
	NotIndexBit uint32 = 1
	HashShift          = 2

	valueBits   = 24
	valueMask   = 1<<valueBits - 1
	lengthShift = HashShift + valueBits
)

// Parse returns the index spelled by b. Only plain decimal digits are
// accepted: no sign, no leading zero other than "0" itself.
func Parse(b []byte) (uint32, bool) {
	n := len(b)
	if n == 0 || n > MaxLength {
		return 0, false
	}

	if b[0] == '0' {
		return 0, n == 1
	}

	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}

	if v > MaxIndex {
		return 0, false
	}

	return uint32(v), true
}

// ParseString is Parse for strings.
func ParseString(s string) (uint32, bool) {
	n := len(s)
	if n == 0 || n > MaxLength {
		return 0, false
	}

	var buf [MaxLength]byte
	copy(buf[:], s)
	return Parse(buf[:n])
}

// Cacheable reports whether an index spelled with length digits can live
// in a hash field.
func Cacheable(length int) bool {
	return length > 0 && length <= MaxCachedLength
}

// EncodeHashField packs a cached index into a hash field.
func EncodeHashField(value uint32, length int) uint32 {
	if !Cacheable(length) || value > valueMask {
		panic("arrayindex: value not cacheable")
	}

	return value<<HashShift | uint32(length)<<lengthShift
}

// DecodeHashField extracts the cached index from a hash field, if any.
func DecodeHashField(field uint32) (value uint32, length int, ok bool) {
	if field == 0 || field&NotIndexBit != 0 {
		return 0, 0, false
	}

	return field >> HashShift & valueMask, int(field >> lengthShift), true
}

// Sentinel is the tagged small integer returned for index strings instead
// of a canonical string. The low bit is the tag and is always clear.
type Sentinel uint32

// Encode tags index as a Sentinel.
func Encode(index uint32) Sentinel {
	if index > MaxIndex {
		panic("arrayindex: index out of range")
	}

	return Sentinel(index << 1)
}

// Index untags the sentinel.
func (s Sentinel) Index() uint32 {
	return uint32(s) >> 1
}

func (s Sentinel) Valid() bool {
	return s&1 == 0
}
