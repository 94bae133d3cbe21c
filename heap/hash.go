package heap

import (
	"github.com/funkygao/strtab/arrayindex"
	"github.com/zeebo/xxh3"
)

// ComputeHashField returns the hash field for content b. Short array
// index spellings get their value cached instead of a content hash.
func ComputeHashField(b []byte) uint32 {
	if arrayindex.Cacheable(len(b)) {
		if v, ok := arrayindex.Parse(b); ok {
			return arrayindex.EncodeHashField(v, len(b))
		}
	}

	return fieldOf(xxh3.Hash(b))
}

func ComputeHashFieldString(s string) uint32 {
	if arrayindex.Cacheable(len(s)) {
		if v, ok := arrayindex.ParseString(s); ok {
			return arrayindex.EncodeHashField(v, len(s))
		}
	}

	return fieldOf(xxh3.HashString(s))
}

// ComputeHashFieldConcat hashes a+b without building the concatenation.
func ComputeHashFieldConcat(a, b []byte) uint32 {
	n := len(a) + len(b)
	if arrayindex.Cacheable(n) {
		var buf [arrayindex.MaxCachedLength]byte
		copy(buf[copy(buf[:], a):], b)
		return ComputeHashField(buf[:n])
	}

	h := xxh3.New()
	h.Write(a)
	h.Write(b)
	return fieldOf(h.Sum64())
}

func fieldOf(h uint64) uint32 {
	x := uint32(h) ^ uint32(h>>32)
	return x<<arrayindex.HashShift | arrayindex.NotIndexBit
}
