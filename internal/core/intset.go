// Package core implements the hot-path data structures the candidate
// enumeration engine runs over: the packed/array IntSet key, the
// fixed-capacity hash table keyed by it, and the small supporting types
// (aggregation ops, the singleton frontier bitset, error kinds).
package core

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// NoSupport is the sentinel attribute code that marks a cell as failing
// the singleton support filter. Cells carrying it never contribute to
// any candidate. The encoder reserves it; the core only ever excludes it.
const NoSupport = 0

// CardinalityOverflowThreshold is 2^21 - 1, the largest value one
// 21-bit field of the three-slot packed word can hold. At or above it
// callers must use the array-keyed IntSet representation.
const CardinalityOverflowThreshold = 1<<21 - 1

const (
	codeBits = 21
	codeMask = 1<<codeBits - 1
)

// IntSet is an order-independent set of 1 to 3 non-negative integers.
// Packed and array realizations agree on hash and equality for any two
// constructions of the same underlying set.
type IntSet interface {
	First() int
	Second() int // -1 if the set has fewer than two members
	Third() int  // -1 if the set has fewer than three members
	Order() int
	Hash() uint64
	Equals(other IntSet) bool
	// Array converts to the canonical array realization, used whenever
	// sets built under different packing modes must compare equal as
	// map keys.
	Array() ArraySet
}

// PackTwo sorts a and b ascending and packs them into a 64-bit word,
// 21 bits per slot. The caller asserts both codes are below
// CardinalityOverflowThreshold.
func PackTwo(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a) | uint64(b)<<codeBits
}

// PackThree sorts a, b, c ascending and packs them into a 64-bit word,
// 21 bits per slot.
func PackThree(a, b, c int) uint64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return uint64(a) | uint64(b)<<codeBits | uint64(c)<<(2*codeBits)
}

func unpackFirst(word uint64) int  { return int(word & codeMask) }
func unpackSecond(word uint64) int { return int((word >> codeBits) & codeMask) }
func unpackThird(word uint64) int  { return int((word >> (2 * codeBits)) & codeMask) }

func hashWord(word uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], word)
	return xxhash.Sum64(buf[:])
}

// PackedSet is the packed 64-bit-word realization of IntSet. The zero
// value is never a valid non-empty set: NoSupport == 0 is excluded
// before any PackedSet is constructed, so a word's unused high slots
// can safely read back as 0 and still be distinguished from a real
// member.
type PackedSet uint64

// NewPacked1 constructs a single-member packed set.
func NewPacked1(a int) PackedSet { return PackedSet(uint64(a)) }

// NewPacked2 constructs a two-member packed set from an already-sorted pair.
func NewPacked2(a, b int) PackedSet { return PackedSet(PackTwo(a, b)) }

// NewPacked3 constructs a three-member packed set from an already-sorted triple.
func NewPacked3(a, b, c int) PackedSet { return PackedSet(PackThree(a, b, c)) }

// PackedFromWord wraps a raw packed word (e.g. one produced by PackTwo
// or PackThree on the hot path) as a PackedSet.
func PackedFromWord(word uint64) PackedSet { return PackedSet(word) }

func (p PackedSet) First() int { return unpackFirst(uint64(p)) }
func (p PackedSet) Second() int {
	if v := unpackSecond(uint64(p)); v != 0 {
		return v
	}
	return -1
}
func (p PackedSet) Third() int {
	if v := unpackThird(uint64(p)); v != 0 {
		return v
	}
	return -1
}

func (p PackedSet) Order() int {
	switch {
	case unpackThird(uint64(p)) != 0:
		return 3
	case unpackSecond(uint64(p)) != 0:
		return 2
	default:
		return 1
	}
}

// Hash hashes the set's array realization, so a PackedSet and an
// ArraySet holding the same members hash equal.
func (p PackedSet) Hash() uint64 { return p.Array().Hash() }

func (p PackedSet) Equals(other IntSet) bool {
	return p.First() == other.First() && p.Second() == other.Second() && p.Third() == other.Third()
}

func (p PackedSet) Array() ArraySet {
	switch p.Order() {
	case 1:
		return NewArray1(p.First())
	case 2:
		return NewArray2(p.First(), p.Second())
	default:
		return NewArray3(p.First(), p.Second(), p.Third())
	}
}

// ArraySet is a tiny sorted-array realization of IntSet, used once
// cardinality reaches CardinalityOverflowThreshold and as the single
// canonical key type the level-wise controller merges per-thread
// tables into (so packed- and array-mode threads agree on a key).
type ArraySet struct {
	members [3]int
	size    uint8
}

// NewArray1 constructs a single-member array set.
func NewArray1(a int) ArraySet { return ArraySet{members: [3]int{a, 0, 0}, size: 1} }

// NewArray2 constructs a two-member array set, sorting ascending.
func NewArray2(a, b int) ArraySet {
	if a > b {
		a, b = b, a
	}
	return ArraySet{members: [3]int{a, b, 0}, size: 2}
}

// NewArray3 constructs a three-member array set, sorting ascending.
func NewArray3(a, b, c int) ArraySet {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return ArraySet{members: [3]int{a, b, c}, size: 3}
}

func (s ArraySet) First() int { return s.members[0] }
func (s ArraySet) Second() int {
	if s.size < 2 {
		return -1
	}
	return s.members[1]
}
func (s ArraySet) Third() int {
	if s.size < 3 {
		return -1
	}
	return s.members[2]
}
func (s ArraySet) Order() int { return int(s.size) }

func (s ArraySet) Hash() uint64 {
	var buf [25]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(s.members[0]))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(s.members[1]))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(s.members[2]))
	buf[24] = s.size
	return xxhash.Sum64(buf[:])
}

func (s ArraySet) Equals(other IntSet) bool {
	return s.First() == other.First() && s.Second() == other.Second() && s.Third() == other.Third()
}

func (s ArraySet) Array() ArraySet { return s }
