package core

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// CapacityExceededError is raised when an insertion finds no empty slot
// within a full probe sequence. This is a programmer-error condition:
// the caller sized the table too small for the frontier it produced.
// The engine recovers it at the per-order worker boundary and reports
// it as a WorkerError rather than letting the goroutine crash the
// process.
type CapacityExceededError struct {
	Capacity int
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("hash table capacity %d exceeded", e.Capacity)
}

// FastFixedHashTable is a fixed-capacity, open-addressed map from IntSet
// to a fixed-width []float64. It never resizes: the caller sizes it to
// the largest frontier it expects to produce before the first Put.
//
// Two key representations share the implementation:
//   - packed mode stores each key as a single 64-bit word (GetLong/PutLong),
//     avoiding IntSet allocation on the hot path;
//   - array mode stores up to three ints plus a size byte, for
//     cardinalities at or above CardinalityOverflowThreshold.
//
// Values are stored inline in one contiguous []float64, valueWidth
// floats per slot, for cache locality.
type FastFixedHashTable struct {
	capacity     int
	mask         uint64
	valueWidth   int
	useArrayKeys bool

	keys  []uint64  // packed mode: 0 marks an empty slot (NoSupport==0 is never a member)
	akeys [][3]int  // array mode
	asize []uint8   // array mode: 0 marks an empty slot
	vals  []float64 // len == capacity*valueWidth, shared by both modes
}

// NewFastFixedHashTable allocates a table with capacity rounded up to
// the next power of two (at least 1).
func NewFastFixedHashTable(capacity, valueWidth int, useArrayKeys bool) *FastFixedHashTable {
	cap := nextPow2(capacity)
	t := &FastFixedHashTable{
		capacity:     cap,
		mask:         uint64(cap - 1),
		valueWidth:   valueWidth,
		useArrayKeys: useArrayKeys,
		vals:         make([]float64, cap*valueWidth),
	}
	if useArrayKeys {
		t.akeys = make([][3]int, cap)
		t.asize = make([]uint8, cap)
	} else {
		t.keys = make([]uint64, cap)
	}
	return t
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (t *FastFixedHashTable) slot(idx uint64) []float64 {
	return t.vals[int(idx)*t.valueWidth : int(idx+1)*t.valueWidth]
}

// GetLong returns the value slice for a packed-key candidate, or nil,
// false if absent. The returned slice aliases the table's internal
// storage; combine into it in place rather than replacing it.
func (t *FastFixedHashTable) GetLong(word uint64) ([]float64, bool) {
	idx := hashWord(word) & t.mask
	for {
		k := t.keys[idx]
		if k == 0 {
			return nil, false
		}
		if k == word {
			return t.slot(idx), true
		}
		idx = (idx + 1) & t.mask
	}
}

// PutLong inserts a copy of val under the packed key word, or overwrites
// the existing slot if already present. Panics with
// CapacityExceededError if the table is full.
func (t *FastFixedHashTable) PutLong(word uint64, val []float64) {
	idx := hashWord(word) & t.mask
	for i := 0; i <= t.capacity; i++ {
		k := t.keys[idx]
		if k == 0 {
			t.keys[idx] = word
			copy(t.slot(idx), val)
			return
		}
		if k == word {
			copy(t.slot(idx), val)
			return
		}
		idx = (idx + 1) & t.mask
	}
	panic(CapacityExceededError{Capacity: t.capacity})
}

// EachLong visits every occupied packed-key slot.
func (t *FastFixedHashTable) EachLong(fn func(word uint64, val []float64)) {
	for idx, k := range t.keys {
		if k != 0 {
			fn(k, t.slot(uint64(idx)))
		}
	}
}

func hashTriple(a, b, c int, size uint8) uint64 {
	var buf [25]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(a))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(b))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(c))
	buf[24] = size
	return xxhash.Sum64(buf[:])
}

// Get returns the value slice for an array-key candidate (a, b, c
// already sorted ascending, unused trailing slots 0, size the real
// member count), or nil, false if absent.
func (t *FastFixedHashTable) Get(a, b, c int, size uint8) ([]float64, bool) {
	idx := hashTriple(a, b, c, size) & t.mask
	for {
		s := t.asize[idx]
		if s == 0 {
			return nil, false
		}
		k := t.akeys[idx]
		if s == size && k[0] == a && k[1] == b && k[2] == c {
			return t.slot(idx), true
		}
		idx = (idx + 1) & t.mask
	}
}

// Put inserts a copy of val under the array key, or overwrites the
// existing slot if already present. Panics with CapacityExceededError
// if the table is full.
func (t *FastFixedHashTable) Put(a, b, c int, size uint8, val []float64) {
	idx := hashTriple(a, b, c, size) & t.mask
	for i := 0; i <= t.capacity; i++ {
		s := t.asize[idx]
		if s == 0 {
			t.akeys[idx] = [3]int{a, b, c}
			t.asize[idx] = size
			copy(t.slot(idx), val)
			return
		}
		k := t.akeys[idx]
		if s == size && k[0] == a && k[1] == b && k[2] == c {
			copy(t.slot(idx), val)
			return
		}
		idx = (idx + 1) & t.mask
	}
	panic(CapacityExceededError{Capacity: t.capacity})
}

// Each visits every occupied array-key slot.
func (t *FastFixedHashTable) Each(fn func(key ArraySet, val []float64)) {
	for idx, size := range t.asize {
		if size == 0 {
			continue
		}
		k := t.akeys[idx]
		var set ArraySet
		switch size {
		case 1:
			set = NewArray1(k[0])
		case 2:
			set = NewArray2(k[0], k[1])
		default:
			set = NewArray3(k[0], k[1], k[2])
		}
		fn(set, t.slot(uint64(idx)))
	}
}

// Capacity returns the table's fixed slot count.
func (t *FastFixedHashTable) Capacity() int { return t.capacity }

// UseArrayKeys reports which key representation the table was built with.
func (t *FastFixedHashTable) UseArrayKeys() bool { return t.useArrayKeys }
