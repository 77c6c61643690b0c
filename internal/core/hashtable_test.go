package core

import "testing"

func TestFastFixedHashTablePackedGetPut(t *testing.T) {
	table := NewFastFixedHashTable(16, 2, false)
	word := PackTwo(3, 7)
	if _, ok := table.GetLong(word); ok {
		t.Fatal("expected miss on empty table")
	}
	table.PutLong(word, []float64{1, 2})
	val, ok := table.GetLong(word)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if val[0] != 1 || val[1] != 2 {
		t.Fatalf("got %v, want [1 2]", val)
	}
	val[0] += 1
	val, _ = table.GetLong(word)
	if val[0] != 2 {
		t.Fatalf("mutation through returned slice did not persist: got %v", val)
	}
}

func TestFastFixedHashTableArrayGetPut(t *testing.T) {
	table := NewFastFixedHashTable(16, 1, true)
	table.Put(2, 9, 0, 2, []float64{5})
	val, ok := table.Get(2, 9, 0, 2)
	if !ok || val[0] != 5 {
		t.Fatalf("got %v, ok=%v, want [5], true", val, ok)
	}
	if _, ok := table.Get(2, 10, 0, 2); ok {
		t.Fatal("expected miss for different key")
	}
}

func TestFastFixedHashTableCapacityExceededPanics(t *testing.T) {
	table := NewFastFixedHashTable(1, 1, false)
	table.PutLong(PackTwo(1, 1), []float64{0})
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on full table insert")
		} else if _, ok := r.(CapacityExceededError); !ok {
			t.Fatalf("expected CapacityExceededError, got %T", r)
		}
	}()
	table.PutLong(PackTwo(2, 2), []float64{0})
}

func TestFastFixedHashTableEachVisitsAllEntries(t *testing.T) {
	table := NewFastFixedHashTable(64, 1, false)
	want := map[uint64]float64{
		PackTwo(1, 2): 10,
		PackTwo(3, 4): 20,
		PackTwo(5, 6): 30,
	}
	for w, v := range want {
		table.PutLong(w, []float64{v})
	}
	got := map[uint64]float64{}
	table.EachLong(func(word uint64, val []float64) {
		got[word] = val[0]
	})
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for w, v := range want {
		if got[w] != v {
			t.Fatalf("word %d: got %v, want %v", w, got[w], v)
		}
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 16: 16, 17: 32}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Fatalf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
