package core

import "testing"

func permutationsOf3(a, b, c int) [][3]int {
	return [][3]int{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
}

func TestPackedCanonicalizationAgreesAcrossPermutations(t *testing.T) {
	for _, perm := range permutationsOf3(5, 9, 2) {
		word := PackThree(perm[0], perm[1], perm[2])
		set := PackedFromWord(word)
		if set.First() != 2 || set.Second() != 5 || set.Third() != 9 {
			t.Fatalf("perm %v: got (%d,%d,%d), want (2,5,9)", perm, set.First(), set.Second(), set.Third())
		}
	}
}

func TestPackedAndArraySetsAgreeOnHashAndEquals(t *testing.T) {
	for _, perm := range permutationsOf3(5, 9, 2) {
		packed := PackedFromWord(PackThree(perm[0], perm[1], perm[2]))
		arr := NewArray3(perm[0], perm[1], perm[2])
		if packed.Hash() != arr.Hash() {
			t.Fatalf("perm %v: packed hash %d != array hash %d", perm, packed.Hash(), arr.Hash())
		}
		if !packed.Equals(arr) || !arr.Equals(packed) {
			t.Fatalf("perm %v: packed and array sets not equal", perm)
		}
	}
}

func TestArrayConversionRoundTrips(t *testing.T) {
	packed := PackedFromWord(PackTwo(7, 3))
	arr := packed.Array()
	if arr.First() != 3 || arr.Second() != 7 || arr.Third() != -1 {
		t.Fatalf("got (%d,%d,%d), want (3,7,-1)", arr.First(), arr.Second(), arr.Third())
	}
	if arr.Order() != 2 {
		t.Fatalf("Order() = %d, want 2", arr.Order())
	}
}

func TestSingletonOrderAndSentinels(t *testing.T) {
	p := NewPacked1(42)
	if p.Order() != 1 || p.Second() != -1 || p.Third() != -1 {
		t.Fatalf("singleton: got order=%d second=%d third=%d", p.Order(), p.Second(), p.Third())
	}
	a := NewArray1(42)
	if a.Order() != 1 || a.Second() != -1 || a.Third() != -1 {
		t.Fatalf("singleton array: got order=%d second=%d third=%d", a.Order(), a.Second(), a.Third())
	}
}

func TestPackTwoSortsAscending(t *testing.T) {
	if w1, w2 := PackTwo(9, 1), PackTwo(1, 9); w1 != w2 {
		t.Fatalf("PackTwo(9,1)=%d != PackTwo(1,9)=%d", w1, w2)
	}
}
