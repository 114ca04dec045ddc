package rng

import "testing"

func TestCryptoIntnRange(t *testing.T) {
	c := Crypto{}
	found := make(map[int]bool)
	// it's possible this could fail, but not likely
	for i := 0; i < 1000; i++ {
		found[c.Intn(5)] = true
	}
	for i := 0; i < 5; i++ {
		if !found[i] {
			t.Errorf("value %d never produced", i)
		}
	}
	if found[5] {
		t.Errorf("value 5 is out of range")
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 100; i++ {
		x, y := a.Intn(1000), b.Intn(1000)
		if x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}
