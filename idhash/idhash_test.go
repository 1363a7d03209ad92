package idhash

import (
	"testing"
)

func TestHashStable(t *testing.T) {
	a := Hash("https://example.org/thumb.jpg")
	b := Hash("https://example.org/thumb.jpg")
	if a != b {
		t.Errorf("Hash not stable: %q vs %q", a, b)
	}
	if a == Hash("https://example.org/other.jpg") {
		t.Error("different inputs produced the same hash")
	}
	if a == "" {
		t.Error("empty hash")
	}
}

func TestNewRandomIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewRandomID()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
