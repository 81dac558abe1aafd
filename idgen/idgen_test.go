package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNanoID_Length(t *testing.T) {
	for _, length := range []int{8, 12, 16, 24} {
		gen := NanoID(length)
		id := gen()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
	}
}

func TestNanoID_Alphabet(t *testing.T) {
	gen := NanoID(100)
	id := gen()
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			t.Fatalf("NanoID: unexpected character %q in %q", c, id)
		}
	}
}

func TestUUIDv7_Uniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("run_", NanoID(8))
	id := gen()
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("Prefixed: expected prefix 'run_', got %q", id)
	}
	if len(id) != 4+8 {
		t.Fatalf("Prefixed: expected length 12, got %d", len(id))
	}
}

func TestDefault_IsUUIDv7(t *testing.T) {
	id := Default()
	if len(id) != 36 {
		t.Fatalf("Default: expected length 36, got %d for %q", len(id), id)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("Default: should produce a valid UUIDv7: %v", err)
	}
}
