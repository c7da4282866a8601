package source

import (
	"testing"
)

func TestInternStability(t *testing.T) {
	in := NewInterner()
	a := in.Intern("base_color")
	b := in.Intern("base_color")
	if a != b {
		t.Fatalf("same string interned to different IDs: %d vs %d", a, b)
	}
	if s := in.MustLookup(a); s != "base_color" {
		t.Fatalf("lookup = %q", s)
	}
}

func TestCanonicalSharesInstance(t *testing.T) {
	in := NewInterner()
	a := in.Canonical(string([]byte("weight")))
	b := in.Canonical(string([]byte("weight")))
	if a != b {
		t.Fatalf("canonical values differ")
	}
}

func TestNoStringID(t *testing.T) {
	in := NewInterner()
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID should resolve to empty string")
	}
	if in.Len() != 1 {
		t.Fatalf("fresh interner Len = %d, want 1", in.Len())
	}
}
