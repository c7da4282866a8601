package source

import (
	"testing"
)

func TestAddVirtualAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("entry.tsl", "shader f(){\n  int a = 0;\n}\n")
	f := fs.Get(id)
	if f == nil || f.Flags&FileVirtual == 0 {
		t.Fatalf("virtual file not recorded")
	}

	// "int" starts at offset 14: line 2, col 3
	lc, ok := fs.Resolve(Span{File: id, Start: 14, End: 17})
	if !ok {
		t.Fatalf("resolve failed")
	}
	if lc.Line != 2 || lc.Col != 3 {
		t.Fatalf("resolve = %d:%d, want 2:3", lc.Line, lc.Col)
	}
}

func TestCRLFNormalization(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("win.tsl", []byte("a\r\nb"), 0)
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("content = %q, want normalized", f.Content)
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("normalization flag missing")
	}
}

func TestBOMRemoval(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("bom.tsl", []byte{0xEF, 0xBB, 0xBF, 'x'}, 0)
	f := fs.Get(id)
	if string(f.Content) != "x" || f.Flags&FileHadBOM == 0 {
		t.Fatalf("BOM not stripped: %q flags=%b", f.Content, f.Flags)
	}
}
