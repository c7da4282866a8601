package diag

import (
	"testing"

	"tsl/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := 0; i < 3; i++ {
		added := b.Add(NewError(GenError, source.Span{}, "boom"))
		if i < 2 && !added {
			t.Fatalf("add %d rejected below the limit", i)
		}
		if i == 2 && added {
			t.Fatalf("limit not enforced")
		}
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
}

func TestBagSortOrder(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevWarning, LexInfo, source.Span{File: 0, Start: 9}, "later"))
	b.Add(NewError(SynUnexpectedToken, source.Span{File: 0, Start: 1}, "earlier"))
	b.Sort()
	if b.Items()[0].Message != "earlier" {
		t.Fatalf("sort did not order by start offset")
	}
}

func TestFirstError(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevInfo, LexInfo, source.Span{}, "fyi"))
	if _, ok := b.FirstError(); ok {
		t.Fatalf("info reported as error")
	}
	b.Add(NewError(GenTypeMismatch, source.Span{}, "bad"))
	d, ok := b.FirstError()
	if !ok || d.Code != GenTypeMismatch {
		t.Fatalf("first error = %+v, %v", d, ok)
	}
	if !b.HasErrors() {
		t.Fatalf("HasErrors false with an error present")
	}
}
