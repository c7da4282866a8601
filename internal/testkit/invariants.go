package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tsl/internal/ast"
	"tsl/internal/source"
)

// CheckShaderInvariants runs a minimal set of span invariants on a parsed
// shader:
// 1) the function span is non-empty and within file content bounds
// 2) every parameter span is fully contained in the function span
func CheckShaderInvariants(b *ast.Builder, fnID ast.FuncID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	fn := b.Func(fnID)
	if fn == nil {
		return fmt.Errorf("function node not found")
	}

	if fn.Span.End <= fn.Span.Start {
		return fmt.Errorf("function span is empty: %v", fn.Span)
	}
	if fn.Span.File != sf.ID {
		return fmt.Errorf("function span points to different file id: got=%d want=%d",
			fn.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if fn.Span.End > lenContent {
		return fmt.Errorf("function span end beyond content: %d > %d", fn.Span.End, lenContent)
	}

	for _, p := range fn.Params {
		if p.Span.Start < fn.Span.Start || p.Span.End > fn.Span.End {
			return fmt.Errorf("parameter %q span %v escapes function span %v",
				p.Name, p.Span, fn.Span)
		}
	}
	return nil
}
