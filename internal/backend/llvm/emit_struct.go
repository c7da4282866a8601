package llvm

import (
	"tsl/internal/ast"
	"tsl/internal/diag"

	"tinygo.org/x/go-llvm"
)

// EmitStruct lowers a user structure declaration into a named IR struct
// and records its member table.
func (c *Context) EmitStruct(id ast.StructID) {
	decl := c.B.Struct(id)
	if decl == nil {
		return
	}
	if _, exists := c.structs[decl.Name]; exists {
		c.errf(diag.GenDuplicateSymbol, decl.Span, "structure %q already defined", decl.Name)
		return
	}

	fields := make([]llvm.Type, 0, len(decl.Fields))
	index := make(map[string]int, len(decl.Fields))
	for i, f := range decl.Fields {
		if _, dup := index[f.Name]; dup {
			c.errf(diag.GenDuplicateSymbol, f.Span,
				"structure %q has duplicate member %q", decl.Name, f.Name)
			continue
		}
		index[f.Name] = i
		fields = append(fields, c.lowerType(f.Type, f.StructName))
	}

	t := c.LL.StructCreateNamed("struct." + decl.Name)
	t.StructSetBody(fields, false)
	c.structs[decl.Name] = &StructInfo{
		Name:   decl.Name,
		LL:     t,
		Fields: decl.Fields,
		index:  index,
	}
}
