package ast

import (
	"tsl/internal/source"
	"tsl/internal/types"
)

// Param is one declared parameter of a function or shader.
type Param struct {
	Name       string
	Type       types.DataType
	StructName string
	Output     bool
	// Default carries a literal default for shader arguments, NoExprID
	// otherwise.
	Default ExprID
	Span    source.Span
}

// Function is a free function or a shader entry.
type Function struct {
	Name         string
	ReturnType   types.DataType
	ReturnStruct string
	Params       []Param
	Body         StmtID
	IsShader     bool
	Span         source.Span
}
