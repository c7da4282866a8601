package ast

import (
	"tsl/internal/source"
	"tsl/internal/types"
)

// StructField is one member of a structure declaration.
type StructField struct {
	Name       string
	Type       types.DataType
	StructName string
	Span       source.Span
}

// StructDecl is a user structure declaration.
type StructDecl struct {
	Name   string
	Fields []StructField
	Span   source.Span
}

// GlobalVar is a module-scope variable declaration.
type GlobalVar struct {
	Name       string
	Type       types.DataType
	StructName string
	Init       ExprID
	Span       source.Span
}
