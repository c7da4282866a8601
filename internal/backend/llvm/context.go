// Package llvm lowers the parsed shader AST into LLVM IR: the global
// module declarations every shader sees, expression and statement
// codegen, and the shader-function ABI shared with the group linker.
package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"tsl/internal/ast"
	"tsl/internal/closure"
	"tsl/internal/diag"
	"tsl/internal/source"
	"tsl/internal/types"
)

// VarSym is one resolvable variable: where it lives and what it holds.
type VarSym struct {
	Ptr        llvm.Value
	Type       types.DataType
	StructName string
}

// StructInfo describes a lowered user structure.
type StructInfo struct {
	Name   string
	LL     llvm.Type
	Fields []ast.StructField
	index  map[string]int
}

// FieldIndex resolves a member name to its position.
func (s *StructInfo) FieldIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FuncInfo describes a declared function so calls can be emitted.
type FuncInfo struct {
	Fn        llvm.Value
	FnTy      llvm.Type
	Ret       types.DataType
	RetStruct string
	Params    []ast.Param
	IsShader  bool
}

type loopCtx struct {
	breakTo    llvm.BasicBlock
	continueTo llvm.BasicBlock
}

// Context carries everything one lowering pass needs. It lives for one
// compile and is not shared across goroutines.
type Context struct {
	LL       llvm.Context
	Module   llvm.Module
	Builder  llvm.Builder
	B        *ast.Builder
	Reporter diag.Reporter
	Registry *closure.Registry

	named    map[string]llvm.Type
	structs  map[string]*StructInfo
	funcs    map[string]FuncInfo
	closures map[string]FuncInfo

	scopes  []map[string]VarSym
	loops   []loopCtx
	curFunc llvm.Value
	curRet  types.DataType
	failed  bool

	allocFn llvm.Value
	allocTy llvm.Type
}

// NewContext wires a compile context over a freshly created module.
func NewContext(ll llvm.Context, module llvm.Module, b *ast.Builder, reporter diag.Reporter, reg *closure.Registry) *Context {
	return &Context{
		LL:       ll,
		Module:   module,
		Builder:  ll.NewBuilder(),
		B:        b,
		Reporter: reporter,
		Registry: reg,
		named:    make(map[string]llvm.Type),
		structs:  make(map[string]*StructInfo),
		funcs:    make(map[string]FuncInfo),
		closures: make(map[string]FuncInfo),
	}
}

// Dispose releases the builder; the module belongs to the caller.
func (c *Context) Dispose() {
	c.Builder.Dispose()
}

// Failed reports whether any semantic error was recorded.
func (c *Context) Failed() bool {
	return c.failed
}

// PushVarSymbolLayer opens a nested variable scope.
func (c *Context) PushVarSymbolLayer() {
	c.scopes = append(c.scopes, make(map[string]VarSym))
}

// PopVarSymbolLayer closes the innermost variable scope.
func (c *Context) PopVarSymbolLayer() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// DefineVar binds a name in the innermost scope; duplicate definitions in
// the same scope are a semantic error.
func (c *Context) DefineVar(name string, sym VarSym, sp source.Span) bool {
	top := c.scopes[len(c.scopes)-1]
	if _, exists := top[name]; exists {
		c.errf(diag.GenDuplicateSymbol, sp, "symbol %q already defined in this scope", name)
		return false
	}
	top[name] = sym
	return true
}

// LookupVar resolves a name through the scope stack, innermost first.
func (c *Context) LookupVar(name string) (VarSym, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i][name]; ok {
			return sym, true
		}
	}
	return VarSym{}, false
}

func (c *Context) errf(code diag.Code, sp source.Span, format string, args ...any) {
	c.failed = true
	if c.Reporter != nil {
		diag.Errorf(c.Reporter, code, sp, format, args...)
	}
}

// value is an evaluated expression: an SSA value plus its TSL type.
type value struct {
	v          llvm.Value
	t          types.DataType
	structName string
}

func (c *Context) structInfo(name string, sp source.Span) (*StructInfo, bool) {
	info, ok := c.structs[name]
	if !ok {
		c.errf(diag.GenUnresolvedSymbol, sp, "unknown structure %q", name)
		return nil, false
	}
	return info, true
}

// blockTerminated reports whether the current insert block already ends
// in a terminator; emitting past one would produce invalid IR.
func (c *Context) blockTerminated() bool {
	last := c.Builder.GetInsertBlock().LastInstruction()
	return !last.IsNil() && !last.IsATerminatorInst().IsNil()
}

func describe(t types.DataType, structName string) string {
	if t == types.Struct {
		return fmt.Sprintf("struct %s", structName)
	}
	return t.String()
}
