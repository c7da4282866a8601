package shading

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/ast"
	"tsl/internal/closure"
	"tsl/internal/types"
)

// depModule is a dependency module pointer held by a template. Modules
// owned by the closure registry are cloned under the registry mutex.
type depModule struct {
	mod llvm.Module
	reg *closure.Registry
}

// ShaderUnitTemplate is the compiled form of one shader source. It owns
// its IR module (inside its own LLVM context), the retained AST, and the
// exposed argument list. Logically immutable once Compile returns; safe
// to share across threads as a read-only input to linking and resolution.
type ShaderUnitTemplate struct {
	name string

	llctx  llvm.Context
	module llvm.Module

	rootFuncName string
	args         []types.ShaderArgument
	deps         []depModule

	// the AST released from the compile region; group linking re-declares
	// the unit signature from args, not from this
	astBuilder *ast.Builder
	astRoot    ast.FuncID

	allowOptimization bool
	allowVerification bool
	verboseParser     bool

	compiled bool
}

func newShaderUnitTemplate(name string) *ShaderUnitTemplate {
	return &ShaderUnitTemplate{
		name:              name,
		allowOptimization: true,
		allowVerification: true,
	}
}

// Name returns the template's name, which also names its IR module and
// the virtual source file its diagnostics point into.
func (t *ShaderUnitTemplate) Name() string {
	return t.name
}

// ExposedArguments returns a copy of the shader's argument list.
func (t *ShaderUnitTemplate) ExposedArguments() []types.ShaderArgument {
	return append([]types.ShaderArgument(nil), t.args...)
}

// RootFunctionName is the symbol the JIT resolves for this unit.
func (t *ShaderUnitTemplate) RootFunctionName() string {
	return t.rootFuncName
}

func (t *ShaderUnitTemplate) AllowOptimization() bool {
	return t.allowOptimization
}

// SetAllowOptimization toggles the fixed optimization pipeline run during
// resolution. Each resolve reads the current setting.
func (t *ShaderUnitTemplate) SetAllowOptimization(v bool) {
	t.allowOptimization = v
}

func (t *ShaderUnitTemplate) AllowVerification() bool {
	return t.allowVerification
}

func (t *ShaderUnitTemplate) SetAllowVerification(v bool) {
	t.allowVerification = v
}

// SetVerboseParser enables token tracing during Compile; grammar
// reductions are not traced.
func (t *ShaderUnitTemplate) SetVerboseParser(v bool) {
	t.verboseParser = v
}

// Compiled reports whether a compile has populated this template.
func (t *ShaderUnitTemplate) Compiled() bool {
	return t.compiled
}

// Dispose drops the template's module and context. Instances resolved
// from it stay valid: they own clones, not references.
func (t *ShaderUnitTemplate) Dispose() {
	if !t.compiled {
		return
	}
	t.module.Dispose()
	t.llctx.Dispose()
	t.compiled = false
}
