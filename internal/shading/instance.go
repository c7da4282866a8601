package shading

import (
	"unsafe"

	"tinygo.org/x/go-llvm"
)

// ShaderInstance is a resolved, JIT-compiled template: an execution
// engine owning the cloned modules plus the root function's address.
// Instances are cheap to create and independent of each other; dropping
// the source template does not invalidate them.
type ShaderInstance struct {
	llctx   llvm.Context
	ownsCtx bool
	engine  llvm.ExecutionEngine
	fn      llvm.Value
	name    string
	fptr    unsafe.Pointer
}

// FunctionPointer is the native entry the host casts to the shader's
// signature and calls.
func (si *ShaderInstance) FunctionPointer() unsafe.Pointer {
	return si.fptr
}

// FunctionName returns the resolved symbol name.
func (si *ShaderInstance) FunctionName() string {
	return si.name
}

// Dispose tears down the engine (which owns the cloned modules) and the
// instance's context.
func (si *ShaderInstance) Dispose() {
	si.engine.Dispose()
	if si.ownsCtx {
		si.llctx.Dispose()
	}
}
