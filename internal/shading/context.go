// Package shading is the compilation, linking and resolution engine of
// the Tiny Shading Language: it turns shader source strings into unit
// templates, composes templates into shader groups, and JIT-resolves
// either into callable native functions.
package shading

import (
	"fmt"
	"sync"
	"unsafe"

	"tinygo.org/x/go-llvm"

	"tsl/internal/abi"
	"tsl/internal/closure"
)

// ShadingContext is the process-wide façade: it owns the closure registry
// and a pool of compile drivers, and hands out templates and instances.
// All methods are safe for concurrent use; each concurrent compile runs
// on its own pooled driver.
type ShadingContext struct {
	registry *closure.Registry
	drivers  sync.Pool
}

// NewShadingContext builds the context, asserting the host ABI layouts
// and preparing the JIT once per process.
func NewShadingContext() (*ShadingContext, error) {
	if err := abi.AssertLayouts(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if err := jitInit(); err != nil {
		return nil, err
	}
	ctx := &ShadingContext{
		registry: closure.NewRegistry(),
	}
	ctx.drivers.New = func() any { return newCompiler(ctx) }
	return ctx, nil
}

// RegisterClosure assigns an ID to a named closure type and declares its
// constructor on the closure module. Registering the same name twice
// returns the original ID.
func (ctx *ShadingContext) RegisterClosure(name string, fields []closure.Field, structSize int) (abi.ClosureID, error) {
	id, err := ctx.registry.Register(name, fields, structSize)
	if err != nil {
		return abi.InvalidClosureID, fmt.Errorf("%v: %w", err, ErrInvalidClosureSchema)
	}
	return id, nil
}

// NewShaderUnitTemplate creates an empty template to compile into.
func (ctx *ShadingContext) NewShaderUnitTemplate(name string) *ShaderUnitTemplate {
	return newShaderUnitTemplate(name)
}

// NewShaderGroupTemplate creates an empty group.
func (ctx *ShadingContext) NewShaderGroupTemplate(name string) *ShaderGroupTemplate {
	return newShaderGroupTemplate(name)
}

// BeginCompile checks a compile driver out of the pool. Callers that
// compile many sources on one goroutine can reuse the driver; EndCompile
// returns it.
func (ctx *ShadingContext) BeginCompile() *Compiler {
	return ctx.drivers.Get().(*Compiler)
}

// EndCompile returns a driver to the pool.
func (ctx *ShadingContext) EndCompile(c *Compiler) {
	ctx.drivers.Put(c)
}

// Compile parses and lowers source into tpl on a pooled driver.
func (ctx *ShadingContext) Compile(tpl *ShaderUnitTemplate, src string) error {
	c := ctx.BeginCompile()
	defer ctx.EndCompile(c)
	return c.Compile(src, tpl)
}

// ResolveShaderUnit JIT-compiles a template into a callable instance.
// The template is cloned, never consumed; many instances may coexist.
func (ctx *ShadingContext) ResolveShaderUnit(tpl *ShaderUnitTemplate) (*ShaderInstance, error) {
	if tpl == nil {
		return nil, ErrInvalidInput
	}
	if !tpl.compiled || tpl.rootFuncName == "" {
		return nil, fmt.Errorf("template %q: %w", tpl.name, ErrInvalidTemplate)
	}
	return resolveModule(tpl.module, tpl.rootFuncName, tpl.deps,
		tpl.allowOptimization, tpl.allowVerification)
}

// ResolveShaderGroup links the group (topological order, argument
// routing, wrapper emission) and JIT-compiles the wrapper.
func (ctx *ShadingContext) ResolveShaderGroup(g *ShaderGroupTemplate) (*ShaderInstance, error) {
	if g == nil {
		return nil, ErrInvalidInput
	}
	if err := g.link(ctx); err != nil {
		return nil, err
	}
	return resolveModule(g.module, g.wrapperName, g.deps,
		g.allowOptimization, g.allowVerification)
}

// Registry exposes the closure registry to embedding hosts.
func (ctx *ShadingContext) Registry() *closure.Registry {
	return ctx.registry
}

// RegisterHostSymbol binds a native address to a symbol name for the JIT
// linker, e.g. the closure allocator or a math helper the host provides
// outside its own process symbols.
func (ctx *ShadingContext) RegisterHostSymbol(name string, addr unsafe.Pointer) {
	llvm.AddSymbol(name, addr)
}
