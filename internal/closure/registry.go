// Package closure assigns stable IDs to named closure types and owns the
// closure module: an IR module declaring the host's closure allocator and
// one constructor per registered closure.
package closure

import (
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"

	"tsl/internal/abi"
	"tsl/internal/types"
)

// Field is one member of a registered closure's parameter block.
type Field struct {
	Name string
	Type types.DataType
}

// Schema captures everything codegen needs to call a closure constructor.
type Schema struct {
	Name   string
	ID     abi.ClosureID
	Fields []Field
	Size   int
}

// AllocatorName is the host symbol closure nodes are allocated through.
const AllocatorName = "tsl_malloc"

// ConstructorName derives the host symbol for a closure's constructor.
func ConstructorName(closure string) string {
	return "make_closure_" + closure
}

// Registry is the process-wide closure register. All mutation happens
// under one mutex; reads of registered schemas return copies.
type Registry struct {
	mu      sync.Mutex
	schemas map[string]Schema
	nextID  abi.ClosureID

	ctx    llvm.Context
	module llvm.Module
}

// NewRegistry creates the registry and its closure module, with the host
// allocator already declared.
func NewRegistry() *Registry {
	ctx := llvm.NewContext()
	module := ctx.NewModule("closure_module")

	// ptr tsl_malloc(i32 size) — provided by the host at JIT time.
	ptrTy := llvm.PointerType(ctx.Int8Type(), 0)
	allocTy := llvm.FunctionType(ptrTy, []llvm.Type{ctx.Int32Type()}, false)
	llvm.AddFunction(module, AllocatorName, allocTy)

	return &Registry{
		schemas: make(map[string]Schema),
		nextID:  abi.InvalidClosureID + 1,
		ctx:     ctx,
		module:  module,
	}
}

// Register assigns the next positive ID to the named closure and declares
// its constructor in the closure module. Registering a name twice returns
// the original ID without touching the module.
func (r *Registry) Register(name string, fields []Field, structSize int) (abi.ClosureID, error) {
	if name == "" {
		return abi.InvalidClosureID, fmt.Errorf("closure with empty name: %w", ErrInvalidSchema)
	}
	if structSize <= 0 {
		return abi.InvalidClosureID, fmt.Errorf("closure %q has size %d: %w", name, structSize, ErrInvalidSchema)
	}
	for _, f := range fields {
		switch f.Type {
		case types.Int, types.Float, types.Double, types.Bool, types.Float3, types.Float4, types.Matrix:
		default:
			return abi.InvalidClosureID, fmt.Errorf("closure %q field %q has type %s: %w",
				name, f.Name, f.Type, ErrInvalidSchema)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.schemas[name]; ok {
		return s.ID, nil
	}

	id := r.nextID
	r.nextID++
	r.schemas[name] = Schema{
		Name:   name,
		ID:     id,
		Fields: append([]Field(nil), fields...),
		Size:   structSize,
	}

	// declare: ptr make_closure_<name>(fields…) with aggregates by pointer
	params := make([]llvm.Type, 0, len(fields))
	for _, f := range fields {
		params = append(params, r.paramType(f.Type))
	}
	retTy := llvm.PointerType(r.ctx.Int8Type(), 0)
	fnTy := llvm.FunctionType(retTy, params, false)
	llvm.AddFunction(r.module, ConstructorName(name), fnTy)

	return id, nil
}

func (r *Registry) paramType(t types.DataType) llvm.Type {
	switch t {
	case types.Int:
		return r.ctx.Int32Type()
	case types.Float:
		return r.ctx.FloatType()
	case types.Double:
		return r.ctx.DoubleType()
	case types.Bool:
		return r.ctx.Int1Type()
	default:
		// aggregates travel by pointer
		return llvm.PointerType(r.ctx.Int8Type(), 0)
	}
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Module returns the closure module. Callers must clone it into their own
// context; the registry keeps ownership.
func (r *Registry) Module() llvm.Module {
	return r.module
}

// WithModuleLock runs f over the closure module while holding the
// registry mutex, so a clone never races a concurrent Register.
func (r *Registry) WithModuleLock(f func(llvm.Module) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return f(r.module)
}

// Dispose drops the registry's LLVM state.
func (r *Registry) Dispose() {
	r.module.Dispose()
	r.ctx.Dispose()
}
