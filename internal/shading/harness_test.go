package shading

import (
	"testing"
	"unsafe"

	"tinygo.org/x/go-llvm"

	"tsl/internal/abi"
	"tsl/internal/closure"
)

// jitHarness drives a resolved instance through a generated no-argument
// entry, since MCJIT's RunFunction only supports main-style signatures.
// The harness module is added to the instance's engine; results come back
// through globals read via PointerToGlobal.
type jitHarness struct {
	ctx  llvm.Context
	mod  llvm.Module
	b    llvm.Builder
	main llvm.Value
	outs map[string]llvm.Value
}

func newHarness(name string) *jitHarness {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(name)
	b := ctx.NewBuilder()
	mainTy := llvm.FunctionType(ctx.VoidType(), nil, false)
	main := llvm.AddFunction(mod, "__harness_main", mainTy)
	bb := ctx.AddBasicBlock(main, "entry")
	b.SetInsertPointAtEnd(bb)
	return &jitHarness{
		ctx:  ctx,
		mod:  mod,
		b:    b,
		main: main,
		outs: make(map[string]llvm.Value),
	}
}

func (h *jitHarness) floatConst(v float64) llvm.Value {
	return llvm.ConstFloat(h.ctx.FloatType(), v)
}

// outFloat allocates a result global the test reads after the run.
func (h *jitHarness) outFloat(name string) llvm.Value {
	g := llvm.AddGlobal(h.mod, h.ctx.FloatType(), name)
	g.SetInitializer(llvm.ConstFloat(h.ctx.FloatType(), 0))
	h.outs[name] = g
	return g
}

// outPtr allocates a pointer-sized result global (closure outputs).
func (h *jitHarness) outPtr(name string) llvm.Value {
	pt := llvm.PointerType(h.ctx.Int8Type(), 0)
	g := llvm.AddGlobal(h.mod, pt, name)
	g.SetInitializer(llvm.ConstNull(pt))
	h.outs[name] = g
	return g
}

// buffer allocates an opaque byte buffer, e.g. the tsl_global block.
func (h *jitHarness) buffer(name string, size int) llvm.Value {
	at := llvm.ArrayType(h.ctx.Int8Type(), size)
	g := llvm.AddGlobal(h.mod, at, name)
	g.SetInitializer(llvm.ConstNull(at))
	zero := llvm.ConstInt(h.ctx.Int32Type(), 0, false)
	return llvm.ConstGEP(at, g, []llvm.Value{zero, zero})
}

// call declares the callee from the argument types and emits the call.
func (h *jitHarness) call(fname string, args ...llvm.Value) {
	params := make([]llvm.Type, len(args))
	for i, a := range args {
		params[i] = a.Type()
	}
	fnTy := llvm.FunctionType(h.ctx.VoidType(), params, false)
	fn := h.mod.NamedFunction(fname)
	if fn.IsNil() {
		fn = llvm.AddFunction(h.mod, fname, fnTy)
	}
	h.b.CreateCall(fnTy, fn, args, "")
}

// run finishes the harness, links it into the instance's engine and
// executes it once.
func (h *jitHarness) run(t *testing.T, si *ShaderInstance) {
	t.Helper()
	h.b.CreateRetVoid()
	h.b.Dispose()
	si.engine.AddModule(h.mod)
	si.engine.RunFunction(h.main, nil)
}

// readFloat fetches a result global after run.
func (h *jitHarness) readFloat(si *ShaderInstance, name string) float32 {
	p := si.engine.PointerToGlobal(h.outs[name])
	return *(*float32)(p)
}

// readPtr fetches a pointer result global after run.
func (h *jitHarness) readPtr(si *ShaderInstance, name string) unsafe.Pointer {
	p := si.engine.PointerToGlobal(h.outs[name])
	return *(*unsafe.Pointer)(p)
}

// testRuntime is an IR implementation of the host runtime: a bump
// allocator behind tsl_malloc plus one constructor per registered
// closure, so closure shaders can run without a native host.
type testRuntime struct {
	ctx llvm.Context
	mod llvm.Module
}

func newTestRuntime(schemas ...closure.Schema) *testRuntime {
	ctx := llvm.NewContext()
	mod := ctx.NewModule("test_runtime")
	b := ctx.NewBuilder()
	defer b.Dispose()

	i8 := ctx.Int8Type()
	i32 := ctx.Int32Type()
	i8p := llvm.PointerType(i8, 0)

	const heapSize = 1 << 16
	heapTy := llvm.ArrayType(i8, heapSize)
	heap := llvm.AddGlobal(mod, heapTy, "__tsl_heap")
	heap.SetInitializer(llvm.ConstNull(heapTy))
	off := llvm.AddGlobal(mod, i32, "__tsl_heap_off")
	off.SetInitializer(llvm.ConstInt(i32, 0, false))

	// i8* tsl_malloc(i32 n): bump allocation, 8-byte aligned
	mallocTy := llvm.FunctionType(i8p, []llvm.Type{i32}, false)
	malloc := llvm.AddFunction(mod, closure.AllocatorName, mallocTy)
	bb := ctx.AddBasicBlock(malloc, "entry")
	b.SetInsertPointAtEnd(bb)
	cur := b.CreateLoad(i32, off, "off")
	zero := llvm.ConstInt(i32, 0, false)
	p := b.CreateInBoundsGEP(heapTy, heap, []llvm.Value{zero, cur}, "p")
	rounded := b.CreateAnd(
		b.CreateAdd(malloc.Param(0), llvm.ConstInt(i32, 7, false), "n7"),
		llvm.ConstInt(i32, ^uint64(7), true), "n8")
	b.CreateStore(b.CreateAdd(cur, rounded, "newoff"), off)
	b.CreateRet(p)

	f := ctx.FloatType()
	for _, schema := range schemas {
		// ptr make_closure_<name>(fields…): allocate, tag, copy fields in
		// declaration order at their natural offsets after the id.
		params := make([]llvm.Type, len(schema.Fields))
		for i := range schema.Fields {
			params[i] = i8p // aggregates by pointer; scalar tests use float3 only
		}
		fnTy := llvm.FunctionType(i8p, params, false)
		fn := llvm.AddFunction(mod, closure.ConstructorName(schema.Name), fnTy)
		bb := ctx.AddBasicBlock(fn, "entry")
		b.SetInsertPointAtEnd(bb)
		node := b.CreateCall(mallocTy, malloc,
			[]llvm.Value{llvm.ConstInt(i32, uint64(schema.Size), false)}, "node")
		idSlot := b.CreateBitCast(node, llvm.PointerType(i32, 0), "id")
		b.CreateStore(llvm.ConstInt(i32, uint64(uint32(int32(schema.ID))), true), idSlot)

		offset := int64(4)
		for i := range schema.Fields {
			dst := b.CreateInBoundsGEP(i8, node,
				[]llvm.Value{llvm.ConstInt(i32, uint64(offset), false)}, "field")
			// copy 12 bytes of float3 payload lane by lane
			for lane := int64(0); lane < 3; lane++ {
				sp := b.CreateInBoundsGEP(f, b.CreateBitCast(fn.Param(i), llvm.PointerType(f, 0), "srcf"),
					[]llvm.Value{llvm.ConstInt(i32, uint64(lane), false)}, "src")
				dp := b.CreateInBoundsGEP(f, b.CreateBitCast(dst, llvm.PointerType(f, 0), "dstf"),
					[]llvm.Value{llvm.ConstInt(i32, uint64(lane), false)}, "dst")
				b.CreateStore(b.CreateLoad(f, sp, "lane"), dp)
			}
			offset += 12
		}
		b.CreateRet(node)
	}

	return &testRuntime{ctx: ctx, mod: mod}
}

// resolveWithRuntime resolves a closure-using template with the test
// runtime linked in as an extra dependency module.
func resolveWithRuntime(t *testing.T, tpl *ShaderUnitTemplate, rt *testRuntime) *ShaderInstance {
	t.Helper()
	deps := append(append([]depModule(nil), tpl.deps...), depModule{mod: rt.mod})
	si, err := resolveModule(tpl.module, tpl.rootFuncName, deps,
		tpl.allowOptimization, tpl.allowVerification)
	if err != nil {
		t.Fatalf("resolve with runtime: %v", err)
	}
	return si
}

// closureNodeID reads the tag of a closure-tree node produced by the JIT.
func closureNodeID(p unsafe.Pointer) abi.ClosureID {
	return (*abi.ClosureTreeNodeBase)(p).ID
}
