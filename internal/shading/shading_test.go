package shading

import (
	"errors"
	"testing"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"tsl/internal/abi"
	"tsl/internal/closure"
	"tsl/internal/types"
)

func mustContext(t *testing.T) *ShadingContext {
	t.Helper()
	ctx, err := NewShadingContext()
	if err != nil {
		t.Fatalf("shading context: %v", err)
	}
	return ctx
}

func mustCompile(t *testing.T, ctx *ShadingContext, name, src string) *ShaderUnitTemplate {
	t.Helper()
	tpl := ctx.NewShaderUnitTemplate(name)
	if err := ctx.Compile(tpl, src); err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return tpl
}

// Scenario: a constant shader writes 3.5 into its only output.
func TestConstantShader(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "const_shader", `shader entry(out float o){ o = 3.5; }`)

	if args := tpl.ExposedArguments(); len(args) != 1 || !args[0].Output || args[0].Type != types.Float {
		t.Fatalf("exposed arguments = %+v", args)
	}

	si, err := ctx.ResolveShaderUnit(tpl)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()
	if si.FunctionPointer() == nil {
		t.Fatalf("no function pointer")
	}

	h := newHarness("h_const")
	o := h.outFloat("o")
	g := h.buffer("g", 64)
	h.call("entry", o, g)
	h.run(t, si)

	if got := h.readFloat(si, "o"); got != 3.5 {
		t.Fatalf("o = %v, want 3.5", got)
	}
}

// Repeated calls with equal inputs return the same bits.
func TestRepeatedCallsAreDeterministic(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "repeat", `
		shader entry(in float x, out float y){
			y = x * x + 1.0;
		}
	`)
	si, err := ctx.ResolveShaderUnit(tpl)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_repeat")
	a := h.outFloat("a")
	b := h.outFloat("b")
	g := h.buffer("g", 64)
	h.call("entry", h.floatConst(3), a, g)
	h.call("entry", h.floatConst(3), b, g)
	h.run(t, si)

	if x, y := h.readFloat(si, "a"), h.readFloat(si, "b"); x != y || x != 10 {
		t.Fatalf("calls diverged: %v vs %v", x, y)
	}
}

// Nested branches and loops lower into one well-formed CFG.
func TestControlFlowShader(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "flow", `
		shader entry(out float o){
			int flag = 1;
			int flag2 = 3;
			if( flag ){
				if( flag2 )
					flag = 0;
				int test = 0;
			}
			float acc = 0.0;
			for( int i = 0; i < 4; ++i ){
				acc += 2.0;
			}
			while( acc > 6.0 ) { acc = acc - 1.0; }
			o = acc + flag;
		}
	`)
	si, err := ctx.ResolveShaderUnit(tpl)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_flow")
	o := h.outFloat("o")
	g := h.buffer("g", 64)
	h.call("entry", o, g)
	h.run(t, si)

	if got := h.readFloat(si, "o"); got != 6 {
		t.Fatalf("o = %v, want 6", got)
	}
}

// Free functions lower before the shader root and are callable from it.
func TestFreeFunctionCall(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "fns", `
		float scale(float v, float k){ return v * k; }
		shader entry(out float o){ o = scale(2.5, 4.0); }
	`)
	si, err := ctx.ResolveShaderUnit(tpl)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_fns")
	o := h.outFloat("o")
	g := h.buffer("g", 64)
	h.call("entry", o, g)
	h.run(t, si)

	if got := h.readFloat(si, "o"); got != 10 {
		t.Fatalf("o = %v, want 10", got)
	}
}

// Scenario: closure emission. The first i32 of the node is the
// registered ID and the payload carries the constructor arguments.
func TestClosureEmission(t *testing.T) {
	ctx := mustContext(t)
	id, err := ctx.RegisterClosure("Lambert",
		[]closure.Field{{Name: "base_color", Type: types.Float3}}, 16)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id != 1 {
		t.Fatalf("first closure id = %d, want 1", id)
	}

	tpl := mustCompile(t, ctx, "lambert", `
		shader entry(out closure c){
			c = make_closure<Lambert>(float3(0.5,0.5,0.5));
		}
	`)

	schema, _ := ctx.Registry().Lookup("Lambert")
	rt := newTestRuntime(schema)
	si := resolveWithRuntime(t, tpl, rt)
	defer si.Dispose()

	h := newHarness("h_lambert")
	c := h.outPtr("c")
	g := h.buffer("g", 64)
	h.call("entry", c, g)
	h.run(t, si)

	node := h.readPtr(si, "c")
	if node == nil {
		t.Fatalf("closure output is null")
	}
	if got := closureNodeID(node); got != 1 {
		t.Fatalf("node id = %d, want 1", got)
	}
	color := *(*[3]float32)(unsafe.Add(node, 4))
	if color != [3]float32{0.5, 0.5, 0.5} {
		t.Fatalf("base_color = %v", color)
	}
}

// The closure algebra builds mul and add nodes with the reserved IDs and
// the pinned layout.
func TestClosureAlgebra(t *testing.T) {
	ctx := mustContext(t)
	if _, err := ctx.RegisterClosure("Lambert",
		[]closure.Field{{Name: "base_color", Type: types.Float3}}, 16); err != nil {
		t.Fatalf("register: %v", err)
	}

	tpl := mustCompile(t, ctx, "algebra", `
		shader entry(out closure c){
			closure a = make_closure<Lambert>(float3(1.0,1.0,1.0));
			closure b = make_closure<Lambert>(float3(0.0,0.0,0.0));
			c = a * 0.5 + b;
		}
	`)

	schema, _ := ctx.Registry().Lookup("Lambert")
	rt := newTestRuntime(schema)
	si := resolveWithRuntime(t, tpl, rt)
	defer si.Dispose()

	h := newHarness("h_algebra")
	c := h.outPtr("c")
	g := h.buffer("g", 64)
	h.call("entry", c, g)
	h.run(t, si)

	root := h.readPtr(si, "c")
	if closureNodeID(root) != abi.ClosureAdd {
		t.Fatalf("root id = %d, want %d", closureNodeID(root), abi.ClosureAdd)
	}
	add := (*abi.ClosureTreeNodeAdd)(root)
	left := unsafe.Pointer(add.Left)
	if closureNodeID(left) != abi.ClosureMul {
		t.Fatalf("left id = %d, want %d", closureNodeID(left), abi.ClosureMul)
	}
	mul := (*abi.ClosureTreeNodeMul)(left)
	if mul.Weight != 0.5 {
		t.Fatalf("weight = %v, want 0.5", mul.Weight)
	}
	if childID := closureNodeID(unsafe.Pointer(mul.Child)); childID != 1 {
		t.Fatalf("mul child id = %d, want 1", childID)
	}
	if rightID := closureNodeID(unsafe.Pointer(add.Right)); rightID != 1 {
		t.Fatalf("add right id = %d, want 1", rightID)
	}
}

func TestParseFailure(t *testing.T) {
	ctx := mustContext(t)
	tpl := ctx.NewShaderUnitTemplate("broken")
	err := ctx.Compile(tpl, `shader entry(out float o){ o = ; }`)
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("err = %v, want ErrParseFailed", err)
	}
	if tpl.Compiled() {
		t.Fatalf("failed compile still populated the template")
	}
}

func TestCodegenFailure(t *testing.T) {
	ctx := mustContext(t)
	tpl := ctx.NewShaderUnitTemplate("badsym")
	err := ctx.Compile(tpl, `shader entry(out float o){ o = missing; }`)
	if !errors.Is(err, ErrCodegenFailed) {
		t.Fatalf("err = %v, want ErrCodegenFailed", err)
	}
	if tpl.Compiled() {
		t.Fatalf("failed compile still populated the template")
	}
}

func TestUnregisteredClosure(t *testing.T) {
	ctx := mustContext(t)
	tpl := ctx.NewShaderUnitTemplate("orphan")
	err := ctx.Compile(tpl, `shader entry(out closure c){ c = make_closure<Nope>(); }`)
	if !errors.Is(err, ErrUnregisteredClosure) {
		t.Fatalf("err = %v, want ErrUnregisteredClosure", err)
	}
}

func TestResolveRequiresCompiledTemplate(t *testing.T) {
	ctx := mustContext(t)
	tpl := ctx.NewShaderUnitTemplate("empty")
	if _, err := ctx.ResolveShaderUnit(tpl); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("err = %v, want ErrInvalidTemplate", err)
	}
	if _, err := ctx.ResolveShaderUnit(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTemplateCompileOnce(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "once", `shader entry(out float o){ o = 1.0; }`)
	if err := ctx.Compile(tpl, `shader entry(out float o){ o = 2.0; }`); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("recompiling a template must fail, got %v", err)
	}
}

// Many instances of one template coexist; the template survives them.
func TestManyInstancesPerTemplate(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "multi", `shader entry(out float o){ o = 2.25; }`)

	for i := 0; i < 3; i++ {
		si, err := ctx.ResolveShaderUnit(tpl)
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		h := newHarness("h_multi")
		o := h.outFloat("o")
		g := h.buffer("g", 64)
		h.call("entry", o, g)
		h.run(t, si)
		if got := h.readFloat(si, "o"); got != 2.25 {
			t.Fatalf("instance %d: o = %v", i, got)
		}
		si.Dispose()
	}
}

// Scenario: 16 threads compile, resolve and call concurrently.
func TestConcurrentCompile(t *testing.T) {
	ctx := mustContext(t)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		name := string(rune('a'+i)) + "_unit"
		g.Go(func() error {
			tpl := ctx.NewShaderUnitTemplate(name)
			if err := ctx.Compile(tpl, `shader entry(out float o){ o = 3.5; }`); err != nil {
				return err
			}
			si, err := ctx.ResolveShaderUnit(tpl)
			if err != nil {
				return err
			}
			defer si.Dispose()

			h := newHarness("h_" + name)
			o := h.outFloat("o")
			gl := h.buffer("g", 64)
			h.call("entry", o, gl)
			h.run(t, si)
			if got := h.readFloat(si, "o"); got != 3.5 {
				t.Errorf("%s: o = %v, want 3.5", name, got)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent compile: %v", err)
	}
}
