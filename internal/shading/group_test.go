package shading

import (
	"errors"
	"testing"

	"tsl/internal/types"
)

const (
	mul2Src = `shader mul2(in float x, out float y){ y = x * 2.0; }`
	add3Src = `shader add3(in float x, out float y){ y = x + 3.0; }`
)

// Scenario: group wiring. mul2 feeds add3; input 4 becomes 11.
func TestGroupWiring(t *testing.T) {
	ctx := mustContext(t)
	mul2 := mustCompile(t, ctx, "mul2", mul2Src)
	add3 := mustCompile(t, ctx, "add3", add3Src)

	g := ctx.NewShaderGroupTemplate("chain")
	if err := g.AddUnit("mul2", mul2); err != nil {
		t.Fatalf("add mul2: %v", err)
	}
	if err := g.AddUnit("add3", add3); err != nil {
		t.Fatalf("add add3: %v", err)
	}
	if err := g.Connect("mul2", "y", "add3", "x"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := g.ExposeInput("mul2", "x", 0); err != nil {
		t.Fatalf("expose input: %v", err)
	}
	if err := g.ExposeOutput("add3", "y", 1); err != nil {
		t.Fatalf("expose output: %v", err)
	}
	g.SetRoot("add3")

	si, err := ctx.ResolveShaderGroup(g)
	if err != nil {
		t.Fatalf("resolve group: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_chain")
	out := h.outFloat("out")
	gl := h.buffer("g", 64)
	h.call(g.WrapperName(), h.floatConst(4), out, gl)
	h.run(t, si)

	if got := h.readFloat(si, "out"); got != 11 {
		t.Fatalf("out = %v, want 11", got)
	}
}

// Scenario: default injection. Dropping the connection and defaulting
// add3.x to 7 yields 10.
func TestGroupDefaultInjection(t *testing.T) {
	ctx := mustContext(t)
	mul2 := mustCompile(t, ctx, "mul2", mul2Src)
	add3 := mustCompile(t, ctx, "add3", add3Src)

	g := ctx.NewShaderGroupTemplate("defaulted")
	if err := g.AddUnit("mul2", mul2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddUnit("add3", add3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.SetDefault("add3", "x", types.FloatValue(7)); err != nil {
		t.Fatalf("default: %v", err)
	}
	if err := g.ExposeInput("mul2", "x", 0); err != nil {
		t.Fatalf("expose: %v", err)
	}
	if err := g.ExposeOutput("add3", "y", 1); err != nil {
		t.Fatalf("expose: %v", err)
	}
	g.SetRoot("add3")

	si, err := ctx.ResolveShaderGroup(g)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_default")
	out := h.outFloat("out")
	gl := h.buffer("g", 64)
	h.call(g.WrapperName(), h.floatConst(4), out, gl)
	h.run(t, si)

	if got := h.readFloat(si, "out"); got != 10 {
		t.Fatalf("out = %v, want 10", got)
	}
}

// A one-unit group with only exposures behaves like the unit itself.
func TestSingleUnitGroupEquivalence(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "mul2", mul2Src)

	direct, err := ctx.ResolveShaderUnit(tpl)
	if err != nil {
		t.Fatalf("resolve unit: %v", err)
	}
	defer direct.Dispose()

	hd := newHarness("h_direct")
	od := hd.outFloat("o")
	gd := hd.buffer("g", 64)
	hd.call("mul2", hd.floatConst(21), od, gd)
	hd.run(t, direct)

	g := ctx.NewShaderGroupTemplate("solo")
	if err := g.AddUnit("m", tpl); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.ExposeInput("m", "x", 0); err != nil {
		t.Fatalf("expose: %v", err)
	}
	if err := g.ExposeOutput("m", "y", 1); err != nil {
		t.Fatalf("expose: %v", err)
	}
	g.SetRoot("m")

	grouped, err := ctx.ResolveShaderGroup(g)
	if err != nil {
		t.Fatalf("resolve group: %v", err)
	}
	defer grouped.Dispose()

	hg := newHarness("h_grouped")
	og := hg.outFloat("o")
	gg := hg.buffer("g", 64)
	hg.call(g.WrapperName(), hg.floatConst(21), og, gg)
	hg.run(t, grouped)

	if a, b := hd.readFloat(direct, "o"), hg.readFloat(grouped, "o"); a != b || a != 42 {
		t.Fatalf("direct %v vs grouped %v, want 42", a, b)
	}
}

// A template instantiated under two names is two independent nodes.
func TestTemplateUnderTwoInstanceNames(t *testing.T) {
	ctx := mustContext(t)
	mul2 := mustCompile(t, ctx, "mul2", mul2Src)

	g := ctx.NewShaderGroupTemplate("twice")
	if err := g.AddUnit("first", mul2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddUnit("second", mul2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.Connect("first", "y", "second", "x"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := g.ExposeInput("first", "x", 0); err != nil {
		t.Fatalf("expose: %v", err)
	}
	if err := g.ExposeOutput("second", "y", 1); err != nil {
		t.Fatalf("expose: %v", err)
	}
	g.SetRoot("second")

	si, err := ctx.ResolveShaderGroup(g)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_twice")
	out := h.outFloat("out")
	gl := h.buffer("g", 64)
	h.call(g.WrapperName(), h.floatConst(3), out, gl)
	h.run(t, si)

	if got := h.readFloat(si, "out"); got != 12 {
		t.Fatalf("out = %v, want 3*2*2 = 12", got)
	}
}

// Scenario: cycle rejection, both self-connection and length two.
func TestGroupCycleRejection(t *testing.T) {
	ctx := mustContext(t)
	f := mustCompile(t, ctx, "ident", `shader f(in float x, out float y){ y = x; }`)

	g := ctx.NewShaderGroupTemplate("looped")
	if err := g.AddUnit("f1", f); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddUnit("f2", f); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.Connect("f1", "y", "f2", "x"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := g.Connect("f2", "y", "f1", "x"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	g.SetRoot("f1")

	if _, err := ctx.ResolveShaderGroup(g); !errors.Is(err, ErrGroupCycle) {
		t.Fatalf("err = %v, want ErrGroupCycle", err)
	}
	if g.linked {
		t.Fatalf("cycle left a partial module behind")
	}

	self := ctx.NewShaderGroupTemplate("selfloop")
	if err := self.AddUnit("f1", f); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := self.Connect("f1", "y", "f1", "x"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	self.SetRoot("f1")
	if _, err := ctx.ResolveShaderGroup(self); !errors.Is(err, ErrGroupCycle) {
		t.Fatalf("self-connection err = %v, want ErrGroupCycle", err)
	}
}

func TestGroupWithoutRoot(t *testing.T) {
	ctx := mustContext(t)
	tpl := mustCompile(t, ctx, "mul2", mul2Src)

	g := ctx.NewShaderGroupTemplate("rootless")
	if err := g.AddUnit("m", tpl); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ctx.ResolveShaderGroup(g); !errors.Is(err, ErrGroupWithoutRoot) {
		t.Fatalf("err = %v, want ErrGroupWithoutRoot", err)
	}

	g.SetRoot("phantom")
	if _, err := ctx.ResolveShaderGroup(g); !errors.Is(err, ErrGroupWithoutRoot) {
		t.Fatalf("unknown root err = %v, want ErrGroupWithoutRoot", err)
	}
}

func TestGroupValidationErrors(t *testing.T) {
	ctx := mustContext(t)
	mul2 := mustCompile(t, ctx, "mul2", mul2Src)
	intsrc := mustCompile(t, ctx, "ints", `shader ints(in int n, out int m){ m = n; }`)

	g := ctx.NewShaderGroupTemplate("invalid")
	if err := g.AddUnit("m", mul2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddUnit("i", intsrc); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := g.Connect("ghost", "y", "m", "x"); !errors.Is(err, ErrUndefinedShaderUnit) {
		t.Fatalf("unknown src err = %v", err)
	}
	if err := g.Connect("m", "x", "i", "n"); !errors.Is(err, ErrInvalidArgType) {
		t.Fatalf("input-as-source err = %v", err)
	}
	if err := g.Connect("m", "y", "i", "n"); !errors.Is(err, ErrInvalidArgType) {
		t.Fatalf("float-to-int err = %v", err)
	}
	if err := g.SetDefault("m", "x", types.IntValue(1)); !errors.Is(err, ErrInvalidArgType) {
		t.Fatalf("mistyped default err = %v", err)
	}
	if err := g.ExposeOutput("m", "x", 0); !errors.Is(err, ErrInvalidArgType) {
		t.Fatalf("input exposed as output err = %v", err)
	}
}

// An input that is neither connected, exposed, nor defaulted fails with
// the full (group, instance, argument) coordinates.
func TestGroupArgumentWithoutInitialization(t *testing.T) {
	ctx := mustContext(t)
	add3 := mustCompile(t, ctx, "add3", add3Src)

	g := ctx.NewShaderGroupTemplate("bare")
	if err := g.AddUnit("a", add3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.ExposeOutput("a", "y", 0); err != nil {
		t.Fatalf("expose: %v", err)
	}
	g.SetRoot("a")

	_, err := ctx.ResolveShaderGroup(g)
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("err = %v, want ArgumentError", err)
	}
	if argErr.Group != "bare" || argErr.Instance != "a" || argErr.Arg != "x" {
		t.Fatalf("coordinates = %+v", argErr)
	}
}

// A shader-argument default from the source is the last fallback.
func TestGroupUsesArgumentDefaultFromSource(t *testing.T) {
	ctx := mustContext(t)
	unit := mustCompile(t, ctx, "defarg", `shader defarg(in float k = 5.0, out float y){ y = k * 2.0; }`)

	g := ctx.NewShaderGroupTemplate("srcdef")
	if err := g.AddUnit("u", unit); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.ExposeOutput("u", "y", 0); err != nil {
		t.Fatalf("expose: %v", err)
	}
	g.SetRoot("u")

	si, err := ctx.ResolveShaderGroup(g)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer si.Dispose()

	h := newHarness("h_srcdef")
	out := h.outFloat("out")
	gl := h.buffer("g", 64)
	h.call(g.WrapperName(), out, gl)
	h.run(t, si)

	if got := h.readFloat(si, "out"); got != 10 {
		t.Fatalf("out = %v, want 10", got)
	}
}
