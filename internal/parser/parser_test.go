package parser

import (
	"testing"

	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/lexer"
	"tsl/internal/source"
	"tsl/internal/testkit"
	"tsl/internal/types"
)

// stubSink records parser callbacks the way the compile driver does.
type stubSink struct {
	shader    ast.FuncID
	functions []ast.FuncID
	structs   []ast.StructID
	globals   []ast.GlobalID
	closures  []string
	typeCache types.DataType
	strings   *source.Interner
}

func newStubSink() *stubSink {
	return &stubSink{strings: source.NewInterner()}
}

func (s *stubSink) PushFunction(fn ast.FuncID, isShader bool) {
	if isShader {
		s.shader = fn
		return
	}
	s.functions = append(s.functions, fn)
}
func (s *stubSink) PushStructure(st ast.StructID)      { s.structs = append(s.structs, st) }
func (s *stubSink) PushGlobalParameter(g ast.GlobalID) { s.globals = append(s.globals, g) }
func (s *stubSink) ClosureTouched(name string)         { s.closures = append(s.closures, name) }
func (s *stubSink) CacheDataType(t types.DataType)     { s.typeCache = t }
func (s *stubSink) DataTypeCache() types.DataType      { return s.typeCache }
func (s *stubSink) ClaimPermanentAddress(v string) string {
	return s.strings.Canonical(v)
}

func parseSrc(t *testing.T, src string) (*stubSink, *ast.Builder, *diag.Bag, bool) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.tsl", src)
	reporter := diag.NewBagReporter(32)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
	sink := newStubSink()
	b := ast.NewBuilder()
	ok := ParseSource(lx, b, sink, Options{MaxErrors: 16, Reporter: reporter})
	return sink, b, reporter.Bag, ok
}

func TestParseShaderEntry(t *testing.T) {
	sink, b, bag, ok := parseSrc(t, `shader entry(in float x, out float y){ y = x * 2.0; }`)
	if !ok || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	if !sink.shader.IsValid() {
		t.Fatalf("shader entry not pushed as root")
	}
	fn := b.Func(sink.shader)
	if fn.Name != "entry" || !fn.IsShader {
		t.Fatalf("root = %+v", fn)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("param count = %d", len(fn.Params))
	}
	if fn.Params[0].Output || fn.Params[0].Type != types.Float {
		t.Fatalf("param 0 = %+v", fn.Params[0])
	}
	if !fn.Params[1].Output {
		t.Fatalf("out qualifier lost")
	}
}

func TestParseArgumentDefaults(t *testing.T) {
	sink, b, _, ok := parseSrc(t, `shader s(in float w = 1.5, out float o){ o = w; }`)
	if !ok {
		t.Fatalf("parse failed")
	}
	fn := b.Func(sink.shader)
	def := fn.Params[0].Default
	if !def.IsValid() {
		t.Fatalf("default literal dropped")
	}
	if e := b.Expr(def); e.Kind != ast.ExprFloatLit || e.FloatVal != 1.5 {
		t.Fatalf("default = %+v", e)
	}
}

func TestParseStructAndGlobal(t *testing.T) {
	sink, b, bag, ok := parseSrc(t, `
		struct Material {
			float3 base;
			float  roughness;
		};
		float intensity = 2.0;
		int mode, flags;
	`)
	if !ok || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	if len(sink.structs) != 1 {
		t.Fatalf("structs = %d", len(sink.structs))
	}
	st := b.Struct(sink.structs[0])
	if st.Name != "Material" || len(st.Fields) != 2 || st.Fields[0].Type != types.Float3 {
		t.Fatalf("struct = %+v", st)
	}
	if len(sink.globals) != 3 {
		t.Fatalf("globals = %d, want 3 (one + declarator pair)", len(sink.globals))
	}
	if g := b.Global(sink.globals[2]); g.Name != "flags" || g.Type != types.Int {
		t.Fatalf("declarator list type lost: %+v", g)
	}
}

func TestParseMakeClosure(t *testing.T) {
	sink, b, _, ok := parseSrc(t,
		`shader s(out closure c){ c = make_closure<Lambert>(float3(0.5,0.5,0.5)); }`)
	if !ok {
		t.Fatalf("parse failed")
	}
	if len(sink.closures) != 1 || sink.closures[0] != "Lambert" {
		t.Fatalf("closure touch list = %v", sink.closures)
	}
	// the shader holding the make_closure call is still the root
	fn := b.Func(sink.shader)
	if fn == nil {
		t.Fatalf("missing root")
	}
}

func TestParseControlFlow(t *testing.T) {
	_, _, bag, ok := parseSrc(t, `
		shader f(){
			int flag = 1;
			int flag2 = 3;
			if( flag ){
				if( flag2 )
					flag = 0;
				int test = 0;
			}
			if( !flag ){
			}else
			{
				int k = 0;
			}
			for( int i = 0; i < 4; ++i ){
				flag += i;
			}
			while( flag > 0 ) { flag = flag - 1; }
			do { flag = flag + 1; } while( flag < 2 );
		}
	`)
	if !ok || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
}

func TestParseFreeFunction(t *testing.T) {
	sink, b, _, ok := parseSrc(t, `
		float scale(float v){ return v * 2.0; }
		shader s(out float o){ o = scale(2.0); }
	`)
	if !ok {
		t.Fatalf("parse failed")
	}
	if len(sink.functions) != 1 {
		t.Fatalf("functions = %d", len(sink.functions))
	}
	fn := b.Func(sink.functions[0])
	if fn.IsShader || fn.ReturnType != types.Float {
		t.Fatalf("function = %+v", fn)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	_, _, bag, ok := parseSrc(t, `
		shader broken(out float o){ o = ; }
		float valid = 1.0;
	`)
	if ok {
		t.Fatalf("parse of broken source reported success")
	}
	if !bag.HasErrors() {
		t.Fatalf("no diagnostics recorded")
	}
}

func TestParseRejectsVoidVariable(t *testing.T) {
	_, _, bag, ok := parseSrc(t, `shader s(){ void v; }`)
	if ok || !bag.HasErrors() {
		t.Fatalf("void local accepted")
	}
}

func TestShaderSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("inv.tsl", `shader entry(in float x, out float y){ y = x; }`)
	reporter := diag.NewBagReporter(8)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
	sink := newStubSink()
	b := ast.NewBuilder()
	if !ParseSource(lx, b, sink, Options{Reporter: reporter}) {
		t.Fatalf("parse failed: %v", reporter.Bag.Items())
	}
	if err := testkit.CheckShaderInvariants(b, sink.shader, fs.Get(id)); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
}

func TestParseStructTypedLocal(t *testing.T) {
	_, _, bag, ok := parseSrc(t, `
		struct Material { float r; };
		shader s(out float o){
			Material m;
			m.r = 0.25;
			o = m.r;
		}
	`)
	if !ok || bag.HasErrors() {
		t.Fatalf("struct-typed local rejected: %v", bag.Items())
	}
}
