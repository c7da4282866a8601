package llvm

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/ast"
	"tsl/internal/closure"
	"tsl/internal/diag"
	"tsl/internal/source"
	"tsl/internal/types"
)

// runtime math helpers the host links in; every shader module carries the
// same prototypes.
var runtimeMathDecls = []struct {
	name string
	args int
}{
	{"tsl_sin", 1},
	{"tsl_cos", 1},
	{"tsl_tan", 1},
	{"tsl_sqrt", 1},
	{"tsl_fabs", 1},
	{"tsl_floor", 1},
	{"tsl_exp", 1},
	{"tsl_log", 1},
	{"tsl_pow", 2},
	{"tsl_fmod", 2},
	{"tsl_min", 2},
	{"tsl_max", 2},
	{"tsl_lerp", 3},
}

// DeclareGlobalModule materializes the shared IR surface inside this
// context's module: the closure-tree node types, the built-in vector and
// matrix structs, the opaque tsl_global struct, the host allocator and
// the runtime math prototypes.
func (c *Context) DeclareGlobalModule() {
	c.closureBaseType()
	c.closureAddType()
	c.closureMulType()
	c.float3Type()
	c.float4Type()
	c.matrixType()
	c.globalStructType()

	// ptr tsl_malloc(i32)
	i8p := llvm.PointerType(c.LL.Int8Type(), 0)
	allocTy := llvm.FunctionType(i8p, []llvm.Type{c.LL.Int32Type()}, false)
	c.allocTy = allocTy
	c.allocFn = llvm.AddFunction(c.Module, closure.AllocatorName, allocTy)

	f := c.LL.FloatType()
	for _, decl := range runtimeMathDecls {
		args := make([]llvm.Type, decl.args)
		for i := range args {
			args[i] = f
		}
		fnTy := llvm.FunctionType(f, args, false)
		fn := llvm.AddFunction(c.Module, decl.name, fnTy)
		c.funcs[decl.name[len("tsl_"):]] = FuncInfo{
			Fn:   fn,
			FnTy: fnTy,
			Ret:  types.Float,
			Params: func(n int) []ast.Param {
				ps := make([]ast.Param, n)
				for i := range ps {
					ps[i] = ast.Param{Type: types.Float}
				}
				return ps
			}(decl.args),
		}
	}
}

// DeclareTouchedClosures declares the constructor of every closure the
// shader references. An unregistered name fails the compile.
func (c *Context) DeclareTouchedClosures(names []string) bool {
	for _, name := range names {
		schema, ok := c.Registry.Lookup(name)
		if !ok {
			c.errf(diag.GenUnregisteredClosure, source.Span{},
				"closure %q was never registered", name)
			return false
		}
		params := make([]llvm.Type, 0, len(schema.Fields))
		fparams := make([]ast.Param, 0, len(schema.Fields))
		for _, field := range schema.Fields {
			params = append(params, c.abiParamType(field.Type, "", false))
			fparams = append(fparams, ast.Param{Name: field.Name, Type: field.Type})
		}
		fnTy := llvm.FunctionType(c.closurePtrType(), params, false)
		fn := llvm.AddFunction(c.Module, closure.ConstructorName(name), fnTy)
		c.closures[name] = FuncInfo{
			Fn:     fn,
			FnTy:   fnTy,
			Ret:    types.Closure,
			Params: fparams,
		}
	}
	return true
}

// EmitGlobalVar lowers a module-scope variable with a constant
// initializer and registers it in the outermost scope.
func (c *Context) EmitGlobalVar(id ast.GlobalID) {
	g := c.B.Global(id)
	if g == nil {
		return
	}
	vt := c.lowerType(g.Type, g.StructName)
	gv := llvm.AddGlobal(c.Module, vt, g.Name)

	init := llvm.ConstNull(vt)
	if g.Init.IsValid() {
		folded, ok := c.constValue(g.Init, g.Type)
		if !ok {
			c.errf(diag.GenError, g.Span,
				"global %q requires a constant initializer", g.Name)
			return
		}
		init = folded
	}
	gv.SetInitializer(init)
	c.DefineVar(g.Name, VarSym{Ptr: gv, Type: g.Type, StructName: g.StructName}, g.Span)
}

// constValue folds a literal expression, or a float3/float4 constructor of
// literals, into an IR constant of the target type.
func (c *Context) constValue(id ast.ExprID, want types.DataType) (llvm.Value, bool) {
	e := c.B.Expr(id)
	if e == nil {
		return llvm.Value{}, false
	}
	switch e.Kind {
	case ast.ExprIntLit:
		switch want {
		case types.Int:
			return llvm.ConstInt(c.LL.Int32Type(), uint64(e.IntVal), true), true
		case types.Float:
			return llvm.ConstFloat(c.LL.FloatType(), float64(e.IntVal)), true
		case types.Double:
			return llvm.ConstFloat(c.LL.DoubleType(), float64(e.IntVal)), true
		case types.Bool:
			return llvm.ConstInt(c.LL.Int1Type(), boolBit(e.IntVal != 0), false), true
		}
	case ast.ExprFloatLit, ast.ExprDoubleLit:
		switch want {
		case types.Float:
			return llvm.ConstFloat(c.LL.FloatType(), e.FloatVal), true
		case types.Double:
			return llvm.ConstFloat(c.LL.DoubleType(), e.FloatVal), true
		}
	case ast.ExprBoolLit:
		if want == types.Bool {
			return llvm.ConstInt(c.LL.Int1Type(), boolBit(e.BoolVal), false), true
		}
	case ast.ExprConstruct:
		if want == e.Type && len(e.Args) == int(componentCount(e.Type)) {
			fields := make([]llvm.Value, 0, len(e.Args))
			for _, arg := range e.Args {
				fv, ok := c.constValue(arg, types.Float)
				if !ok {
					return llvm.Value{}, false
				}
				fields = append(fields, fv)
			}
			return llvm.ConstNamedStruct(c.lowerType(e.Type, ""), fields), true
		}
	}
	return llvm.Value{}, false
}

func componentCount(t types.DataType) uint32 {
	if t == types.Float4 {
		return 4
	}
	return 3
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
