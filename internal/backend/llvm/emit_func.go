package llvm

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/types"
)

// ExtractArguments converts a shader's parameter list into the exposed
// argument list stored on its template, folding literal defaults.
func (c *Context) ExtractArguments(fn *ast.Function) []types.ShaderArgument {
	args := make([]types.ShaderArgument, 0, len(fn.Params))
	for _, p := range fn.Params {
		arg := types.ShaderArgument{
			Name:   p.Name,
			Type:   p.Type,
			Output: p.Output,
		}
		if p.Default.IsValid() {
			if v, ok := c.foldDefault(p.Default, p.Type); ok {
				arg.Default = &v
			} else {
				c.errf(diag.GenError, p.Span,
					"default of argument %q is not a literal of type %s", p.Name, p.Type)
			}
		}
		args = append(args, arg)
	}
	return args
}

func (c *Context) foldDefault(id ast.ExprID, want types.DataType) (types.Value, bool) {
	e := c.B.Expr(id)
	if e == nil {
		return types.Value{}, false
	}
	switch e.Kind {
	case ast.ExprIntLit:
		switch want {
		case types.Int:
			return types.IntValue(e.IntVal), true
		case types.Float:
			return types.FloatValue(float64(e.IntVal)), true
		case types.Double:
			return types.DoubleValue(float64(e.IntVal)), true
		}
	case ast.ExprFloatLit, ast.ExprDoubleLit:
		switch want {
		case types.Float:
			return types.FloatValue(e.FloatVal), true
		case types.Double:
			return types.DoubleValue(e.FloatVal), true
		}
	case ast.ExprBoolLit:
		if want == types.Bool {
			return types.BoolValue(e.BoolVal), true
		}
	case ast.ExprConstruct:
		comps := make([]float32, 0, 4)
		for _, arg := range e.Args {
			ae := c.B.Expr(arg)
			switch {
			case ae == nil:
				return types.Value{}, false
			case ae.Kind == ast.ExprFloatLit || ae.Kind == ast.ExprDoubleLit:
				comps = append(comps, float32(ae.FloatVal))
			case ae.Kind == ast.ExprIntLit:
				comps = append(comps, float32(ae.IntVal))
			default:
				return types.Value{}, false
			}
		}
		if want == types.Float3 && e.Type == types.Float3 && len(comps) == 3 {
			return types.Float3Value(comps[0], comps[1], comps[2]), true
		}
		if want == types.Float4 && e.Type == types.Float4 && len(comps) == 4 {
			return types.Float4Value(comps[0], comps[1], comps[2], comps[3]), true
		}
	}
	return types.Value{}, false
}

// ShaderFunctionType lowers an exposed-argument list into the external
// shader ABI: outputs and aggregates by pointer, scalar inputs by value,
// then the trailing tsl_global pointer. The group linker uses the same
// lowering when it re-declares unit signatures.
func (c *Context) ShaderFunctionType(args []types.ShaderArgument) llvm.Type {
	params := make([]llvm.Type, 0, len(args)+1)
	for _, a := range args {
		params = append(params, c.abiParamType(a.Type, "", a.Output))
	}
	params = append(params, c.globalPtrType())
	return llvm.FunctionType(c.LL.VoidType(), params, false)
}

// DeclareShader declares (or returns) the external prototype for a shader
// root function in this module.
func (c *Context) DeclareShader(name string, args []types.ShaderArgument) (llvm.Value, llvm.Type) {
	fnTy := c.ShaderFunctionType(args)
	if fn := c.Module.NamedFunction(name); !fn.IsNil() {
		return fn, fnTy
	}
	return llvm.AddFunction(c.Module, name, fnTy), fnTy
}

// EmitShader lowers the shader entry: external linkage, ABI per
// ShaderFunctionType, arguments bound into the root scope.
func (c *Context) EmitShader(fnID ast.FuncID) (llvm.Value, bool) {
	fn := c.B.Func(fnID)
	if fn == nil {
		return llvm.Value{}, false
	}
	args := c.ExtractArguments(fn)
	llfn, _ := c.DeclareShader(fn.Name, args)

	entry := c.LL.AddBasicBlock(llfn, "entry")
	c.Builder.SetInsertPointAtEnd(entry)
	c.curFunc = llfn
	c.curRet = types.Void

	c.PushVarSymbolLayer()
	defer c.PopVarSymbolLayer()

	for i, p := range fn.Params {
		param := llfn.Param(i)
		param.SetName(p.Name)
		sym := VarSym{Type: p.Type, StructName: p.StructName}
		if p.Output || p.Type.IsAggregate() {
			// already a pointer into caller storage
			sym.Ptr = param
		} else {
			vt := c.lowerType(p.Type, p.StructName)
			slot := c.Builder.CreateAlloca(vt, p.Name+".addr")
			c.Builder.CreateStore(param, slot)
			sym.Ptr = slot
		}
		c.DefineVar(p.Name, sym, p.Span)
	}
	llfn.Param(len(fn.Params)).SetName("tsl_global")

	c.emitStmt(fn.Body)

	if !c.blockTerminated() {
		c.Builder.CreateRetVoid()
	}
	return llfn, !c.failed
}

// EmitFunction lowers a free function: internal linkage, every parameter
// by value, direct return.
func (c *Context) EmitFunction(fnID ast.FuncID) (llvm.Value, bool) {
	fn := c.B.Func(fnID)
	if fn == nil {
		return llvm.Value{}, false
	}
	if _, exists := c.funcs[fn.Name]; exists {
		c.errf(diag.GenDuplicateSymbol, fn.Span, "function %q already defined", fn.Name)
		return llvm.Value{}, false
	}

	params := make([]llvm.Type, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, c.lowerType(p.Type, p.StructName))
	}
	retTy := c.lowerType(fn.ReturnType, fn.ReturnStruct)
	fnTy := llvm.FunctionType(retTy, params, false)
	llfn := llvm.AddFunction(c.Module, fn.Name, fnTy)
	llfn.SetLinkage(llvm.InternalLinkage)
	c.funcs[fn.Name] = FuncInfo{
		Fn:        llfn,
		FnTy:      fnTy,
		Ret:       fn.ReturnType,
		RetStruct: fn.ReturnStruct,
		Params:    fn.Params,
	}

	entry := c.LL.AddBasicBlock(llfn, "entry")
	c.Builder.SetInsertPointAtEnd(entry)
	c.curFunc = llfn
	c.curRet = fn.ReturnType

	c.PushVarSymbolLayer()
	defer c.PopVarSymbolLayer()

	for i, p := range fn.Params {
		param := llfn.Param(i)
		param.SetName(p.Name)
		vt := c.lowerType(p.Type, p.StructName)
		slot := c.Builder.CreateAlloca(vt, p.Name+".addr")
		c.Builder.CreateStore(param, slot)
		c.DefineVar(p.Name, VarSym{Ptr: slot, Type: p.Type, StructName: p.StructName}, p.Span)
	}

	c.emitStmt(fn.Body)

	if !c.blockTerminated() {
		if fn.ReturnType == types.Void {
			c.Builder.CreateRetVoid()
		} else {
			c.errf(diag.GenMissingReturn, fn.Span,
				"function %q can fall off its end without returning %s",
				fn.Name, describe(fn.ReturnType, fn.ReturnStruct))
		}
	}
	return llfn, !c.failed
}
