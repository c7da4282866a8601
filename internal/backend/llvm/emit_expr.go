package llvm

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/abi"
	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/source"
	"tsl/internal/token"
	"tsl/internal/types"
)

// emitExpr lowers one expression to an SSA value.
func (c *Context) emitExpr(id ast.ExprID) (value, bool) {
	e := c.B.Expr(id)
	if e == nil {
		return value{}, false
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return value{v: llvm.ConstInt(c.LL.Int32Type(), uint64(e.IntVal), true), t: types.Int}, true
	case ast.ExprFloatLit:
		return value{v: llvm.ConstFloat(c.LL.FloatType(), e.FloatVal), t: types.Float}, true
	case ast.ExprDoubleLit:
		return value{v: llvm.ConstFloat(c.LL.DoubleType(), e.FloatVal), t: types.Double}, true
	case ast.ExprBoolLit:
		return value{v: llvm.ConstInt(c.LL.Int1Type(), boolBit(e.BoolVal), false), t: types.Bool}, true
	case ast.ExprIdent:
		sym, ok := c.LookupVar(e.Name)
		if !ok {
			c.errf(diag.GenUnresolvedSymbol, e.Span, "unknown symbol %q", e.Name)
			return value{}, false
		}
		vt := c.lowerType(sym.Type, sym.StructName)
		loaded := c.Builder.CreateLoad(vt, sym.Ptr, e.Name)
		return value{v: loaded, t: sym.Type, structName: sym.StructName}, true
	case ast.ExprUnary:
		return c.emitUnary(e)
	case ast.ExprBinary:
		return c.emitBinary(e)
	case ast.ExprAssign:
		return c.emitAssign(e)
	case ast.ExprCond:
		return c.emitCond(e)
	case ast.ExprCall:
		return c.emitCall(e)
	case ast.ExprMember:
		return c.emitMember(e)
	case ast.ExprConstruct:
		return c.emitConstruct(e)
	case ast.ExprMakeClosure:
		return c.emitMakeClosure(e)
	}
	c.errf(diag.GenError, e.Span, "cannot lower expression")
	return value{}, false
}

// emitLValue resolves an assignable location.
func (c *Context) emitLValue(id ast.ExprID) (VarSym, bool) {
	e := c.B.Expr(id)
	if e == nil {
		return VarSym{}, false
	}
	switch e.Kind {
	case ast.ExprIdent:
		sym, ok := c.LookupVar(e.Name)
		if !ok {
			c.errf(diag.GenUnresolvedSymbol, e.Span, "unknown symbol %q", e.Name)
			return VarSym{}, false
		}
		return sym, true
	case ast.ExprMember:
		base, ok := c.emitLValue(e.X)
		if !ok {
			return VarSym{}, false
		}
		return c.memberSlot(base, e)
	}
	c.errf(diag.GenNotAssignable, e.Span, "expression is not assignable")
	return VarSym{}, false
}

// memberSlot computes the address of a struct field or vector lane.
func (c *Context) memberSlot(base VarSym, e *ast.Expr) (VarSym, bool) {
	switch base.Type {
	case types.Struct:
		info, ok := c.structInfo(base.StructName, e.Span)
		if !ok {
			return VarSym{}, false
		}
		idx, ok := info.FieldIndex(e.Name)
		if !ok {
			c.errf(diag.GenUnknownStructField, e.Span,
				"structure %q has no member %q", base.StructName, e.Name)
			return VarSym{}, false
		}
		field := info.Fields[idx]
		ptr := c.Builder.CreateStructGEP(info.LL, base.Ptr, idx, e.Name)
		return VarSym{Ptr: ptr, Type: field.Type, StructName: field.StructName}, true
	case types.Float3, types.Float4:
		lane, ok := vectorLane(e.Name)
		limit := 3
		if base.Type == types.Float4 {
			limit = 4
		}
		if !ok || lane >= limit {
			c.errf(diag.GenBadSwizzle, e.Span,
				"%s has no component %q", base.Type, e.Name)
			return VarSym{}, false
		}
		vt := c.lowerType(base.Type, "")
		ptr := c.Builder.CreateStructGEP(vt, base.Ptr, lane, e.Name)
		return VarSym{Ptr: ptr, Type: types.Float}, true
	}
	c.errf(diag.GenUnknownStructField, e.Span,
		"%s has no members", describe(base.Type, base.StructName))
	return VarSym{}, false
}

func vectorLane(name string) (int, bool) {
	switch name {
	case "x", "r":
		return 0, true
	case "y", "g":
		return 1, true
	case "z", "b":
		return 2, true
	case "w", "a":
		return 3, true
	}
	return 0, false
}

func (c *Context) emitMember(e *ast.Expr) (value, bool) {
	// lower addressable bases through their slot so struct fields and
	// vector lanes share one path with assignment
	if x := c.B.Expr(e.X); x != nil && (x.Kind == ast.ExprIdent || x.Kind == ast.ExprMember) {
		base, ok := c.emitLValue(e.X)
		if !ok {
			return value{}, false
		}
		slot, ok := c.memberSlot(base, e)
		if !ok {
			return value{}, false
		}
		vt := c.lowerType(slot.Type, slot.StructName)
		loaded := c.Builder.CreateLoad(vt, slot.Ptr, e.Name)
		return value{v: loaded, t: slot.Type, structName: slot.StructName}, true
	}
	// rvalue base (e.g. float3(...).x): spill to a temporary
	bv, ok := c.emitExpr(e.X)
	if !ok {
		return value{}, false
	}
	vt := c.lowerType(bv.t, bv.structName)
	tmp := c.Builder.CreateAlloca(vt, "member.tmp")
	c.Builder.CreateStore(bv.v, tmp)
	slot, ok := c.memberSlot(VarSym{Ptr: tmp, Type: bv.t, StructName: bv.structName}, e)
	if !ok {
		return value{}, false
	}
	loaded := c.Builder.CreateLoad(c.lowerType(slot.Type, slot.StructName), slot.Ptr, e.Name)
	return value{v: loaded, t: slot.Type, structName: slot.StructName}, true
}

func (c *Context) emitUnary(e *ast.Expr) (value, bool) {
	operand, ok := c.emitExpr(e.X)
	if !ok {
		return value{}, false
	}
	switch e.Op {
	case token.Minus:
		switch operand.t {
		case types.Int:
			return value{v: c.Builder.CreateNeg(operand.v, "neg"), t: types.Int}, true
		case types.Float, types.Double:
			return value{v: c.Builder.CreateFNeg(operand.v, "fneg"), t: operand.t}, true
		}
	case token.Bang:
		cond, ok := c.truthy(operand, e.Span)
		if !ok {
			return value{}, false
		}
		return value{v: c.Builder.CreateNot(cond, "not"), t: types.Bool}, true
	case token.Tilde:
		if operand.t == types.Int {
			return value{v: c.Builder.CreateNot(operand.v, "bnot"), t: types.Int}, true
		}
	}
	c.errf(diag.GenInvalidOperands, e.Span,
		"operator %s cannot apply to %s", e.Op, describe(operand.t, operand.structName))
	return value{}, false
}

// scalarRank orders the implicit promotion chain bool < int < float < double.
func scalarRank(t types.DataType) int {
	switch t {
	case types.Bool:
		return 0
	case types.Int:
		return 1
	case types.Float:
		return 2
	case types.Double:
		return 3
	}
	return -1
}

// convertScalar converts a scalar value to another scalar type, widening
// or narrowing.
func (c *Context) convertScalar(v value, want types.DataType) value {
	if v.t == want {
		return v
	}
	out := value{t: want}
	switch want {
	case types.Int:
		switch v.t {
		case types.Bool:
			out.v = c.Builder.CreateZExt(v.v, c.LL.Int32Type(), "toint")
		case types.Float, types.Double:
			out.v = c.Builder.CreateFPToSI(v.v, c.LL.Int32Type(), "toint")
		}
	case types.Float:
		switch v.t {
		case types.Bool:
			tmp := c.Builder.CreateZExt(v.v, c.LL.Int32Type(), "toint")
			out.v = c.Builder.CreateSIToFP(tmp, c.LL.FloatType(), "tofloat")
		case types.Int:
			out.v = c.Builder.CreateSIToFP(v.v, c.LL.FloatType(), "tofloat")
		case types.Double:
			out.v = c.Builder.CreateFPTrunc(v.v, c.LL.FloatType(), "tofloat")
		}
	case types.Double:
		switch v.t {
		case types.Bool:
			tmp := c.Builder.CreateZExt(v.v, c.LL.Int32Type(), "toint")
			out.v = c.Builder.CreateSIToFP(tmp, c.LL.DoubleType(), "todouble")
		case types.Int:
			out.v = c.Builder.CreateSIToFP(v.v, c.LL.DoubleType(), "todouble")
		case types.Float:
			out.v = c.Builder.CreateFPExt(v.v, c.LL.DoubleType(), "todouble")
		}
	case types.Bool:
		switch v.t {
		case types.Int:
			out.v = c.Builder.CreateICmp(llvm.IntNE, v.v,
				llvm.ConstInt(c.LL.Int32Type(), 0, false), "tobool")
		case types.Float, types.Double:
			out.v = c.Builder.CreateFCmp(llvm.FloatONE, v.v,
				llvm.ConstFloat(c.lowerType(v.t, ""), 0), "tobool")
		}
	}
	if out.v.IsNil() {
		return v
	}
	return out
}

// convert coerces a value to the requested type; non-scalar targets must
// match exactly.
func (c *Context) convert(v value, want types.DataType, wantStruct string, sp source.Span) (value, bool) {
	if v.t == want && (want != types.Struct || v.structName == wantStruct) {
		return v, true
	}
	if scalarRank(v.t) >= 0 && scalarRank(want) >= 0 {
		return c.convertScalar(v, want), true
	}
	c.errf(diag.GenTypeMismatch, sp, "cannot convert %s to %s",
		describe(v.t, v.structName), describe(want, wantStruct))
	return value{}, false
}

// truthy lowers a value to an i1 condition.
func (c *Context) truthy(v value, sp source.Span) (llvm.Value, bool) {
	switch v.t {
	case types.Bool:
		return v.v, true
	case types.Int:
		return c.Builder.CreateICmp(llvm.IntNE, v.v,
			llvm.ConstInt(c.LL.Int32Type(), 0, false), "tobool"), true
	case types.Float, types.Double:
		return c.Builder.CreateFCmp(llvm.FloatONE, v.v,
			llvm.ConstFloat(c.lowerType(v.t, ""), 0), "tobool"), true
	}
	c.errf(diag.GenInvalidOperands, sp,
		"%s is not usable as a condition", describe(v.t, v.structName))
	return llvm.Value{}, false
}

func (c *Context) emitCondition(id ast.ExprID) (llvm.Value, bool) {
	v, ok := c.emitExpr(id)
	if !ok {
		return llvm.Value{}, false
	}
	sp := c.B.Expr(id).Span
	return c.truthy(v, sp)
}

func (c *Context) emitBinary(e *ast.Expr) (value, bool) {
	// && and || short-circuit; everything else evaluates both sides
	if e.Op == token.AndAnd || e.Op == token.OrOr {
		return c.emitLogical(e)
	}

	lhs, ok := c.emitExpr(e.X)
	if !ok {
		return value{}, false
	}
	rhs, ok := c.emitExpr(e.Y)
	if !ok {
		return value{}, false
	}
	return c.applyBinary(e, lhs, rhs)
}

func icmpPred(op token.Kind) llvm.IntPredicate {
	switch op {
	case token.EqEq:
		return llvm.IntEQ
	case token.BangEq:
		return llvm.IntNE
	case token.Lt:
		return llvm.IntSLT
	case token.LtEq:
		return llvm.IntSLE
	case token.Gt:
		return llvm.IntSGT
	default:
		return llvm.IntSGE
	}
}

func fcmpPred(op token.Kind) llvm.FloatPredicate {
	switch op {
	case token.EqEq:
		return llvm.FloatOEQ
	case token.BangEq:
		return llvm.FloatONE
	case token.Lt:
		return llvm.FloatOLT
	case token.LtEq:
		return llvm.FloatOLE
	case token.Gt:
		return llvm.FloatOGT
	default:
		return llvm.FloatOGE
	}
}

func (c *Context) emitLogical(e *ast.Expr) (value, bool) {
	lhs, ok := c.emitCondition(e.X)
	if !ok {
		return value{}, false
	}
	lhsBB := c.Builder.GetInsertBlock()
	rhsBB := c.LL.AddBasicBlock(c.curFunc, "logic.rhs")
	mergeBB := c.LL.AddBasicBlock(c.curFunc, "logic.end")
	if e.Op == token.AndAnd {
		c.Builder.CreateCondBr(lhs, rhsBB, mergeBB)
	} else {
		c.Builder.CreateCondBr(lhs, mergeBB, rhsBB)
	}

	c.Builder.SetInsertPointAtEnd(rhsBB)
	rhs, ok := c.emitCondition(e.Y)
	if !ok {
		return value{}, false
	}
	rhsEnd := c.Builder.GetInsertBlock()
	c.Builder.CreateBr(mergeBB)

	c.Builder.SetInsertPointAtEnd(mergeBB)
	phi := c.Builder.CreatePHI(c.LL.Int1Type(), "logic")
	short := llvm.ConstInt(c.LL.Int1Type(), boolBit(e.Op == token.OrOr), false)
	phi.AddIncoming([]llvm.Value{short, rhs}, []llvm.BasicBlock{lhsBB, rhsEnd})
	return value{v: phi, t: types.Bool}, true
}

func (c *Context) emitAssign(e *ast.Expr) (value, bool) {
	slot, ok := c.emitLValue(e.X)
	if !ok {
		return value{}, false
	}
	rhs, ok := c.emitExpr(e.Y)
	if !ok {
		return value{}, false
	}

	if e.Op != token.Assign {
		vt := c.lowerType(slot.Type, slot.StructName)
		cur := value{
			v:          c.Builder.CreateLoad(vt, slot.Ptr, "cur"),
			t:          slot.Type,
			structName: slot.StructName,
		}
		synthetic := ast.Expr{Kind: ast.ExprBinary, Span: e.Span, Op: compoundBase(e.Op)}
		combined, ok := c.applyBinary(&synthetic, cur, rhs)
		if !ok {
			return value{}, false
		}
		rhs = combined
	}

	converted, ok := c.convert(rhs, slot.Type, slot.StructName, e.Span)
	if !ok {
		return value{}, false
	}
	c.Builder.CreateStore(converted.v, slot.Ptr)
	return converted, true
}

func compoundBase(op token.Kind) token.Kind {
	switch op {
	case token.PlusAssign:
		return token.Plus
	case token.MinusAssign:
		return token.Minus
	case token.StarAssign:
		return token.Star
	case token.SlashAssign:
		return token.Slash
	default:
		return token.Percent
	}
}

// applyBinary lowers a binary operator over already-evaluated operands.
// Both plain binary expressions and compound assignment route here.
func (c *Context) applyBinary(e *ast.Expr, lhs, rhs value) (value, bool) {
	// closure algebra: closure+closure, closure*weight (either order)
	if lhs.t == types.Closure || rhs.t == types.Closure {
		return c.emitClosureOp(e, lhs, rhs)
	}
	lr, rr := scalarRank(lhs.t), scalarRank(rhs.t)
	if lr < 0 || rr < 0 {
		c.errf(diag.GenInvalidOperands, e.Span, "operator %s cannot apply to %s and %s",
			e.Op, describe(lhs.t, lhs.structName), describe(rhs.t, rhs.structName))
		return value{}, false
	}
	common := lhs.t
	if rr > lr {
		common = rhs.t
	}
	if common == types.Bool {
		common = types.Int
	}
	lhs = c.convertScalar(lhs, common)
	rhs = c.convertScalar(rhs, common)
	isFloat := common == types.Float || common == types.Double

	switch e.Op {
	case token.Plus:
		if isFloat {
			return value{v: c.Builder.CreateFAdd(lhs.v, rhs.v, "add"), t: common}, true
		}
		return value{v: c.Builder.CreateAdd(lhs.v, rhs.v, "add"), t: common}, true
	case token.Minus:
		if isFloat {
			return value{v: c.Builder.CreateFSub(lhs.v, rhs.v, "sub"), t: common}, true
		}
		return value{v: c.Builder.CreateSub(lhs.v, rhs.v, "sub"), t: common}, true
	case token.Star:
		if isFloat {
			return value{v: c.Builder.CreateFMul(lhs.v, rhs.v, "mul"), t: common}, true
		}
		return value{v: c.Builder.CreateMul(lhs.v, rhs.v, "mul"), t: common}, true
	case token.Slash:
		if isFloat {
			return value{v: c.Builder.CreateFDiv(lhs.v, rhs.v, "div"), t: common}, true
		}
		return value{v: c.Builder.CreateSDiv(lhs.v, rhs.v, "div"), t: common}, true
	case token.Percent:
		if isFloat {
			c.errf(diag.GenInvalidOperands, e.Span, "%% requires integer operands")
			return value{}, false
		}
		return value{v: c.Builder.CreateSRem(lhs.v, rhs.v, "rem"), t: common}, true

	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		var cmp llvm.Value
		if isFloat {
			cmp = c.Builder.CreateFCmp(fcmpPred(e.Op), lhs.v, rhs.v, "cmp")
		} else {
			cmp = c.Builder.CreateICmp(icmpPred(e.Op), lhs.v, rhs.v, "cmp")
		}
		return value{v: cmp, t: types.Bool}, true

	case token.Amp, token.Pipe, token.Caret, token.Shl, token.Shr:
		if isFloat {
			c.errf(diag.GenInvalidOperands, e.Span, "bitwise operators require integer operands")
			return value{}, false
		}
		var out llvm.Value
		switch e.Op {
		case token.Amp:
			out = c.Builder.CreateAnd(lhs.v, rhs.v, "and")
		case token.Pipe:
			out = c.Builder.CreateOr(lhs.v, rhs.v, "or")
		case token.Caret:
			out = c.Builder.CreateXor(lhs.v, rhs.v, "xor")
		case token.Shl:
			out = c.Builder.CreateShl(lhs.v, rhs.v, "shl")
		case token.Shr:
			out = c.Builder.CreateAShr(lhs.v, rhs.v, "shr")
		}
		return value{v: out, t: common}, true
	}
	c.errf(diag.GenInvalidOperands, e.Span, "unsupported operator %s", e.Op)
	return value{}, false
}

func (c *Context) emitCond(e *ast.Expr) (value, bool) {
	cond, ok := c.emitCondition(e.X)
	if !ok {
		return value{}, false
	}
	thenBB := c.LL.AddBasicBlock(c.curFunc, "cond.then")
	elseBB := c.LL.AddBasicBlock(c.curFunc, "cond.else")
	mergeBB := c.LL.AddBasicBlock(c.curFunc, "cond.end")
	c.Builder.CreateCondBr(cond, thenBB, elseBB)

	c.Builder.SetInsertPointAtEnd(thenBB)
	thenV, ok := c.emitExpr(e.Y)
	if !ok {
		return value{}, false
	}
	thenEnd := c.Builder.GetInsertBlock()

	c.Builder.SetInsertPointAtEnd(elseBB)
	elseV, ok := c.emitExpr(e.Z)
	if !ok {
		return value{}, false
	}
	elseEnd := c.Builder.GetInsertBlock()

	common := thenV.t
	if scalarRank(elseV.t) > scalarRank(thenV.t) {
		common = elseV.t
	}
	if thenV.t != elseV.t && (scalarRank(thenV.t) < 0 || scalarRank(elseV.t) < 0) {
		c.errf(diag.GenTypeMismatch, e.Span, "branches of ?: have types %s and %s",
			describe(thenV.t, thenV.structName), describe(elseV.t, elseV.structName))
		return value{}, false
	}

	c.Builder.SetInsertPointAtEnd(thenEnd)
	thenV = c.convertScalar(thenV, common)
	c.Builder.CreateBr(mergeBB)

	c.Builder.SetInsertPointAtEnd(elseEnd)
	elseV = c.convertScalar(elseV, common)
	c.Builder.CreateBr(mergeBB)

	c.Builder.SetInsertPointAtEnd(mergeBB)
	phi := c.Builder.CreatePHI(c.lowerType(common, thenV.structName), "cond")
	phi.AddIncoming([]llvm.Value{thenV.v, elseV.v}, []llvm.BasicBlock{thenEnd, elseEnd})
	return value{v: phi, t: common, structName: thenV.structName}, true
}

func (c *Context) emitCall(e *ast.Expr) (value, bool) {
	info, ok := c.funcs[e.Name]
	if !ok {
		c.errf(diag.GenUnknownFunction, e.Span, "unknown function %q", e.Name)
		return value{}, false
	}
	if len(e.Args) != len(info.Params) {
		c.errf(diag.GenBadArgumentCount, e.Span,
			"function %q takes %d arguments, got %d", e.Name, len(info.Params), len(e.Args))
		return value{}, false
	}
	args := make([]llvm.Value, 0, len(e.Args))
	for i, argID := range e.Args {
		av, ok := c.emitExpr(argID)
		if !ok {
			return value{}, false
		}
		want := info.Params[i]
		converted, ok := c.convert(av, want.Type, want.StructName, e.Span)
		if !ok {
			return value{}, false
		}
		args = append(args, converted.v)
	}
	name := ""
	if info.Ret != types.Void {
		name = "call"
	}
	ret := c.Builder.CreateCall(info.FnTy, info.Fn, args, name)
	return value{v: ret, t: info.Ret, structName: info.RetStruct}, true
}

func (c *Context) emitConstruct(e *ast.Expr) (value, bool) {
	want := 3
	if e.Type == types.Float4 {
		want = 4
	}
	comps := make([]llvm.Value, 0, want)
	if len(e.Args) == 1 {
		// splat
		av, ok := c.emitExpr(e.Args[0])
		if !ok {
			return value{}, false
		}
		converted, ok := c.convert(av, types.Float, "", e.Span)
		if !ok {
			return value{}, false
		}
		for i := 0; i < want; i++ {
			comps = append(comps, converted.v)
		}
	} else {
		for _, argID := range e.Args {
			av, ok := c.emitExpr(argID)
			if !ok {
				return value{}, false
			}
			converted, ok := c.convert(av, types.Float, "", e.Span)
			if !ok {
				return value{}, false
			}
			comps = append(comps, converted.v)
		}
	}

	vt := c.lowerType(e.Type, "")
	agg := llvm.Undef(vt)
	for i, comp := range comps {
		agg = c.Builder.CreateInsertValue(agg, comp, i, "vec")
	}
	return value{v: agg, t: e.Type}, true
}

// emitMakeClosure calls the registered constructor; the host allocates
// the node and fills it from the arguments.
func (c *Context) emitMakeClosure(e *ast.Expr) (value, bool) {
	info, ok := c.closures[e.Name]
	if !ok {
		c.errf(diag.GenUnregisteredClosure, e.Span, "closure %q was never registered", e.Name)
		return value{}, false
	}
	if len(e.Args) != len(info.Params) {
		c.errf(diag.GenBadArgumentCount, e.Span,
			"closure %q takes %d arguments, got %d", e.Name, len(info.Params), len(e.Args))
		return value{}, false
	}
	args := make([]llvm.Value, 0, len(e.Args))
	for i, argID := range e.Args {
		av, ok := c.emitExpr(argID)
		if !ok {
			return value{}, false
		}
		want := info.Params[i]
		converted, ok := c.convert(av, want.Type, "", e.Span)
		if !ok {
			return value{}, false
		}
		if want.Type.IsAggregate() {
			// constructor ABI passes aggregates by pointer
			vt := c.lowerType(want.Type, "")
			tmp := c.Builder.CreateAlloca(vt, "closure.arg")
			c.Builder.CreateStore(converted.v, tmp)
			i8p := llvm.PointerType(c.LL.Int8Type(), 0)
			args = append(args, c.Builder.CreateBitCast(tmp, i8p, "closure.argp"))
		} else {
			args = append(args, converted.v)
		}
	}
	ret := c.Builder.CreateCall(info.FnTy, info.Fn, args, "closure")
	return value{v: ret, t: types.Closure}, true
}

// emitClosureOp lowers the closure algebra: `a + b` allocates an add
// node, `a * w` (either operand order) a mul node. The node layouts are
// the pinned host ABI.
func (c *Context) emitClosureOp(e *ast.Expr, lhs, rhs value) (value, bool) {
	switch e.Op {
	case token.Plus:
		if lhs.t != types.Closure || rhs.t != types.Closure {
			break
		}
		node := c.allocClosureNode(abi.ClosureNodeAddSize, c.closureAddType(), "closure.add")
		c.storeClosureID(c.closureAddType(), node, abi.ClosureAdd)
		left := c.Builder.CreateStructGEP(c.closureAddType(), node, 2, "add.left")
		c.Builder.CreateStore(lhs.v, left)
		right := c.Builder.CreateStructGEP(c.closureAddType(), node, 3, "add.right")
		c.Builder.CreateStore(rhs.v, right)
		return c.closureResult(node), true

	case token.Star:
		child, weight := lhs, rhs
		if rhs.t == types.Closure {
			child, weight = rhs, lhs
		}
		if child.t != types.Closure || weight.t == types.Closure {
			break
		}
		wv, ok := c.convert(weight, types.Float, "", e.Span)
		if !ok {
			return value{}, false
		}
		node := c.allocClosureNode(abi.ClosureNodeMulSize, c.closureMulType(), "closure.mul")
		c.storeClosureID(c.closureMulType(), node, abi.ClosureMul)
		wslot := c.Builder.CreateStructGEP(c.closureMulType(), node, 1, "mul.weight")
		c.Builder.CreateStore(wv.v, wslot)
		cslot := c.Builder.CreateStructGEP(c.closureMulType(), node, 2, "mul.child")
		c.Builder.CreateStore(child.v, cslot)
		return c.closureResult(node), true
	}
	c.errf(diag.GenClosureOperands, e.Span,
		"closures support only closure+closure and closure*weight, got %s %s %s",
		describe(lhs.t, lhs.structName), e.Op, describe(rhs.t, rhs.structName))
	return value{}, false
}

func (c *Context) allocClosureNode(size int, nodeTy llvm.Type, name string) llvm.Value {
	raw := c.Builder.CreateCall(c.allocTy, c.allocFn,
		[]llvm.Value{llvm.ConstInt(c.LL.Int32Type(), uint64(size), false)}, name+".raw")
	return c.Builder.CreateBitCast(raw, llvm.PointerType(nodeTy, 0), name)
}

func (c *Context) storeClosureID(nodeTy llvm.Type, node llvm.Value, id abi.ClosureID) {
	slot := c.Builder.CreateStructGEP(nodeTy, node, 0, "closure.id")
	c.Builder.CreateStore(llvm.ConstInt(c.LL.Int32Type(), uint64(uint32(int32(id))), true), slot)
}

func (c *Context) closureResult(node llvm.Value) value {
	cast := c.Builder.CreateBitCast(node, c.closurePtrType(), "closure")
	return value{v: cast, t: types.Closure}
}
