package llvm

import (
	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/types"
)

// emitStmt lowers one statement. Emission stops silently inside a block
// that already terminated (code after return/break is unreachable).
func (c *Context) emitStmt(id ast.StmtID) {
	if !id.IsValid() || c.blockTerminated() {
		return
	}
	s := c.B.Stmt(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		c.PushVarSymbolLayer()
		for _, child := range s.Body {
			c.emitStmt(child)
		}
		c.PopVarSymbolLayer()

	case ast.StmtExpr:
		c.emitExpr(s.Expr)

	case ast.StmtDecl:
		for _, decl := range s.Decls {
			c.emitVarDecl(decl)
		}

	case ast.StmtIf:
		c.emitIf(s)

	case ast.StmtWhile:
		c.emitWhile(s)

	case ast.StmtDoWhile:
		c.emitDoWhile(s)

	case ast.StmtFor:
		c.emitFor(s)

	case ast.StmtReturn:
		c.emitReturn(s)

	case ast.StmtBreak:
		if len(c.loops) == 0 {
			c.errf(diag.GenError, s.Span, "break outside of a loop")
			return
		}
		c.Builder.CreateBr(c.loops[len(c.loops)-1].breakTo)

	case ast.StmtContinue:
		if len(c.loops) == 0 {
			c.errf(diag.GenError, s.Span, "continue outside of a loop")
			return
		}
		c.Builder.CreateBr(c.loops[len(c.loops)-1].continueTo)
	}
}

func (c *Context) emitVarDecl(decl ast.VarDecl) {
	vt := c.lowerType(decl.Type, decl.StructName)
	slot := c.Builder.CreateAlloca(vt, decl.Name)
	sym := VarSym{Ptr: slot, Type: decl.Type, StructName: decl.StructName}
	if !c.DefineVar(decl.Name, sym, decl.Span) {
		return
	}
	if decl.Init.IsValid() {
		init, ok := c.emitExpr(decl.Init)
		if !ok {
			return
		}
		converted, ok := c.convert(init, decl.Type, decl.StructName, decl.Span)
		if !ok {
			return
		}
		c.Builder.CreateStore(converted.v, slot)
	}
}

func (c *Context) emitIf(s *ast.Stmt) {
	cond, ok := c.emitCondition(s.Cond)
	if !ok {
		return
	}
	thenBB := c.LL.AddBasicBlock(c.curFunc, "if.then")
	mergeBB := c.LL.AddBasicBlock(c.curFunc, "if.end")
	elseBB := mergeBB
	if s.Else.IsValid() {
		elseBB = c.LL.AddBasicBlock(c.curFunc, "if.else")
	}
	c.Builder.CreateCondBr(cond, thenBB, elseBB)

	c.Builder.SetInsertPointAtEnd(thenBB)
	c.emitStmt(s.Then)
	if !c.blockTerminated() {
		c.Builder.CreateBr(mergeBB)
	}

	if s.Else.IsValid() {
		c.Builder.SetInsertPointAtEnd(elseBB)
		c.emitStmt(s.Else)
		if !c.blockTerminated() {
			c.Builder.CreateBr(mergeBB)
		}
	}

	c.Builder.SetInsertPointAtEnd(mergeBB)
}

func (c *Context) emitWhile(s *ast.Stmt) {
	condBB := c.LL.AddBasicBlock(c.curFunc, "while.cond")
	bodyBB := c.LL.AddBasicBlock(c.curFunc, "while.body")
	endBB := c.LL.AddBasicBlock(c.curFunc, "while.end")

	c.Builder.CreateBr(condBB)
	c.Builder.SetInsertPointAtEnd(condBB)
	cond, ok := c.emitCondition(s.Cond)
	if !ok {
		return
	}
	c.Builder.CreateCondBr(cond, bodyBB, endBB)

	c.Builder.SetInsertPointAtEnd(bodyBB)
	c.loops = append(c.loops, loopCtx{breakTo: endBB, continueTo: condBB})
	c.emitStmt(s.Then)
	c.loops = c.loops[:len(c.loops)-1]
	if !c.blockTerminated() {
		c.Builder.CreateBr(condBB)
	}

	c.Builder.SetInsertPointAtEnd(endBB)
}

func (c *Context) emitDoWhile(s *ast.Stmt) {
	bodyBB := c.LL.AddBasicBlock(c.curFunc, "do.body")
	condBB := c.LL.AddBasicBlock(c.curFunc, "do.cond")
	endBB := c.LL.AddBasicBlock(c.curFunc, "do.end")

	c.Builder.CreateBr(bodyBB)
	c.Builder.SetInsertPointAtEnd(bodyBB)
	c.loops = append(c.loops, loopCtx{breakTo: endBB, continueTo: condBB})
	c.emitStmt(s.Then)
	c.loops = c.loops[:len(c.loops)-1]
	if !c.blockTerminated() {
		c.Builder.CreateBr(condBB)
	}

	c.Builder.SetInsertPointAtEnd(condBB)
	cond, ok := c.emitCondition(s.Cond)
	if !ok {
		return
	}
	c.Builder.CreateCondBr(cond, bodyBB, endBB)

	c.Builder.SetInsertPointAtEnd(endBB)
}

func (c *Context) emitFor(s *ast.Stmt) {
	// the init declaration scopes over header and body
	c.PushVarSymbolLayer()
	defer c.PopVarSymbolLayer()

	c.emitStmt(s.Init)

	condBB := c.LL.AddBasicBlock(c.curFunc, "for.cond")
	bodyBB := c.LL.AddBasicBlock(c.curFunc, "for.body")
	postBB := c.LL.AddBasicBlock(c.curFunc, "for.post")
	endBB := c.LL.AddBasicBlock(c.curFunc, "for.end")

	c.Builder.CreateBr(condBB)
	c.Builder.SetInsertPointAtEnd(condBB)
	if s.Cond.IsValid() {
		cond, ok := c.emitCondition(s.Cond)
		if !ok {
			return
		}
		c.Builder.CreateCondBr(cond, bodyBB, endBB)
	} else {
		c.Builder.CreateBr(bodyBB)
	}

	c.Builder.SetInsertPointAtEnd(bodyBB)
	c.loops = append(c.loops, loopCtx{breakTo: endBB, continueTo: postBB})
	c.emitStmt(s.Then)
	c.loops = c.loops[:len(c.loops)-1]
	if !c.blockTerminated() {
		c.Builder.CreateBr(postBB)
	}

	c.Builder.SetInsertPointAtEnd(postBB)
	c.emitStmt(s.Post)
	if !c.blockTerminated() {
		c.Builder.CreateBr(condBB)
	}

	c.Builder.SetInsertPointAtEnd(endBB)
}

func (c *Context) emitReturn(s *ast.Stmt) {
	if c.curRet == types.Void {
		if s.Expr.IsValid() {
			c.errf(diag.GenTypeMismatch, s.Span, "void function cannot return a value")
			return
		}
		c.Builder.CreateRetVoid()
		return
	}
	if !s.Expr.IsValid() {
		c.errf(diag.GenTypeMismatch, s.Span, "missing return value")
		return
	}
	v, ok := c.emitExpr(s.Expr)
	if !ok {
		return
	}
	converted, ok := c.convert(v, c.curRet, "", s.Span)
	if !ok {
		return
	}
	c.Builder.CreateRet(converted.v)
}
