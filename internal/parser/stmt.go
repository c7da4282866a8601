package parser

import (
	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/token"
	"tsl/internal/types"
)

// parseBlock parses '{' stmt* '}' into a StmtBlock node.
func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnclosedBrace)
	if !ok {
		return ast.NoStmtID, false
	}
	var body []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt, ok := p.parseStatement()
		if !ok {
			return ast.NoStmtID, false
		}
		if stmt.IsValid() {
			body = append(body, stmt)
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtBlock,
		Span: open.Span.Cover(p.lastSpan),
		Body: body,
	}), true
}

func (p *Parser) parseStatement() (ast.StmtID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		p.bump()
		expr := ast.NoExprID
		if !p.at(token.Semicolon) {
			e, ok := p.parseExpression()
			if !ok {
				return ast.NoStmtID, false
			}
			expr = e
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
			return ast.NoStmtID, false
		}
		return p.b.NewStmt(ast.Stmt{
			Kind: ast.StmtReturn,
			Span: tok.Span.Cover(p.lastSpan),
			Expr: expr,
		}), true
	case token.KwBreak:
		p.bump()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
			return ast.NoStmtID, false
		}
		return p.b.NewStmt(ast.Stmt{Kind: ast.StmtBreak, Span: tok.Span}), true
	case token.KwContinue:
		p.bump()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
			return ast.NoStmtID, false
		}
		return p.b.NewStmt(ast.Stmt{Kind: ast.StmtContinue, Span: tok.Span}), true
	case token.Semicolon:
		// empty statement
		p.bump()
		return ast.NoStmtID, true
	}

	if p.atDeclStart() {
		return p.parseDecl()
	}
	return p.parseExprStatement()
}

// atDeclStart distinguishes `float x ...` from an expression statement.
// A built-in type keyword always opens a declaration; a bare identifier
// does only when another identifier follows (struct-typed local).
func (p *Parser) atDeclStart() bool {
	tok := p.lx.Peek()
	if tok.IsTypeKeyword() {
		return tok.Kind != token.KwVoid
	}
	if tok.Kind == token.Ident {
		return p.lx.PeekSecond().Kind == token.Ident
	}
	return false
}

// parseDecl parses `type name [= expr] {, name [= expr]} ;`.
func (p *Parser) parseDecl() (ast.StmtID, bool) {
	startSpan := p.lx.Peek().Span
	ty, structName, ok := p.parseType()
	if !ok {
		return ast.NoStmtID, false
	}
	if ty == types.Void {
		p.errf(diag.SynVoidVariable, startSpan, "variable declared void")
		return ast.NoStmtID, false
	}
	p.sink.CacheDataType(ty)

	var decls []ast.VarDecl
	for {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return ast.NoStmtID, false
		}
		init := ast.NoExprID
		if p.at(token.Assign) {
			p.bump()
			e, ok := p.parseExpression()
			if !ok {
				return ast.NoStmtID, false
			}
			init = e
		}
		decls = append(decls, ast.VarDecl{
			Name:       p.sink.ClaimPermanentAddress(name.Text),
			Type:       p.sink.DataTypeCache(),
			StructName: structName,
			Init:       init,
			Span:       name.Span.Cover(p.lastSpan),
		})
		if p.at(token.Comma) {
			p.bump()
			continue
		}
		break
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind:  ast.StmtDecl,
		Span:  startSpan.Cover(p.lastSpan),
		Decls: decls,
	}), true
}

func (p *Parser) parseExprStatement() (ast.StmtID, bool) {
	startSpan := p.lx.Peek().Span
	expr, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtExpr,
		Span: startSpan.Cover(p.lastSpan),
		Expr: expr,
	}), true
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	kw := p.bump() // 'if'
	if _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return ast.NoStmtID, false
	}
	then, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.bump()
		e, ok := p.parseStatement()
		if !ok {
			return ast.NoStmtID, false
		}
		els = e
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtIf,
		Span: kw.Span.Cover(p.lastSpan),
		Cond: cond,
		Then: then,
		Else: els,
	}), true
}

func (p *Parser) parseWhile() (ast.StmtID, bool) {
	kw := p.bump() // 'while'
	if _, ok := p.expect(token.LParen, diag.SynWhileMissingParen); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtWhile,
		Span: kw.Span.Cover(p.lastSpan),
		Cond: cond,
		Then: body,
	}), true
}

func (p *Parser) parseDoWhile() (ast.StmtID, bool) {
	kw := p.bump() // 'do'
	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.KwWhile, diag.SynExpectWhileAfterDo); !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.LParen, diag.SynWhileMissingParen); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtDoWhile,
		Span: kw.Span.Cover(p.lastSpan),
		Cond: cond,
		Then: body,
	}), true
}

func (p *Parser) parseFor() (ast.StmtID, bool) {
	kw := p.bump() // 'for'
	if _, ok := p.expect(token.LParen, diag.SynForBadHeader); !ok {
		return ast.NoStmtID, false
	}

	init := ast.NoStmtID
	if !p.at(token.Semicolon) {
		var ok bool
		if p.atDeclStart() {
			init, ok = p.parseDecl()
		} else {
			init, ok = p.parseExprStatement()
		}
		if !ok {
			return ast.NoStmtID, false
		}
	} else {
		p.bump()
	}

	cond := ast.NoExprID
	if !p.at(token.Semicolon) {
		e, ok := p.parseExpression()
		if !ok {
			return ast.NoStmtID, false
		}
		cond = e
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return ast.NoStmtID, false
	}

	post := ast.NoStmtID
	if !p.at(token.RParen) {
		postSpan := p.lx.Peek().Span
		e, ok := p.parseExpression()
		if !ok {
			return ast.NoStmtID, false
		}
		post = p.b.NewStmt(ast.Stmt{
			Kind: ast.StmtExpr,
			Span: postSpan.Cover(p.lastSpan),
			Expr: e,
		})
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return ast.NoStmtID, false
	}

	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.b.NewStmt(ast.Stmt{
		Kind: ast.StmtFor,
		Span: kw.Span.Cover(p.lastSpan),
		Init: init,
		Cond: cond,
		Post: post,
		Then: body,
	}), true
}
