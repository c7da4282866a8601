package parser

import (
	"strconv"
	"strings"

	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/token"
	"tsl/internal/types"
)

// parseExpression parses a full expression including assignment and the
// conditional operator.
func (p *Parser) parseExpression() (ast.ExprID, bool) {
	lhs, ok := p.parseConditional()
	if !ok {
		return ast.NoExprID, false
	}
	if op := p.lx.Peek(); isAssignOp(op.Kind) {
		p.bump()
		// right-associative: `a = b = c` assigns c to b first
		rhs, ok := p.parseExpression()
		if !ok {
			return ast.NoExprID, false
		}
		lhsSpan := p.b.Expr(lhs).Span
		return p.b.NewExpr(ast.Expr{
			Kind: ast.ExprAssign,
			Span: lhsSpan.Cover(p.lastSpan),
			Op:   op.Kind,
			X:    lhs,
			Y:    rhs,
		}), true
	}
	return lhs, true
}

func (p *Parser) parseConditional() (ast.ExprID, bool) {
	cond, ok := p.parseBinary(precNone + 1)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.Question) {
		return cond, true
	}
	p.bump()
	then, ok := p.parseExpression()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		return ast.NoExprID, false
	}
	els, ok := p.parseConditional()
	if !ok {
		return ast.NoExprID, false
	}
	condSpan := p.b.Expr(cond).Span
	return p.b.NewExpr(ast.Expr{
		Kind: ast.ExprCond,
		Span: condSpan.Cover(p.lastSpan),
		X:    cond,
		Y:    then,
		Z:    els,
	}), true
}

// parseBinary is a precedence climb over the operator table.
func (p *Parser) parseBinary(minPrec int) (ast.ExprID, bool) {
	lhs, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		op := p.lx.Peek()
		prec := binaryPrec(op.Kind)
		if prec < minPrec {
			return lhs, true
		}
		p.bump()
		rhs, ok := p.parseBinary(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		lhsSpan := p.b.Expr(lhs).Span
		lhs = p.b.NewExpr(ast.Expr{
			Kind: ast.ExprBinary,
			Span: lhsSpan.Cover(p.lastSpan),
			Op:   op.Kind,
			X:    lhs,
			Y:    rhs,
		})
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Bang, token.Minus, token.Plus, token.Tilde:
		p.bump()
		operand, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		if tok.Kind == token.Plus {
			return operand, true
		}
		return p.b.NewExpr(ast.Expr{
			Kind: ast.ExprUnary,
			Span: tok.Span.Cover(p.lastSpan),
			Op:   tok.Kind,
			X:    operand,
		}), true
	case token.PlusPlus, token.MinusMinus:
		// prefix increment lowers to the matching compound assignment
		p.bump()
		operand, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		return p.incDecExpr(tok, operand), true
	}
	return p.parsePostfix()
}

func (p *Parser) incDecExpr(tok token.Token, operand ast.ExprID) ast.ExprID {
	op := token.PlusAssign
	if tok.Kind == token.MinusMinus {
		op = token.MinusAssign
	}
	one := p.b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: tok.Span, IntVal: 1})
	return p.b.NewExpr(ast.Expr{
		Kind: ast.ExprAssign,
		Span: tok.Span.Cover(p.lastSpan),
		Op:   op,
		X:    operand,
		Y:    one,
	})
}

func (p *Parser) parsePostfix() (ast.ExprID, bool) {
	expr, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.bump()
			member, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return ast.NoExprID, false
			}
			exprSpan := p.b.Expr(expr).Span
			expr = p.b.NewExpr(ast.Expr{
				Kind: ast.ExprMember,
				Span: exprSpan.Cover(member.Span),
				Name: p.sink.ClaimPermanentAddress(member.Text),
				X:    expr,
			})
		case token.PlusPlus, token.MinusMinus:
			tok := p.bump()
			expr = p.incDecExpr(tok, expr)
		default:
			return expr, true
		}
	}
}

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.bump()
		return p.intLit(tok)
	case token.FloatLit, token.DoubleLit:
		p.bump()
		return p.floatLit(tok)
	case token.KwTrue, token.KwFalse:
		p.bump()
		return p.b.NewExpr(ast.Expr{
			Kind:    ast.ExprBoolLit,
			Span:    tok.Span,
			BoolVal: tok.Kind == token.KwTrue,
		}), true
	case token.LParen:
		p.bump()
		expr, ok := p.parseExpression()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return ast.NoExprID, false
		}
		return expr, true
	case token.KwFloat3, token.KwFloat4:
		return p.parseConstruct(tok)
	case token.KwMakeClosure:
		return p.parseMakeClosure()
	case token.Ident:
		p.bump()
		if p.at(token.LParen) {
			args, ok := p.parseArgList()
			if !ok {
				return ast.NoExprID, false
			}
			return p.b.NewExpr(ast.Expr{
				Kind: ast.ExprCall,
				Span: tok.Span.Cover(p.lastSpan),
				Name: p.sink.ClaimPermanentAddress(tok.Text),
				Args: args,
			}), true
		}
		return p.b.NewExpr(ast.Expr{
			Kind: ast.ExprIdent,
			Span: tok.Span,
			Name: p.sink.ClaimPermanentAddress(tok.Text),
		}), true
	}
	p.errf(diag.SynExpectExpression, tok.Span, "expected expression, found %s", tok.Kind)
	return ast.NoExprID, false
}

func (p *Parser) intLit(tok token.Token) (ast.ExprID, bool) {
	v, err := strconv.ParseInt(tok.Text, 0, 64)
	if err != nil {
		p.errf(diag.SynExpectExpression, tok.Span, "bad integer literal %q", tok.Text)
		return ast.NoExprID, false
	}
	return p.b.NewExpr(ast.Expr{
		Kind:   ast.ExprIntLit,
		Span:   tok.Span,
		IntVal: v,
	}), true
}

func (p *Parser) floatLit(tok token.Token) (ast.ExprID, bool) {
	text := strings.TrimRight(tok.Text, "fd")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.errf(diag.SynExpectExpression, tok.Span, "bad float literal %q", tok.Text)
		return ast.NoExprID, false
	}
	kind := ast.ExprFloatLit
	if tok.Kind == token.DoubleLit {
		kind = ast.ExprDoubleLit
	}
	return p.b.NewExpr(ast.Expr{
		Kind:     kind,
		Span:     tok.Span,
		FloatVal: v,
	}), true
}

// parseConstruct parses float3(...)/float4(...) constructor calls.
func (p *Parser) parseConstruct(tok token.Token) (ast.ExprID, bool) {
	p.bump()
	ty := types.Float3
	want := 3
	if tok.Kind == token.KwFloat4 {
		ty = types.Float4
		want = 4
	}
	args, ok := p.parseArgList()
	if !ok {
		return ast.NoExprID, false
	}
	if len(args) != want && len(args) != 1 {
		p.errf(diag.SynExpectExpression, tok.Span.Cover(p.lastSpan),
			"%s constructor takes %d components or a single splat, got %d", ty, want, len(args))
		return ast.NoExprID, false
	}
	return p.b.NewExpr(ast.Expr{
		Kind: ast.ExprConstruct,
		Span: tok.Span.Cover(p.lastSpan),
		Type: ty,
		Args: args,
	}), true
}

// parseMakeClosure parses `make_closure<Name>(args…)` and records the
// touched closure with the driver.
func (p *Parser) parseMakeClosure() (ast.ExprID, bool) {
	kw := p.bump() // 'make_closure'
	if _, ok := p.expect(token.Lt, diag.SynUnclosedAngle); !ok {
		return ast.NoExprID, false
	}
	name, ok := p.expect(token.Ident, diag.SynMakeClosureBadName)
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Gt, diag.SynUnclosedAngle); !ok {
		return ast.NoExprID, false
	}
	args, ok := p.parseArgList()
	if !ok {
		return ast.NoExprID, false
	}
	closureName := p.sink.ClaimPermanentAddress(name.Text)
	p.sink.ClosureTouched(closureName)
	return p.b.NewExpr(ast.Expr{
		Kind: ast.ExprMakeClosure,
		Span: kw.Span.Cover(p.lastSpan),
		Name: closureName,
		Args: args,
	}), true
}

func (p *Parser) parseArgList() ([]ast.ExprID, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	var args []ast.ExprID
	if p.at(token.RParen) {
		p.bump()
		return args, true
	}
	for {
		arg, ok := p.parseExpression()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if p.at(token.Comma) {
			p.bump()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	return args, true
}
