package parser

import (
	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/token"
	"tsl/internal/types"
)

// parseShader parses `shader NAME ( args ) block` and pushes it into the
// sink as the compile's AST root.
func (p *Parser) parseShader() bool {
	kw := p.bump() // 'shader'
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return false
	}
	if p.sawShader {
		p.errf(diag.SynDuplicateShader, name.Span,
			"a shader entry is already defined in this source")
	}

	params, ok := p.parseParamList(true)
	if !ok {
		return false
	}
	body, ok := p.parseBlock()
	if !ok {
		return false
	}

	fnID := p.b.NewFunc(ast.Function{
		Name:       p.sink.ClaimPermanentAddress(name.Text),
		ReturnType: types.Void,
		Params:     params,
		Body:       body,
		IsShader:   true,
		Span:       kw.Span.Cover(p.lastSpan),
	})
	p.sawShader = true
	p.sink.PushFunction(fnID, true)
	return true
}

// parseFunctionOrGlobal handles `type name (...)` functions and
// `type name [= expr] {, name [= expr]} ;` globals.
func (p *Parser) parseFunctionOrGlobal() bool {
	startSpan := p.lx.Peek().Span
	retType, retStruct, ok := p.parseType()
	if !ok {
		return false
	}
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return false
	}

	if p.at(token.LParen) {
		params, ok := p.parseParamList(false)
		if !ok {
			return false
		}
		body, ok := p.parseBlock()
		if !ok {
			return false
		}
		fnID := p.b.NewFunc(ast.Function{
			Name:         p.sink.ClaimPermanentAddress(name.Text),
			ReturnType:   retType,
			ReturnStruct: retStruct,
			Params:       params,
			Body:         body,
			Span:         startSpan.Cover(p.lastSpan),
		})
		p.sink.PushFunction(fnID, false)
		return true
	}

	// global variable declarator list; the declared type survives across
	// the commas through the driver's type cache
	if retType == types.Void {
		p.errf(diag.SynVoidVariable, name.Span, "variable %q declared void", name.Text)
		return false
	}
	p.sink.CacheDataType(retType)
	for {
		init := ast.NoExprID
		if p.at(token.Assign) {
			p.bump()
			expr, ok := p.parseExpression()
			if !ok {
				return false
			}
			init = expr
		}
		gID := p.b.NewGlobal(ast.GlobalVar{
			Name:       p.sink.ClaimPermanentAddress(name.Text),
			Type:       p.sink.DataTypeCache(),
			StructName: retStruct,
			Init:       init,
			Span:       startSpan.Cover(p.lastSpan),
		})
		p.sink.PushGlobalParameter(gID)

		if !p.at(token.Comma) {
			break
		}
		p.bump()
		name, ok = p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return false
		}
	}
	_, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon)
	return ok
}

// parseParamList parses '(' [param {, param}] ')'. Shader arguments may
// carry in/out qualifiers and literal defaults.
func (p *Parser) parseParamList(isShader bool) ([]ast.Param, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	var params []ast.Param
	if p.at(token.RParen) {
		p.bump()
		return params, true
	}
	for {
		param, ok := p.parseParam(isShader)
		if !ok {
			return nil, false
		}
		params = append(params, param)
		if p.at(token.Comma) {
			p.bump()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseParam(isShader bool) (ast.Param, bool) {
	startSpan := p.lx.Peek().Span
	output := false
	switch p.lx.Peek().Kind {
	case token.KwIn:
		p.bump()
	case token.KwOut:
		if !isShader {
			p.errf(diag.SynBadArgumentQual, p.lx.Peek().Span,
				"out qualifier is only valid on shader arguments")
		}
		p.bump()
		output = true
	case token.KwConst:
		p.bump()
	}

	ty, structName, ok := p.parseType()
	if !ok {
		return ast.Param{}, false
	}
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return ast.Param{}, false
	}

	def := ast.NoExprID
	if p.at(token.Assign) {
		eq := p.bump()
		lit, ok := p.parseExpression()
		if !ok {
			return ast.Param{}, false
		}
		if !isShader {
			p.errf(diag.SynBadDefaultValue, eq.Span,
				"default values are only valid on shader arguments")
		} else if output {
			p.errf(diag.SynBadDefaultValue, eq.Span,
				"out argument %q cannot carry a default", name.Text)
		} else {
			def = lit
		}
	}

	return ast.Param{
		Name:       p.sink.ClaimPermanentAddress(name.Text),
		Type:       ty,
		StructName: structName,
		Output:     output,
		Default:    def,
		Span:       startSpan.Cover(p.lastSpan),
	}, true
}

// parseStructDecl parses `struct NAME { type name; ... } ;`.
func (p *Parser) parseStructDecl() bool {
	kw := p.bump() // 'struct'
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnclosedBrace); !ok {
		return false
	}

	var fields []ast.StructField
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fieldStart := p.lx.Peek().Span
		ty, structName, ok := p.parseType()
		if !ok {
			return false
		}
		if ty == types.Void || ty == types.Closure {
			p.errf(diag.SynStructExpectField, fieldStart,
				"%s is not a valid structure member type", ty)
		}
		fieldName, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
			return false
		}
		fields = append(fields, ast.StructField{
			Name:       p.sink.ClaimPermanentAddress(fieldName.Text),
			Type:       ty,
			StructName: structName,
			Span:       fieldStart.Cover(p.lastSpan),
		})
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return false
	}
	// trailing semicolon is optional, C heritage
	if p.at(token.Semicolon) {
		p.bump()
	}

	stID := p.b.NewStruct(ast.StructDecl{
		Name:   p.sink.ClaimPermanentAddress(name.Text),
		Fields: fields,
		Span:   kw.Span.Cover(p.lastSpan),
	})
	p.sink.PushStructure(stID)
	return true
}
