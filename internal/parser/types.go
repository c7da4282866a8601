package parser

import (
	"tsl/internal/diag"
	"tsl/internal/token"
	"tsl/internal/types"
)

// parseType consumes a type: a built-in type keyword or a struct name.
func (p *Parser) parseType() (types.DataType, string, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwVoid:
		p.bump()
		return types.Void, "", true
	case token.KwInt:
		p.bump()
		return types.Int, "", true
	case token.KwFloat:
		p.bump()
		return types.Float, "", true
	case token.KwDouble:
		p.bump()
		return types.Double, "", true
	case token.KwBool:
		p.bump()
		return types.Bool, "", true
	case token.KwFloat3:
		p.bump()
		return types.Float3, "", true
	case token.KwFloat4:
		p.bump()
		return types.Float4, "", true
	case token.KwMatrix:
		p.bump()
		return types.Matrix, "", true
	case token.KwClosure:
		p.bump()
		return types.Closure, "", true
	case token.Ident:
		p.bump()
		return types.Struct, p.sink.ClaimPermanentAddress(tok.Text), true
	}
	p.errf(diag.SynExpectType, tok.Span, "expected type, found %s", tok.Kind)
	return types.Void, "", false
}

// atType reports whether the current token could begin a type.
func (p *Parser) atType() bool {
	tok := p.lx.Peek()
	return tok.IsTypeKeyword() || tok.Kind == token.Ident
}
