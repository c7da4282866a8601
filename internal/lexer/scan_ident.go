package lexer

import (
	"tsl/internal/token"
)

// scanIdentOrKeyword consumes [A-Za-z_][A-Za-z0-9_]* and classifies it.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	mark := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	text := lx.cursor.TextFrom(mark)
	kind := token.Ident
	if kw, ok := token.LookupKeyword(text); ok {
		kind = kw
	}
	return token.Token{
		Kind: kind,
		Span: lx.cursor.SpanFrom(mark),
		Text: text,
	}
}
