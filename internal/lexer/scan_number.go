package lexer

import (
	"tsl/internal/diag"
	"tsl/internal/token"
)

// scanNumber consumes an integer or floating literal. A literal is float
// by default when it carries a fraction or exponent; a trailing 'd' makes
// it double precision.
func (lx *Lexer) scanNumber() token.Token {
	mark := lx.cursor.Mark()
	kind := token.IntLit

	// hex integers
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '0' && (b1 == 'x' || b1 == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		digits := 0
		for !lx.cursor.EOF() && isHex(lx.cursor.Peek()) {
			lx.cursor.Bump()
			digits++
		}
		sp := lx.cursor.SpanFrom(mark)
		if digits == 0 {
			reportLex(lx.opts.reporter(), diag.LexBadNumber, sp, "hex literal without digits")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cursor.TextFrom(mark)}
		}
		return token.Token{Kind: token.IntLit, Span: sp, Text: lx.cursor.TextFrom(mark)}
	}

	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		// Only a fraction when a digit follows; bare '4.' is rejected by
		// the original grammar too.
		if _, b1, ok := lx.cursor.Peek2(); ok && isDec(b1) {
			kind = token.FloatLit
			lx.cursor.Bump()
			for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		if lx.scanExponent() {
			kind = token.FloatLit
		}
	}
	if lx.cursor.Peek() == 'd' {
		lx.cursor.Bump()
		kind = token.DoubleLit
	} else if lx.cursor.Peek() == 'f' {
		lx.cursor.Bump()
		kind = token.FloatLit
	}

	sp := lx.cursor.SpanFrom(mark)
	text := lx.cursor.TextFrom(mark)
	if !lx.cursor.EOF() && isIdentStart(lx.cursor.Peek()) {
		reportLex(lx.opts.reporter(), diag.LexBadNumber, sp, "identifier character directly after number")
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

func (lx *Lexer) scanExponent() bool {
	// cursor sits on 'e'/'E'; consume only when a valid exponent follows
	save := lx.cursor
	lx.cursor.Bump()
	if b := lx.cursor.Peek(); b == '+' || b == '-' {
		lx.cursor.Bump()
	}
	if !isDec(lx.cursor.Peek()) {
		lx.cursor = save
		return false
	}
	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	return true
}

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
