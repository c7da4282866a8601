package lexer

import (
	"tsl/internal/diag"
	"tsl/internal/token"
)

// collectLeadingTrivia scans whitespace and comments into lx.hold until a
// significant token (or EOF) is reached.
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case isSpace(ch):
			mark := lx.cursor.Mark()
			for !lx.cursor.EOF() && isSpace(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, mark)

		case ch == '\n':
			mark := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaNewline, mark)

		case ch == '/':
			b0, b1, ok := lx.cursor.Peek2()
			switch {
			case ok && b0 == '/' && b1 == '/':
				mark := lx.cursor.Mark()
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
				lx.pushTrivia(token.TriviaLineComment, mark)
			case ok && b0 == '/' && b1 == '*':
				lx.scanBlockComment()
			default:
				return
			}

		default:
			return
		}
	}
}

func (lx *Lexer) scanBlockComment() {
	mark := lx.cursor.Mark()
	lx.cursor.Bump() // '/'
	lx.cursor.Bump() // '*'
	closed := false
	for !lx.cursor.EOF() {
		if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '*' && b1 == '/' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			closed = true
			break
		}
		lx.cursor.Bump()
	}
	if !closed {
		reportLex(lx.opts.reporter(), diag.LexUnterminatedBlockComment,
			lx.cursor.SpanFrom(mark), "unterminated block comment")
	}
	lx.pushTrivia(token.TriviaBlockComment, mark)
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, mark Mark) {
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: lx.cursor.SpanFrom(mark),
		Text: lx.cursor.TextFrom(mark),
	})
}
