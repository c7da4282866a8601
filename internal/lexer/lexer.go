package lexer

import (
	"fmt"
	"os"

	"tsl/internal/diag"
	"tsl/internal/source"
	"tsl/internal/token"
)

// Lexer produces significant tokens with leading trivia attached.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   []token.Token  // small lookahead queue
	hold   []token.Trivia // accumulated leading trivia
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token with its Leading already
// collected. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if len(lx.look) > 0 {
		tok := lx.look[0]
		lx.look = lx.look[1:]
		return tok
	}
	return lx.scan()
}

func (lx *Lexer) scan() token.Token {
	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStart(ch):
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '.' && lx.digitAfterDot():
		tok = lx.scanNumber()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	tok.Leading = lx.hold
	lx.hold = nil

	if lx.opts.MaxTokenLen != 0 && tok.Span.Len() > lx.opts.MaxTokenLen {
		reportLex(lx.opts.reporter(), diag.LexTokenTooLong, tok.Span, "token exceeds maximum length")
		tok.Kind = token.Invalid
	}
	if lx.opts.Verbose {
		fmt.Fprintf(os.Stderr, "tsl: token %-12s %q\n", tok.Kind, tok.Text)
	}
	return tok
}

// Peek returns the next significant token without consuming it.
func (lx *Lexer) Peek() token.Token {
	lx.fill(1)
	return lx.look[0]
}

// PeekSecond returns the token after the next one without consuming
// either; the parser needs it to tell declarations from expressions.
func (lx *Lexer) PeekSecond() token.Token {
	lx.fill(2)
	return lx.look[1]
}

func (lx *Lexer) fill(n int) {
	for len(lx.look) < n {
		lx.look = append(lx.look, lx.scan())
	}
}

// EmptySpan is a zero-length span at the current cursor position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) digitAfterDot() bool {
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '.' && isDec(b1)
}
