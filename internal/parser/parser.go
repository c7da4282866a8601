package parser

import (
	"fmt"
	"os"

	"tsl/internal/ast"
	"tsl/internal/diag"
	"tsl/internal/lexer"
	"tsl/internal/source"
	"tsl/internal/token"
	"tsl/internal/types"
)

// Sink receives one callback per recognized top-level construct. The
// compile driver implements it; the parser stays free of driver state.
type Sink interface {
	// PushFunction hands over a parsed function; isShader marks the entry.
	PushFunction(fn ast.FuncID, isShader bool)
	// PushStructure hands over a structure declaration.
	PushStructure(st ast.StructID)
	// PushGlobalParameter hands over a module-scope variable.
	PushGlobalParameter(g ast.GlobalID)
	// ClosureTouched records a closure referenced via make_closure.
	ClosureTouched(name string)
	// CacheDataType / DataTypeCache stash the declared base type across a
	// declarator list.
	CacheDataType(t types.DataType)
	DataTypeCache() types.DataType
	// ClaimPermanentAddress returns the one canonical instance of s,
	// stable for the whole compile.
	ClaimPermanentAddress(s string) string
}

type Options struct {
	Trace         bool
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error budget is exhausted.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser holds the state for parsing one shader source.
type Parser struct {
	lx       *lexer.Lexer
	b        *ast.Builder
	sink     Sink
	opts     Options
	lastSpan  source.Span
	sawShader bool
}

// ParseSource drives the parser over one source string. AST nodes land in
// the builder (owned by the caller's compile region); recognized
// constructs are pushed into the sink. Returns false when any syntax
// error was reported.
func ParseSource(lx *lexer.Lexer, b *ast.Builder, sink Sink, opts Options) bool {
	p := Parser{
		lx:       lx,
		b:        b,
		sink:     sink,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	p.parseItems()
	return p.opts.CurrentErrors == 0
}

func (p *Parser) parseItems() {
	for !p.at(token.EOF) {
		if p.opts.Enough() {
			return
		}
		if !p.parseItem() {
			p.resyncTop()
		}
	}
}

// parseItem dispatches on the first token of a top-level construct.
func (p *Parser) parseItem() bool {
	tok := p.lx.Peek()
	switch {
	case tok.Kind == token.KwShader:
		return p.parseShader()
	case tok.Kind == token.KwStruct:
		return p.parseStructDecl()
	case tok.IsTypeKeyword() || tok.Kind == token.Ident:
		// A type followed by a name: '(' opens a function, otherwise this
		// is a global variable declaration.
		return p.parseFunctionOrGlobal()
	default:
		p.errf(diag.SynUnexpectedTopLevel, tok.Span,
			"unexpected %s at top level", tok.Kind)
		return false
	}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

// bump consumes the current token unconditionally.
func (p *Parser) bump() token.Token {
	tok := p.lx.Next()
	p.lastSpan = tok.Span
	if p.opts.Trace {
		fmt.Fprintf(os.Stderr, "tsl: parse %s\n", tok.Kind)
	}
	return tok
}

// expect consumes a token of the given kind or reports code.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	tok := p.lx.Peek()
	if tok.Kind != k {
		p.errf(code, tok.Span, "expected %s, found %s", k, tok.Kind)
		return tok, false
	}
	return p.bump(), true
}

func (p *Parser) errf(code diag.Code, sp source.Span, format string, args ...any) {
	p.opts.CurrentErrors++
	if p.opts.Reporter != nil {
		diag.Errorf(p.opts.Reporter, code, sp, format, args...)
	}
}

// resyncTop skips ahead to a plausible top-level boundary: just past the
// next ';' or matched '}'.
func (p *Parser) resyncTop() {
	depth := 0
	for !p.at(token.EOF) {
		tok := p.bump()
		switch tok.Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth <= 0 {
				return
			}
		case token.Semicolon:
			if depth == 0 {
				return
			}
		}
	}
}
