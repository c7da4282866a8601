package lexer

import (
	"testing"

	"tsl/internal/diag"
	"tsl/internal/source"
	"tsl/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.tsl", src)
	reporter := diag.NewBagReporter(16)
	lx := New(fs.Get(id), Options{Reporter: reporter})
	var toks []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks, reporter.Bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexShaderHeader(t *testing.T) {
	toks, bag := lexAll(t, "shader entry(out float o){ o = 3.5; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected lex errors")
	}
	want := []token.Kind{
		token.KwShader, token.Ident, token.LParen, token.KwOut, token.KwFloat,
		token.Ident, token.RParen, token.LBrace, token.Ident, token.Assign,
		token.FloatLit, token.Semicolon, token.RBrace,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"0x1F", token.IntLit},
		{"3.5", token.FloatLit},
		{"2.0f", token.FloatLit},
		{"1e3", token.FloatLit},
		{"2.5d", token.DoubleLit},
	}
	for _, tc := range cases {
		toks, bag := lexAll(t, tc.src)
		if bag.HasErrors() || len(toks) != 1 || toks[0].Kind != tc.kind {
			t.Errorf("%q lexed to %v (errors=%v), want one %v",
				tc.src, kinds(toks), bag.HasErrors(), tc.kind)
		}
	}
}

func TestLexComments(t *testing.T) {
	toks, bag := lexAll(t, "// header\n/* block */ shader")
	if bag.HasErrors() {
		t.Fatalf("unexpected lex errors")
	}
	if len(toks) != 1 || toks[0].Kind != token.KwShader {
		t.Fatalf("tokens = %v, want [shader]", kinds(toks))
	}
	var sawLine, sawBlock bool
	for _, tr := range toks[0].Leading {
		switch tr.Kind {
		case token.TriviaLineComment:
			sawLine = true
		case token.TriviaBlockComment:
			sawBlock = true
		}
	}
	if !sawLine || !sawBlock {
		t.Fatalf("comments not captured as leading trivia")
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, bag := lexAll(t, "/* never closed")
	if !bag.HasErrors() {
		t.Fatalf("expected a diagnostic for the unterminated comment")
	}
}

func TestLexOperators(t *testing.T) {
	toks, _ := lexAll(t, "<<= && || != <= >= ++ ->")
	got := kinds(toks)
	want := []token.Kind{
		token.Shl, token.Assign, token.AndAnd, token.OrOr, token.BangEq,
		token.LtEq, token.GtEq, token.PlusPlus, token.Minus, token.Gt,
	}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPeekSecond(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.tsl", "Material m;")
	lx := New(fs.Get(id), Options{})
	if lx.Peek().Kind != token.Ident || lx.PeekSecond().Kind != token.Ident {
		t.Fatalf("lookahead broken: %v %v", lx.Peek().Kind, lx.PeekSecond().Kind)
	}
	// consuming must drain the queue in order
	if lx.Next().Text != "Material" || lx.Next().Text != "m" {
		t.Fatalf("queue order broken")
	}
}
