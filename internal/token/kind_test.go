package token

import (
	"testing"
)

func TestKeywordLookup(t *testing.T) {
	cases := map[string]Kind{
		"shader":       KwShader,
		"make_closure": KwMakeClosure,
		"float3":       KwFloat3,
		"out":          KwOut,
		"closure":      KwClosure,
	}
	for text, want := range cases {
		got, ok := LookupKeyword(text)
		if !ok || got != want {
			t.Errorf("LookupKeyword(%q) = %v,%v want %v", text, got, ok, want)
		}
	}
	if _, ok := LookupKeyword("lambert"); ok {
		t.Errorf("identifier resolved as keyword")
	}
}

func TestTokenClasses(t *testing.T) {
	if !(Token{Kind: FloatLit}).IsLiteral() {
		t.Errorf("FloatLit not literal")
	}
	if !(Token{Kind: KwTrue}).IsLiteral() {
		t.Errorf("true is a literal")
	}
	if !(Token{Kind: KwMatrix}).IsTypeKeyword() {
		t.Errorf("matrix is a type keyword")
	}
	if !(Token{Kind: PlusAssign}).IsPunctOrOp() {
		t.Errorf("+= is an operator")
	}
	if (Token{Kind: Ident}).IsKeyword() {
		t.Errorf("ident misclassified as keyword")
	}
}

func TestKindString(t *testing.T) {
	if Shl.String() != "<<" || KwShader.String() != "shader" {
		t.Fatalf("kind names drifted: %q %q", Shl.String(), KwShader.String())
	}
}
