package token

import (
	"tsl/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, DoubleLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsTypeKeyword reports whether the token names one of the built-in types.
func (t Token) IsTypeKeyword() bool {
	switch t.Kind {
	case KwVoid, KwInt, KwFloat, KwDouble, KwBool, KwFloat3, KwFloat4, KwMatrix, KwClosure:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwShader, KwStruct, KwIf, KwElse, KwWhile, KwDo, KwFor, KwBreak,
		KwContinue, KwReturn, KwIn, KwOut, KwConst, KwTrue, KwFalse, KwMakeClosure:
		return true
	default:
		return t.IsTypeKeyword()
	}
}

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool {
	switch t.Kind {
	case Plus, Minus, Star, Slash, Percent, Assign, PlusAssign, MinusAssign,
		StarAssign, SlashAssign, PercentAssign, EqEq, Bang, BangEq, Lt, LtEq,
		Gt, GtEq, Shl, Shr, Amp, Pipe, Caret, Tilde, AndAnd, OrOr, PlusPlus,
		MinusMinus, Question, Colon, Semicolon, Comma, Dot, LParen, RParen,
		LBrace, RBrace, LBracket, RBracket:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
