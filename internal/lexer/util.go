package lexer

import (
	"tsl/internal/diag"
	"tsl/internal/source"
)

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

func reportLex(r diag.Reporter, code diag.Code, sp source.Span, msg string) {
	r.Report(diag.NewError(code, sp, msg))
}
