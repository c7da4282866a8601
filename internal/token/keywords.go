package token

var keywords = map[string]Kind{
	"shader":       KwShader,
	"struct":       KwStruct,
	"if":           KwIf,
	"else":         KwElse,
	"while":        KwWhile,
	"do":           KwDo,
	"for":          KwFor,
	"break":        KwBreak,
	"continue":     KwContinue,
	"return":       KwReturn,
	"in":           KwIn,
	"out":          KwOut,
	"const":        KwConst,
	"true":         KwTrue,
	"false":        KwFalse,
	"make_closure": KwMakeClosure,
	"void":         KwVoid,
	"int":          KwInt,
	"float":        KwFloat,
	"double":       KwDouble,
	"bool":         KwBool,
	"float3":       KwFloat3,
	"float4":       KwFloat4,
	"matrix":       KwMatrix,
	"closure":      KwClosure,
}

// LookupKeyword resolves an identifier's text to a keyword kind, if any.
func LookupKeyword(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}
