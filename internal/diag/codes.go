package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedBlockComment Code = 1002
	LexBadNumber                Code = 1003
	LexTokenTooLong             Code = 1004

	// Syntax
	SynInfo                Code = 2000
	SynUnexpectedToken     Code = 2001
	SynUnexpectedTopLevel  Code = 2002
	SynExpectIdentifier    Code = 2003
	SynExpectType          Code = 2004
	SynExpectExpression    Code = 2005
	SynExpectSemicolon     Code = 2006
	SynUnclosedParen       Code = 2007
	SynUnclosedBrace       Code = 2008
	SynDuplicateShader     Code = 2009
	SynBadArgumentQual     Code = 2010
	SynBadDefaultValue     Code = 2011
	SynUnclosedAngle       Code = 2012
	SynVoidVariable        Code = 2013
	SynExpectColon         Code = 2014
	SynForBadHeader        Code = 2015
	SynStructExpectField   Code = 2016
	SynMakeClosureBadName  Code = 2017
	SynWhileMissingParen   Code = 2018
	SynReturnOutsideFn     Code = 2019
	SynExpectWhileAfterDo  Code = 2020

	// Codegen
	GenInfo                Code = 3000
	GenError               Code = 3001
	GenUnresolvedSymbol    Code = 3002
	GenDuplicateSymbol     Code = 3003
	GenTypeMismatch        Code = 3004
	GenInvalidOperands     Code = 3005
	GenUnknownFunction     Code = 3006
	GenBadArgumentCount    Code = 3007
	GenUnknownStructField  Code = 3008
	GenUnregisteredClosure Code = 3009
	GenNotAssignable       Code = 3010
	GenMissingReturn       Code = 3011
	GenBadSwizzle          Code = 3012
	GenVoidValue           Code = 3013
	GenClosureOperands     Code = 3014

	// Shader group linking
	LinkInfo               Code = 4000
	LinkUndefinedUnit      Code = 4001
	LinkCycle              Code = 4002
	LinkNoRoot             Code = 4003
	LinkArgNotFound        Code = 4004
	LinkArgDirection       Code = 4005
	LinkArgTypeMismatch    Code = 4006
	LinkArgUninitialized   Code = 4007
	LinkUnsupportedArgType Code = 4008

	// JIT resolution
	JitInfo               Code = 5000
	JitInvalidTemplate    Code = 5001
	JitVerificationFailed Code = 5002
	JitEngineFailed       Code = 5003
)

var codeNames = map[Code]string{
	UnknownCode:                 "unknown",
	LexInfo:                     "lex-info",
	LexUnknownChar:              "lex-unknown-char",
	LexUnterminatedBlockComment: "lex-unterminated-block-comment",
	LexBadNumber:                "lex-bad-number",
	LexTokenTooLong:             "lex-token-too-long",
	SynInfo:                     "syn-info",
	SynUnexpectedToken:          "syn-unexpected-token",
	SynUnexpectedTopLevel:       "syn-unexpected-top-level",
	SynExpectIdentifier:         "syn-expect-identifier",
	SynExpectType:               "syn-expect-type",
	SynExpectExpression:         "syn-expect-expression",
	SynExpectSemicolon:          "syn-expect-semicolon",
	SynUnclosedParen:            "syn-unclosed-paren",
	SynUnclosedBrace:            "syn-unclosed-brace",
	SynDuplicateShader:          "syn-duplicate-shader",
	SynBadArgumentQual:          "syn-bad-argument-qualifier",
	SynBadDefaultValue:          "syn-bad-default-value",
	SynUnclosedAngle:            "syn-unclosed-angle",
	SynVoidVariable:             "syn-void-variable",
	SynExpectColon:              "syn-expect-colon",
	SynForBadHeader:             "syn-for-bad-header",
	SynStructExpectField:        "syn-struct-expect-field",
	SynMakeClosureBadName:       "syn-make-closure-bad-name",
	SynWhileMissingParen:        "syn-while-missing-paren",
	SynReturnOutsideFn:          "syn-return-outside-fn",
	SynExpectWhileAfterDo:       "syn-expect-while-after-do",
	GenInfo:                     "gen-info",
	GenError:                    "gen-error",
	GenUnresolvedSymbol:         "gen-unresolved-symbol",
	GenDuplicateSymbol:          "gen-duplicate-symbol",
	GenTypeMismatch:             "gen-type-mismatch",
	GenInvalidOperands:          "gen-invalid-operands",
	GenUnknownFunction:          "gen-unknown-function",
	GenBadArgumentCount:         "gen-bad-argument-count",
	GenUnknownStructField:       "gen-unknown-struct-field",
	GenUnregisteredClosure:      "gen-unregistered-closure",
	GenNotAssignable:            "gen-not-assignable",
	GenMissingReturn:            "gen-missing-return",
	GenBadSwizzle:               "gen-bad-swizzle",
	GenVoidValue:                "gen-void-value",
	GenClosureOperands:          "gen-closure-operands",
	LinkInfo:                    "link-info",
	LinkUndefinedUnit:           "link-undefined-unit",
	LinkCycle:                   "link-cycle",
	LinkNoRoot:                  "link-no-root",
	LinkArgNotFound:             "link-arg-not-found",
	LinkArgDirection:            "link-arg-direction",
	LinkArgTypeMismatch:         "link-arg-type-mismatch",
	LinkArgUninitialized:        "link-arg-uninitialized",
	LinkUnsupportedArgType:      "link-unsupported-arg-type",
	JitInfo:                     "jit-info",
	JitInvalidTemplate:          "jit-invalid-template",
	JitVerificationFailed:       "jit-verification-failed",
	JitEngineFailed:             "jit-engine-failed",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return fmt.Sprintf("TSL%04d(%s)", uint16(c), name)
	}
	return fmt.Sprintf("TSL%04d", uint16(c))
}
