package ast

import (
	"tsl/internal/source"
	"tsl/internal/token"
	"tsl/internal/types"
)

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	// ExprIntLit is an integer literal; value in IntVal.
	ExprIntLit
	// ExprFloatLit is a float literal; value in FloatVal.
	ExprFloatLit
	// ExprDoubleLit is a double literal; value in FloatVal.
	ExprDoubleLit
	// ExprBoolLit is true/false; value in BoolVal.
	ExprBoolLit
	// ExprIdent references a variable by Name.
	ExprIdent
	// ExprUnary applies Op to X.
	ExprUnary
	// ExprBinary applies Op to X and Y.
	ExprBinary
	// ExprAssign stores Y into lvalue X; Op distinguishes = += -= *= /= %=.
	ExprAssign
	// ExprCond is X ? Y : Z.
	ExprCond
	// ExprCall invokes function Name with Args.
	ExprCall
	// ExprMember accesses field Name of X (struct field or vector lane).
	ExprMember
	// ExprConstruct builds a float3/float4 from Args; Type holds which.
	ExprConstruct
	// ExprMakeClosure calls the registered closure constructor Name.
	ExprMakeClosure
)

// Expr is one expression node. Operand meaning depends on Kind; unused
// fields stay zero.
type Expr struct {
	Kind ExprKind
	Span source.Span

	IntVal   int64
	FloatVal float64
	BoolVal  bool

	Name string
	Op   token.Kind
	Type types.DataType

	X, Y, Z ExprID
	Args    []ExprID
}
