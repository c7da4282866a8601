package types

// DataType is the base type of a TSL value or shader argument.
type DataType int

const (
	Void DataType = iota
	Int
	Float
	Bool
	Float3
	Float4
	Matrix
	Double
	Closure
	// Struct marks a user-declared structure; the name travels alongside.
	Struct
)

func (t DataType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Float3:
		return "float3"
	case Float4:
		return "float4"
	case Matrix:
		return "matrix"
	case Double:
		return "double"
	case Closure:
		return "closure"
	case Struct:
		return "struct"
	}
	return "void"
}

// IsNumeric reports whether the type participates in arithmetic.
func (t DataType) IsNumeric() bool {
	switch t {
	case Int, Float, Double, Bool:
		return true
	default:
		return false
	}
}

// IsAggregate reports whether values of the type are passed by pointer
// even for `in` arguments.
func (t DataType) IsAggregate() bool {
	switch t {
	case Float3, Float4, Matrix, Struct:
		return true
	default:
		return false
	}
}

// ArgumentSupported reports whether the type may appear as an exposed or
// wired shader-group argument.
func (t DataType) ArgumentSupported() bool {
	switch t {
	case Int, Float, Double, Bool, Float3, Float4, Matrix, Closure:
		return true
	default:
		return false
	}
}

// ParseDataType resolves a type name used in group definitions.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "void":
		return Void, true
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "bool":
		return Bool, true
	case "float3":
		return Float3, true
	case "float4":
		return Float4, true
	case "matrix":
		return Matrix, true
	case "double":
		return Double, true
	case "closure":
		return Closure, true
	}
	return Void, false
}
