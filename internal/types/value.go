package types

import (
	"fmt"
)

// Value is a literal of one of the base types, used for argument defaults
// in shader sources and group definitions.
type Value struct {
	Type DataType
	I    int64
	F    float64
	B    bool
	V3   [3]float32
	V4   [4]float32
}

func IntValue(v int64) Value       { return Value{Type: Int, I: v} }
func FloatValue(v float64) Value   { return Value{Type: Float, F: v} }
func DoubleValue(v float64) Value  { return Value{Type: Double, F: v} }
func BoolValue(v bool) Value       { return Value{Type: Bool, B: v} }
func Float3Value(x, y, z float32) Value {
	return Value{Type: Float3, V3: [3]float32{x, y, z}}
}
func Float4Value(x, y, z, w float32) Value {
	return Value{Type: Float4, V4: [4]float32{x, y, z, w}}
}

func (v Value) String() string {
	switch v.Type {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float, Double:
		return fmt.Sprintf("%g", v.F)
	case Bool:
		return fmt.Sprintf("%t", v.B)
	case Float3:
		return fmt.Sprintf("float3(%g,%g,%g)", v.V3[0], v.V3[1], v.V3[2])
	case Float4:
		return fmt.Sprintf("float4(%g,%g,%g,%g)", v.V4[0], v.V4[1], v.V4[2], v.V4[3])
	}
	return "void"
}
