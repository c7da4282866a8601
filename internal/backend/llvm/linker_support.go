package llvm

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/types"
)

// LowerType exposes type lowering to the group linker, which allocates
// inter-unit slots in the wrapper function.
func (c *Context) LowerType(t types.DataType, structName string) llvm.Type {
	return c.lowerType(t, structName)
}

// ConstValue materializes a literal default as an IR constant.
func (c *Context) ConstValue(v types.Value) (llvm.Value, bool) {
	switch v.Type {
	case types.Int:
		return llvm.ConstInt(c.LL.Int32Type(), uint64(v.I), true), true
	case types.Float:
		return llvm.ConstFloat(c.LL.FloatType(), v.F), true
	case types.Double:
		return llvm.ConstFloat(c.LL.DoubleType(), v.F), true
	case types.Bool:
		return llvm.ConstInt(c.LL.Int1Type(), boolBit(v.B), false), true
	case types.Float3:
		f := c.LL.FloatType()
		return llvm.ConstNamedStruct(c.float3Type(), []llvm.Value{
			llvm.ConstFloat(f, float64(v.V3[0])),
			llvm.ConstFloat(f, float64(v.V3[1])),
			llvm.ConstFloat(f, float64(v.V3[2])),
		}), true
	case types.Float4:
		f := c.LL.FloatType()
		return llvm.ConstNamedStruct(c.float4Type(), []llvm.Value{
			llvm.ConstFloat(f, float64(v.V4[0])),
			llvm.ConstFloat(f, float64(v.V4[1])),
			llvm.ConstFloat(f, float64(v.V4[2])),
			llvm.ConstFloat(f, float64(v.V4[3])),
		}), true
	}
	return llvm.Value{}, false
}

// CloneModule deep-copies a module into another context through a bitcode
// round-trip, which is a pure function of the source module.
func CloneModule(src llvm.Module, dst llvm.Context) (llvm.Module, error) {
	buf := llvm.WriteBitcodeToMemoryBuffer(src)
	// ParseIR takes ownership of the buffer
	return dst.ParseIR(buf)
}
