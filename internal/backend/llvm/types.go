package llvm

import (
	"tinygo.org/x/go-llvm"

	"tsl/internal/types"
)

// Names of the IR struct types shared with the host. The layouts mirror
// internal/abi exactly; they are not re-checked against the target data
// layout at JIT time.
const (
	closureBaseTypeName = "struct.closure_base"
	closureAddTypeName  = "struct.closure_add"
	closureMulTypeName  = "struct.closure_mul"
	float3TypeName      = "struct.float3"
	float4TypeName      = "struct.float4"
	matrixTypeName      = "struct.matrix"
	globalTypeName      = "struct.tsl_global"
)

// namedType materializes (once) a named struct type in this context.
func (c *Context) namedType(name string, mk func() llvm.Type) llvm.Type {
	if t, ok := c.named[name]; ok {
		return t
	}
	t := mk()
	c.named[name] = t
	return t
}

func (c *Context) closureBaseType() llvm.Type {
	return c.namedType(closureBaseTypeName, func() llvm.Type {
		t := c.LL.StructCreateNamed(closureBaseTypeName)
		t.StructSetBody([]llvm.Type{c.LL.Int32Type()}, false)
		return t
	})
}

func (c *Context) closureAddType() llvm.Type {
	return c.namedType(closureAddTypeName, func() llvm.Type {
		ptr := llvm.PointerType(c.closureBaseType(), 0)
		t := c.LL.StructCreateNamed(closureAddTypeName)
		// the explicit 4-byte pad keeps the pointer fields at offsets 8/16
		t.StructSetBody([]llvm.Type{
			c.LL.Int32Type(),
			llvm.ArrayType(c.LL.Int8Type(), 4),
			ptr,
			ptr,
		}, false)
		return t
	})
}

func (c *Context) closureMulType() llvm.Type {
	return c.namedType(closureMulTypeName, func() llvm.Type {
		ptr := llvm.PointerType(c.closureBaseType(), 0)
		t := c.LL.StructCreateNamed(closureMulTypeName)
		t.StructSetBody([]llvm.Type{
			c.LL.Int32Type(),
			c.LL.FloatType(),
			ptr,
		}, false)
		return t
	})
}

func (c *Context) closurePtrType() llvm.Type {
	return llvm.PointerType(c.closureBaseType(), 0)
}

func (c *Context) float3Type() llvm.Type {
	return c.namedType(float3TypeName, func() llvm.Type {
		f := c.LL.FloatType()
		t := c.LL.StructCreateNamed(float3TypeName)
		t.StructSetBody([]llvm.Type{f, f, f}, false)
		return t
	})
}

func (c *Context) float4Type() llvm.Type {
	return c.namedType(float4TypeName, func() llvm.Type {
		f := c.LL.FloatType()
		t := c.LL.StructCreateNamed(float4TypeName)
		t.StructSetBody([]llvm.Type{f, f, f, f}, false)
		return t
	})
}

func (c *Context) matrixType() llvm.Type {
	return c.namedType(matrixTypeName, func() llvm.Type {
		t := c.LL.StructCreateNamed(matrixTypeName)
		t.StructSetBody([]llvm.Type{llvm.ArrayType(c.LL.FloatType(), 16)}, false)
		return t
	})
}

func (c *Context) globalStructType() llvm.Type {
	// opaque to the compiler; the host defines what is behind the pointer
	return c.namedType(globalTypeName, func() llvm.Type {
		return c.LL.StructCreateNamed(globalTypeName)
	})
}

func (c *Context) globalPtrType() llvm.Type {
	return llvm.PointerType(c.globalStructType(), 0)
}

// lowerType maps a TSL type to its IR value type.
func (c *Context) lowerType(t types.DataType, structName string) llvm.Type {
	switch t {
	case types.Void:
		return c.LL.VoidType()
	case types.Int:
		return c.LL.Int32Type()
	case types.Float:
		return c.LL.FloatType()
	case types.Double:
		return c.LL.DoubleType()
	case types.Bool:
		return c.LL.Int1Type()
	case types.Float3:
		return c.float3Type()
	case types.Float4:
		return c.float4Type()
	case types.Matrix:
		return c.matrixType()
	case types.Closure:
		return c.closurePtrType()
	case types.Struct:
		if info, ok := c.structs[structName]; ok {
			return info.LL
		}
		return c.LL.VoidType()
	}
	return c.LL.VoidType()
}

// abiParamType lowers one shader argument for the external shader ABI:
// outputs and aggregates travel by pointer, scalar inputs by value.
func (c *Context) abiParamType(t types.DataType, structName string, output bool) llvm.Type {
	vt := c.lowerType(t, structName)
	if output || t.IsAggregate() {
		return llvm.PointerType(vt, 0)
	}
	return vt
}
