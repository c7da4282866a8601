package types

import (
	"testing"
)

func TestDataTypeStrings(t *testing.T) {
	cases := map[DataType]string{
		Void:    "void",
		Int:     "int",
		Float:   "float",
		Bool:    "bool",
		Float3:  "float3",
		Float4:  "float4",
		Matrix:  "matrix",
		Double:  "double",
		Closure: "closure",
	}
	for dt, want := range cases {
		if dt.String() != want {
			t.Errorf("%d.String() = %q, want %q", dt, dt.String(), want)
		}
		back, ok := ParseDataType(want)
		if !ok || back != dt {
			t.Errorf("ParseDataType(%q) = %v,%v", want, back, ok)
		}
	}
}

func TestAggregateClassification(t *testing.T) {
	for _, dt := range []DataType{Float3, Float4, Matrix, Struct} {
		if !dt.IsAggregate() {
			t.Errorf("%s should be aggregate", dt)
		}
	}
	for _, dt := range []DataType{Int, Float, Double, Bool, Closure} {
		if dt.IsAggregate() {
			t.Errorf("%s should not be aggregate", dt)
		}
	}
}

func TestFindArgument(t *testing.T) {
	args := []ShaderArgument{
		{Name: "x", Type: Float},
		{Name: "y", Type: Float, Output: true},
	}
	a, ok := FindArgument(args, "y")
	if !ok || !a.Output {
		t.Fatalf("FindArgument(y) = %+v, %v", a, ok)
	}
	if _, ok := FindArgument(args, "z"); ok {
		t.Fatalf("phantom argument found")
	}
}

func TestValueString(t *testing.T) {
	if s := Float3Value(0.5, 0.5, 0.5).String(); s != "float3(0.5,0.5,0.5)" {
		t.Fatalf("value string = %q", s)
	}
	if s := IntValue(-3).String(); s != "-3" {
		t.Fatalf("value string = %q", s)
	}
}
