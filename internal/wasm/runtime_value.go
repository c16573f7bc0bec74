package wasm

import "fmt"

// Value is a tagged union over the four WebAssembly numeric types.
// The zero Value has Type 0, which is none of the four types; it is not
// equal to I32(0).
type Value struct {
	Type ValueType
	i32  int32
	i64  int64
	f32  float32
	f64  float64
}

// I32 constructs an i32 value.
func I32(v int32) Value { return Value{Type: ValueTypeI32, i32: v} }

// I64 constructs an i64 value.
func I64(v int64) Value { return Value{Type: ValueTypeI64, i64: v} }

// F32 constructs an f32 value.
func F32(v float32) Value { return Value{Type: ValueTypeF32, f32: v} }

// F64 constructs an f64 value.
func F64(v float64) Value { return Value{Type: ValueTypeF64, f64: v} }

// ToI32 returns the underlying int32. Only valid when Type == ValueTypeI32.
func (v Value) ToI32() int32 { return v.i32 }

// ToI64 returns the underlying int64. Only valid when Type == ValueTypeI64.
func (v Value) ToI64() int64 { return v.i64 }

// ToF32 returns the underlying float32. Only valid when Type == ValueTypeF32.
func (v Value) ToF32() float32 { return v.f32 }

// ToF64 returns the underlying float64. Only valid when Type == ValueTypeF64.
func (v Value) ToF64() float64 { return v.f64 }

func (v Value) String() string {
	switch v.Type {
	case ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.i32)
	case ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.i64)
	case ValueTypeF32:
		return fmt.Sprintf("f32:%v", v.f32)
	case ValueTypeF64:
		return fmt.Sprintf("f64:%v", v.f64)
	default:
		return "invalid"
	}
}

// IsTruthy implements Wasm's notion of a boolean test on an i32: nonzero is
// true. Used by if/br_if/select conditions.
func (v Value) IsTruthy() bool { return v.Type == ValueTypeI32 && v.i32 != 0 }
