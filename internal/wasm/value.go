package wasm

// ValueType identifies one of the four numeric types addressable in the
// WebAssembly 1.0 MVP. ValueTypeEmpty is a sentinel used only for block
// types that produce no result.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c

	// ValueTypeEmpty denotes the "no result" block type. It is never a
	// legal operand type and never appears on the value stack.
	ValueTypeEmpty ValueType = 0x40
)

// String renders t using WebAssembly text format names.
func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
