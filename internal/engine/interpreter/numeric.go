package interpreter

import (
	"math"
	"math/bits"

	"github.com/kogai/vm/internal/moremath"
	wasm "github.com/kogai/vm/internal/wasm"
)

// applyUnary evaluates every opcode that consumes exactly one operand: test
// operators, unary arithmetic, and numeric conversions. The returned bool is
// false when op is not a unary opcode at all; trap is only meaningful when
// the bool is true, and trap == noTrap then means the value is valid.
func applyUnary(op wasm.Opcode, a wasm.Value) (wasm.Value, Trap, bool) {
	switch op {
	case wasm.OpcodeI32Eqz:
		return boolValue(a.ToI32() == 0), noTrap, true
	case wasm.OpcodeI64Eqz:
		return boolValue(a.ToI64() == 0), noTrap, true

	case wasm.OpcodeI32Clz:
		return wasm.I32(int32(bits.LeadingZeros32(uint32(a.ToI32())))), noTrap, true
	case wasm.OpcodeI32Ctz:
		return wasm.I32(int32(bits.TrailingZeros32(uint32(a.ToI32())))), noTrap, true
	case wasm.OpcodeI32Popcnt:
		return wasm.I32(int32(bits.OnesCount32(uint32(a.ToI32())))), noTrap, true
	case wasm.OpcodeI64Clz:
		return wasm.I64(int64(bits.LeadingZeros64(uint64(a.ToI64())))), noTrap, true
	case wasm.OpcodeI64Ctz:
		return wasm.I64(int64(bits.TrailingZeros64(uint64(a.ToI64())))), noTrap, true
	case wasm.OpcodeI64Popcnt:
		return wasm.I64(int64(bits.OnesCount64(uint64(a.ToI64())))), noTrap, true

	case wasm.OpcodeF32Abs:
		return wasm.F32(float32(math.Abs(float64(a.ToF32())))), noTrap, true
	case wasm.OpcodeF32Neg:
		return wasm.F32(-a.ToF32()), noTrap, true
	case wasm.OpcodeF32Ceil:
		return wasm.F32(float32(math.Ceil(float64(a.ToF32())))), noTrap, true
	case wasm.OpcodeF32Floor:
		return wasm.F32(float32(math.Floor(float64(a.ToF32())))), noTrap, true
	case wasm.OpcodeF32Trunc:
		return wasm.F32(float32(math.Trunc(float64(a.ToF32())))), noTrap, true
	case wasm.OpcodeF32Nearest:
		return wasm.F32(moremath.WasmCompatNearestF32(a.ToF32())), noTrap, true
	case wasm.OpcodeF32Sqrt:
		return wasm.F32(float32(math.Sqrt(float64(a.ToF32())))), noTrap, true

	case wasm.OpcodeF64Abs:
		return wasm.F64(math.Abs(a.ToF64())), noTrap, true
	case wasm.OpcodeF64Neg:
		return wasm.F64(-a.ToF64()), noTrap, true
	case wasm.OpcodeF64Ceil:
		return wasm.F64(math.Ceil(a.ToF64())), noTrap, true
	case wasm.OpcodeF64Floor:
		return wasm.F64(math.Floor(a.ToF64())), noTrap, true
	case wasm.OpcodeF64Trunc:
		return wasm.F64(math.Trunc(a.ToF64())), noTrap, true
	case wasm.OpcodeF64Nearest:
		return wasm.F64(moremath.WasmCompatNearestF64(a.ToF64())), noTrap, true
	case wasm.OpcodeF64Sqrt:
		return wasm.F64(math.Sqrt(a.ToF64())), noTrap, true

	case wasm.OpcodeI32WrapI64:
		return wasm.I32(int32(a.ToI64())), noTrap, true
	case wasm.OpcodeI64ExtendI32S:
		return wasm.I64(int64(a.ToI32())), noTrap, true
	case wasm.OpcodeI64ExtendI32U:
		return wasm.I64(int64(uint32(a.ToI32()))), noTrap, true

	case wasm.OpcodeI32TruncF32S:
		return viaTrunc(truncToI32(float64(a.ToF32())))
	case wasm.OpcodeI32TruncF32U:
		return viaTrunc(truncToU32(float64(a.ToF32())))
	case wasm.OpcodeI32TruncF64S:
		return viaTrunc(truncToI32(a.ToF64()))
	case wasm.OpcodeI32TruncF64U:
		return viaTrunc(truncToU32(a.ToF64()))
	case wasm.OpcodeI64TruncF32S:
		return viaTrunc(truncToI64(float64(a.ToF32())))
	case wasm.OpcodeI64TruncF32U:
		return viaTrunc(truncToU64(float64(a.ToF32())))
	case wasm.OpcodeI64TruncF64S:
		return viaTrunc(truncToI64(a.ToF64()))
	case wasm.OpcodeI64TruncF64U:
		return viaTrunc(truncToU64(a.ToF64()))

	case wasm.OpcodeF32ConvertI32S:
		return wasm.F32(float32(a.ToI32())), noTrap, true
	case wasm.OpcodeF32ConvertI32U:
		return wasm.F32(float32(uint32(a.ToI32()))), noTrap, true
	case wasm.OpcodeF32ConvertI64S:
		return wasm.F32(float32(a.ToI64())), noTrap, true
	case wasm.OpcodeF32ConvertI64U:
		return wasm.F32(float32(uint64(a.ToI64()))), noTrap, true
	case wasm.OpcodeF32DemoteF64:
		return wasm.F32(float32(a.ToF64())), noTrap, true

	case wasm.OpcodeF64ConvertI32S:
		return wasm.F64(float64(a.ToI32())), noTrap, true
	case wasm.OpcodeF64ConvertI32U:
		return wasm.F64(float64(uint32(a.ToI32()))), noTrap, true
	case wasm.OpcodeF64ConvertI64S:
		return wasm.F64(float64(a.ToI64())), noTrap, true
	case wasm.OpcodeF64ConvertI64U:
		return wasm.F64(float64(uint64(a.ToI64()))), noTrap, true
	case wasm.OpcodeF64PromoteF32:
		return wasm.F64(float64(a.ToF32())), noTrap, true

	case wasm.OpcodeI32ReinterpretF32:
		return wasm.I32(int32(math.Float32bits(a.ToF32()))), noTrap, true
	case wasm.OpcodeF32ReinterpretI32:
		return wasm.F32(math.Float32frombits(uint32(a.ToI32()))), noTrap, true
	case wasm.OpcodeI64ReinterpretF64:
		return wasm.I64(int64(math.Float64bits(a.ToF64()))), noTrap, true
	case wasm.OpcodeF64ReinterpretI64:
		return wasm.F64(math.Float64frombits(uint64(a.ToI64()))), noTrap, true

	default:
		return wasm.Value{}, noTrap, false
	}
}

// viaTrunc adapts a truncToXxx helper's (value, trap, ok) result — ok means
// "did not trap" — into applyUnary's (value, trap, matched) convention,
// where matched is unconditionally true and trap is noTrap on success.
func viaTrunc(v wasm.Value, trap Trap, ok bool) (wasm.Value, Trap, bool) {
	if !ok {
		return wasm.Value{}, trap, true
	}
	return v, noTrap, true
}

// applyBinary evaluates every opcode that consumes exactly two operands:
// comparisons and binary arithmetic. Same (value, trap, matched) convention
// as applyUnary.
func applyBinary(op wasm.Opcode, a, b wasm.Value) (wasm.Value, Trap, bool) {
	switch op {
	case wasm.OpcodeI32Eq:
		return boolValue(a.ToI32() == b.ToI32()), noTrap, true
	case wasm.OpcodeI32Ne:
		return boolValue(a.ToI32() != b.ToI32()), noTrap, true
	case wasm.OpcodeI32LtS:
		return boolValue(a.ToI32() < b.ToI32()), noTrap, true
	case wasm.OpcodeI32LtU:
		return boolValue(uint32(a.ToI32()) < uint32(b.ToI32())), noTrap, true
	case wasm.OpcodeI32GtS:
		return boolValue(a.ToI32() > b.ToI32()), noTrap, true
	case wasm.OpcodeI32GtU:
		return boolValue(uint32(a.ToI32()) > uint32(b.ToI32())), noTrap, true
	case wasm.OpcodeI32LeS:
		return boolValue(a.ToI32() <= b.ToI32()), noTrap, true
	case wasm.OpcodeI32LeU:
		return boolValue(uint32(a.ToI32()) <= uint32(b.ToI32())), noTrap, true
	case wasm.OpcodeI32GeS:
		return boolValue(a.ToI32() >= b.ToI32()), noTrap, true
	case wasm.OpcodeI32GeU:
		return boolValue(uint32(a.ToI32()) >= uint32(b.ToI32())), noTrap, true

	case wasm.OpcodeI64Eq:
		return boolValue(a.ToI64() == b.ToI64()), noTrap, true
	case wasm.OpcodeI64Ne:
		return boolValue(a.ToI64() != b.ToI64()), noTrap, true
	case wasm.OpcodeI64LtS:
		return boolValue(a.ToI64() < b.ToI64()), noTrap, true
	case wasm.OpcodeI64LtU:
		return boolValue(uint64(a.ToI64()) < uint64(b.ToI64())), noTrap, true
	case wasm.OpcodeI64GtS:
		return boolValue(a.ToI64() > b.ToI64()), noTrap, true
	case wasm.OpcodeI64GtU:
		return boolValue(uint64(a.ToI64()) > uint64(b.ToI64())), noTrap, true
	case wasm.OpcodeI64LeS:
		return boolValue(a.ToI64() <= b.ToI64()), noTrap, true
	case wasm.OpcodeI64LeU:
		return boolValue(uint64(a.ToI64()) <= uint64(b.ToI64())), noTrap, true
	case wasm.OpcodeI64GeS:
		return boolValue(a.ToI64() >= b.ToI64()), noTrap, true
	case wasm.OpcodeI64GeU:
		return boolValue(uint64(a.ToI64()) >= uint64(b.ToI64())), noTrap, true

	case wasm.OpcodeF32Eq:
		return boolValue(a.ToF32() == b.ToF32()), noTrap, true
	case wasm.OpcodeF32Ne:
		return boolValue(a.ToF32() != b.ToF32()), noTrap, true
	case wasm.OpcodeF32Lt:
		return boolValue(a.ToF32() < b.ToF32()), noTrap, true
	case wasm.OpcodeF32Gt:
		return boolValue(a.ToF32() > b.ToF32()), noTrap, true
	case wasm.OpcodeF32Le:
		return boolValue(a.ToF32() <= b.ToF32()), noTrap, true
	case wasm.OpcodeF32Ge:
		return boolValue(a.ToF32() >= b.ToF32()), noTrap, true

	case wasm.OpcodeF64Eq:
		return boolValue(a.ToF64() == b.ToF64()), noTrap, true
	case wasm.OpcodeF64Ne:
		return boolValue(a.ToF64() != b.ToF64()), noTrap, true
	case wasm.OpcodeF64Lt:
		return boolValue(a.ToF64() < b.ToF64()), noTrap, true
	case wasm.OpcodeF64Gt:
		return boolValue(a.ToF64() > b.ToF64()), noTrap, true
	case wasm.OpcodeF64Le:
		return boolValue(a.ToF64() <= b.ToF64()), noTrap, true
	case wasm.OpcodeF64Ge:
		return boolValue(a.ToF64() >= b.ToF64()), noTrap, true

	case wasm.OpcodeI32Add:
		return wasm.I32(a.ToI32() + b.ToI32()), noTrap, true
	case wasm.OpcodeI32Sub:
		return wasm.I32(a.ToI32() - b.ToI32()), noTrap, true
	case wasm.OpcodeI32Mul:
		return wasm.I32(a.ToI32() * b.ToI32()), noTrap, true
	case wasm.OpcodeI32DivS:
		return viaDiv(i32DivS(a.ToI32(), b.ToI32()))
	case wasm.OpcodeI32DivU:
		return viaDiv(i32DivU(uint32(a.ToI32()), uint32(b.ToI32())))
	case wasm.OpcodeI32RemS:
		return viaDiv(i32RemS(a.ToI32(), b.ToI32()))
	case wasm.OpcodeI32RemU:
		return viaDiv(i32RemU(uint32(a.ToI32()), uint32(b.ToI32())))
	case wasm.OpcodeI32And:
		return wasm.I32(a.ToI32() & b.ToI32()), noTrap, true
	case wasm.OpcodeI32Or:
		return wasm.I32(a.ToI32() | b.ToI32()), noTrap, true
	case wasm.OpcodeI32Xor:
		return wasm.I32(a.ToI32() ^ b.ToI32()), noTrap, true
	case wasm.OpcodeI32Shl:
		return wasm.I32(a.ToI32() << (uint32(b.ToI32()) % 32)), noTrap, true
	case wasm.OpcodeI32ShrS:
		return wasm.I32(a.ToI32() >> (uint32(b.ToI32()) % 32)), noTrap, true
	case wasm.OpcodeI32ShrU:
		return wasm.I32(int32(uint32(a.ToI32()) >> (uint32(b.ToI32()) % 32))), noTrap, true
	case wasm.OpcodeI32Rotl:
		return wasm.I32(int32(bits.RotateLeft32(uint32(a.ToI32()), int(b.ToI32())))), noTrap, true
	case wasm.OpcodeI32Rotr:
		return wasm.I32(int32(bits.RotateLeft32(uint32(a.ToI32()), -int(b.ToI32())))), noTrap, true

	case wasm.OpcodeI64Add:
		return wasm.I64(a.ToI64() + b.ToI64()), noTrap, true
	case wasm.OpcodeI64Sub:
		return wasm.I64(a.ToI64() - b.ToI64()), noTrap, true
	case wasm.OpcodeI64Mul:
		return wasm.I64(a.ToI64() * b.ToI64()), noTrap, true
	case wasm.OpcodeI64DivS:
		return viaDiv(i64DivS(a.ToI64(), b.ToI64()))
	case wasm.OpcodeI64DivU:
		return viaDiv(i64DivU(uint64(a.ToI64()), uint64(b.ToI64())))
	case wasm.OpcodeI64RemS:
		return viaDiv(i64RemS(a.ToI64(), b.ToI64()))
	case wasm.OpcodeI64RemU:
		return viaDiv(i64RemU(uint64(a.ToI64()), uint64(b.ToI64())))
	case wasm.OpcodeI64And:
		return wasm.I64(a.ToI64() & b.ToI64()), noTrap, true
	case wasm.OpcodeI64Or:
		return wasm.I64(a.ToI64() | b.ToI64()), noTrap, true
	case wasm.OpcodeI64Xor:
		return wasm.I64(a.ToI64() ^ b.ToI64()), noTrap, true
	case wasm.OpcodeI64Shl:
		return wasm.I64(a.ToI64() << (uint64(b.ToI64()) % 64)), noTrap, true
	case wasm.OpcodeI64ShrS:
		return wasm.I64(a.ToI64() >> (uint64(b.ToI64()) % 64)), noTrap, true
	case wasm.OpcodeI64ShrU:
		return wasm.I64(int64(uint64(a.ToI64()) >> (uint64(b.ToI64()) % 64))), noTrap, true
	case wasm.OpcodeI64Rotl:
		return wasm.I64(int64(bits.RotateLeft64(uint64(a.ToI64()), int(b.ToI64())))), noTrap, true
	case wasm.OpcodeI64Rotr:
		return wasm.I64(int64(bits.RotateLeft64(uint64(a.ToI64()), -int(b.ToI64())))), noTrap, true

	case wasm.OpcodeF32Add:
		return wasm.F32(a.ToF32() + b.ToF32()), noTrap, true
	case wasm.OpcodeF32Sub:
		return wasm.F32(a.ToF32() - b.ToF32()), noTrap, true
	case wasm.OpcodeF32Mul:
		return wasm.F32(a.ToF32() * b.ToF32()), noTrap, true
	case wasm.OpcodeF32Div:
		return wasm.F32(a.ToF32() / b.ToF32()), noTrap, true
	case wasm.OpcodeF32Min:
		return wasm.F32(moremath.WasmCompatMin32(a.ToF32(), b.ToF32())), noTrap, true
	case wasm.OpcodeF32Max:
		return wasm.F32(moremath.WasmCompatMax32(a.ToF32(), b.ToF32())), noTrap, true
	case wasm.OpcodeF32Copysign:
		return wasm.F32(float32(math.Copysign(float64(a.ToF32()), float64(b.ToF32())))), noTrap, true

	case wasm.OpcodeF64Add:
		return wasm.F64(a.ToF64() + b.ToF64()), noTrap, true
	case wasm.OpcodeF64Sub:
		return wasm.F64(a.ToF64() - b.ToF64()), noTrap, true
	case wasm.OpcodeF64Mul:
		return wasm.F64(a.ToF64() * b.ToF64()), noTrap, true
	case wasm.OpcodeF64Div:
		return wasm.F64(a.ToF64() / b.ToF64()), noTrap, true
	case wasm.OpcodeF64Min:
		return wasm.F64(moremath.WasmCompatMin(a.ToF64(), b.ToF64())), noTrap, true
	case wasm.OpcodeF64Max:
		return wasm.F64(moremath.WasmCompatMax(a.ToF64(), b.ToF64())), noTrap, true
	case wasm.OpcodeF64Copysign:
		return wasm.F64(math.Copysign(a.ToF64(), b.ToF64())), noTrap, true

	default:
		return wasm.Value{}, noTrap, false
	}
}

// viaDiv adapts a division/remainder helper's (value, trap, ok) result into
// applyBinary's (value, trap, matched) convention.
func viaDiv(v wasm.Value, trap Trap, ok bool) (wasm.Value, Trap, bool) {
	if !ok {
		return wasm.Value{}, trap, true
	}
	return v, noTrap, true
}

func boolValue(b bool) wasm.Value {
	if b {
		return wasm.I32(1)
	}
	return wasm.I32(0)
}

// i32DivS and i32RemS special-case INT32_MIN / -1: the quotient overflows a
// 32-bit signed integer and traps, but the remainder is well-defined (0).
// The bool result here means "did not trap", not "recognized opcode".
func i32DivS(a, b int32) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	if a == math.MinInt32 && b == -1 {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I32(a / b), noTrap, true
}

func i32RemS(a, b int32) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	if a == math.MinInt32 && b == -1 {
		return wasm.I32(0), noTrap, true
	}
	return wasm.I32(a % b), noTrap, true
}

func i32DivU(a, b uint32) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	return wasm.I32(int32(a / b)), noTrap, true
}

func i32RemU(a, b uint32) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	return wasm.I32(int32(a % b)), noTrap, true
}

func i64DivS(a, b int64) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	if a == math.MinInt64 && b == -1 {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I64(a / b), noTrap, true
}

func i64RemS(a, b int64) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	if a == math.MinInt64 && b == -1 {
		return wasm.I64(0), noTrap, true
	}
	return wasm.I64(a % b), noTrap, true
}

func i64DivU(a, b uint64) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	return wasm.I64(int64(a / b)), noTrap, true
}

func i64RemU(a, b uint64) (wasm.Value, Trap, bool) {
	if b == 0 {
		return wasm.Value{}, TrapIntegerDivideByZero, false
	}
	return wasm.I64(int64(a % b)), noTrap, true
}

const (
	i32TruncMinS = -2147483648.0 - 1
	i32TruncMaxS = 2147483648.0
	i32TruncMaxU = 4294967296.0
	i64TruncMinS = -9223372036854775808.0
	i64TruncMaxS = 9223372036854775808.0
	i64TruncMaxU = 18446744073709551616.0
)

func truncToI32(f float64) (wasm.Value, Trap, bool) {
	if math.IsNaN(f) {
		return wasm.Value{}, TrapInvalidConversionToInteger, false
	}
	t := math.Trunc(f)
	if t <= i32TruncMinS || t >= i32TruncMaxS {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I32(int32(t)), noTrap, true
}

func truncToU32(f float64) (wasm.Value, Trap, bool) {
	if math.IsNaN(f) {
		return wasm.Value{}, TrapInvalidConversionToInteger, false
	}
	t := math.Trunc(f)
	if t <= -1 || t >= i32TruncMaxU {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I32(int32(uint32(t))), noTrap, true
}

func truncToI64(f float64) (wasm.Value, Trap, bool) {
	if math.IsNaN(f) {
		return wasm.Value{}, TrapInvalidConversionToInteger, false
	}
	t := math.Trunc(f)
	if t < i64TruncMinS || t >= i64TruncMaxS {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I64(int64(t)), noTrap, true
}

func truncToU64(f float64) (wasm.Value, Trap, bool) {
	if math.IsNaN(f) {
		return wasm.Value{}, TrapInvalidConversionToInteger, false
	}
	t := math.Trunc(f)
	if t <= -1 || t >= i64TruncMaxU {
		return wasm.Value{}, TrapIntegerOverflow, false
	}
	return wasm.I64(int64(uint64(t))), noTrap, true
}
