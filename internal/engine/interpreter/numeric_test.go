package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	wasm "github.com/kogai/vm/internal/wasm"
)

func TestApplyBinary_I32Add(t *testing.T) {
	v, trap, matched := applyBinary(wasm.OpcodeI32Add, wasm.I32(3), wasm.I32(4))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(7), v.ToI32())
}

func TestApplyBinary_I32AddWraps(t *testing.T) {
	v, trap, matched := applyBinary(wasm.OpcodeI32Add, wasm.I32(math.MaxInt32), wasm.I32(1))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(math.MinInt32), v.ToI32())
}

func TestApplyBinary_I32DivSByZeroTraps(t *testing.T) {
	_, trap, matched := applyBinary(wasm.OpcodeI32DivS, wasm.I32(1), wasm.I32(0))
	require.True(t, matched)
	require.Equal(t, TrapIntegerDivideByZero, trap)
}

func TestApplyBinary_I32DivSIntMinByNegOneTraps(t *testing.T) {
	_, trap, matched := applyBinary(wasm.OpcodeI32DivS, wasm.I32(math.MinInt32), wasm.I32(-1))
	require.True(t, matched)
	require.Equal(t, TrapIntegerOverflow, trap)
}

func TestApplyBinary_I32RemSIntMinByNegOneDoesNotTrap(t *testing.T) {
	v, trap, matched := applyBinary(wasm.OpcodeI32RemS, wasm.I32(math.MinInt32), wasm.I32(-1))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(0), v.ToI32())
}

func TestApplyBinary_I64DivUByZeroTraps(t *testing.T) {
	_, trap, matched := applyBinary(wasm.OpcodeI64DivU, wasm.I64(5), wasm.I64(0))
	require.True(t, matched)
	require.Equal(t, TrapIntegerDivideByZero, trap)
}

func TestApplyBinary_I32ShlMasksShiftCount(t *testing.T) {
	// shift count 33 masks to 1 in a 32-bit shift.
	v, trap, matched := applyBinary(wasm.OpcodeI32Shl, wasm.I32(1), wasm.I32(33))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(2), v.ToI32())
}

func TestApplyBinary_F32MinPropagatesNaN(t *testing.T) {
	v, trap, matched := applyBinary(wasm.OpcodeF32Min, wasm.F32(float32(math.NaN())), wasm.F32(1))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.True(t, math.IsNaN(float64(v.ToF32())))
}

func TestApplyBinary_Unrecognized(t *testing.T) {
	_, _, matched := applyBinary(wasm.OpcodeNop, wasm.I32(0), wasm.I32(0))
	require.False(t, matched)
}

func TestApplyUnary_I32Eqz(t *testing.T) {
	v, trap, matched := applyUnary(wasm.OpcodeI32Eqz, wasm.I32(0))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(1), v.ToI32())
}

func TestApplyUnary_TruncF64ToI32NaNTraps(t *testing.T) {
	_, trap, matched := applyUnary(wasm.OpcodeI32TruncF64S, wasm.F64(math.NaN()))
	require.True(t, matched)
	require.Equal(t, TrapInvalidConversionToInteger, trap)
}

func TestApplyUnary_TruncF64ToI32OutOfRangeTraps(t *testing.T) {
	_, trap, matched := applyUnary(wasm.OpcodeI32TruncF64S, wasm.F64(1e20))
	require.True(t, matched)
	require.Equal(t, TrapIntegerOverflow, trap)
}

func TestApplyUnary_TruncF64ToI32InRange(t *testing.T) {
	v, trap, matched := applyUnary(wasm.OpcodeI32TruncF64S, wasm.F64(3.9))
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, int32(3), v.ToI32())
}

func TestApplyUnary_I32ReinterpretF32RoundTrip(t *testing.T) {
	orig := wasm.F32(3.5)
	asI32, trap, matched := applyUnary(wasm.OpcodeI32ReinterpretF32, orig)
	require.True(t, matched)
	require.Equal(t, noTrap, trap)

	back, trap, matched := applyUnary(wasm.OpcodeF32ReinterpretI32, asI32)
	require.True(t, matched)
	require.Equal(t, noTrap, trap)
	require.Equal(t, orig.ToF32(), back.ToF32())
}

func TestApplyUnary_Unrecognized(t *testing.T) {
	_, _, matched := applyUnary(wasm.OpcodeNop, wasm.I32(0))
	require.False(t, matched)
}

func TestApplyUnary_ClzCtzPopcnt(t *testing.T) {
	v, _, matched := applyUnary(wasm.OpcodeI32Clz, wasm.I32(1))
	require.True(t, matched)
	require.Equal(t, int32(31), v.ToI32())

	v, _, matched = applyUnary(wasm.OpcodeI32Ctz, wasm.I32(8))
	require.True(t, matched)
	require.Equal(t, int32(3), v.ToI32())

	v, _, matched = applyUnary(wasm.OpcodeI32Popcnt, wasm.I32(7))
	require.True(t, matched)
	require.Equal(t, int32(3), v.ToI32())
}
