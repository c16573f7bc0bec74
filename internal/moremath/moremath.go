// Package moremath provides floating point helpers whose semantics differ
// from the Go standard library in exactly the ways the WebAssembly spec
// requires (min/max NaN propagation and signed-zero tie-breaking).
package moremath

import "math"

// WasmCompatMin mirrors math.Min with a WebAssembly-compatible NaN rule: if
// either operand is NaN, the result is NaN even when the other operand is
// -Inf (math.Min instead favors -Inf).
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax mirrors math.Max with the same WebAssembly NaN rule as
// WasmCompatMin.
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x < y {
		return y
	}
	return x
}

// WasmCompatMin32 is the float32 form of WasmCompatMin.
func WasmCompatMin32(x, y float32) float32 {
	return float32(WasmCompatMin(float64(x), float64(y)))
}

// WasmCompatMax32 is the float32 form of WasmCompatMax.
func WasmCompatMax32(x, y float32) float32 {
	return float32(WasmCompatMax(float64(x), float64(y)))
}

// WasmCompatNearestF32 rounds to the nearest integral value, ties to even,
// as required by the f32.nearest instruction (math.Round ties away from zero).
func WasmCompatNearestF32(f float32) float32 {
	return float32(WasmCompatNearestF64(float64(f)))
}

// WasmCompatNearestF64 rounds to the nearest integral value, ties to even.
func WasmCompatNearestF64(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return f
	}
	rounded := math.Round(f)
	if diff := math.Abs(f - math.Trunc(f)); diff == 0.5 {
		// math.Round ties away from zero; Wasm requires ties-to-even.
		if math.Mod(rounded, 2) != 0 {
			if rounded > f {
				rounded--
			} else {
				rounded++
			}
		}
	}
	return rounded
}
