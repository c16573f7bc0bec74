package spectest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	wasm "github.com/kogai/vm/internal/wasm"
	"github.com/kogai/vm/internal/spectest"
)

func TestNew_Globals(t *testing.T) {
	em := spectest.New()

	g, ok := em.Globals["global_i32"]
	require.True(t, ok)
	require.False(t, g.Type.Mutable)
	require.Equal(t, int32(666), g.Value.ToI32())

	f32, ok := em.Globals["global_f32"]
	require.True(t, ok)
	require.False(t, f32.Type.Mutable)
	require.Equal(t, float32(0), f32.Value.ToF32())

	f64, ok := em.Globals["global_f64"]
	require.True(t, ok)
	require.False(t, f64.Type.Mutable)
	require.Equal(t, float64(0), f64.Value.ToF64())
}

func TestNew_TableLimits(t *testing.T) {
	em := spectest.New()
	table, ok := em.Tables["table"]
	require.True(t, ok)
	require.Equal(t, uint32(10), table.Limit.Min)
	require.NotNil(t, table.Limit.Max)
	require.Equal(t, uint32(20), *table.Limit.Max)
	require.Len(t, table.Elements, 10)
}

func TestNew_MemoryLimits(t *testing.T) {
	em := spectest.New()
	mem, ok := em.Memories["memory"]
	require.True(t, ok)
	require.Equal(t, uint32(1), mem.Limit.Min)
	require.NotNil(t, mem.Limit.Max)
	require.Equal(t, uint32(2), *mem.Limit.Max)
	require.Equal(t, uint32(1), mem.PageSize())
}

func TestNew_PrintSignatures(t *testing.T) {
	em := spectest.New()

	cases := map[string][]wasm.ValueType{
		"print":         nil,
		"print_i32":     {wasm.ValueTypeI32},
		"print_i64":     {wasm.ValueTypeI64},
		"print_f32":     {wasm.ValueTypeF32},
		"print_f64":     {wasm.ValueTypeF64},
		"print_i32_f32": {wasm.ValueTypeI32, wasm.ValueTypeF32},
		"print_f64_f64": {wasm.ValueTypeF64, wasm.ValueTypeF64},
	}
	for name, params := range cases {
		fn, ok := em.Functions[name]
		require.True(t, ok, "missing function %q", name)
		require.True(t, fn.IsHost())
		require.Equal(t, params, fn.Type.Params)
		require.Empty(t, fn.Type.Results)
	}
}

func TestPrintSink_ReturnsNoResults(t *testing.T) {
	em := spectest.New()
	fn := em.Functions["print_i32_f32"]
	results, err := fn.Host([]wasm.Value{wasm.I32(1), wasm.F32(2.5)})
	require.NoError(t, err)
	require.Nil(t, results)
}
