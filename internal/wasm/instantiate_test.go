package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	wasm "github.com/kogai/vm/internal/wasm"
)

func noopInvoker(fn *wasm.FunctionInstance, args []wasm.Value) ([]wasm.Value, error) {
	return nil, nil
}

func i32Type() *wasm.FunctionType {
	return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
}

func TestInstantiate_ResolvesFunctionImport(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	em := wasm.NewExternalModule()
	em.Functions["double"] = &wasm.FunctionInstance{
		Type: &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		Host: func(args []wasm.Value) ([]wasm.Value, error) {
			return []wasm.Value{wasm.I32(args[0].ToI32() * 2)}, nil
		},
	}
	require.NoError(t, externals.RegisterModule("env", em))

	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "double", Kind: wasm.ImportKindFunc, DescFunc: 0},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	inst, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.NoError(t, err)
	require.Len(t, inst.FunctionAddrs, 1)
	require.Len(t, store.Functions, 1)
}

func TestInstantiate_UnknownImportModule(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	m := &wasm.Module{
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "missing", Kind: wasm.ImportKindFunc, DescFunc: 0},
		},
		TypeSection:   []*wasm.FunctionType{{}},
		ExportSection: map[string]*wasm.Export{},
	}

	_, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.Error(t, err)
	var lerr *wasm.LinkError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, wasm.LinkErrorUnknownImport, lerr.Kind)
}

func TestInstantiate_IncompatibleFunctionImportType(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	em := wasm.NewExternalModule()
	em.Functions["f"] = &wasm.FunctionInstance{
		Type: &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeF64}},
	}
	require.NoError(t, externals.RegisterModule("env", em))

	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "f", Kind: wasm.ImportKindFunc, DescFunc: 0},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	_, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.Error(t, err)
	var lerr *wasm.LinkError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, wasm.LinkErrorIncompatibleImportType, lerr.Kind)
}

func TestInstantiate_IncompatibleMemoryImportLimits(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	em := wasm.NewExternalModule()
	em.Memories["mem"] = &wasm.MemoryInstance{Limit: wasm.Limit{Min: 1}, Data: make([]byte, 65536)}
	require.NoError(t, externals.RegisterModule("env", em))

	requiredMax := uint32(2)
	m := &wasm.Module{
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "mem", Kind: wasm.ImportKindMemory, DescMemory: &wasm.MemoryType{Limit: wasm.Limit{Min: 2, Max: &requiredMax}}},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	_, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.Error(t, err)
	var lerr *wasm.LinkError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, wasm.LinkErrorIncompatibleImportType, lerr.Kind)
}

func TestInstantiate_GlobalInitializerFromImportedGlobal(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	em := wasm.NewExternalModule()
	em.Globals["base"] = &wasm.GlobalInstance{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32}, Value: wasm.I32(10)}
	require.NoError(t, externals.RegisterModule("env", em))

	m := &wasm.Module{
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "base", Kind: wasm.ImportKindGlobal, DescGlobal: &wasm.GlobalType{ValType: wasm.ValueTypeI32}},
		},
		GlobalSection: []*wasm.Global{
			{
				Type: wasm.GlobalType{ValType: wasm.ValueTypeI32},
				Init: wasm.ConstantExpression{Opcode: wasm.OpcodeGlobalGet, GlobalIdx: 0},
			},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	inst, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.NoError(t, err)
	require.Len(t, inst.GlobalAddrs, 2) // imported + local
	require.Equal(t, int32(10), store.Globals[inst.GlobalAddrs[1]].Value.ToI32())
}

func TestInstantiate_ElementSegmentOutOfBounds(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	m := &wasm.Module{
		TypeSection:  []*wasm.FunctionType{i32Type()},
		TableSection: []*wasm.TableType{{Limit: wasm.Limit{Min: 1}}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{{Opcode: wasm.OpcodeI32Const, I32: 0}, {Opcode: wasm.OpcodeEnd}}},
		},
		ElementSection: []*wasm.Element{
			{
				TableIndex: 0,
				Offset:     wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, I32Value: 5},
				Init:       []uint32{0},
			},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	_, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.Error(t, err)
	var serr *wasm.SegmentError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, wasm.SegmentErrorElementOutOfBounds, serr.Kind)
}

func TestInstantiate_DataSegmentOutOfBounds(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	m := &wasm.Module{
		MemorySection: []*wasm.MemoryType{{Limit: wasm.Limit{Min: 1}}},
		DataSection: []*wasm.Data{
			{
				MemoryIndex: 0,
				Offset:      wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, I32Value: 65530},
				Init:        []byte{1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		ExportSection: map[string]*wasm.Export{},
	}

	_, err := wasm.Instantiate(store, m, "main", externals, noopInvoker)
	require.Error(t, err)
	var serr *wasm.SegmentError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, wasm.SegmentErrorDataOutOfBounds, serr.Kind)
}

func TestInstantiate_RunsStartFunction(t *testing.T) {
	store := wasm.NewStore()
	externals := wasm.NewExternalModules()

	startIdx := uint32(0)
	invoked := false

	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{{Opcode: wasm.OpcodeNop}, {Opcode: wasm.OpcodeEnd}}},
		},
		StartSection:  &startIdx,
		ExportSection: map[string]*wasm.Export{},
	}

	invoker := func(fn *wasm.FunctionInstance, args []wasm.Value) ([]wasm.Value, error) {
		invoked = true
		return nil, nil
	}

	_, err := wasm.Instantiate(store, m, "main", externals, invoker)
	require.NoError(t, err)
	require.True(t, invoked)
}
