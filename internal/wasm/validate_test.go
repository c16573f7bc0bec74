package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	wasm "github.com/kogai/vm/internal/wasm"
)

func typeErrorKind(t *testing.T, m *wasm.Module) wasm.TypeErrorKind {
	t.Helper()
	err := wasm.Validate(m)
	require.NotNil(t, err)
	return err.Kind
}

func TestValidate_Mismatch(t *testing.T) {
	m := &wasm.Module{
		GlobalSection: []*wasm.Global{
			{
				Type: wasm.GlobalType{ValType: wasm.ValueTypeI32},
				Init: wasm.ConstantExpression{Opcode: wasm.OpcodeF64Const},
			},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorMismatch, typeErrorKind(t, m))
}

func TestValidate_UnknownLocal(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeLocalGet, Index: 5},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownLocal, typeErrorKind(t, m))
}

func TestValidate_UnknownGlobal(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeGlobalGet, Index: 0},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownGlobal, typeErrorKind(t, m))
}

func TestValidate_UnknownLabel(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeBr, Index: 1},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownLabel, typeErrorKind(t, m))
}

func TestValidate_UnknownFunction(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeCall, Index: 1},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownFunction, typeErrorKind(t, m))
}

func TestValidate_UnknownTable(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeCallIndirect, Index: 0},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownTable, typeErrorKind(t, m))
}

func TestValidate_UnknownMemory(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeI32Load},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorUnknownMemory, typeErrorKind(t, m))
}

func TestValidate_InvalidAlignment(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		MemorySection:   []*wasm.MemoryType{{Limit: wasm.Limit{Min: 1}}},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeI32Load, Mem: wasm.MemArg{Align: 3}},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorInvalidAlignment, typeErrorKind(t, m))
}

func TestValidate_InvalidResultArity(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeI32Const, I32: 0},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorInvalidResultArity, typeErrorKind(t, m))
}

func TestValidate_ConstantExpressionRequired(t *testing.T) {
	m := &wasm.Module{
		GlobalSection: []*wasm.Global{
			{
				Type: wasm.GlobalType{ValType: wasm.ValueTypeI32},
				Init: wasm.ConstantExpression{Opcode: wasm.OpcodeNop},
			},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorConstantExpressionRequired, typeErrorKind(t, m))
}

func TestValidate_GlobalIsImmutable(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []uint32{0},
		GlobalSection: []*wasm.Global{
			{
				Type: wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: false},
				Init: wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const},
			},
		},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeI32Const, I32: 0},
				{Opcode: wasm.OpcodeGlobalSet, Index: 0},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Equal(t, wasm.TypeErrorGlobalIsImmutable, typeErrorKind(t, m))
}

// After unreachable, the stack becomes polymorphic: any subsequent operand
// demand is satisfied without a real value until the enclosing block ends.
// A body that pops more than it ever pushed must still validate.
func TestValidate_PolymorphicStackAfterUnreachable(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{
			{Body: []wasm.Instruction{
				{Opcode: wasm.OpcodeUnreachable},
				{Opcode: wasm.OpcodeI32Add},
				{Opcode: wasm.OpcodeEnd},
			}},
		},
		ExportSection: map[string]*wasm.Export{},
	}
	require.Nil(t, wasm.Validate(m))
}
