package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	wasm "github.com/kogai/vm/internal/wasm"
)

func i32i32i32() *wasm.FunctionType {
	return &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
}

func TestInvoke_Add(t *testing.T) {
	fn := &wasm.FunctionInstance{
		Type: i32i32i32(),
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeLocalGet, Index: 1},
			{Opcode: wasm.OpcodeI32Add},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	m := NewMachine(wasm.NewStore())
	results, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(3), wasm.I32(4)})
	require.NoError(t, err)
	require.Nil(t, trap)
	require.Equal(t, []wasm.Value{wasm.I32(7)}, results)
}

func TestInvoke_Sub(t *testing.T) {
	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		},
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeI32Const, I32: 100},
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeI32Sub},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	m := NewMachine(wasm.NewStore())
	results, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(10)})
	require.NoError(t, err)
	require.Nil(t, trap)
	require.Equal(t, []wasm.Value{wasm.I32(90)}, results)
}

// buildFib wires a self-recursive fib function into a one-function module so
// Call can resolve it through the ModuleInstance/Store index space.
func buildFib() (*Machine, *wasm.FunctionInstance) {
	store := wasm.NewStore()
	mod := &wasm.ModuleInstance{Name: "fib", FunctionAddrs: []uint32{0}}

	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		},
		Module: mod,
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},                           // 0
			{Opcode: wasm.OpcodeI32Const, I32: 2},                             // 1
			{Opcode: wasm.OpcodeI32LtS},                                       // 2
			{Opcode: wasm.OpcodeIf, BlockType: wasm.ValueTypeI32, ElseIndex: 5, EndIndex: 15}, // 3
			{Opcode: wasm.OpcodeLocalGet, Index: 0},                           // 4
			{Opcode: wasm.OpcodeElse},                                         // 5
			{Opcode: wasm.OpcodeLocalGet, Index: 0},                           // 6
			{Opcode: wasm.OpcodeI32Const, I32: 1},                             // 7
			{Opcode: wasm.OpcodeI32Sub},                                       // 8
			{Opcode: wasm.OpcodeCall, Index: 0},                               // 9
			{Opcode: wasm.OpcodeLocalGet, Index: 0},                           // 10
			{Opcode: wasm.OpcodeI32Const, I32: 2},                             // 11
			{Opcode: wasm.OpcodeI32Sub},                                       // 12
			{Opcode: wasm.OpcodeCall, Index: 0},                               // 13
			{Opcode: wasm.OpcodeI32Add},                                       // 14
			{Opcode: wasm.OpcodeEnd},                                          // 15 (if)
			{Opcode: wasm.OpcodeEnd},                                          // 16 (func)
		},
	}
	store.Functions = append(store.Functions, fn)
	return NewMachine(store), fn
}

func TestInvoke_Fibonacci(t *testing.T) {
	m, fn := buildFib()
	results, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(15)})
	require.NoError(t, err)
	require.Nil(t, trap)
	require.Equal(t, []wasm.Value{wasm.I32(610)}, results)
}

func TestInvoke_DivisionByZeroTraps(t *testing.T) {
	fn := &wasm.FunctionInstance{
		Type: i32i32i32(),
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeLocalGet, Index: 1},
			{Opcode: wasm.OpcodeI32DivS},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	m := NewMachine(wasm.NewStore())
	results, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(1), wasm.I32(0)})
	require.NoError(t, err)
	require.Nil(t, results)
	require.NotNil(t, trap)
	require.Equal(t, TrapIntegerDivideByZero, *trap)
}

func TestInvoke_IntMinDivNegOneTraps(t *testing.T) {
	fn := &wasm.FunctionInstance{
		Type: i32i32i32(),
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeLocalGet, Index: 1},
			{Opcode: wasm.OpcodeI32DivS},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	m := NewMachine(wasm.NewStore())
	const intMin32 = -2147483648
	_, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(intMin32), wasm.I32(-1)})
	require.NoError(t, err)
	require.NotNil(t, trap)
	require.Equal(t, TrapIntegerOverflow, *trap)
}

func TestInvoke_OutOfBoundsLoadTraps(t *testing.T) {
	store := wasm.NewStore()
	mem := &wasm.MemoryInstance{Limit: wasm.Limit{Min: 1}, Data: make([]byte, 65536)}
	store.Memories = append(store.Memories, mem)
	mod := &wasm.ModuleInstance{MemoryAddrs: []uint32{0}}

	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		},
		Module: mod,
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeI32Load, Mem: wasm.MemArg{Align: 2, Offset: 0}},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	m := NewMachine(store)
	_, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(65533)})
	require.NoError(t, err)
	require.NotNil(t, trap)
	require.Equal(t, TrapMemoryAccessOutOfBounds, *trap)
}

func TestInvoke_IndirectCallTypeMismatchTraps(t *testing.T) {
	store := wasm.NewStore()

	callee := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeLocalGet, Index: 0},
			{Opcode: wasm.OpcodeEnd},
		},
	}
	calleeAddr := uint32(len(store.Functions))
	store.Functions = append(store.Functions, callee)

	table := &wasm.TableInstance{Elements: []*uint32{&calleeAddr}}
	store.Tables = append(store.Tables, table)

	mismatchedType := &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}} // no params: doesn't match callee
	mod := &wasm.ModuleInstance{
		TableAddrs: []uint32{0},
		Types:      []*wasm.FunctionType{mismatchedType},
	}

	caller := &wasm.FunctionInstance{
		Type:   &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}},
		Module: mod,
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeI32Const, I32: 0},
			{Opcode: wasm.OpcodeCallIndirect, Index: 0},
			{Opcode: wasm.OpcodeEnd},
		},
	}

	m := NewMachine(store)
	_, trap, err := m.Invoke(caller, nil)
	require.NoError(t, err)
	require.NotNil(t, trap)
	require.Equal(t, TrapIndirectCallTypeMismatch, *trap)
}

func TestInvoke_UnreachableTraps(t *testing.T) {
	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{},
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeUnreachable},
		},
	}
	m := NewMachine(wasm.NewStore())
	_, trap, err := m.Invoke(fn, nil)
	require.NoError(t, err)
	require.NotNil(t, trap)
	require.Equal(t, TrapUnreachable, *trap)
}

func TestInvoke_CallStackExhaustedTraps(t *testing.T) {
	store := wasm.NewStore()
	mod := &wasm.ModuleInstance{FunctionAddrs: []uint32{0}}
	fn := &wasm.FunctionInstance{
		Type:   &wasm.FunctionType{},
		Module: mod,
		Body: []wasm.Instruction{
			{Opcode: wasm.OpcodeCall, Index: 0}, // infinite self-recursion
			{Opcode: wasm.OpcodeEnd},
		},
	}
	store.Functions = append(store.Functions, fn)
	m := NewMachine(store)
	_, trap, err := m.Invoke(fn, nil)
	require.NoError(t, err)
	require.NotNil(t, trap)
	require.Equal(t, TrapCallStackExhausted, *trap)
}

func TestInvoke_HostFunction(t *testing.T) {
	called := false
	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}},
		Host: func(args []wasm.Value) ([]wasm.Value, error) {
			called = true
			require.Equal(t, int32(42), args[0].ToI32())
			return nil, nil
		},
	}
	m := NewMachine(wasm.NewStore())
	results, trap, err := m.Invoke(fn, []wasm.Value{wasm.I32(42)})
	require.NoError(t, err)
	require.Nil(t, trap)
	require.Nil(t, results)
	require.True(t, called)
}
