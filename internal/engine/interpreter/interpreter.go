// Package interpreter is a tree-walking-free, stack-based evaluator for
// decoded Wasm function bodies: an operand stack and a parallel label stack
// per activation, and pre-resolved Block/Loop/If branch targets so Br/BrIf/
// BrTable never rescan the instruction stream.
package interpreter

import (
	"go.uber.org/zap"

	wasm "github.com/kogai/vm/internal/wasm"
	"github.com/kogai/vm/internal/wasmlog"
)

// DefaultMaxCallDepth bounds recursive Call/CallIndirect nesting; exceeding
// it traps with TrapCallStackExhausted rather than overflowing the Go stack.
const DefaultMaxCallDepth = 512

// Machine executes function instances belonging to a single Store.
type Machine struct {
	Store        *wasm.Store
	MaxCallDepth int
}

// NewMachine builds a Machine bound to store with the default call-depth
// ceiling.
func NewMachine(store *wasm.Store) *Machine {
	return &Machine{Store: store, MaxCallDepth: DefaultMaxCallDepth}
}

// Invoke runs fn (host or Wasm-defined) to completion, returning its result
// values, or a non-nil trap, or a host-function error.
func (m *Machine) Invoke(fn *wasm.FunctionInstance, args []wasm.Value) ([]wasm.Value, *Trap, error) {
	return m.call(fn, args, 0)
}

func (m *Machine) call(fn *wasm.FunctionInstance, args []wasm.Value, depth int) ([]wasm.Value, *Trap, error) {
	if depth > m.MaxCallDepth {
		return nil, trapPtr(TrapCallStackExhausted), nil
	}
	if fn.IsHost() {
		results, err := fn.Host(args)
		if err != nil {
			return nil, nil, err
		}
		return results, nil, nil
	}

	locals := make([]wasm.Value, len(args)+len(fn.LocalTypes))
	copy(locals, args)
	for i, t := range fn.LocalTypes {
		locals[len(args)+i] = zeroValue(t)
	}
	return m.runBody(fn.Body, locals, fn.Module, len(fn.Type.Results), depth)
}

func zeroValue(t wasm.ValueType) wasm.Value {
	switch t {
	case wasm.ValueTypeI64:
		return wasm.I64(0)
	case wasm.ValueTypeF32:
		return wasm.F32(0)
	case wasm.ValueTypeF64:
		return wasm.F64(0)
	default:
		return wasm.I32(0)
	}
}

func trapPtr(t Trap) *Trap {
	wasmlog.Logger().Debug("interpreter: trap", zap.String("trap", t.Error()))
	return &t
}

// ctrlEntry is one entry of the label stack maintained alongside the
// operand stack during a single function activation.
type ctrlEntry struct {
	isLoop   bool
	arity    int // values carried across the label on branch
	height   int // operand stack length when this label was entered
	targetPC int // where a branch to this label resumes execution
}

// runBody drives the flat instruction stream of a single function
// activation. body's Block/Loop/If instructions carry pre-resolved
// Else/End indices, so branching never needs to rescan for a target.
func (m *Machine) runBody(body []wasm.Instruction, locals []wasm.Value, mod *wasm.ModuleInstance, resultArity, depth int) ([]wasm.Value, *Trap, error) {
	vs := make([]wasm.Value, 0, 16)
	cs := []ctrlEntry{{isLoop: false, arity: resultArity, height: 0, targetPC: len(body)}}

	pc := 0
	for pc < len(body) {
		inst := body[pc]

		switch inst.Opcode {
		case wasm.OpcodeUnreachable:
			return nil, trapPtr(TrapUnreachable), nil

		case wasm.OpcodeNop:
			pc++

		case wasm.OpcodeBlock:
			cs = append(cs, ctrlEntry{isLoop: false, arity: blockArity(inst.BlockType), height: len(vs), targetPC: int(inst.EndIndex) + 1})
			pc++

		case wasm.OpcodeLoop:
			cs = append(cs, ctrlEntry{isLoop: true, arity: 0, height: len(vs), targetPC: pc + 1})
			pc++

		case wasm.OpcodeIf:
			cond := pop(&vs)
			entry := ctrlEntry{isLoop: false, arity: blockArity(inst.BlockType), height: len(vs), targetPC: int(inst.EndIndex) + 1}
			cs = append(cs, entry)
			if cond.IsTruthy() {
				pc++
			} else if inst.ElseIndex != 0 {
				pc = int(inst.ElseIndex) + 1
			} else {
				pc = int(inst.EndIndex) + 1
			}

		case wasm.OpcodeElse:
			top := cs[len(cs)-1]
			cs = cs[:len(cs)-1]
			pc = top.targetPC

		case wasm.OpcodeEnd:
			cs = cs[:len(cs)-1]
			pc++

		case wasm.OpcodeBr:
			pc = branch(&vs, &cs, inst.Index)

		case wasm.OpcodeBrIf:
			cond := pop(&vs)
			if cond.IsTruthy() {
				pc = branch(&vs, &cs, inst.Index)
			} else {
				pc++
			}

		case wasm.OpcodeBrTable:
			idx := uint32(pop(&vs).ToI32())
			depth := inst.BrTableDefault
			if int(idx) < len(inst.BrTableTargets) {
				depth = inst.BrTableTargets[idx]
			}
			pc = branch(&vs, &cs, depth)

		case wasm.OpcodeReturn:
			pc = branch(&vs, &cs, uint32(len(cs)-1))

		case wasm.OpcodeCall:
			addr := mod.FunctionAddrs[inst.Index]
			target := m.Store.Functions[addr]
			args := popN(&vs, len(target.Type.Params))
			results, trap, err := m.call(target, args, depth+1)
			if trap != nil || err != nil {
				return nil, trap, err
			}
			vs = append(vs, results...)
			pc++

		case wasm.OpcodeCallIndirect:
			tableAddr := mod.TableAddrs[0]
			table := m.Store.Tables[tableAddr]
			elemIdx := uint32(pop(&vs).ToI32())
			if elemIdx >= table.Size() {
				return nil, trapPtr(TrapTableAccessOutOfBounds), nil
			}
			ref := table.Elements[elemIdx]
			if ref == nil {
				return nil, trapPtr(TrapUndefinedElement), nil
			}
			target := m.Store.Functions[*ref]
			expected := mod.Types[inst.Index]
			if !target.Type.Equals(expected) {
				return nil, trapPtr(TrapIndirectCallTypeMismatch), nil
			}
			args := popN(&vs, len(target.Type.Params))
			results, trap, err := m.call(target, args, depth+1)
			if trap != nil || err != nil {
				return nil, trap, err
			}
			vs = append(vs, results...)
			pc++

		case wasm.OpcodeDrop:
			pop(&vs)
			pc++

		case wasm.OpcodeSelect:
			cond := pop(&vs)
			b := pop(&vs)
			a := pop(&vs)
			if cond.IsTruthy() {
				vs = append(vs, a)
			} else {
				vs = append(vs, b)
			}
			pc++

		case wasm.OpcodeLocalGet:
			vs = append(vs, locals[inst.Index])
			pc++
		case wasm.OpcodeLocalSet:
			locals[inst.Index] = pop(&vs)
			pc++
		case wasm.OpcodeLocalTee:
			locals[inst.Index] = vs[len(vs)-1]
			pc++

		case wasm.OpcodeGlobalGet:
			addr := mod.GlobalAddrs[inst.Index]
			vs = append(vs, m.Store.Globals[addr].Value)
			pc++
		case wasm.OpcodeGlobalSet:
			addr := mod.GlobalAddrs[inst.Index]
			m.Store.Globals[addr].Value = pop(&vs)
			pc++

		case wasm.OpcodeMemorySize:
			mem := m.Store.Memories[mod.MemoryAddrs[0]]
			vs = append(vs, wasm.I32(int32(mem.PageSize())))
			pc++

		case wasm.OpcodeMemoryGrow:
			mem := m.Store.Memories[mod.MemoryAddrs[0]]
			delta := uint32(pop(&vs).ToI32())
			vs = append(vs, wasm.I32(mem.Grow(delta)))
			pc++

		case wasm.OpcodeI32Const:
			vs = append(vs, wasm.I32(inst.I32))
			pc++
		case wasm.OpcodeI64Const:
			vs = append(vs, wasm.I64(inst.I64))
			pc++
		case wasm.OpcodeF32Const:
			vs = append(vs, wasm.F32(inst.F32))
			pc++
		case wasm.OpcodeF64Const:
			vs = append(vs, wasm.F64(inst.F64))
			pc++

		default:
			if isLoadOpcode(inst.Opcode) {
				mem := m.Store.Memories[mod.MemoryAddrs[0]]
				base := uint32(pop(&vs).ToI32())
				v, trap, ok := loadValue(mem, inst.Opcode, inst.Mem, base)
				if !ok {
					return nil, trapPtr(trap), nil
				}
				vs = append(vs, v)
				pc++
				continue
			}
			if isStoreOpcode(inst.Opcode) {
				mem := m.Store.Memories[mod.MemoryAddrs[0]]
				v := pop(&vs)
				base := uint32(pop(&vs).ToI32())
				trap, ok := storeValue(mem, inst.Opcode, inst.Mem, base, v)
				if !ok {
					return nil, trapPtr(trap), nil
				}
				pc++
				continue
			}
			if v, trap, matched := applyUnary(inst.Opcode, vs[len(vs)-1]); matched {
				if trap != noTrap {
					return nil, trapPtr(trap), nil
				}
				vs[len(vs)-1] = v
				pc++
				continue
			}
			b := pop(&vs)
			a := pop(&vs)
			v, trap, matched := applyBinary(inst.Opcode, a, b)
			if !matched {
				panic("interpreter: unhandled opcode reached runBody, validator should have rejected it")
			}
			if trap != noTrap {
				return nil, trapPtr(trap), nil
			}
			vs = append(vs, v)
			pc++
		}
	}

	return popN(&vs, resultArity), nil, nil
}

func blockArity(bt wasm.ValueType) int {
	if bt == wasm.ValueTypeEmpty {
		return 0
	}
	return 1
}

func pop(vs *[]wasm.Value) wasm.Value {
	v := (*vs)[len(*vs)-1]
	*vs = (*vs)[:len(*vs)-1]
	return v
}

func popN(vs *[]wasm.Value, n int) []wasm.Value {
	if n == 0 {
		return nil
	}
	start := len(*vs) - n
	out := append([]wasm.Value{}, (*vs)[start:]...)
	*vs = (*vs)[:start]
	return out
}

// branch unwinds the operand and label stacks to the label at depth (0 =
// innermost) and returns the pc to resume at: the start of the loop body
// for a loop label, or just past the matching End for a block/if/function
// label.
func branch(vs *[]wasm.Value, cs *[]ctrlEntry, depth uint32) int {
	labelIdx := len(*cs) - 1 - int(depth)
	label := (*cs)[labelIdx]

	carried := popN(vs, label.arity)
	*vs = append((*vs)[:label.height], carried...)

	if label.isLoop {
		*cs = (*cs)[:labelIdx+1]
	} else {
		*cs = (*cs)[:labelIdx]
	}
	return label.targetPC
}

func isLoadOpcode(op wasm.Opcode) bool {
	switch op {
	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U:
		return true
	default:
		return false
	}
}

func isStoreOpcode(op wasm.Opcode) bool {
	switch op {
	case wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16,
		wasm.OpcodeI64Store32:
		return true
	default:
		return false
	}
}
