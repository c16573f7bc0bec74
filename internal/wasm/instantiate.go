package wasm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kogai/vm/internal/wasmlog"
)

// Invoker runs a FunctionInstance to completion. Instantiate accepts one so
// it can call a module's start function without importing the interpreter
// package, which itself depends on wasm.
type Invoker func(fn *FunctionInstance, args []Value) ([]Value, error)

// Instantiate allocates a ModuleInstance for module in store, resolving its
// imports against externals, applying element and data segments, and
// running the start function (if any) through invoke.
func Instantiate(store *Store, module *Module, name string, externals *ExternalModules, invoke Invoker) (*ModuleInstance, error) {
	inst := &ModuleInstance{
		Name:    name,
		Exports: module.ExportSection,
		Types:   module.TypeSection,
		store:   store,
	}

	if err := resolveImports(store, module, externals, inst); err != nil {
		wasmlog.Logger().Warn("instantiate: import resolution failed", zap.String("module", name), zap.Error(err))
		return nil, err
	}
	allocateLocalFunctions(store, module, inst)
	allocateLocalTables(store, module, inst)
	allocateLocalMemories(store, module, inst)
	if err := allocateLocalGlobals(store, module, inst); err != nil {
		return nil, err
	}
	if err := applyElementSegments(store, module, inst); err != nil {
		return nil, err
	}
	if err := applyDataSegments(store, module, inst); err != nil {
		return nil, err
	}

	if module.StartSection != nil {
		fn := store.Functions[inst.FunctionAddrs[*module.StartSection]]
		if _, err := invoke(fn, nil); err != nil {
			return nil, err
		}
	}

	wasmlog.Logger().Debug("instantiate: module ready",
		zap.String("module", name),
		zap.Int("functions", len(inst.FunctionAddrs)),
		zap.Int("tables", len(inst.TableAddrs)),
		zap.Int("memories", len(inst.MemoryAddrs)),
		zap.Int("globals", len(inst.GlobalAddrs)))
	return inst, nil
}

func resolveImports(store *Store, module *Module, externals *ExternalModules, inst *ModuleInstance) error {
	for _, imp := range module.ImportSection {
		em, ok := externals.Get(imp.Module)
		if !ok {
			return newLinkError(LinkErrorUnknownImport, imp.Module, imp.Name, "module not registered")
		}
		switch imp.Kind {
		case ImportKindFunc:
			fn, ok := em.Functions[imp.Name]
			if !ok {
				return newLinkError(LinkErrorUnknownImport, imp.Module, imp.Name, "no such function export")
			}
			want := module.TypeSection[imp.DescFunc]
			if !fn.Type.Equals(want) {
				return newLinkError(LinkErrorIncompatibleImportType, imp.Module, imp.Name, "function type mismatch: want %s, have %s", want, fn.Type)
			}
			inst.FunctionAddrs = append(inst.FunctionAddrs, store.addFunction(fn))

		case ImportKindTable:
			t, ok := em.Tables[imp.Name]
			if !ok {
				return newLinkError(LinkErrorUnknownImport, imp.Module, imp.Name, "no such table export")
			}
			if err := checkLimitsCompatible(t.Limit, imp.DescTable.Limit); err != nil {
				return newLinkError(LinkErrorIncompatibleImportType, imp.Module, imp.Name, "table limits: %s", err)
			}
			inst.TableAddrs = append(inst.TableAddrs, store.addTable(t))

		case ImportKindMemory:
			m, ok := em.Memories[imp.Name]
			if !ok {
				return newLinkError(LinkErrorUnknownImport, imp.Module, imp.Name, "no such memory export")
			}
			if err := checkLimitsCompatible(m.Limit, imp.DescMemory.Limit); err != nil {
				return newLinkError(LinkErrorIncompatibleImportType, imp.Module, imp.Name, "memory limits: %s", err)
			}
			inst.MemoryAddrs = append(inst.MemoryAddrs, store.addMemory(m))

		case ImportKindGlobal:
			g, ok := em.Globals[imp.Name]
			if !ok {
				return newLinkError(LinkErrorUnknownImport, imp.Module, imp.Name, "no such global export")
			}
			if g.Type.ValType != imp.DescGlobal.ValType || g.Type.Mutable != imp.DescGlobal.Mutable {
				return newLinkError(LinkErrorIncompatibleImportType, imp.Module, imp.Name, "global type mismatch")
			}
			inst.GlobalAddrs = append(inst.GlobalAddrs, store.addGlobal(g))
		}
	}
	return nil
}

// checkLimitsCompatible reports whether actual is an acceptable match for a
// declared import limit: its minimum must be at least as large, and if the
// import declares a maximum, actual must declare one no larger.
func checkLimitsCompatible(actual, declared Limit) error {
	if actual.Min < declared.Min {
		return fmt.Errorf("minimum %d is below required minimum %d", actual.Min, declared.Min)
	}
	if declared.Max != nil {
		if actual.Max == nil || *actual.Max > *declared.Max {
			return fmt.Errorf("maximum exceeds required maximum %d", *declared.Max)
		}
	}
	return nil
}

func allocateLocalFunctions(store *Store, module *Module, inst *ModuleInstance) {
	for i, typeIdx := range module.FunctionSection {
		code := module.CodeSection[i]
		fn := &FunctionInstance{
			Type:       module.TypeSection[typeIdx],
			LocalTypes: code.LocalTypes,
			Body:       code.Body,
			Module:     inst,
		}
		inst.FunctionAddrs = append(inst.FunctionAddrs, store.addFunction(fn))
	}
}

func allocateLocalTables(store *Store, module *Module, inst *ModuleInstance) {
	for _, tt := range module.TableSection {
		t := &TableInstance{
			Limit:    tt.Limit,
			Elements: make([]*uint32, tt.Limit.Min),
		}
		inst.TableAddrs = append(inst.TableAddrs, store.addTable(t))
	}
}

func allocateLocalMemories(store *Store, module *Module, inst *ModuleInstance) {
	for _, mt := range module.MemorySection {
		m := &MemoryInstance{
			Limit: mt.Limit,
			Data:  make([]byte, uint64(mt.Limit.Min)*wasmPageSize),
		}
		inst.MemoryAddrs = append(inst.MemoryAddrs, store.addMemory(m))
	}
}

func allocateLocalGlobals(store *Store, module *Module, inst *ModuleInstance) error {
	for _, g := range module.GlobalSection {
		v, err := evalConstExpr(store, inst, g.Init)
		if err != nil {
			return err
		}
		gi := &GlobalInstance{Type: g.Type, Value: v}
		inst.GlobalAddrs = append(inst.GlobalAddrs, store.addGlobal(gi))
	}
	return nil
}

// evalConstExpr evaluates a global initializer or segment offset expression.
// The only non-literal form is get_global of an already-resolved (and, by
// validation, imported and immutable) global.
func evalConstExpr(store *Store, inst *ModuleInstance, ce ConstantExpression) (Value, error) {
	switch ce.Opcode {
	case OpcodeI32Const:
		return I32(ce.I32Value), nil
	case OpcodeI64Const:
		return I64(ce.I64Value), nil
	case OpcodeF32Const:
		return F32(ce.F32Value), nil
	case OpcodeF64Const:
		return F64(ce.F64Value), nil
	case OpcodeGlobalGet:
		addr := inst.GlobalAddrs[ce.GlobalIdx]
		return store.Globals[addr].Value, nil
	default:
		return Value{}, fmt.Errorf("not a constant expression: opcode %#x", byte(ce.Opcode))
	}
}

func applyElementSegments(store *Store, module *Module, inst *ModuleInstance) error {
	for i, elem := range module.ElementSection {
		offVal, err := evalConstExpr(store, inst, elem.Offset)
		if err != nil {
			return err
		}
		offset := offVal.ToI32()
		table := store.Tables[inst.TableAddrs[elem.TableIndex]]
		if offset < 0 || uint64(offset)+uint64(len(elem.Init)) > uint64(len(table.Elements)) {
			return newSegmentError(SegmentErrorElementOutOfBounds, uint32(i), "offset %d, length %d, table size %d", offset, len(elem.Init), len(table.Elements))
		}
		for j, funcIdx := range elem.Init {
			addr := inst.FunctionAddrs[funcIdx]
			table.Elements[int(offset)+j] = &addr
		}
	}
	return nil
}

func applyDataSegments(store *Store, module *Module, inst *ModuleInstance) error {
	for i, data := range module.DataSection {
		offVal, err := evalConstExpr(store, inst, data.Offset)
		if err != nil {
			return err
		}
		offset := offVal.ToI32()
		mem := store.Memories[inst.MemoryAddrs[data.MemoryIndex]]
		if offset < 0 || uint64(offset)+uint64(len(data.Init)) > uint64(len(mem.Data)) {
			return newSegmentError(SegmentErrorDataOutOfBounds, uint32(i), "offset %d, length %d, memory size %d", offset, len(data.Init), len(mem.Data))
		}
		copy(mem.Data[offset:], data.Init)
	}
	return nil
}
