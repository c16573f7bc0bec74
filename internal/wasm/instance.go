package wasm

import "fmt"

const wasmPageSize = 65536 // 64 KiB.

// FunctionInstance is the instantiated view of one function: its type, its
// body (nil for host functions), and the module instance it was defined in
// (nil for host functions). It is immutable once built.
type FunctionInstance struct {
	Type       *FunctionType
	LocalTypes []ValueType
	Body       []Instruction
	ExportName string

	// Host, when non-nil, is invoked instead of interpreting Body. Used for
	// externally-registered collaborators such as spectest.
	Host func(args []Value) ([]Value, error)

	Module *ModuleInstance
}

// IsHost reports whether this instance wraps a Go function rather than a
// decoded Wasm body.
func (f *FunctionInstance) IsHost() bool { return f.Host != nil }

// TableInstance holds a funcref table's elements as indices into the owning
// Store's FunctionInstance list (Store index, not module-local index); nil
// means no entry at that position (a null funcref).
type TableInstance struct {
	Limit   Limit
	Elements []*uint32 // *uint32 to model optional entries (null funcref)
}

// Size returns the table's current length in elements. MVP has no
// table.grow instruction; this is used by instantiation-time bounds checks.
func (t *TableInstance) Size() uint32 { return uint32(len(t.Elements)) }

// MemoryInstance is a growable linear memory. Size is tracked in pages;
// Data's length is always PageSize()*wasmPageSize.
type MemoryInstance struct {
	Limit Limit
	Data  []byte
}

// PageSize returns the number of 64KiB pages backing m.
func (m *MemoryInstance) PageSize() uint32 { return uint32(len(m.Data) / wasmPageSize) }

// Grow attempts to grow the memory by delta pages, returning the previous
// size in pages, or -1 if the grow would exceed the declared/hard maximum.
func (m *MemoryInstance) Grow(delta uint32) int32 {
	prev := m.PageSize()
	next := prev + delta
	const hardMaxPages = 1 << 16
	if next < prev || next > hardMaxPages {
		return -1
	}
	if m.Limit.Max != nil && next > *m.Limit.Max {
		return -1
	}
	grown := make([]byte, next*wasmPageSize)
	copy(grown, m.Data)
	m.Data = grown
	return int32(prev)
}

// GlobalInstance is a mutable binding (iff Type.Mutable) holding one value.
type GlobalInstance struct {
	Type  GlobalType
	Value Value
}

// ModuleInstance is the instantiated view of one Module: index-space
// mappings from module-local indices to Store indices, plus the export
// table used by Run and by other modules importing from this one.
type ModuleInstance struct {
	Name string

	FunctionAddrs []uint32 // module-local func idx -> Store function index
	TableAddrs    []uint32
	MemoryAddrs   []uint32
	GlobalAddrs   []uint32

	Exports map[string]*Export

	Types []*FunctionType

	store *Store
}

// ExportedFunction resolves a function export by name, returning the
// FunctionInstance from the backing Store, or an error if name does not
// name a function export.
func (m *ModuleInstance) ExportedFunction(name string) (*FunctionInstance, error) {
	exp, ok := m.Exports[name]
	if !ok || exp.Kind != ExportKindFunc {
		return nil, fmt.Errorf("no exported function named %q", name)
	}
	return m.store.Functions[m.FunctionAddrs[exp.Index]], nil
}

// ExportedMemory resolves a memory export by name.
func (m *ModuleInstance) ExportedMemory(name string) (*MemoryInstance, error) {
	exp, ok := m.Exports[name]
	if !ok || exp.Kind != ExportKindMemory {
		return nil, fmt.Errorf("no exported memory named %q", name)
	}
	return m.store.Memories[m.MemoryAddrs[exp.Index]], nil
}

// ExportedGlobal resolves a global export by name.
func (m *ModuleInstance) ExportedGlobal(name string) (*GlobalInstance, error) {
	exp, ok := m.Exports[name]
	if !ok || exp.Kind != ExportKindGlobal {
		return nil, fmt.Errorf("no exported global named %q", name)
	}
	return m.store.Globals[m.GlobalAddrs[exp.Index]], nil
}

// ExportModule publishes m's exports as an ExternalModule, for reuse as the
// import source of another Instantiate call.
func (m *ModuleInstance) ExportModule() *ExternalModule {
	em := NewExternalModule()
	for name, exp := range m.Exports {
		switch exp.Kind {
		case ExportKindFunc:
			em.Functions[name] = m.store.Functions[m.FunctionAddrs[exp.Index]]
		case ExportKindTable:
			em.Tables[name] = m.store.Tables[m.TableAddrs[exp.Index]]
		case ExportKindMemory:
			em.Memories[name] = m.store.Memories[m.MemoryAddrs[exp.Index]]
		case ExportKindGlobal:
			em.Globals[name] = m.store.Globals[m.GlobalAddrs[exp.Index]]
		}
	}
	return em
}

// Store owns the arenas of all runtime instances, indexed by plain 32-bit
// indices to avoid cyclic Go pointers between Module, FunctionInstance and
// Store.
type Store struct {
	Functions []*FunctionInstance
	Tables    []*TableInstance
	Memories  []*MemoryInstance
	Globals   []*GlobalInstance
}

// NewStore allocates an empty Store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) addFunction(f *FunctionInstance) uint32 {
	s.Functions = append(s.Functions, f)
	return uint32(len(s.Functions) - 1)
}

func (s *Store) addTable(t *TableInstance) uint32 {
	s.Tables = append(s.Tables, t)
	return uint32(len(s.Tables) - 1)
}

func (s *Store) addMemory(m *MemoryInstance) uint32 {
	s.Memories = append(s.Memories, m)
	return uint32(len(s.Memories) - 1)
}

func (s *Store) addGlobal(g *GlobalInstance) uint32 {
	s.Globals = append(s.Globals, g)
	return uint32(len(s.Globals) - 1)
}
