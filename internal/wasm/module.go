// Package wasm is the core data model shared by the decoder, validator and
// interpreter: the decoded Module, its runtime instances once instantiated
// into a Store, and the errors both stages can produce.
package wasm

import "fmt"

// FunctionType is a function signature: its parameter types followed by its
// result types. The MVP restricts Results to at most one entry.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FunctionType) String() string {
	return fmt.Sprintf("%v -> %v", t.Params, t.Results)
}

// Equals reports whether t and o describe the same signature.
func (t *FunctionType) Equals(o *FunctionType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i, p := range t.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range t.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

// ResultType returns ValueTypeEmpty when t has no result, else its sole
// result type.
func (t *FunctionType) ResultType() ValueType {
	if len(t.Results) == 0 {
		return ValueTypeEmpty
	}
	return t.Results[0]
}

// Limit bounds a table or memory: Min is mandatory, Max is optional.
type Limit struct {
	Min uint32
	Max *uint32
}

// TableType describes a table import/declaration. The MVP only has the
// funcref element kind.
type TableType struct {
	Limit Limit
}

// MemoryType describes a memory import/declaration, in units of 64KiB pages.
type MemoryType struct {
	Limit Limit
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ImportKind tags the kind of entity an Import resolves to.
type ImportKind byte

const (
	ImportKindFunc ImportKind = iota
	ImportKindTable
	ImportKindMemory
	ImportKindGlobal
)

// Import is a single entry of the import section.
type Import struct {
	Module, Name string
	Kind         ImportKind

	DescFunc   uint32 // index into the module's TypeSection
	DescTable  *TableType
	DescMemory *MemoryType
	DescGlobal *GlobalType
}

// ExportKind tags the kind of entity an Export resolves to.
type ExportKind byte

const (
	ExportKindFunc ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

// Export is a single entry of the export section, keyed by Name.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// ConstantExpression is a restricted instruction sequence used for global
// initializers and element/data segment offsets: a single *.const or a
// get_global of an imported immutable global.
type ConstantExpression struct {
	Opcode Opcode
	// The *Value field matching Opcode holds the const payload, or
	// GlobalIdx holds the global index when Opcode is OpcodeGlobalGet.
	I32Value   int32
	I64Value   int64
	F32Value   float32
	F64Value   float64
	GlobalIdx  uint32
}

// Global is a single entry of the global section: its type and initializer.
type Global struct {
	Type GlobalType
	Init ConstantExpression
}

// Element initializes a range of a table with function indices at
// instantiation time.
type Element struct {
	TableIndex uint32
	Offset     ConstantExpression
	Init       []uint32 // function indices
}

// Data initializes a range of linear memory with bytes at instantiation time.
type Data struct {
	MemoryIndex uint32
	Offset      ConstantExpression
	Init        []byte
}

// Code is the decoded body of one function: its additional locals (beyond
// parameters) and its instruction stream.
type Code struct {
	LocalTypes []ValueType
	Body       []Instruction
}

// NameSection holds the optional debugging names custom section.
type NameSection struct {
	ModuleName    string
	FunctionNames map[uint32]string
	LocalNames    map[uint32]map[uint32]string
}

// CustomSection is an unrecognized or skipped section 0 entry, retained
// verbatim.
type CustomSection struct {
	Name string
	Data []byte
}

// Module is the raw, decoded syntactic module produced by the decoder. It
// carries no runtime state; Instantiate consumes a *validated* Module to
// build a ModuleInstance against a Store.
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []uint32 // indices into TypeSection, one per locally-defined function
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*Global
	ExportSection   map[string]*Export
	StartSection    *uint32
	ElementSection  []*Element
	CodeSection     []*Code
	DataSection     []*Data

	CustomSections []*CustomSection
	NameSection    *NameSection
}

// ImportedFunctionCount returns how many of the module's functions come from
// imports, which precede locally-defined functions in the function index
// space.
func (m *Module) ImportedFunctionCount() uint32 {
	var n uint32
	for _, i := range m.ImportSection {
		if i.Kind == ImportKindFunc {
			n++
		}
	}
	return n
}

// ImportedTableCount mirrors ImportedFunctionCount for the table index space.
func (m *Module) ImportedTableCount() uint32 {
	var n uint32
	for _, i := range m.ImportSection {
		if i.Kind == ImportKindTable {
			n++
		}
	}
	return n
}

// ImportedMemoryCount mirrors ImportedFunctionCount for the memory index space.
func (m *Module) ImportedMemoryCount() uint32 {
	var n uint32
	for _, i := range m.ImportSection {
		if i.Kind == ImportKindMemory {
			n++
		}
	}
	return n
}

// ImportedGlobalCount mirrors ImportedFunctionCount for the global index space.
func (m *Module) ImportedGlobalCount() uint32 {
	var n uint32
	for _, i := range m.ImportSection {
		if i.Kind == ImportKindGlobal {
			n++
		}
	}
	return n
}

// TypeOfFunction resolves the FunctionType of the funcIdx-th function in the
// combined (imports ++ locals) function index space.
func (m *Module) TypeOfFunction(funcIdx uint32) (*FunctionType, error) {
	var cur uint32
	for _, imp := range m.ImportSection {
		if imp.Kind != ImportKindFunc {
			continue
		}
		if cur == funcIdx {
			if int(imp.DescFunc) >= len(m.TypeSection) {
				return nil, fmt.Errorf("unknown type index %d for imported function %d", imp.DescFunc, funcIdx)
			}
			return m.TypeSection[imp.DescFunc], nil
		}
		cur++
	}
	localIdx := funcIdx - cur
	if int(localIdx) >= len(m.FunctionSection) {
		return nil, fmt.Errorf("unknown function %d", funcIdx)
	}
	typeIdx := m.FunctionSection[localIdx]
	if int(typeIdx) >= len(m.TypeSection) {
		return nil, fmt.Errorf("unknown type index %d for function %d", typeIdx, funcIdx)
	}
	return m.TypeSection[typeIdx], nil
}
