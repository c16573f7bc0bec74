package wasm

// Validate statically type-checks every function body and every constant
// expression in m. It never mutates m. A nil return means m is safe
// to instantiate; any non-nil TypeError means it is not.
func Validate(m *Module) *TypeError {
	for i, imp := range m.ImportSection {
		if imp.Kind == ImportKindGlobal && imp.DescGlobal == nil {
			return newTypeError(TypeErrorMismatch, "import %d missing global descriptor", i)
		}
	}

	hasMemory := len(m.MemorySection) > 0 || m.ImportedMemoryCount() > 0
	hasTable := len(m.TableSection) > 0 || m.ImportedTableCount() > 0

	numImportedGlobals := m.ImportedGlobalCount()

	for _, g := range m.GlobalSection {
		if err := validateConstantExpression(m, &g.Init, g.Type.ValType, numImportedGlobals); err != nil {
			return err
		}
	}

	for i, elem := range m.ElementSection {
		if !hasTable || int(elem.TableIndex) >= len(m.TableSection)+int(m.ImportedTableCount()) {
			return newTypeError(TypeErrorUnknownTable, "element segment %d references table %d", i, elem.TableIndex)
		}
		if err := validateConstantExpression(m, &elem.Offset, ValueTypeI32, numImportedGlobals); err != nil {
			return err
		}
		totalFuncs := m.ImportedFunctionCount() + uint32(len(m.FunctionSection))
		for _, fi := range elem.Init {
			if fi >= totalFuncs {
				return newTypeError(TypeErrorUnknownFunction, "element segment %d references function %d", i, fi)
			}
		}
	}

	for i, data := range m.DataSection {
		if !hasMemory {
			return newTypeError(TypeErrorUnknownMemory, "data segment %d but no memory declared", i)
		}
		if err := validateConstantExpression(m, &data.Offset, ValueTypeI32, numImportedGlobals); err != nil {
			return err
		}
	}

	// Duplicate export names can't reach here: ExportSection is a map, and
	// the decoder already rejects a duplicate name at decode time.

	numImportedFuncs := m.ImportedFunctionCount()
	for i, code := range m.CodeSection {
		funcIdx := numImportedFuncs + uint32(i)
		ft, err := m.TypeOfFunction(funcIdx)
		if err != nil {
			return withFunc(newTypeError(TypeErrorUnknownFunction, "%s", err), funcIdx)
		}
		if terr := validateFunctionBody(m, ft, code, hasMemory, hasTable); terr != nil {
			return withFunc(terr, funcIdx)
		}
	}
	return nil
}

func withFunc(e *TypeError, idx uint32) *TypeError {
	if e == nil {
		return nil
	}
	e.HasFunc = true
	e.FuncIdx = idx
	return e
}

// validateConstantExpression checks that expr is a single *.const of type
// want, or a get_global of an imported immutable global of type want,
// followed (implicitly) by End.
func validateConstantExpression(m *Module, expr *ConstantExpression, want ValueType, numImportedGlobals uint32) *TypeError {
	switch expr.Opcode {
	case OpcodeI32Const:
		if want != ValueTypeI32 {
			return newTypeError(TypeErrorMismatch, "constant expression expected %s, got i32.const", want)
		}
	case OpcodeI64Const:
		if want != ValueTypeI64 {
			return newTypeError(TypeErrorMismatch, "constant expression expected %s, got i64.const", want)
		}
	case OpcodeF32Const:
		if want != ValueTypeF32 {
			return newTypeError(TypeErrorMismatch, "constant expression expected %s, got f32.const", want)
		}
	case OpcodeF64Const:
		if want != ValueTypeF64 {
			return newTypeError(TypeErrorMismatch, "constant expression expected %s, got f64.const", want)
		}
	case OpcodeGlobalGet:
		if expr.GlobalIdx >= numImportedGlobals {
			return newTypeError(TypeErrorConstantExpressionRequired, "get_global in constant expression must reference an imported global")
		}
		gt, err := importedGlobalType(m, expr.GlobalIdx)
		if err != nil {
			return newTypeError(TypeErrorUnknownGlobal, "%s", err)
		}
		if gt.Mutable {
			return newTypeError(TypeErrorConstantExpressionRequired, "get_global in constant expression must reference an immutable global")
		}
		if gt.ValType != want {
			return newTypeError(TypeErrorMismatch, "constant expression expected %s, got global of type %s", want, gt.ValType)
		}
	default:
		return newTypeError(TypeErrorConstantExpressionRequired, "opcode %#x is not valid in a constant expression", expr.Opcode)
	}
	return nil
}

func importedGlobalType(m *Module, idx uint32) (*GlobalType, error) {
	var cur uint32
	for _, imp := range m.ImportSection {
		if imp.Kind != ImportKindGlobal {
			continue
		}
		if cur == idx {
			return imp.DescGlobal, nil
		}
		cur++
	}
	return nil, errUnknownGlobal(idx)
}

func errUnknownGlobal(idx uint32) error {
	return newTypeError(TypeErrorUnknownGlobal, "global %d", idx)
}

// ctrlFrame is one entry of the validator's label stack.
type ctrlFrame struct {
	opcode     Opcode
	startTypes []ValueType // the frame's parameter types (a Loop's branch-target types; see labelTypes)
	endTypes   []ValueType // the types the stack must match at this frame's End
	height      int  // opd_stack length when this frame was pushed
	unreachable bool
}

type funcValidator struct {
	m          *Module
	locals     []ValueType
	funcTypes  []*FunctionType
	hasMemory  bool
	hasTable   bool
	numGlobals uint32
	globalTypes func(uint32) (*GlobalType, bool)

	opds  []ValueType
	ctrls []ctrlFrame
}

func validateFunctionBody(m *Module, ft *FunctionType, code *Code, hasMemory, hasTable bool) *TypeError {
	locals := append(append([]ValueType{}, ft.Params...), code.LocalTypes...)

	numImportedGlobals := m.ImportedGlobalCount()
	globalTypeAt := func(idx uint32) (*GlobalType, bool) {
		if idx < numImportedGlobals {
			gt, err := importedGlobalType(m, idx)
			return gt, err == nil
		}
		local := idx - numImportedGlobals
		if int(local) >= len(m.GlobalSection) {
			return nil, false
		}
		return &m.GlobalSection[local].Type, true
	}

	fv := &funcValidator{
		m: m, locals: locals, hasMemory: hasMemory, hasTable: hasTable,
		numGlobals: numImportedGlobals + uint32(len(m.GlobalSection)),
		globalTypes: globalTypeAt,
	}
	fv.pushCtrl(0, nil, ft.Results)

	for pc := 0; pc < len(code.Body); pc++ {
		inst := code.Body[pc]
		if err := fv.step(inst); err != nil {
			return err
		}
	}
	if len(fv.ctrls) != 0 {
		return newTypeError(TypeErrorMismatch, "function body missing final end")
	}
	return nil
}

func (fv *funcValidator) pushOpd(t ValueType) { fv.opds = append(fv.opds, t) }

func (fv *funcValidator) popOpd() (ValueType, *TypeError) {
	top := &fv.ctrls[len(fv.ctrls)-1]
	if len(fv.opds) == top.height {
		if top.unreachable {
			return ValueTypeEmpty, nil // polymorphic: synthesize "any"
		}
		return 0, newTypeError(TypeErrorMismatch, "value stack underflow")
	}
	v := fv.opds[len(fv.opds)-1]
	fv.opds = fv.opds[:len(fv.opds)-1]
	return v, nil
}

func (fv *funcValidator) popOpdExpect(want ValueType) *TypeError {
	got, err := fv.popOpd()
	if err != nil {
		return err
	}
	if got != ValueTypeEmpty && want != ValueTypeEmpty && got != want {
		return newTypeError(TypeErrorMismatch, "expected %s, got %s", want, got)
	}
	return nil
}

func (fv *funcValidator) popOpds(want []ValueType) *TypeError {
	for i := len(want) - 1; i >= 0; i-- {
		if err := fv.popOpdExpect(want[i]); err != nil {
			return err
		}
	}
	return nil
}

func (fv *funcValidator) pushOpds(types []ValueType) {
	for _, t := range types {
		fv.pushOpd(t)
	}
}

func (fv *funcValidator) pushCtrl(opcode Opcode, in, out []ValueType) {
	fv.ctrls = append(fv.ctrls, ctrlFrame{
		opcode: opcode, startTypes: in, endTypes: out, height: len(fv.opds),
	})
	fv.pushOpds(in)
}

func (fv *funcValidator) popCtrl() (ctrlFrame, *TypeError) {
	if len(fv.ctrls) == 0 {
		return ctrlFrame{}, newTypeError(TypeErrorMismatch, "control stack underflow")
	}
	frame := fv.ctrls[len(fv.ctrls)-1]
	if err := fv.popOpds(frame.endTypes); err != nil {
		return ctrlFrame{}, err
	}
	if len(fv.opds) != frame.height {
		return ctrlFrame{}, newTypeError(TypeErrorInvalidResultArity, "unused values remain on the stack at end of block")
	}
	fv.ctrls = fv.ctrls[:len(fv.ctrls)-1]
	return frame, nil
}

// markUnreachable truncates the operand stack to the current frame's
// baseline and flags it polymorphic, implementing the spill-to-unreachable
// rule used once a branch/unreachable/return makes the rest of the block
// unreachable code.
func (fv *funcValidator) markUnreachable() {
	top := &fv.ctrls[len(fv.ctrls)-1]
	fv.opds = fv.opds[:top.height]
	top.unreachable = true
}

// labelTypes returns the branch-target operand types for frame: a Loop's
// branch target is its parameters (re-executes the loop header); every
// other construct's branch target is its results.
func labelTypes(frame ctrlFrame) []ValueType {
	if frame.opcode == OpcodeLoop {
		return frame.startTypes
	}
	return frame.endTypes
}

func (fv *funcValidator) checkBranch(depth uint32) *TypeError {
	if int(depth) >= len(fv.ctrls) {
		return newTypeError(TypeErrorUnknownLabel, "depth %d", depth)
	}
	frame := fv.ctrls[len(fv.ctrls)-1-int(depth)]
	return fv.popOpds(labelTypes(frame))
}

func numAlign(opcode Opcode) (bitWidth uint32, ok bool) {
	switch opcode {
	case OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI64Load8S, OpcodeI64Load8U,
		OpcodeI32Store8, OpcodeI64Store8:
		return 8, true
	case OpcodeI32Load16S, OpcodeI32Load16U, OpcodeI64Load16S, OpcodeI64Load16U,
		OpcodeI32Store16, OpcodeI64Store16:
		return 16, true
	case OpcodeI32Load, OpcodeF32Load, OpcodeI64Load32S, OpcodeI64Load32U,
		OpcodeI32Store, OpcodeF32Store, OpcodeI64Store32:
		return 32, true
	case OpcodeI64Load, OpcodeF64Load, OpcodeI64Store, OpcodeF64Store:
		return 64, true
	}
	return 0, false
}

func (fv *funcValidator) checkMemArg(inst Instruction) *TypeError {
	width, ok := numAlign(inst.Opcode)
	if !ok {
		return nil
	}
	if !fv.hasMemory {
		return newTypeError(TypeErrorUnknownMemory, "memory instruction but no memory declared")
	}
	if (uint32(1) << inst.Mem.Align) > width/8 {
		return newTypeError(TypeErrorInvalidAlignment, "alignment 2**%d exceeds natural alignment for width %d", inst.Mem.Align, width)
	}
	return nil
}

// step type-checks a single instruction against the current operand/label
// stacks.
func (fv *funcValidator) step(inst Instruction) *TypeError {
	i32, i64, f32, f64 := ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64

	binOp := func(t ValueType) *TypeError {
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(t)
		return nil
	}
	unOp := func(t ValueType) *TypeError {
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(t)
		return nil
	}
	cmpOp := func(t ValueType) *TypeError {
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(i32)
		return nil
	}
	testOp := func(t ValueType) *TypeError {
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(i32)
		return nil
	}
	convOp := func(from, to ValueType) *TypeError {
		if err := fv.popOpdExpect(from); err != nil {
			return err
		}
		fv.pushOpd(to)
		return nil
	}
	loadOp := func(t ValueType) *TypeError {
		if err := fv.checkMemArg(inst); err != nil {
			return err
		}
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		fv.pushOpd(t)
		return nil
	}
	storeOp := func(t ValueType) *TypeError {
		if err := fv.checkMemArg(inst); err != nil {
			return err
		}
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		return fv.popOpdExpect(i32)
	}

	switch inst.Opcode {
	case OpcodeUnreachable:
		fv.markUnreachable()
	case OpcodeNop:
	case OpcodeBlock:
		results := blockResults(inst.BlockType)
		fv.pushCtrl(OpcodeBlock, nil, results)
	case OpcodeLoop:
		results := blockResults(inst.BlockType)
		fv.pushCtrl(OpcodeLoop, nil, results)
	case OpcodeIf:
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		results := blockResults(inst.BlockType)
		fv.pushCtrl(OpcodeIf, nil, results)
	case OpcodeElse:
		frame, err := fv.popCtrl()
		if err != nil {
			return err
		}
		if frame.opcode != OpcodeIf {
			return newTypeError(TypeErrorMismatch, "else without matching if")
		}
		fv.pushCtrl(OpcodeElse, nil, frame.endTypes)
	case OpcodeEnd:
		frame, err := fv.popCtrl()
		if err != nil {
			return err
		}
		if len(fv.ctrls) > 0 {
			fv.pushOpds(frame.endTypes)
		}
	case OpcodeBr:
		if err := fv.checkBranch(inst.Index); err != nil {
			return err
		}
		fv.markUnreachable()
	case OpcodeBrIf:
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		if err := fv.checkBranch(inst.Index); err != nil {
			return err
		}
		frame := fv.ctrls[len(fv.ctrls)-1-int(inst.Index)]
		fv.pushOpds(labelTypes(frame))
	case OpcodeBrTable:
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		var defaultTypes []ValueType
		if int(inst.BrTableDefault) >= len(fv.ctrls) {
			return newTypeError(TypeErrorUnknownLabel, "br_table default depth %d", inst.BrTableDefault)
		}
		defaultTypes = labelTypes(fv.ctrls[len(fv.ctrls)-1-int(inst.BrTableDefault)])
		for _, depth := range inst.BrTableTargets {
			if int(depth) >= len(fv.ctrls) {
				return newTypeError(TypeErrorUnknownLabel, "br_table depth %d", depth)
			}
			if len(labelTypes(fv.ctrls[len(fv.ctrls)-1-int(depth)])) != len(defaultTypes) {
				return newTypeError(TypeErrorInvalidResultArity, "br_table targets have mismatched arity")
			}
		}
		if err := fv.popOpds(defaultTypes); err != nil {
			return err
		}
		fv.markUnreachable()
	case OpcodeReturn:
		// function-level return type is the outermost frame's endTypes.
		outer := fv.ctrls[0]
		if err := fv.popOpds(outer.endTypes); err != nil {
			return err
		}
		fv.markUnreachable()
	case OpcodeCall:
		ft, terr := fv.m.TypeOfFunction(inst.Index)
		if terr != nil {
			return newTypeError(TypeErrorUnknownFunction, "%s", terr)
		}
		if err := fv.popOpds(ft.Params); err != nil {
			return err
		}
		fv.pushOpds(ft.Results)
	case OpcodeCallIndirect:
		if !fv.hasTable {
			return newTypeError(TypeErrorUnknownTable, "call_indirect but no table declared")
		}
		if int(inst.Index) >= len(fv.m.TypeSection) {
			return newTypeError(TypeErrorMismatch, "unknown type index %d", inst.Index)
		}
		ft := fv.m.TypeSection[inst.Index]
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		if err := fv.popOpds(ft.Params); err != nil {
			return err
		}
		fv.pushOpds(ft.Results)
	case OpcodeDrop:
		if _, err := fv.popOpd(); err != nil {
			return err
		}
	case OpcodeSelect:
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		t, err := fv.popOpd()
		if err != nil {
			return err
		}
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(t)
	case OpcodeLocalGet:
		t, err := fv.localType(inst.Index)
		if err != nil {
			return err
		}
		fv.pushOpd(t)
	case OpcodeLocalSet:
		t, err := fv.localType(inst.Index)
		if err != nil {
			return err
		}
		return fv.popOpdExpect(t)
	case OpcodeLocalTee:
		t, err := fv.localType(inst.Index)
		if err != nil {
			return err
		}
		if err := fv.popOpdExpect(t); err != nil {
			return err
		}
		fv.pushOpd(t)
	case OpcodeGlobalGet:
		gt, ok := fv.globalTypes(inst.Index)
		if !ok {
			return newTypeError(TypeErrorUnknownGlobal, "global %d", inst.Index)
		}
		fv.pushOpd(gt.ValType)
	case OpcodeGlobalSet:
		gt, ok := fv.globalTypes(inst.Index)
		if !ok {
			return newTypeError(TypeErrorUnknownGlobal, "global %d", inst.Index)
		}
		if !gt.Mutable {
			return newTypeError(TypeErrorGlobalIsImmutable, "global %d", inst.Index)
		}
		return fv.popOpdExpect(gt.ValType)

	case OpcodeI32Const:
		fv.pushOpd(i32)
	case OpcodeI64Const:
		fv.pushOpd(i64)
	case OpcodeF32Const:
		fv.pushOpd(f32)
	case OpcodeF64Const:
		fv.pushOpd(f64)

	case OpcodeI32Eqz:
		return testOp(i32)
	case OpcodeI64Eqz:
		return testOp(i64)

	case OpcodeI32Eq, OpcodeI32Ne, OpcodeI32LtS, OpcodeI32LtU, OpcodeI32GtS, OpcodeI32GtU,
		OpcodeI32LeS, OpcodeI32LeU, OpcodeI32GeS, OpcodeI32GeU:
		return cmpOp(i32)
	case OpcodeI64Eq, OpcodeI64Ne, OpcodeI64LtS, OpcodeI64LtU, OpcodeI64GtS, OpcodeI64GtU,
		OpcodeI64LeS, OpcodeI64LeU, OpcodeI64GeS, OpcodeI64GeU:
		if err := fv.popOpdExpect(i64); err != nil {
			return err
		}
		if err := fv.popOpdExpect(i64); err != nil {
			return err
		}
		fv.pushOpd(i32)
	case OpcodeF32Eq, OpcodeF32Ne, OpcodeF32Lt, OpcodeF32Gt, OpcodeF32Le, OpcodeF32Ge:
		if err := fv.popOpdExpect(f32); err != nil {
			return err
		}
		if err := fv.popOpdExpect(f32); err != nil {
			return err
		}
		fv.pushOpd(i32)
	case OpcodeF64Eq, OpcodeF64Ne, OpcodeF64Lt, OpcodeF64Gt, OpcodeF64Le, OpcodeF64Ge:
		if err := fv.popOpdExpect(f64); err != nil {
			return err
		}
		if err := fv.popOpdExpect(f64); err != nil {
			return err
		}
		fv.pushOpd(i32)

	case OpcodeI32Clz, OpcodeI32Ctz, OpcodeI32Popcnt:
		return unOp(i32)
	case OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul, OpcodeI32DivS, OpcodeI32DivU,
		OpcodeI32RemS, OpcodeI32RemU, OpcodeI32And, OpcodeI32Or, OpcodeI32Xor,
		OpcodeI32Shl, OpcodeI32ShrS, OpcodeI32ShrU, OpcodeI32Rotl, OpcodeI32Rotr:
		return binOp(i32)

	case OpcodeI64Clz, OpcodeI64Ctz, OpcodeI64Popcnt:
		return unOp(i64)
	case OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul, OpcodeI64DivS, OpcodeI64DivU,
		OpcodeI64RemS, OpcodeI64RemU, OpcodeI64And, OpcodeI64Or, OpcodeI64Xor,
		OpcodeI64Shl, OpcodeI64ShrS, OpcodeI64ShrU, OpcodeI64Rotl, OpcodeI64Rotr:
		return binOp(i64)

	case OpcodeF32Abs, OpcodeF32Neg, OpcodeF32Ceil, OpcodeF32Floor, OpcodeF32Trunc,
		OpcodeF32Nearest, OpcodeF32Sqrt:
		return unOp(f32)
	case OpcodeF32Add, OpcodeF32Sub, OpcodeF32Mul, OpcodeF32Div, OpcodeF32Min,
		OpcodeF32Max, OpcodeF32Copysign:
		return binOp(f32)

	case OpcodeF64Abs, OpcodeF64Neg, OpcodeF64Ceil, OpcodeF64Floor, OpcodeF64Trunc,
		OpcodeF64Nearest, OpcodeF64Sqrt:
		return unOp(f64)
	case OpcodeF64Add, OpcodeF64Sub, OpcodeF64Mul, OpcodeF64Div, OpcodeF64Min,
		OpcodeF64Max, OpcodeF64Copysign:
		return binOp(f64)

	case OpcodeI32WrapI64:
		return convOp(i64, i32)
	case OpcodeI32TruncF32S, OpcodeI32TruncF32U:
		return convOp(f32, i32)
	case OpcodeI32TruncF64S, OpcodeI32TruncF64U:
		return convOp(f64, i32)
	case OpcodeI64ExtendI32S, OpcodeI64ExtendI32U:
		return convOp(i32, i64)
	case OpcodeI64TruncF32S, OpcodeI64TruncF32U:
		return convOp(f32, i64)
	case OpcodeI64TruncF64S, OpcodeI64TruncF64U:
		return convOp(f64, i64)
	case OpcodeF32ConvertI32S, OpcodeF32ConvertI32U:
		return convOp(i32, f32)
	case OpcodeF32ConvertI64S, OpcodeF32ConvertI64U:
		return convOp(i64, f32)
	case OpcodeF32DemoteF64:
		return convOp(f64, f32)
	case OpcodeF64ConvertI32S, OpcodeF64ConvertI32U:
		return convOp(i32, f64)
	case OpcodeF64ConvertI64S, OpcodeF64ConvertI64U:
		return convOp(i64, f64)
	case OpcodeF64PromoteF32:
		return convOp(f32, f64)
	case OpcodeI32ReinterpretF32:
		return convOp(f32, i32)
	case OpcodeI64ReinterpretF64:
		return convOp(f64, i64)
	case OpcodeF32ReinterpretI32:
		return convOp(i32, f32)
	case OpcodeF64ReinterpretI64:
		return convOp(i64, f64)

	case OpcodeI32Load:
		return loadOp(i32)
	case OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U:
		return loadOp(i32)
	case OpcodeI64Load:
		return loadOp(i64)
	case OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U,
		OpcodeI64Load32S, OpcodeI64Load32U:
		return loadOp(i64)
	case OpcodeF32Load:
		return loadOp(f32)
	case OpcodeF64Load:
		return loadOp(f64)
	case OpcodeI32Store, OpcodeI32Store8, OpcodeI32Store16:
		return storeOp(i32)
	case OpcodeI64Store, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
		return storeOp(i64)
	case OpcodeF32Store:
		return storeOp(f32)
	case OpcodeF64Store:
		return storeOp(f64)
	case OpcodeMemorySize:
		if !fv.hasMemory {
			return newTypeError(TypeErrorUnknownMemory, "memory.size but no memory declared")
		}
		fv.pushOpd(i32)
	case OpcodeMemoryGrow:
		if !fv.hasMemory {
			return newTypeError(TypeErrorUnknownMemory, "memory.grow but no memory declared")
		}
		if err := fv.popOpdExpect(i32); err != nil {
			return err
		}
		fv.pushOpd(i32)

	default:
		return newTypeError(TypeErrorMismatch, "unsupported opcode %#x", inst.Opcode)
	}
	return nil
}

func (fv *funcValidator) localType(idx uint32) (ValueType, *TypeError) {
	if int(idx) >= len(fv.locals) {
		return 0, newTypeError(TypeErrorUnknownLocal, "local %d", idx)
	}
	return fv.locals[idx], nil
}

func blockResults(bt ValueType) []ValueType {
	if bt == ValueTypeEmpty {
		return nil
	}
	return []ValueType{bt}
}
