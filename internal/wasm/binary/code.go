package binary

import (
	wasm "github.com/kogai/vm/internal/wasm"
)

// decodeConstantExpression decodes a single constant-expression instruction
// and its immediate, then consumes the trailing End byte, failing if the
// next byte is not End.
func (d *decoder) decodeConstantExpression() (wasm.ConstantExpression, error) {
	op, err := d.readByte()
	if err != nil {
		return wasm.ConstantExpression{}, err
	}
	var ce wasm.ConstantExpression
	ce.Opcode = wasm.Opcode(op)
	switch wasm.Opcode(op) {
	case wasm.OpcodeI32Const:
		v, err := d.readVarint32()
		if err != nil {
			return ce, err
		}
		ce.I32Value = v
	case wasm.OpcodeI64Const:
		v, err := d.readVarint64()
		if err != nil {
			return ce, err
		}
		ce.I64Value = v
	case wasm.OpcodeF32Const:
		v, err := d.readF32()
		if err != nil {
			return ce, err
		}
		ce.F32Value = v
	case wasm.OpcodeF64Const:
		v, err := d.readF64()
		if err != nil {
			return ce, err
		}
		ce.F64Value = v
	case wasm.OpcodeGlobalGet:
		v, err := d.readVaruint32()
		if err != nil {
			return ce, err
		}
		ce.GlobalIdx = v
	default:
		return ce, derr(wasm.DecodeErrorUnexpectedOpcode, "opcode %#x is not valid in a constant expression", op)
	}
	end, err := d.readByte()
	if err != nil {
		return ce, err
	}
	if wasm.Opcode(end) != wasm.OpcodeEnd {
		return ce, derr(wasm.DecodeErrorUnexpectedOpcode, "constant expression must be a single instruction followed by end")
	}
	return ce, nil
}

// decodeInstructions decodes a flat instruction stream until the matching
// function-level End is consumed, pre-linking each Block/Loop/If to its
// matching Else/End index so the interpreter never rescans for a branch
// target.
func (d *decoder) decodeInstructions() ([]wasm.Instruction, error) {
	var insts []wasm.Instruction
	var ctrlStack []int

	for {
		op, err := d.readByte()
		if err != nil {
			return nil, err
		}
		idx := len(insts)
		inst := wasm.Instruction{Opcode: wasm.Opcode(op)}

		switch wasm.Opcode(op) {
		case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
			bt, err := d.readBlockType()
			if err != nil {
				return nil, err
			}
			inst.BlockType = bt
			insts = append(insts, inst)
			ctrlStack = append(ctrlStack, idx)
			continue

		case wasm.OpcodeElse:
			if len(ctrlStack) == 0 {
				return nil, derr(wasm.DecodeErrorUnexpectedOpcode, "else without matching if")
			}
			top := ctrlStack[len(ctrlStack)-1]
			if insts[top].Opcode != wasm.OpcodeIf {
				return nil, derr(wasm.DecodeErrorUnexpectedOpcode, "else without matching if")
			}
			insts[top].ElseIndex = uint32(idx)
			insts = append(insts, inst)
			continue

		case wasm.OpcodeEnd:
			insts = append(insts, inst)
			if len(ctrlStack) == 0 {
				return insts, nil
			}
			top := ctrlStack[len(ctrlStack)-1]
			ctrlStack = ctrlStack[:len(ctrlStack)-1]
			insts[top].EndIndex = uint32(idx)
			continue

		case wasm.OpcodeBr, wasm.OpcodeBrIf:
			v, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			inst.Index = v

		case wasm.OpcodeBrTable:
			n, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			targets := make([]uint32, n)
			for i := range targets {
				if targets[i], err = d.readVaruint32(); err != nil {
					return nil, err
				}
			}
			def, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			inst.BrTableTargets = targets
			inst.BrTableDefault = def

		case wasm.OpcodeCall:
			v, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			inst.Index = v

		case wasm.OpcodeCallIndirect:
			v, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			if _, err := d.readByte(); err != nil { // reserved, must be 0x00
				return nil, err
			}
			inst.Index = v

		case wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee,
			wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
			v, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			inst.Index = v

		case wasm.OpcodeI32Const:
			v, err := d.readVarint32()
			if err != nil {
				return nil, err
			}
			inst.I32 = v

		case wasm.OpcodeI64Const:
			v, err := d.readVarint64()
			if err != nil {
				return nil, err
			}
			inst.I64 = v

		case wasm.OpcodeF32Const:
			v, err := d.readF32()
			if err != nil {
				return nil, err
			}
			inst.F32 = v

		case wasm.OpcodeF64Const:
			v, err := d.readF64()
			if err != nil {
				return nil, err
			}
			inst.F64 = v

		case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
			wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
			wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
			wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
			wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
			wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16,
			wasm.OpcodeI64Store32:
			align, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			offset, err := d.readVaruint32()
			if err != nil {
				return nil, err
			}
			inst.Mem = wasm.MemArg{Align: align, Offset: offset}

		case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
			if _, err := d.readByte(); err != nil { // reserved, must be 0x00
				return nil, err
			}

		// All remaining opcodes (arithmetic, comparison, conversion,
		// unreachable/nop/drop/select/return) carry no immediates.
		default:
		}

		insts = append(insts, inst)
	}
}
