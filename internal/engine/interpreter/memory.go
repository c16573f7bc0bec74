package interpreter

import (
	"encoding/binary"
	"math"

	wasm "github.com/kogai/vm/internal/wasm"
)

// effectiveAddress computes the byte offset a load/store instruction reads
// or writes, trapping on 32-bit overflow or when the access runs past the
// end of the memory.
func effectiveAddress(mem *wasm.MemoryInstance, mArg wasm.MemArg, base uint32, width uint32) (uint32, bool) {
	ea := uint64(base) + uint64(mArg.Offset)
	if ea+uint64(width) > uint64(len(mem.Data)) {
		return 0, false
	}
	return uint32(ea), true
}

func loadValue(mem *wasm.MemoryInstance, op wasm.Opcode, mArg wasm.MemArg, base uint32) (wasm.Value, Trap, bool) {
	var width uint32
	switch op {
	case wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U:
		width = 1
	case wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U:
		width = 2
	case wasm.OpcodeI32Load, wasm.OpcodeF32Load, wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U:
		width = 4
	case wasm.OpcodeI64Load, wasm.OpcodeF64Load:
		width = 8
	}
	ea, ok := effectiveAddress(mem, mArg, base, width)
	if !ok {
		return wasm.Value{}, TrapMemoryAccessOutOfBounds, false
	}
	buf := mem.Data[ea : ea+width]
	switch op {
	case wasm.OpcodeI32Load:
		return wasm.I32(int32(binary.LittleEndian.Uint32(buf))), 0, true
	case wasm.OpcodeI64Load:
		return wasm.I64(int64(binary.LittleEndian.Uint64(buf))), 0, true
	case wasm.OpcodeF32Load:
		return wasm.F32(math.Float32frombits(binary.LittleEndian.Uint32(buf))), 0, true
	case wasm.OpcodeF64Load:
		return wasm.F64(math.Float64frombits(binary.LittleEndian.Uint64(buf))), 0, true
	case wasm.OpcodeI32Load8S:
		return wasm.I32(int32(int8(buf[0]))), 0, true
	case wasm.OpcodeI32Load8U:
		return wasm.I32(int32(buf[0])), 0, true
	case wasm.OpcodeI32Load16S:
		return wasm.I32(int32(int16(binary.LittleEndian.Uint16(buf)))), 0, true
	case wasm.OpcodeI32Load16U:
		return wasm.I32(int32(binary.LittleEndian.Uint16(buf))), 0, true
	case wasm.OpcodeI64Load8S:
		return wasm.I64(int64(int8(buf[0]))), 0, true
	case wasm.OpcodeI64Load8U:
		return wasm.I64(int64(buf[0])), 0, true
	case wasm.OpcodeI64Load16S:
		return wasm.I64(int64(int16(binary.LittleEndian.Uint16(buf)))), 0, true
	case wasm.OpcodeI64Load16U:
		return wasm.I64(int64(binary.LittleEndian.Uint16(buf))), 0, true
	case wasm.OpcodeI64Load32S:
		return wasm.I64(int64(int32(binary.LittleEndian.Uint32(buf)))), 0, true
	case wasm.OpcodeI64Load32U:
		return wasm.I64(int64(binary.LittleEndian.Uint32(buf))), 0, true
	default:
		return wasm.Value{}, 0, false
	}
}

func storeValue(mem *wasm.MemoryInstance, op wasm.Opcode, mArg wasm.MemArg, base uint32, v wasm.Value) (Trap, bool) {
	var width uint32
	switch op {
	case wasm.OpcodeI32Store8, wasm.OpcodeI64Store8:
		width = 1
	case wasm.OpcodeI32Store16, wasm.OpcodeI64Store16:
		width = 2
	case wasm.OpcodeI32Store, wasm.OpcodeF32Store, wasm.OpcodeI64Store32:
		width = 4
	case wasm.OpcodeI64Store, wasm.OpcodeF64Store:
		width = 8
	}
	ea, ok := effectiveAddress(mem, mArg, base, width)
	if !ok {
		return TrapMemoryAccessOutOfBounds, false
	}
	buf := mem.Data[ea : ea+width]
	switch op {
	case wasm.OpcodeI32Store:
		binary.LittleEndian.PutUint32(buf, uint32(v.ToI32()))
	case wasm.OpcodeI64Store:
		binary.LittleEndian.PutUint64(buf, uint64(v.ToI64()))
	case wasm.OpcodeF32Store:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v.ToF32()))
	case wasm.OpcodeF64Store:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.ToF64()))
	case wasm.OpcodeI32Store8:
		buf[0] = byte(v.ToI32())
	case wasm.OpcodeI32Store16:
		binary.LittleEndian.PutUint16(buf, uint16(v.ToI32()))
	case wasm.OpcodeI64Store8:
		buf[0] = byte(v.ToI64())
	case wasm.OpcodeI64Store16:
		binary.LittleEndian.PutUint16(buf, uint16(v.ToI64()))
	case wasm.OpcodeI64Store32:
		binary.LittleEndian.PutUint32(buf, uint32(v.ToI64()))
	default:
		return 0, false
	}
	return 0, true
}
