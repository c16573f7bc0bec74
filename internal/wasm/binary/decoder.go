// Package binary implements the WebAssembly 1.0 (MVP) binary module format:
// decoding raw bytes into a *wasm.Module with every control-flow branch
// target pre-resolved.
package binary

import (
	"bytes"
	"fmt"
	"math"

	"github.com/kogai/vm/internal/leb128"
	wasm "github.com/kogai/vm/internal/wasm"
)

var sprintf = fmt.Sprintf

// Magic is the four-byte WebAssembly file header.
var Magic = []byte{0x00, 0x61, 0x73, 0x6d}

// version is the only binary format version this decoder recognizes.
var version = []byte{0x01, 0x00, 0x00, 0x00}

const (
	sectionIDCustom = iota
	sectionIDType
	sectionIDImport
	sectionIDFunction
	sectionIDTable
	sectionIDMemory
	sectionIDGlobal
	sectionIDExport
	sectionIDStart
	sectionIDElement
	sectionIDCode
	sectionIDData
)

type decoder struct {
	buf []byte
	pos int
}

func derr(kind wasm.DecodeErrorKind, format string, args ...interface{}) *wasm.DecodeError {
	return &wasm.DecodeError{Kind: kind, Detail: sprintf(format, args...)}
}

// DecodeModule parses a complete Wasm binary module. The returned Module is
// syntactically well-formed but not yet validated; callers must run
// wasm.Validate before instantiating it.
func DecodeModule(raw []byte) (*wasm.Module, error) {
	d := &decoder{buf: raw}

	magic, err := d.readBytes(4)
	if err != nil || !bytes.Equal(magic, Magic) {
		return nil, derr(wasm.DecodeErrorInvalidMagicOrVersion, "missing Wasm magic number")
	}
	ver, err := d.readBytes(4)
	if err != nil || !bytes.Equal(ver, version) {
		return nil, derr(wasm.DecodeErrorInvalidMagicOrVersion, "unsupported binary version")
	}

	m := &wasm.Module{ExportSection: map[string]*wasm.Export{}}
	seen := map[byte]bool{}

	for d.pos < len(d.buf) {
		id, err := d.readByte()
		if err != nil {
			return nil, err
		}
		size, err := d.readVaruint32()
		if err != nil {
			return nil, err
		}
		body, err := d.readBytes(int(size))
		if err != nil {
			return nil, err
		}
		sd := &decoder{buf: body}

		if id == sectionIDCustom {
			name, err := sd.readName()
			if err != nil {
				return nil, err
			}
			rest := sd.buf[sd.pos:]
			if name == "name" {
				ns, err := decodeNameSection(rest)
				if err == nil {
					m.NameSection = ns
				}
				// A malformed name section is informational only; ignore.
				continue
			}
			m.CustomSections = append(m.CustomSections, &wasm.CustomSection{Name: name, Data: append([]byte{}, rest...)})
			continue
		}

		if id > sectionIDData {
			return nil, derr(wasm.DecodeErrorInvalidSectionID, "section id %d", id)
		}
		if seen[id] {
			return nil, derr(wasm.DecodeErrorInvalidSectionID, "duplicate section id %d", id)
		}
		seen[id] = true

		switch id {
		case sectionIDType:
			err = sd.decodeTypeSection(m)
		case sectionIDImport:
			err = sd.decodeImportSection(m)
		case sectionIDFunction:
			err = sd.decodeFunctionSection(m)
		case sectionIDTable:
			err = sd.decodeTableSection(m)
		case sectionIDMemory:
			err = sd.decodeMemorySection(m)
		case sectionIDGlobal:
			err = sd.decodeGlobalSection(m)
		case sectionIDExport:
			err = sd.decodeExportSection(m)
		case sectionIDStart:
			err = sd.decodeStartSection(m)
		case sectionIDElement:
			err = sd.decodeElementSection(m)
		case sectionIDCode:
			err = sd.decodeCodeSection(m)
		case sectionIDData:
			err = sd.decodeDataSection(m)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(m.FunctionSection) != len(m.CodeSection) {
		return nil, derr(wasm.DecodeErrorLengthOutOfBounds, "function and code section counts differ (%d vs %d)", len(m.FunctionSection), len(m.CodeSection))
	}
	return m, nil
}

// --- low level readers ---

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, derr(wasm.DecodeErrorUnexpectedEnd, "reading byte at offset %d", d.pos)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, derr(wasm.DecodeErrorLengthOutOfBounds, "reading %d bytes at offset %d", n, d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readVaruint32() (uint32, error) {
	v, n, err := leb128.LoadUint32(d.buf[d.pos:])
	if err != nil {
		return 0, derr(wasm.DecodeErrorIntegerOverflow, "%s", err)
	}
	d.pos += int(n)
	return v, nil
}

func (d *decoder) readVaruint64() (uint64, error) {
	v, n, err := leb128.LoadUint64(d.buf[d.pos:])
	if err != nil {
		return 0, derr(wasm.DecodeErrorIntegerOverflow, "%s", err)
	}
	d.pos += int(n)
	return v, nil
}

func (d *decoder) readVarint32() (int32, error) {
	v, n, err := leb128.LoadInt32(d.buf[d.pos:])
	if err != nil {
		return 0, derr(wasm.DecodeErrorIntegerOverflow, "%s", err)
	}
	d.pos += int(n)
	return v, nil
}

func (d *decoder) readVarint33() (int64, error) {
	v, n, err := leb128.LoadInt33AsInt64(d.buf[d.pos:])
	if err != nil {
		return 0, derr(wasm.DecodeErrorIntegerOverflow, "%s", err)
	}
	d.pos += int(n)
	return v, nil
}

func (d *decoder) readVarint64() (int64, error) {
	v, n, err := leb128.LoadInt64(d.buf[d.pos:])
	if err != nil {
		return 0, derr(wasm.DecodeErrorIntegerOverflow, "%s", err)
	}
	d.pos += int(n)
	return v, nil
}

func (d *decoder) readF32() (float32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits), nil
}

func (d *decoder) readF64() (float64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

func (d *decoder) readValueType() (wasm.ValueType, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch wasm.ValueType(b) {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return wasm.ValueType(b), nil
	default:
		return 0, derr(wasm.DecodeErrorUnexpectedOpcode, "invalid value type byte %#x", b)
	}
}

func (d *decoder) readBlockType() (wasm.ValueType, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if b == byte(wasm.ValueTypeEmpty) {
		return wasm.ValueTypeEmpty, nil
	}
	switch wasm.ValueType(b) {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return wasm.ValueType(b), nil
	default:
		return 0, derr(wasm.DecodeErrorUnexpectedOpcode, "invalid block type byte %#x", b)
	}
}

func (d *decoder) readLimit() (wasm.Limit, error) {
	flags, err := d.readByte()
	if err != nil {
		return wasm.Limit{}, err
	}
	min, err := d.readVaruint32()
	if err != nil {
		return wasm.Limit{}, err
	}
	lim := wasm.Limit{Min: min}
	if flags&0x1 != 0 {
		max, err := d.readVaruint32()
		if err != nil {
			return wasm.Limit{}, err
		}
		lim.Max = &max
	}
	return lim, nil
}
