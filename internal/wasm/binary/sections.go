package binary

import (
	wasm "github.com/kogai/vm/internal/wasm"
)

func (d *decoder) decodeTypeSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		form, err := d.readByte()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return derr(wasm.DecodeErrorUnexpectedOpcode, "function type form %#x", form)
		}
		paramCount, err := d.readVaruint32()
		if err != nil {
			return err
		}
		params := make([]wasm.ValueType, paramCount)
		for j := range params {
			if params[j], err = d.readValueType(); err != nil {
				return err
			}
		}
		resultCount, err := d.readVaruint32()
		if err != nil {
			return err
		}
		results := make([]wasm.ValueType, resultCount)
		for j := range results {
			if results[j], err = d.readValueType(); err != nil {
				return err
			}
		}
		m.TypeSection = append(m.TypeSection, &wasm.FunctionType{Params: params, Results: results})
	}
	return nil
}

func (d *decoder) decodeImportSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		mod, err := d.readName()
		if err != nil {
			return err
		}
		name, err := d.readName()
		if err != nil {
			return err
		}
		kind, err := d.readByte()
		if err != nil {
			return err
		}
		imp := &wasm.Import{Module: mod, Name: name, Kind: wasm.ImportKind(kind)}
		switch wasm.ImportKind(kind) {
		case wasm.ImportKindFunc:
			if imp.DescFunc, err = d.readVaruint32(); err != nil {
				return err
			}
		case wasm.ImportKindTable:
			if _, err := d.readByte(); err != nil { // element kind, always funcref (0x70) in MVP
				return err
			}
			lim, err := d.readLimit()
			if err != nil {
				return err
			}
			imp.DescTable = &wasm.TableType{Limit: lim}
		case wasm.ImportKindMemory:
			lim, err := d.readLimit()
			if err != nil {
				return err
			}
			imp.DescMemory = &wasm.MemoryType{Limit: lim}
		case wasm.ImportKindGlobal:
			vt, err := d.readValueType()
			if err != nil {
				return err
			}
			mut, err := d.readByte()
			if err != nil {
				return err
			}
			imp.DescGlobal = &wasm.GlobalType{ValType: vt, Mutable: mut != 0}
		default:
			return derr(wasm.DecodeErrorUnexpectedOpcode, "import kind %#x", kind)
		}
		m.ImportSection = append(m.ImportSection, imp)
	}
	return nil
}

func (d *decoder) decodeFunctionSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		idx, err := d.readVaruint32()
		if err != nil {
			return err
		}
		m.FunctionSection = append(m.FunctionSection, idx)
	}
	return nil
}

func (d *decoder) decodeTableSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := d.readByte(); err != nil { // element kind
			return err
		}
		lim, err := d.readLimit()
		if err != nil {
			return err
		}
		m.TableSection = append(m.TableSection, &wasm.TableType{Limit: lim})
	}
	return nil
}

func (d *decoder) decodeMemorySection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		lim, err := d.readLimit()
		if err != nil {
			return err
		}
		m.MemorySection = append(m.MemorySection, &wasm.MemoryType{Limit: lim})
	}
	return nil
}

func (d *decoder) decodeGlobalSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		vt, err := d.readValueType()
		if err != nil {
			return err
		}
		mut, err := d.readByte()
		if err != nil {
			return err
		}
		init, err := d.decodeConstantExpression()
		if err != nil {
			return err
		}
		m.GlobalSection = append(m.GlobalSection, &wasm.Global{
			Type: wasm.GlobalType{ValType: vt, Mutable: mut != 0},
			Init: init,
		})
	}
	return nil
}

func (d *decoder) decodeExportSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := d.readName()
		if err != nil {
			return err
		}
		kind, err := d.readByte()
		if err != nil {
			return err
		}
		idx, err := d.readVaruint32()
		if err != nil {
			return err
		}
		if _, dup := m.ExportSection[name]; dup {
			return derr(wasm.DecodeErrorUnexpectedOpcode, "duplicate export name %q", name)
		}
		m.ExportSection[name] = &wasm.Export{Name: name, Kind: wasm.ExportKind(kind), Index: idx}
	}
	return nil
}

func (d *decoder) decodeStartSection(m *wasm.Module) error {
	idx, err := d.readVaruint32()
	if err != nil {
		return err
	}
	m.StartSection = &idx
	return nil
}

func (d *decoder) decodeElementSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		tableIdx, err := d.readVaruint32()
		if err != nil {
			return err
		}
		offset, err := d.decodeConstantExpression()
		if err != nil {
			return err
		}
		n, err := d.readVaruint32()
		if err != nil {
			return err
		}
		fns := make([]uint32, n)
		for j := range fns {
			if fns[j], err = d.readVaruint32(); err != nil {
				return err
			}
		}
		m.ElementSection = append(m.ElementSection, &wasm.Element{TableIndex: tableIdx, Offset: offset, Init: fns})
	}
	return nil
}

func (d *decoder) decodeDataSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		memIdx, err := d.readVaruint32()
		if err != nil {
			return err
		}
		offset, err := d.decodeConstantExpression()
		if err != nil {
			return err
		}
		n, err := d.readVaruint32()
		if err != nil {
			return err
		}
		bytes, err := d.readBytes(int(n))
		if err != nil {
			return err
		}
		m.DataSection = append(m.DataSection, &wasm.Data{MemoryIndex: memIdx, Offset: offset, Init: append([]byte{}, bytes...)})
	}
	return nil
}

func (d *decoder) decodeCodeSection(m *wasm.Module) error {
	count, err := d.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		size, err := d.readVaruint32()
		if err != nil {
			return err
		}
		body, err := d.readBytes(int(size))
		if err != nil {
			return err
		}
		cd := &decoder{buf: body}
		localCount, err := cd.readVaruint32()
		if err != nil {
			return err
		}
		var locals []wasm.ValueType
		for j := uint32(0); j < localCount; j++ {
			n, err := cd.readVaruint32()
			if err != nil {
				return err
			}
			vt, err := cd.readValueType()
			if err != nil {
				return err
			}
			for k := uint32(0); k < n; k++ {
				locals = append(locals, vt)
			}
		}
		insts, err := cd.decodeInstructions()
		if err != nil {
			return err
		}
		m.CodeSection = append(m.CodeSection, &wasm.Code{LocalTypes: locals, Body: insts})
	}
	return nil
}

func decodeNameSection(data []byte) (*wasm.NameSection, error) {
	d := &decoder{buf: data}
	ns := &wasm.NameSection{FunctionNames: map[uint32]string{}, LocalNames: map[uint32]map[uint32]string{}}
	for d.pos < len(d.buf) {
		subID, err := d.readByte()
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
		switch subID {
		case 0: // module name
			name, err := sd.readName()
			if err != nil {
				return nil, err
			}
			ns.ModuleName = name
		case 1: // function names
			n, err := sd.readVaruint32()
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < n; i++ {
				idx, err := sd.readVaruint32()
				if err != nil {
					return nil, err
				}
				name, err := sd.readName()
				if err != nil {
					return nil, err
				}
				ns.FunctionNames[idx] = name
			}
		case 2: // local names
			n, err := sd.readVaruint32()
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < n; i++ {
				fnIdx, err := sd.readVaruint32()
				if err != nil {
					return nil, err
				}
				localCount, err := sd.readVaruint32()
				if err != nil {
					return nil, err
				}
				locals := map[uint32]string{}
				for j := uint32(0); j < localCount; j++ {
					localIdx, err := sd.readVaruint32()
					if err != nil {
						return nil, err
					}
					name, err := sd.readName()
					if err != nil {
						return nil, err
					}
					locals[localIdx] = name
				}
				ns.LocalNames[fnIdx] = locals
			}
		}
	}
	return ns, nil
}
