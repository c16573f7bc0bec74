package binary

import (
	"unicode/utf8"

	wasm "github.com/kogai/vm/internal/wasm"
)

// readName decodes a LEB128-length-prefixed UTF-8 string.
func (d *decoder) readName() (string, error) {
	n, err := d.readVaruint32()
	if err != nil {
		return "", err
	}
	b, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &wasm.DecodeError{Kind: wasm.DecodeErrorMalformedUTF8, Detail: "name is not valid UTF-8"}
	}
	return string(b), nil
}
