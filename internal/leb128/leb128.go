// Package leb128 implements LEB128 variable-length integer encoding as used
// throughout the WebAssembly binary format (section sizes, indices, and
// i32.const/i64.const immediates).
package leb128

import "fmt"

const (
	maxVarintLen32 = 5
	maxVarintLen33 = 5
	maxVarintLen64 = 10
)

// LoadUint32 decodes an unsigned LEB128 value of at most 32 bits from buf,
// returning the decoded value and the number of bytes consumed.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	v, n, err := loadUvarint(buf, 32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned LEB128 value of at most 64 bits from buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	return loadUvarint(buf, 64)
}

func loadUvarint(buf []byte, width int) (ret uint64, bytesRead uint64, err error) {
	var shift uint
	var n uint64
	maxBytes := (width + 6) / 7
	for i := 0; ; i++ {
		if i == len(buf) {
			return 0, 0, fmt.Errorf("unexpected end of buffer while reading unsigned LEB128")
		}
		if i >= maxBytes {
			return 0, 0, fmt.Errorf("integer representation too long")
		}
		b := buf[i]
		n++
		if i == maxBytes-1 {
			// the final group may only carry the remaining high bits.
			remaining := width - shift
			mask := byte(0xff)
			if remaining < 7 {
				mask = (1 << uint(remaining)) - 1
			}
			if b&0x7f&^mask != 0 {
				return 0, 0, fmt.Errorf("integer overflow")
			}
		}
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, n, nil
		}
		shift += 7
	}
}

// LoadInt32 decodes a signed LEB128 value of at most 32 bits from buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	v, n, err := loadVarint(buf, 32)
	return int32(v), n, err
}

// LoadInt33AsInt64 decodes a signed LEB128 value of at most 33 bits, used by
// block types and memory/table limits that encode a signed 33-bit quantity.
func LoadInt33AsInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return loadVarint(buf, 33)
}

// LoadInt64 decodes a signed LEB128 value of at most 64 bits from buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return loadVarint(buf, 64)
}

func loadVarint(buf []byte, width int) (ret int64, bytesRead uint64, err error) {
	var shift uint
	var n uint64
	var b byte
	maxBytes := (width + 6) / 7
	for i := 0; ; i++ {
		if i == len(buf) {
			return 0, 0, fmt.Errorf("unexpected end of buffer while reading signed LEB128")
		}
		if i >= maxBytes {
			return 0, 0, fmt.Errorf("integer representation too long")
		}
		b = buf[i]
		n++
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < uint(width) && b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, n, nil
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte { return EncodeUint64(uint64(v)) }

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte { return EncodeInt64(int64(v)) }

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
