package wasm

import "fmt"

// DecodeErrorKind enumerates the ways binary decoding can fail.
type DecodeErrorKind int

const (
	DecodeErrorUnexpectedEnd DecodeErrorKind = iota
	DecodeErrorInvalidSectionID
	DecodeErrorMalformedUTF8
	DecodeErrorIntegerOverflow
	DecodeErrorIntegerRepresentationTooLong
	DecodeErrorUnexpectedOpcode
	DecodeErrorLengthOutOfBounds
	DecodeErrorInvalidMagicOrVersion
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeErrorUnexpectedEnd:
		return "unexpected end"
	case DecodeErrorInvalidSectionID:
		return "invalid section id"
	case DecodeErrorMalformedUTF8:
		return "malformed UTF-8"
	case DecodeErrorIntegerOverflow:
		return "integer overflow"
	case DecodeErrorIntegerRepresentationTooLong:
		return "integer representation too long"
	case DecodeErrorUnexpectedOpcode:
		return "unexpected opcode"
	case DecodeErrorLengthOutOfBounds:
		return "length out of bounds"
	case DecodeErrorInvalidMagicOrVersion:
		return "invalid magic number or version"
	default:
		return "unknown decode error"
	}
}

// DecodeError is returned by the decoder when the byte stream does not
// conform to the binary format.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newDecodeError(kind DecodeErrorKind, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// TypeErrorKind enumerates the ways static validation can fail.
type TypeErrorKind int

const (
	TypeErrorMismatch TypeErrorKind = iota
	TypeErrorUnknownLocal
	TypeErrorUnknownGlobal
	TypeErrorUnknownLabel
	TypeErrorUnknownFunction
	TypeErrorUnknownTable
	TypeErrorUnknownMemory
	TypeErrorInvalidAlignment
	TypeErrorInvalidResultArity
	TypeErrorConstantExpressionRequired
	TypeErrorGlobalIsImmutable
)

func (k TypeErrorKind) String() string {
	switch k {
	case TypeErrorMismatch:
		return "type mismatch"
	case TypeErrorUnknownLocal:
		return "unknown local"
	case TypeErrorUnknownGlobal:
		return "unknown global"
	case TypeErrorUnknownLabel:
		return "unknown label"
	case TypeErrorUnknownFunction:
		return "unknown function"
	case TypeErrorUnknownTable:
		return "unknown table"
	case TypeErrorUnknownMemory:
		return "unknown memory"
	case TypeErrorInvalidAlignment:
		return "invalid alignment"
	case TypeErrorInvalidResultArity:
		return "invalid result arity"
	case TypeErrorConstantExpressionRequired:
		return "constant expression required"
	case TypeErrorGlobalIsImmutable:
		return "global is immutable"
	default:
		return "unknown type error"
	}
}

// TypeError is returned by the validator. It is always reported before any
// execution and is never confused with a runtime Trap.
type TypeError struct {
	Kind     TypeErrorKind
	FuncIdx  uint32
	Detail   string
	HasFunc  bool
}

func (e *TypeError) Error() string {
	if e.HasFunc {
		return fmt.Sprintf("%s (function %d): %s", e.Kind, e.FuncIdx, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newTypeError(kind TypeErrorKind, format string, args ...interface{}) *TypeError {
	return &TypeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// LinkErrorKind enumerates the ways import resolution can fail during
// instantiation, before any code runs.
type LinkErrorKind int

const (
	LinkErrorUnknownImport LinkErrorKind = iota
	LinkErrorIncompatibleImportType
)

func (k LinkErrorKind) String() string {
	switch k {
	case LinkErrorUnknownImport:
		return "unknown import"
	case LinkErrorIncompatibleImportType:
		return "incompatible import type"
	default:
		return "unknown link error"
	}
}

// LinkError is returned by Instantiate when an import cannot be resolved
// against the registered external modules.
type LinkError struct {
	Kind   LinkErrorKind
	Module string
	Name   string
	Detail string
}

func (e *LinkError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s.%s", e.Kind, e.Module, e.Name)
	}
	return fmt.Sprintf("%s: %s.%s: %s", e.Kind, e.Module, e.Name, e.Detail)
}

func newLinkError(kind LinkErrorKind, module, name, format string, args ...interface{}) *LinkError {
	return &LinkError{Kind: kind, Module: module, Name: name, Detail: fmt.Sprintf(format, args...)}
}

// SegmentErrorKind enumerates the ways applying an element or data segment
// can fail during instantiation, before the module's start function runs.
type SegmentErrorKind int

const (
	SegmentErrorElementOutOfBounds SegmentErrorKind = iota
	SegmentErrorDataOutOfBounds
)

func (k SegmentErrorKind) String() string {
	switch k {
	case SegmentErrorElementOutOfBounds:
		return "element segment out of bounds"
	case SegmentErrorDataOutOfBounds:
		return "data segment out of bounds"
	default:
		return "unknown segment error"
	}
}

// SegmentError is returned by Instantiate when an element or data segment's
// offset and length run past the end of the target table or memory. This
// happens before any instruction runs, so it is its own kind rather than an
// interpreter.Trap: wasm cannot import interpreter (see Invoker), and a trap
// is specifically a failure during execution.
type SegmentError struct {
	Kind   SegmentErrorKind
	Index  uint32 // segment index within its section
	Detail string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("%s: segment %d: %s", e.Kind, e.Index, e.Detail)
}

func newSegmentError(kind SegmentErrorKind, index uint32, format string, args ...interface{}) *SegmentError {
	return &SegmentError{Kind: kind, Index: index, Detail: fmt.Sprintf(format, args...)}
}
