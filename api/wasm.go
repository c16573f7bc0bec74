// Package api is the embedding surface for this module: decode a binary,
// validate it, instantiate it against a Store and a set of registered
// external modules, and run its exports.
package api

import (
	"fmt"

	"github.com/kogai/vm/internal/engine/interpreter"
	"github.com/kogai/vm/internal/spectest"
	"github.com/kogai/vm/internal/wasm"
	"github.com/kogai/vm/internal/wasm/binary"
)

// Re-exported types so callers only need to import this package.
type (
	Module          = wasm.Module
	Store           = wasm.Store
	ModuleInstance  = wasm.ModuleInstance
	ExternalModule  = wasm.ExternalModule
	ExternalModules = wasm.ExternalModules
	Value           = wasm.Value
	Trap            = interpreter.Trap
)

// I32 constructs an i32 argument/result value.
func I32(v int32) Value { return wasm.I32(v) }

// DecodeModule parses raw Wasm bytes into a Module.
func DecodeModule(raw []byte) (*Module, error) {
	return binary.DecodeModule(raw)
}

// ValidateModule statically type-checks m, returning nil if it is well-formed.
func ValidateModule(m *Module) error {
	if err := wasm.Validate(m); err != nil {
		return err
	}
	return nil
}

// InitStore allocates an empty Store.
func InitStore() *Store {
	return wasm.NewStore()
}

// NewExternalModules returns an empty import registry.
func NewExternalModules() *ExternalModules {
	return wasm.NewExternalModules()
}

// RegisterSpectest registers the synthetic "spectest" host module used by
// the upstream conformance test suite into externals.
func RegisterSpectest(externals *ExternalModules) error {
	return externals.RegisterModule(spectest.ModuleName, spectest.New())
}

// Runtime bundles a Store with the interpreter Machine that executes
// against it.
type Runtime struct {
	Store   *Store
	Machine *interpreter.Machine
}

// NewRuntime builds a Runtime over a fresh Store.
func NewRuntime() *Runtime {
	store := InitStore()
	return &Runtime{Store: store, Machine: interpreter.NewMachine(store)}
}

// InstantiateModule validates and instantiates m into r's Store under name,
// resolving its imports against externals and running its start function
// (if any) on r's Machine.
func (r *Runtime) InstantiateModule(m *Module, name string, externals *ExternalModules) (*ModuleInstance, error) {
	if err := ValidateModule(m); err != nil {
		return nil, err
	}
	invoke := func(fn *wasm.FunctionInstance, args []wasm.Value) ([]wasm.Value, error) {
		results, trap, err := r.Machine.Invoke(fn, args)
		if err != nil {
			return nil, err
		}
		if trap != nil {
			return nil, fmt.Errorf("trap during start function: %w", *trap)
		}
		return results, nil
	}
	return wasm.Instantiate(r.Store, m, name, externals, invoke)
}

// Run invokes the exported function named fn on mod with args, returning
// its results, or an error describing a trap or host-function failure.
func (r *Runtime) Run(mod *ModuleInstance, fn string, args []Value) ([]Value, error) {
	f, err := mod.ExportedFunction(fn)
	if err != nil {
		return nil, err
	}
	results, trap, err := r.Machine.Invoke(f, args)
	if err != nil {
		return nil, err
	}
	if trap != nil {
		return nil, fmt.Errorf("trap: %w", *trap)
	}
	return results, nil
}

// ExportModule publishes mod's exports for use as another Instantiate
// call's import source.
func ExportModule(mod *ModuleInstance) *ExternalModule {
	return mod.ExportModule()
}
