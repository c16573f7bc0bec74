// Package spectest builds the synthetic "spectest" host module used by the
// upstream WebAssembly testsuite's imports/exports/linking scripts: a
// handful of no-op print sinks, fixed immutable globals, and a table and
// memory with fixed limits for assert_unlinkable cases to probe.
package spectest

import (
	"go.uber.org/zap"

	wasm "github.com/kogai/vm/internal/wasm"
	"github.com/kogai/vm/internal/wasmlog"
)

// ModuleName is the import module name the testsuite expects.
const ModuleName = "spectest"

// New builds the spectest external module: print sinks, fixed globals, a
// (10,20)-limited funcref table and a (1,2)-limited memory.
func New() *wasm.ExternalModule {
	em := wasm.NewExternalModule()

	printSignatures := map[string][]wasm.ValueType{
		"print":         nil,
		"print_i32":     {wasm.ValueTypeI32},
		"print_i64":     {wasm.ValueTypeI64},
		"print_f32":     {wasm.ValueTypeF32},
		"print_f64":     {wasm.ValueTypeF64},
		"print_i32_f32": {wasm.ValueTypeI32, wasm.ValueTypeF32},
		"print_f64_f64": {wasm.ValueTypeF64, wasm.ValueTypeF64},
	}
	for name, params := range printSignatures {
		em.Functions[name] = &wasm.FunctionInstance{
			Type:       &wasm.FunctionType{Params: params},
			ExportName: name,
			Host:       printSink(name),
		}
	}

	em.Globals["global_i32"] = &wasm.GlobalInstance{
		Type:  wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: false},
		Value: wasm.I32(666),
	}
	em.Globals["global_f32"] = &wasm.GlobalInstance{
		Type:  wasm.GlobalType{ValType: wasm.ValueTypeF32, Mutable: false},
		Value: wasm.F32(0),
	}
	em.Globals["global_f64"] = &wasm.GlobalInstance{
		Type:  wasm.GlobalType{ValType: wasm.ValueTypeF64, Mutable: false},
		Value: wasm.F64(0),
	}

	tableMax := uint32(20)
	em.Tables["table"] = &wasm.TableInstance{
		Limit:    wasm.Limit{Min: 10, Max: &tableMax},
		Elements: make([]*uint32, 10),
	}

	memMax := uint32(2)
	em.Memories["memory"] = &wasm.MemoryInstance{
		Limit: wasm.Limit{Min: 1, Max: &memMax},
		Data:  make([]byte, 1*65536),
	}

	return em
}

// printSink returns a host function that logs its arguments and returns
// nothing, standing in for the testsuite's print family.
func printSink(name string) func([]wasm.Value) ([]wasm.Value, error) {
	return func(args []wasm.Value) ([]wasm.Value, error) {
		fields := make([]zap.Field, 0, len(args)+1)
		fields = append(fields, zap.String("func", name))
		for i, a := range args {
			fields = append(fields, zap.String(argName(i), a.String()))
		}
		wasmlog.Logger().Debug("spectest: print", fields...)
		return nil, nil
	}
}

func argName(i int) string {
	switch i {
	case 0:
		return "arg0"
	case 1:
		return "arg1"
	default:
		return "argN"
	}
}
