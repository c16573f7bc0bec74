package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kogai/vm/api"
)

// addModuleBytes encodes:
//
//	(func (export "add") (param i32 i32) (result i32)
//	  local.get 0
//	  local.get 1
//	  i32.add)
func addModuleBytes() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,

		0x01, 0x07,
		0x01,
		0x60,
		0x02, 0x7f, 0x7f,
		0x01, 0x7f,

		0x03, 0x02,
		0x01, 0x00,

		0x07, 0x07,
		0x01,
		0x03, 0x61, 0x64, 0x64,
		0x00, 0x00,

		0x0a, 0x09,
		0x01,
		0x07,
		0x00,
		0x20, 0x00,
		0x20, 0x01,
		0x6a,
		0x0b,
	}
}

func TestDecodeValidateInstantiateRun(t *testing.T) {
	m, err := api.DecodeModule(addModuleBytes())
	require.NoError(t, err)
	require.NoError(t, api.ValidateModule(m))

	rt := api.NewRuntime()
	inst, err := rt.InstantiateModule(m, "main", api.NewExternalModules())
	require.NoError(t, err)

	results, err := rt.Run(inst, "add", []api.Value{api.I32(3), api.I32(4)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int32(7), results[0].ToI32())
}

func TestRun_UnknownExport(t *testing.T) {
	m, err := api.DecodeModule(addModuleBytes())
	require.NoError(t, err)

	rt := api.NewRuntime()
	inst, err := rt.InstantiateModule(m, "main", api.NewExternalModules())
	require.NoError(t, err)

	_, err = rt.Run(inst, "missing", nil)
	require.Error(t, err)
}

func TestRegisterSpectest(t *testing.T) {
	externals := api.NewExternalModules()
	require.NoError(t, api.RegisterSpectest(externals))
}

func TestExportModule(t *testing.T) {
	m, err := api.DecodeModule(addModuleBytes())
	require.NoError(t, err)

	rt := api.NewRuntime()
	inst, err := rt.InstantiateModule(m, "main", api.NewExternalModules())
	require.NoError(t, err)

	published := api.ExportModule(inst)
	_, ok := published.Functions["add"]
	require.True(t, ok)
}
