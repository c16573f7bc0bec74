// Command kogai-vm decodes, validates and runs a single WebAssembly MVP
// binary, invoking one of its exported functions with integer arguments
// supplied on the command line.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kogai/vm/api"
	"github.com/kogai/vm/internal/wasmlog"
)

var (
	invokeName   string
	withSpectest bool
	verbose      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kogai-vm <path-to-wasm> [args...]",
		Short:         "Decode, validate and run a WebAssembly MVP module",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runModule,
	}
	root.Flags().StringVar(&invokeName, "invoke", "", "exported function to call (defaults to the module's start function only)")
	root.Flags().BoolVar(&withSpectest, "spectest", false, "register the spectest host module before instantiating")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newValidateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "validate <path-to-wasm>",
		Short:         "Decode and statically validate a module without running it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := api.DecodeModule(raw)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if err := api.ValidateModule(m); err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func runModule(cmd *cobra.Command, args []string) error {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		wasmlog.SetLogger(l)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	m, err := api.DecodeModule(raw)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	rt := api.NewRuntime()
	externals := api.NewExternalModules()
	if withSpectest {
		if err := api.RegisterSpectest(externals); err != nil {
			return err
		}
	}

	inst, err := rt.InstantiateModule(m, "main", externals)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	if invokeName == "" {
		return nil
	}

	callArgs, err := parseArgs(args[1:])
	if err != nil {
		return err
	}

	results, err := rt.Run(inst, invokeName, callArgs)
	if err != nil {
		return fmt.Errorf("run %s: %w", invokeName, err)
	}
	for _, r := range results {
		fmt.Println(r)
	}
	return nil
}

// parseArgs converts command-line strings to i32 values; the MVP CLI only
// needs to exercise integer-returning conformance helpers, not the full
// value-type space.
func parseArgs(raw []string) ([]api.Value, error) {
	out := make([]api.Value, len(raw))
	for i, s := range raw {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%q): %w", i, s, err)
		}
		out[i] = api.I32(int32(n))
	}
	return out, nil
}
