// Command wazerocoredump decodes a WebAssembly binary module and prints a summary of its sections: a thin CLI
// wrapper over the decode package, in the spirit of the wazero CLI's own compile/run/version subcommands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crowmoor/wazerocore"
	"github.com/crowmoor/wazerocore/config"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

func main() {
	if err := doMain(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// doMain is separated from main for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, args []string) error {
	var configPath string

	root := &cobra.Command{
		Use:   "wazerocoredump",
		Short: "Decode and inspect WebAssembly binary modules",
	}
	root.SetOut(stdOut)
	root.SetErr(stdErr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml)")

	root.AddCommand(newDumpCommand(stdOut, &configPath))

	root.SetArgs(args)
	return root.Execute()
}

func newDumpCommand(stdOut io.Writer, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.wasm>",
		Short: "Decode a module and print its section summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(stdOut, *configPath, args[0])
		},
	}
}

func runDump(stdOut io.Writer, configPath, wasmPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	f, err := os.Open(wasmPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", wasmPath, err)
	}
	defer f.Close()

	opts := []decode.Option{decode.WithArenaCapacityHint(cfg.ArenaCapacityHint)}
	if !cfg.QuietUnknownSections {
		opts = append(opts, decode.WithLogger(log))
	}

	result, err := decode.Parse(f, opts...)
	if err != nil {
		return fmt.Errorf("decode %s: %w", wasmPath, err)
	}
	defer result.Release()

	printSummary(stdOut, result.Module)
	return nil
}

func printSummary(w io.Writer, m *wasm.Module) {
	fmt.Fprintf(w, "version: %d\n", m.Version)
	fmt.Fprintf(w, "types: %d\n", len(m.TypeSection))
	fmt.Fprintf(w, "imports: %d\n", len(m.ImportSection))
	fmt.Fprintf(w, "functions: %d\n", len(m.FunctionSection))
	fmt.Fprintf(w, "tables: %d\n", len(m.TableSection))
	fmt.Fprintf(w, "memories: %d\n", len(m.MemorySection))
	fmt.Fprintf(w, "globals: %d\n", len(m.GlobalSection))
	fmt.Fprintf(w, "exports: %d\n", len(m.ExportSection))
	if m.StartSection != nil {
		fmt.Fprintf(w, "start: %d\n", *m.StartSection)
	}
	fmt.Fprintf(w, "elements: %d\n", len(m.ElementSection))
	fmt.Fprintf(w, "code entries: %d\n", len(m.CodeSection))
	fmt.Fprintf(w, "data segments: %d\n", len(m.DataSection))
	fmt.Fprintf(w, "custom sections: %d\n", len(m.CustomSections))
	for _, exp := range m.ExportSection {
		fmt.Fprintf(w, "  export %q: %s #%d\n", exp.Name, wasm.ExternTypeName(exp.Type), exp.Index)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}
