// Package cli implements the qomctl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/pkg/qom"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	machine   string
	logLevel  string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "qomctl" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "qomctl",
		Short: "Inspect and drive a device object model",
		Long: "qomctl builds a machine from a description, then lets you browse its\n" +
			"types and composition tree, read and write properties, and record\n" +
			"snapshots of the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory for snapshots (default: platform data dir)")
	pf.StringVar(&flags.machine, "machine", "", "machine description file, .yaml or .toml (default: built-in sample)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTypesCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newSetCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newSnapshotsCmd())
	root.AddCommand(newStatsCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Stderr))
}

// run executes root and maps its outcome to an exit code. Fatal object
// model violations are reported rather than crashing the process.
func run(root *cobra.Command, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*qom.FatalError)
			if !ok {
				panic(r)
			}
			fmt.Fprintf(stderr, "fatal: %s\n", fe)
			code = exitSysError
		}
	}()

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		var ce *cliError
		if errors.As(err, &ce) {
			return ce.code
		}
		return exitUserError
	}
	return exitSuccess
}

// cliError carries an exit code with an error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// sysError marks err as a system failure (exit code 2).
func sysError(format string, args ...any) error {
	return &cliError{code: exitSysError, err: fmt.Errorf(format, args...)}
}
