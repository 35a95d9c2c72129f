// Command pymanager is the CLI surface over the runtime resolver, install
// engine, and launch dispatch described by the rest of this module: list,
// install, uninstall, exec, plus the legacy py.exe launcher flag aliases
// --list, --list-paths, -0, -0p.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/logging"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var noColor bool

// legacy py.exe launcher aliases, recognized as flags on the root command
// so `pymanager --list`/`-0`/`-0p`/`--list-paths` behave like
// `pymanager list`/`list --paths`.
var (
	legacyList      bool
	legacyList0     bool
	legacyListPaths bool
	legacyList0p    bool
)

// cliContext carries the request-scoped values every RunE needs: a
// cancellable context and the bootstrapped app component graph.
type cliContext struct {
	ctx context.Context
	app *app
}

var rootCmd = &cobra.Command{
	Use:   "pymanager",
	Short: "Manage installed Python runtimes on Windows",
	Long: `pymanager installs, resolves, and launches Python runtimes on Windows:
it maintains a directory of installed runtimes and a directory of small
launcher executables plus shell integration, and at launch time selects the
correct installed runtime for a requested tag, range, or script shebang.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logging.Setup(cmd.ErrOrStderr())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case legacyList || legacyList0:
			return runList(cmd, nil)
		case legacyListPaths || legacyList0p:
			return runListPaths(cmd, nil)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.Flags().BoolVar(&legacyList, "list", false, "List installed runtimes (legacy py.exe launcher alias for 'list')")
	rootCmd.Flags().BoolVar(&legacyList0, "0", false, "List installed runtimes (legacy py.exe launcher alias for 'list')")
	rootCmd.Flags().BoolVar(&legacyListPaths, "list-paths", false, "List installed runtimes with executable paths (legacy alias for 'list --paths')")
	rootCmd.Flags().BoolVar(&legacyList0p, "0p", false, "List installed runtimes with executable paths (legacy alias for 'list --paths')")

	rootCmd.AddCommand(versionCmd, listCmd, installCmd, uninstallCmd, execCmd)
}

func newCLIContext(cmd *cobra.Command) (*cliContext, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	return &cliContext{ctx: cmd.Context(), app: a}, nil
}

func main() {
	if os.Getenv("PYTHON_COLORS") == "" && noColor {
		os.Setenv("PYTHON_COLORS", "0")
	}
	// pflag reads "-0"/"-0p" as shorthand flags, so map the single-dash
	// legacy spellings onto the long "0"/"0p" flags registered in init.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-0":
			os.Args[1] = "--0"
		case "-0p":
			os.Args[1] = "--0p"
		}
	}
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		f := errs.NewFormatter(os.Stderr, noColor)
		fmt.Fprint(os.Stderr, f.Format(err))
		return exitCode(err)
	}
	return 0
}

// exitCode maps err onto a process exit code: 0 success, 1 on a
// user-visible failure, or the OS error code for a Terminal error that
// carries one.
func exitCode(err error) int {
	type exitCoder interface{ ExitCode() int }
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return 1
}
