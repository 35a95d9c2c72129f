package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/installmeta"
)

var (
	listPaths bool
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Python runtimes",
	Long: `List installed Python runtimes from the on-disk registry: stable
PythonCore releases newest first, then other companies, then prereleases,
with the active virtual environment (if any) always listed first.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listPaths, "paths", false, "Also print each install's executable path (legacy '-0p' shape)")
	listCmd.Flags().BoolVarP(&listJSON, "json", "j", false, "Print machine-readable JSON")
}

func runListPaths(cmd *cobra.Command, args []string) error {
	listPaths = true
	return runList(cmd, args)
}

func runList(cmd *cobra.Command, _ []string) error {
	cli, err := newCLIContext(cmd)
	if err != nil {
		return err
	}
	cli.app.welcome()

	installs, err := cli.app.registry.Scan()
	if err != nil {
		return fmt.Errorf("pymanager: scan installed runtimes: %w", err)
	}
	if len(installs) == 0 {
		return errs.NewNoInstallsError()
	}

	if listJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(installs)
	}

	for _, inst := range installs {
		printListLine(cmd, inst)
	}
	return nil
}

func printListLine(cmd *cobra.Command, inst *installmeta.Install) {
	marker := " "
	if inst.Default {
		marker = "*"
	}
	if listPaths {
		cmd.Printf("%s %-24s %s\n", marker, inst.Tag, filepath.Join(inst.Prefix, inst.Executable))
		return
	}
	cmd.Printf("%s %-24s %s\n", marker, inst.Tag, inst.DisplayName)
}
