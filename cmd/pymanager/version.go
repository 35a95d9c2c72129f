package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.Printf("pymanager version %s\n", version)
		cmd.Printf("  commit:    %s\n", commit)
		cmd.Printf("  built:     %s\n", buildDate)
		cmd.Printf("  go:        %s\n", runtime.Version())
		cmd.Printf("  platform:  %s\n", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
		return nil
	},
}
