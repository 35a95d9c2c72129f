package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/resolve"
	"github.com/pymanager/pymanager/internal/uninstall"
)

var (
	uninstallPurge bool
	uninstallYes   bool
	uninstallByID  bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [tag-or-range]",
	Short: "Uninstall a Python runtime",
	Long: `Uninstall removes the install(s) matching tag (or, with --purge, every
managed install plus the download cache and global-dir PATH entries), then
re-synchronizes launcher aliases over whatever remains. A
confirmation is elicited unless --yes is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallPurge, "purge", false, "Remove every managed install, the download cache, and PATH entries")
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "Don't ask for confirmation")
	uninstallCmd.Flags().BoolVar(&uninstallByID, "by-id", false, "Treat the argument as an exact install id rather than a tag/range")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	cli, err := newCLIContext(cmd)
	if err != nil {
		return err
	}

	if err := cli.app.session.Lock(); err != nil {
		return err
	}
	defer cli.app.session.Unlock()

	installs, err := cli.app.registry.Scan()
	if err != nil {
		return fmt.Errorf("pymanager: scan installed runtimes: %w", err)
	}
	if len(installs) == 0 {
		return errs.NewNoInstallsError()
	}

	engine := &uninstall.Engine{
		InstallDir:    cli.app.paths.InstallDir(),
		GlobalDir:     cli.app.paths.GlobalDir(),
		DownloadCache: cli.app.paths.CacheDir(),
		Env:           cli.app.env,
		Sync:          cli.app.sync,
		KeyRemovers:   cli.app.shortcutKeyRemovers(),
	}

	if uninstallPurge {
		if !uninstallYes && !confirm(cmd, fmt.Sprintf("Remove all %d managed install(s) and the download cache?", countManaged(installs))) {
			cmd.Println("aborted")
			return nil
		}
		warnings := engine.Purge(installs)
		for _, w := range warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		cmd.Println("purged")
		return nil
	}

	if len(args) == 0 {
		return errs.NewArgumentError("uninstall requires a tag, range, or (with --by-id) an install id", "e.g. 'pymanager uninstall 3.13' or 'pymanager uninstall --purge'")
	}
	rangeText := args[0]

	opts := uninstall.Options{Purge: false, Yes: uninstallYes, ByID: uninstallByID}

	if !uninstallYes {
		preview, err := previewTargets(installs, rangeText, opts)
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Remove %s?", strings.Join(preview, ", "))) {
			cmd.Println("aborted")
			return nil
		}
	}

	removed, warnings, err := engine.Remove(rangeText, installs, opts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	for _, inst := range removed {
		cmd.Printf("uninstalled %s (%s)\n", inst.ID, inst.SortVersion)
	}
	return nil
}

// previewTargets resolves what would be removed without mutating anything,
// so the confirmation prompt can name the actual targets.
func previewTargets(installs []*installmeta.Install, rangeText string, opts uninstall.Options) ([]string, error) {
	if opts.ByID {
		for _, inst := range installs {
			if inst.ID == rangeText {
				return []string{inst.ID}, nil
			}
		}
		return nil, fmt.Errorf("uninstall: no install with id %q", rangeText)
	}
	matches, err := resolve.New(installs).Resolve(rangeText, resolve.Options{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", m.ID, m.SortVersion))
	}
	return names, nil
}

func countManaged(installs []*installmeta.Install) int {
	n := 0
	for _, inst := range installs {
		if !inst.Unmanaged {
			n++
		}
	}
	return n
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

// shortcutKeyRemovers adapts the app's shortcut registry handlers into the
// uninstall.KeyRemover shape so Engine can drive registry/Start menu/
// Add-Remove-Programs teardown uniformly.
func (a *app) shortcutKeyRemovers() []uninstall.KeyRemover {
	var removers []uninstall.KeyRemover
	for _, h := range a.shortcuts.Handlers() {
		switch handler := h.(type) {
		case interface {
			RemoveKey(inst *installmeta.Install) error
		}:
			removers = append(removers, handler.RemoveKey)
		case interface {
			RemoveEntry(inst *installmeta.Install) error
		}:
			removers = append(removers, handler.RemoveEntry)
		}
	}
	return removers
}
