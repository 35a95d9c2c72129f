package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/pymanager/pymanager/internal/download"
	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/feed"
	"github.com/pymanager/pymanager/internal/install"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/resolve"
)

var (
	installForce    bool
	installRepair   bool
	installUpdate   bool
	installRefresh  bool
	installTarget   string
	installDownload string
)

var installCmd = &cobra.Command{
	Use:   "install [tag-or-range]",
	Short: "Install a Python runtime",
	Long: `Install resolves tag (a tag, range, or comparator expression, e.g.
'3.13' or '>=3.11') against the configured index sources and runs the full
install pipeline: decide, prepare destination, preserve site directories
across upgrades, extract, persist metadata, register shortcuts, and
synchronize launcher aliases.

With --refresh and no tag, aliases are re-synchronized against the
currently installed set without fetching or installing anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installForce, "force", false, "Reinstall even if an equal-or-newer version is present")
	installCmd.Flags().BoolVar(&installRepair, "repair", false, "Reinstall in place, overwriting existing files")
	installCmd.Flags().BoolVar(&installUpdate, "update", false, "Only act if a strictly newer version is available")
	installCmd.Flags().BoolVar(&installRefresh, "refresh", false, "Re-synchronize launcher aliases without installing")
	installCmd.Flags().StringVar(&installTarget, "target", "", "Install into this directory instead of install_dir/<id>")
	installCmd.Flags().StringVar(&installDownload, "download", "", "Divert the download into this directory's offline index instead of installing")
}

func runInstall(cmd *cobra.Command, args []string) error {
	cli, err := newCLIContext(cmd)
	if err != nil {
		return err
	}
	cli.app.welcome()

	if err := cli.app.session.Lock(); err != nil {
		return err
	}
	defer cli.app.session.Unlock()

	existing, err := cli.app.registry.Scan()
	if err != nil {
		return fmt.Errorf("pymanager: scan installed runtimes: %w", err)
	}

	if installRefresh && len(args) == 0 {
		warnings := cli.app.sync.Sync(existing)
		for _, w := range warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		cmd.Println("aliases re-synchronized")
		return nil
	}

	if len(args) == 0 {
		return errs.NewArgumentError("install requires a tag, range, or comparator expression", "e.g. 'pymanager install 3.13' or 'pymanager install >=3.11'")
	}
	rangeText := args[0]

	entries, err := cli.app.fetchFeed(cli)
	if err != nil {
		return err
	}

	entry, err := resolveEntry(cmd, entries, rangeText, cli.app.cfg.DefaultPlatform)
	if err != nil {
		return err
	}

	engine := &install.Engine{
		InstallDir:            cli.app.paths.InstallDir(),
		Downloader:            cli.app.downloader(),
		Shortcuts:             cli.app.shortcuts,
		PreserveSiteOnUpgrade: cli.app.cfg.PreserveSiteOnUpgrade,
		EnabledKinds:          toSet(cli.app.cfg.ShortcutsEnabled),
		DisabledKinds:         toSet(cli.app.cfg.ShortcutsDisabled),
	}

	opts := install.Options{
		Force:        installForce,
		Repair:       installRepair,
		Update:       installUpdate,
		Target:       installTarget,
		DownloadOnly: installDownload,
	}

	bars := mpb.New(mpb.WithOutput(cmd.ErrOrStderr()))
	sink := download.NewSink(bars, cmd.ErrOrStderr(), entry.ID)
	inst, warnings, err := engine.Run(cli.ctx, entry, existing, opts, sink)
	bars.Wait()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	if inst == nil {
		cmd.Printf("%s is already installed and up to date\n", entry.ID)
		return nil
	}

	if installDownload == "" {
		updated := mergeInstalled(existing, inst)
		syncWarnings := cli.app.sync.Sync(updated)
		for _, w := range syncWarnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
	}

	cmd.Printf("installed %s (%s)\n", inst.ID, inst.SortVersion)
	return nil
}

// resolveEntry resolves rangeText against the fetched feed entries,
// prompting interactively when more than one candidate matches and stdout
// is a terminal, else returning the highest-ranked candidate.
func resolveEntry(cmd *cobra.Command, entries []feed.Entry, rangeText, defaultPlatform string) (*feed.Entry, error) {
	byID := make(map[string]*feed.Entry, len(entries))
	installs := make([]*installmeta.Install, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		byID[e.ID] = e
		installs = append(installs, e.ToInstall("", ""))
	}

	r := resolve.New(installs)
	ranked, err := r.Resolve(rangeText, resolve.Options{DefaultPlatform: defaultPlatform})
	if err != nil {
		return nil, err
	}

	if len(ranked) > 1 && canPrompt() {
		chosen, err := pickOne(ranked)
		if err == nil {
			return byID[chosen.ID], nil
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err, "- using best match")
	}
	return byID[ranked[0].ID], nil
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func mergeInstalled(existing []*installmeta.Install, inst *installmeta.Install) []*installmeta.Install {
	out := make([]*installmeta.Install, 0, len(existing)+1)
	replaced := false
	for _, e := range existing {
		if e.ID == inst.ID {
			out = append(out, inst)
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, inst)
	}
	return out
}
