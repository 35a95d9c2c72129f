package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/pymanager/pymanager/internal/download"
	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/feed"
	"github.com/pymanager/pymanager/internal/install"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/resolve"
	"github.com/pymanager/pymanager/internal/shebang"
)

var execCmd = &cobra.Command{
	Use:                "exec <script> [args...]",
	Short:              "Run a script or module with the runtime its shebang line selects",
	DisableFlagParsing: true,
	Long: `Exec reads the first line of script, extracts the interpreter token,
and dispatches to the installed runtime it names: an exact installed
executable path, an exact alias name, or (falling back) a tag/range
resolved the same way 'pymanager install' resolves one. When nothing
matches, the configured default tag is tried, installing it first unless
automatic installs are disabled. Anything after script is passed through
to the selected interpreter unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		return cmd.Help()
	}

	cli, err := newCLIContext(cmd)
	if err != nil {
		return err
	}
	cli.app.welcome()

	script := args[0]
	scriptArgs := args[1:]

	installs, err := cli.app.registry.Scan()
	if err != nil {
		return fmt.Errorf("pymanager: scan installed runtimes: %w", err)
	}

	directive, windowed, derr := readDirective(script)
	if derr != nil && os.IsNotExist(derr) {
		return errs.NewArgumentError(fmt.Sprintf("no such file: %s", script), "check the script path")
	}

	inst, target, err := dispatch(cli, installs, directive, windowed, derr)
	if err != nil {
		return err
	}

	var interpArgs []string
	if derr == nil && directive.Args != "" {
		interpArgs = shebang.SplitArgs(directive.Args)
	}

	exePath := filepath.Join(inst.Prefix, target)
	fullArgs := make([]string, 0, len(interpArgs)+1+len(scriptArgs))
	fullArgs = append(fullArgs, interpArgs...)
	fullArgs = append(fullArgs, script)
	fullArgs = append(fullArgs, scriptArgs...)
	return launch(cmd, exePath, fullArgs)
}

// readDirective opens script and parses its shebang line, reporting the
// windowed bias carried by the token's "w" suffix alongside any parse
// error.
func readDirective(script string) (shebang.Directive, bool, error) {
	f, err := os.Open(script)
	if err != nil {
		return shebang.Directive{}, false, err
	}
	defer f.Close()

	d, err := shebang.Parse(bufio.NewReader(f))
	if err != nil {
		return shebang.Directive{}, false, err
	}
	return d, shebang.IsWindowed(d.Token), nil
}

// dispatch matches a parsed directive against the installed set following
// the interpreter's step order (exact executable path, exact alias name,
// bare python/py normalization, then tag/range resolution), falling back
// to the configured default tag when the directive is absent or nothing
// matches.
func dispatch(cli *cliContext, installs []*installmeta.Install, d shebang.Directive, windowed bool, parseErr error) (*installmeta.Install, string, error) {
	if parseErr == nil {
		if inst, target, ok := matchExecutablePath(installs, d); ok {
			return inst, target, nil
		}
		if inst, target, ok := matchAliasName(installs, d, windowed); ok {
			return inst, target, nil
		}
		if rangeText, w, ok := shebang.NormalizeBareToken(d.Token); ok {
			if inst, target, rerr := resolve.New(installs).GetInstallToRun(rangeText, w, resolve.Options{DefaultPlatform: cli.app.cfg.DefaultPlatform}); rerr == nil {
				return inst, target, nil
			}
		} else if d.Token != "" {
			if inst, target, rerr := resolve.New(installs).GetInstallToRun(d.Token, windowed, resolve.Options{DefaultPlatform: cli.app.cfg.DefaultPlatform}); rerr == nil {
				return inst, target, nil
			}
		}
	}

	return fallbackToDefault(cli, installs)
}

// matchExecutablePath matches a shebang line that named an absolute
// interpreter path against an installed executable's full path.
func matchExecutablePath(installs []*installmeta.Install, d shebang.Directive) (*installmeta.Install, string, bool) {
	if d.Path == "" {
		return nil, "", false
	}
	want := filepath.Clean(d.Path)
	for _, inst := range installs {
		for _, target := range []string{inst.Executable, inst.ExecutableW} {
			if target == "" {
				continue
			}
			if strings.EqualFold(filepath.Clean(filepath.Join(inst.Prefix, target)), want) {
				return inst, target, true
			}
		}
	}
	return nil, "", false
}

// matchAliasName matches an exact alias name across every installed
// runtime's alias list, preferring the entry whose windowed flag matches.
func matchAliasName(installs []*installmeta.Install, d shebang.Directive, windowed bool) (*installmeta.Install, string, bool) {
	want := d.Token
	if !strings.HasSuffix(strings.ToLower(want), ".exe") {
		want += ".exe"
	}
	var fallback *installmeta.Install
	var fallbackTarget string
	for _, inst := range installs {
		for _, a := range inst.Alias {
			if !strings.EqualFold(a.Name, want) {
				continue
			}
			if a.Windowed == windowed {
				return inst, a.Target, true
			}
			if fallback == nil {
				fallback, fallbackTarget = inst, a.Target
			}
		}
	}
	if fallback != nil {
		return fallback, fallbackTarget, true
	}
	return nil, "", false
}

// fallbackToDefault resolves the "default" tag, installing it first when
// none of the installed runtimes satisfy it and configuration permits an
// automatic install.
func fallbackToDefault(cli *cliContext, installs []*installmeta.Install) (*installmeta.Install, string, error) {
	const rangeText = "default"

	opts := resolve.Options{DefaultTag: cli.app.cfg.DefaultTag, DefaultPlatform: cli.app.cfg.DefaultPlatform}

	inst, target, err := resolve.New(installs).GetInstallToRun(rangeText, false, opts)
	if err == nil {
		return inst, target, nil
	}

	if cli.app.cfg.AutomaticInstallDisabled {
		return nil, "", errs.NewAutomaticInstallDisabledError(rangeText)
	}

	installed, err := autoInstall(cli, installs, rangeText)
	if err != nil {
		return nil, "", err
	}

	merged := append(append([]*installmeta.Install(nil), installs...), installed)
	return resolve.New(merged).GetInstallToRun(rangeText, false, opts)
}

// autoInstall runs the same install pipeline 'pymanager install' drives,
// against the top-ranked feed entry for rangeText.
func autoInstall(cli *cliContext, existing []*installmeta.Install, rangeText string) (*installmeta.Install, error) {
	entries, err := cli.app.fetchFeed(cli)
	if err != nil {
		return nil, err
	}

	ranked := make([]*installmeta.Install, 0, len(entries))
	for i := range entries {
		ranked = append(ranked, entries[i].ToInstall("", ""))
	}
	chosen, err := resolve.New(ranked).ResolveInstall(rangeText, resolve.Options{DefaultTag: cli.app.cfg.DefaultTag, DefaultPlatform: cli.app.cfg.DefaultPlatform})
	if err != nil {
		return nil, err
	}

	var entry *feed.Entry
	for i := range entries {
		if entries[i].ID == chosen.ID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, errs.NewNoInstallFoundError(rangeText)
	}

	engine := &install.Engine{
		InstallDir:            cli.app.paths.InstallDir(),
		Downloader:            cli.app.downloader(),
		Shortcuts:             cli.app.shortcuts,
		PreserveSiteOnUpgrade: cli.app.cfg.PreserveSiteOnUpgrade,
		EnabledKinds:          toSet(cli.app.cfg.ShortcutsEnabled),
		DisabledKinds:         toSet(cli.app.cfg.ShortcutsDisabled),
	}

	bars := mpb.New(mpb.WithOutput(os.Stderr))
	sink := download.NewSink(bars, os.Stderr, entry.ID)
	inst, warnings, err := engine.Run(cli.ctx, entry, existing, install.Options{}, sink)
	bars.Wait()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	updated := mergeInstalled(existing, inst)
	for _, w := range cli.app.sync.Sync(updated) {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return inst, nil
}

// launch replaces the current process's stdio plumbing onto exePath and
// waits for it, surfacing its exit code through exitCodeError.
func launch(cmd *cobra.Command, exePath string, args []string) error {
	c := exec.Command(exePath, args...)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &exitCodeError{code: exitErr.ExitCode(), cause: err}
		}
		return fmt.Errorf("pymanager: launch %s: %w", exePath, err)
	}
	return nil
}

// exitCodeError lets exitCode() in root.go propagate the launched
// interpreter's own exit status.
type exitCodeError struct {
	code  int
	cause error
}

func (e *exitCodeError) Error() string { return e.cause.Error() }
func (e *exitCodeError) Unwrap() error { return e.cause }
func (e *exitCodeError) ExitCode() int { return e.code }
