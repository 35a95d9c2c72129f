// Package firstrun runs the independent idempotent environment checks
// invoked once per session under a Welcome latch: a Check/Result pair per
// probe, re-run safely any number of times.
package firstrun

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/winapi"
)

// Status is the tri-state outcome of one check: pass, fail, or skip.
type Status int

const (
	Pass Status = iota
	Fail
	Skip
)

// Result is one check's outcome plus remediation detail.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Runner executes the first-run check sequence against a live environment.
type Runner struct {
	Env          winapi.Environment
	GlobalDir    string
	LegacyPyPath string // path to a legacy py.exe found via a live PATH scan, if any
	Installs     func() ([]*installmeta.Install, error)
}

// RunAll executes every check and returns their results in a fixed order.
func (r *Runner) RunAll() []Result {
	return []Result{
		r.checkAppExecutionAliases(),
		r.checkLongPathsEnabled(),
		r.checkNoLegacyPyOnPath(),
		r.checkGlobalDirOnPath(),
		r.checkAnyManagedInstall(),
	}
}

// checkAppExecutionAliases reports whether Windows' app-execution aliases
// for "python"/"python3" resolve into this install rather than the Store
// stub. Detection requires parsing the WindowsApps alias reparse points,
// which this module does not implement; the check is reported Skip until
// that's wired up, rather than silently claiming Pass.
func (r *Runner) checkAppExecutionAliases() Result {
	return Result{Name: "app-execution-aliases", Status: Skip, Detail: "alias reparse-point inspection not implemented"}
}

func (r *Runner) checkLongPathsEnabled() Result {
	enabled, err := r.Env.LongPathsEnabled()
	if err != nil {
		return Result{Name: "long-paths-enabled", Status: Skip, Detail: err.Error()}
	}
	if !enabled {
		return Result{Name: "long-paths-enabled", Status: Fail, Detail: `set HKLM\SYSTEM\CurrentControlSet\Control\FileSystem\LongPathsEnabled=1`}
	}
	return Result{Name: "long-paths-enabled", Status: Pass}
}

func (r *Runner) checkNoLegacyPyOnPath() Result {
	if r.LegacyPyPath == "" {
		return Result{Name: "no-legacy-py-on-path", Status: Pass}
	}
	return Result{Name: "no-legacy-py-on-path", Status: Fail, Detail: "legacy py.exe found at " + r.LegacyPyPath}
}

// checkGlobalDirOnPath looks up the global launcher directory on both the
// live process environment and the per-user Environment registry value.
func (r *Runner) checkGlobalDirOnPath() Result {
	if pathContains(os.Getenv("PATH"), r.GlobalDir) {
		return Result{Name: "global-dir-on-path", Status: Pass}
	}
	userPath, err := r.Env.UserPath()
	if err != nil {
		return Result{Name: "global-dir-on-path", Status: Skip, Detail: err.Error()}
	}
	if pathContains(userPath, r.GlobalDir) {
		return Result{Name: "global-dir-on-path", Status: Pass}
	}
	return Result{Name: "global-dir-on-path", Status: Fail, Detail: "add " + r.GlobalDir + " to PATH"}
}

func (r *Runner) checkAnyManagedInstall() Result {
	installs, err := r.Installs()
	if err != nil {
		return Result{Name: "any-managed-install", Status: Skip, Detail: err.Error()}
	}
	for _, inst := range installs {
		if !inst.Unmanaged {
			return Result{Name: "any-managed-install", Status: Pass}
		}
	}
	return Result{Name: "any-managed-install", Status: Fail, Detail: "no managed install present"}
}

func pathContains(pathVar, dir string) bool {
	dir = filepath.Clean(dir)
	for _, entry := range strings.Split(pathVar, string(os.PathListSeparator)) {
		if strings.EqualFold(filepath.Clean(entry), dir) {
			return true
		}
	}
	return false
}

// AddGlobalDirToPath appends dir to the per-user PATH and broadcasts the
// change, if it isn't already present. Updates go through HKCU\Environment
// followed by a WM_SETTINGCHANGE broadcast.
func AddGlobalDirToPath(env winapi.Environment, dir string) error {
	current, err := env.UserPath()
	if err != nil {
		return err
	}
	if pathContains(current, dir) {
		return nil
	}
	updated := dir
	if current != "" {
		updated = current + string(os.PathListSeparator) + dir
	}
	return env.SetUserPath(updated)
}
