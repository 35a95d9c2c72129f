// Package uninstall implements the controlled inverse of the install
// engine, alias synchronizer and shortcut handlers.
package uninstall

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pymanager/pymanager/internal/alias"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/resolve"
	"github.com/pymanager/pymanager/internal/winapi"
)

// Options controls one uninstall invocation.
type Options struct {
	// Purge removes every managed install, the download cache, all
	// shortcut registrations, and PATH entries matching the global dir.
	Purge bool
	Yes   bool
	ByID  bool
}

// KeyRemover is implemented by a shortcut handler's per-install teardown
// (PEP514Handler.RemoveKey, UninstallHandler.RemoveEntry), adapted to a
// common shape so Engine can drive them uniformly.
type KeyRemover func(inst *installmeta.Install) error

// Engine orchestrates one uninstall invocation against a fixed installed
// set. Sync, if set, is re-run over the surviving installs after removal
// so orphaned launcher aliases are swept up by its own cleanup phase
// rather than duplicated here.
type Engine struct {
	InstallDir    string
	GlobalDir     string
	DownloadCache string
	Env           winapi.Environment
	Sync          *alias.Synchronizer
	KeyRemovers   []KeyRemover
}

// Remove resolves rangeText against installs (or matches by exact ID under
// opts.ByID), removes each matching install's prefix and shortcut
// registrations, then re-runs the alias synchronizer over what remains so
// aliases pointing into a removed prefix are cleaned up.
func (e *Engine) Remove(rangeText string, installs []*installmeta.Install, opts Options) ([]*installmeta.Install, []string, error) {
	var targets []*installmeta.Install
	if opts.ByID {
		for _, inst := range installs {
			if inst.ID == rangeText {
				targets = append(targets, inst)
			}
		}
		if len(targets) == 0 {
			return nil, nil, fmt.Errorf("uninstall: no install with id %q", rangeText)
		}
	} else {
		matches, err := resolve.New(installs).Resolve(rangeText, resolve.Options{})
		if err != nil {
			return nil, nil, err
		}
		targets = matches
	}

	var warnings []string
	var removed []*installmeta.Install
	removedIDs := make(map[string]bool, len(targets))
	for _, inst := range targets {
		if inst.Unmanaged {
			// Unmanaged detections (active virtualenv, shell-registry,
			// App Execution Alias entries) are filtered out of uninstall
			// selection: pymanager never created their prefix and must
			// never delete it.
			continue
		}
		if err := RemovePrefix(inst); err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		removedIDs[inst.ID] = true
		removed = append(removed, inst)
		warnings = append(warnings, e.removeShortcutRegistrations(inst)...)
	}

	remaining := make([]*installmeta.Install, 0, len(installs))
	for _, inst := range installs {
		if !removedIDs[inst.ID] {
			remaining = append(remaining, inst)
		}
	}

	if e.Sync != nil {
		warnings = append(warnings, e.Sync.Sync(remaining)...)
	}

	return removed, warnings, nil
}

// Purge removes every managed install, the download cache, and every
// global-dir PATH entry.
func (e *Engine) Purge(installs []*installmeta.Install) []string {
	var warnings []string
	for _, inst := range installs {
		if inst.Unmanaged {
			continue
		}
		if err := RemovePrefix(inst); err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		warnings = append(warnings, e.removeShortcutRegistrations(inst)...)
	}

	if err := RemoveDownloadCache(e.DownloadCache); err != nil {
		warnings = append(warnings, err.Error())
	}

	if e.Env != nil {
		current, err := e.Env.UserPath()
		if err != nil {
			warnings = append(warnings, err.Error())
		} else if filtered := PurgePathEntries(current, e.GlobalDir); filtered != current {
			if err := e.Env.SetUserPath(filtered); err != nil {
				warnings = append(warnings, err.Error())
			} else {
				e.Env.BroadcastSettingChange()
			}
		}
	}

	return warnings
}

func (e *Engine) removeShortcutRegistrations(inst *installmeta.Install) []string {
	var warnings []string
	for _, kr := range e.KeyRemovers {
		if err := kr(inst); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}

// RemovePrefix deletes inst's install directory, removing .exe/.dll/.json
// files first to surface in-use conflicts early.
func RemovePrefix(inst *installmeta.Install) error {
	var priority []string
	var rest []string
	err := filepath.WalkDir(inst.Prefix, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".dll", ".json":
			priority = append(priority, path)
		default:
			rest = append(rest, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, p := range priority {
		_ = os.Remove(p)
	}
	for _, p := range rest {
		_ = os.Remove(p)
	}
	if err := os.RemoveAll(inst.Prefix); err != nil {
		return fmt.Errorf("uninstall: remove prefix %s: %w", inst.Prefix, err)
	}
	return nil
}

// AliasesToRemove returns the launcher names under globalDir whose
// __target__ sidecar points inside removedPrefix. Exposed for callers that
// want to report what will disappear before the alias synchronizer's next
// run actually deletes them.
func AliasesToRemove(globalDir, removedPrefix string) ([]string, error) {
	entries, err := os.ReadDir(globalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	removedPrefix = filepath.Clean(removedPrefix)

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".exe") {
			continue
		}
		sidecar := filepath.Join(globalDir, e.Name()+".__target__")
		data, err := os.ReadFile(sidecar)
		if err != nil {
			continue
		}
		target := filepath.Clean(string(data))
		if target == removedPrefix || strings.HasPrefix(target, removedPrefix+string(filepath.Separator)) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// PurgePathEntries removes every entry from a PATH-style string that
// matches globalDir, returning the filtered value.
func PurgePathEntries(pathValue, globalDir string) string {
	globalDir = filepath.Clean(globalDir)
	parts := strings.Split(pathValue, string(os.PathListSeparator))
	kept := parts[:0]
	for _, p := range parts {
		if strings.EqualFold(filepath.Clean(p), globalDir) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, string(os.PathListSeparator))
}

// RemoveDownloadCache deletes the download cache directory entirely.
func RemoveDownloadCache(cacheDir string) error {
	return os.RemoveAll(cacheDir)
}
