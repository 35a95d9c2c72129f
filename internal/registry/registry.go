// Package registry enumerates installed Python runtimes from on-disk
// metadata, unmanaged detections, and the active virtual environment.
package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/tag"
)

// ActiveVirtualEnvID is the synthetic id given to the active virtualenv
// injected at the head of the enumeration.
const ActiveVirtualEnvID = "__active-virtual-env"

// Registry is the enumerable set of installed runtimes.
type Registry struct {
	InstallDir string

	// DetectUnmanaged, when non-nil, is called to append unmanaged
	// detections (shell-registry, App Execution Aliases) unless disabled
	// by configuration.
	DetectUnmanaged func() []*installmeta.Install

	// VirtualEnv resolves the active virtualenv's prefix, or "" if none is
	// active / configured.
	VirtualEnv func() (prefix string, ok bool)
}

// New creates a Registry rooted at installDir.
func New(installDir string) *Registry {
	return &Registry{InstallDir: installDir}
}

// Scan walks install_dir/*/__install__.json, omitting entries whose
// metadata is unparseable or whose declared executable is missing, then
// appends unmanaged detections and puts the active virtualenv at the head.
func (r *Registry) Scan() ([]*installmeta.Install, error) {
	entries, err := os.ReadDir(r.InstallDir)
	if err != nil {
		if os.IsNotExist(err) {
			return r.finish(nil), nil
		}
		return nil, err
	}

	var installs []*installmeta.Install
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		metaPath := filepath.Join(r.InstallDir, e.Name(), "__install__.json")
		inst, err := installmeta.Load(metaPath)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("skipping unparseable install metadata", "path", metaPath, "error", err)
			}
			continue
		}
		execPath := inst.Executable
		if !filepath.IsAbs(execPath) {
			execPath = filepath.Join(inst.Prefix, execPath)
		}
		if _, err := os.Stat(execPath); err != nil {
			slog.Warn("skipping install with missing executable", "id", inst.ID, "executable", execPath)
			continue
		}
		installs = append(installs, inst)
	}

	return r.finish(installs), nil
}

func (r *Registry) finish(managed []*installmeta.Install) []*installmeta.Install {
	Sort(managed)

	if r.DetectUnmanaged != nil {
		for _, u := range r.DetectUnmanaged() {
			u.Unmanaged = true
			u.Default = false
			managed = append(managed, u)
		}
	}

	if r.VirtualEnv != nil {
		if prefix, ok := r.VirtualEnv(); ok {
			venv := &installmeta.Install{
				ID:         ActiveVirtualEnvID,
				Company:    tag.PythonCore,
				Prefix:     prefix,
				Executable: "python.exe",
				Unmanaged:  true,
			}
			managed = append([]*installmeta.Install{venv}, managed...)
		}
	}

	return managed
}

// Sort orders installs in place: stable releases of PythonCore newest-first,
// then other companies newest-first (each with their own descending order),
// then prereleases.
func Sort(installs []*installmeta.Install) {
	sort.SliceStable(installs, func(i, j int) bool {
		a, b := installs[i], installs[j]

		aPre, bPre := isPrerelease(a), isPrerelease(b)
		if aPre != bPre {
			return !aPre // stable releases first
		}

		companyCmp := tag.CompareCompanies(a.Company, b.Company)
		if companyCmp != 0 {
			return companyCmp < 0
		}

		av := tag.ParseVersion(a.SortVersion)
		bv := tag.ParseVersion(b.SortVersion)
		return tag.DescendingVersion{V: av}.Less(tag.DescendingVersion{V: bv})
	})
}

func isPrerelease(inst *installmeta.Install) bool {
	return tag.ParseVersion(inst.SortVersion).IsPrerelease()
}

// FindByID returns the install with the given id, or nil.
func FindByID(installs []*installmeta.Install, id string) *installmeta.Install {
	for _, inst := range installs {
		if strings.EqualFold(inst.ID, id) {
			return inst
		}
	}
	return nil
}
