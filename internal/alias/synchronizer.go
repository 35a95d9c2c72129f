package alias

import (
	"fmt"
	"log/slog"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/tag"
)

// Synchronizer drives the full three-phase alias reconciliation against
// one global launcher directory for a set of installs.
type Synchronizer struct {
	GlobalDir   string
	Templates   Templates
	Entrypoints bool
	SiteDirs    []string // relative to each install's prefix; default ["Lib/site-packages", "Scripts"]
}

// New returns a Synchronizer with the default site directories.
func New(globalDir string, templates Templates) *Synchronizer {
	return &Synchronizer{
		GlobalDir:   globalDir,
		Templates:   templates,
		Entrypoints: true,
		SiteDirs:    []string{"Lib/site-packages", "Scripts"},
	}
}

// Sync reconciles the launcher directory against installs, returning any
// non-fatal warnings collected along the way; a failure materializing one
// alias is logged and does not abort the rest.
//
// This is a three-phase diff against the observed launcher directory:
// compute the desired alias set (a), install or upgrade whichever of it is
// new or drifted (b), then remove whatever observed state is no longer
// desired (c, via Cleanup).
func (s *Synchronizer) Sync(installs []*installmeta.Install) []string {
	var warnings []string

	byID := make(map[string]*installmeta.Install, len(installs))
	for _, inst := range installs {
		byID[inst.ID] = inst
	}

	// (a) Compute the desired set, first-writer-wins across installs for
	// a colliding alias name.
	var desired []Info
	seenNames := make(map[string]string) // lower(name) -> install ID
	for _, inst := range installs {
		infos, w := DesiredSet(inst, s.SiteDirs, s.Entrypoints)
		warnings = append(warnings, w...)
		for _, info := range infos {
			key := info.Key()
			if owner, exists := seenNames[key]; exists && owner != inst.ID {
				continue
			}
			seenNames[key] = inst.ID
			desired = append(desired, info)
		}
	}

	existing, err := ScanExisting(s.GlobalDir)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("alias: scan %s: %v", s.GlobalDir, err))
		existing = map[string]existingAlias{}
	}

	// (b) Materialize every desired alias with no matching existing state,
	// or whose state has drifted per compare.
	linkCache := make(map[string]string)
	keep := make(map[string]struct{}, len(desired))
	for _, info := range desired {
		key := info.Key()
		keep[key] = struct{}{}

		inst := byID[info.InstallID]
		if inst == nil {
			warnings = append(warnings, fmt.Sprintf("alias %q: owning install missing", info.Name))
			continue
		}
		if current, exists := existing[key]; exists {
			if needsUpdate, _ := compare(info, inst.Prefix, current); !needsUpdate {
				continue
			}
		}

		platform := tag.ParseTag(inst.Tag).Platform()
		launcherPath, err := s.Templates.Select(info.Windowed, platform)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("alias %q: %v", info.Name, err))
			slog.Warn("alias: no launcher template", "name", info.Name, "install", inst.ID, "error", err)
			continue
		}
		if err := Materialize(s.GlobalDir, info, inst.Prefix, launcherPath, linkCache); err != nil {
			warnings = append(warnings, fmt.Sprintf("alias %q: %v", info.Name, err))
			slog.Warn("alias: materialize failed", "name", info.Name, "error", err)
		}
	}

	// (c) Remove whatever observed state is no longer desired.
	Cleanup(s.GlobalDir, keep)
	return warnings
}
