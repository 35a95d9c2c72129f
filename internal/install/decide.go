// Package install implements the end-to-end install pipeline: decide,
// preserve site directories, prepare destination, download, extract,
// restore site directories, persist metadata, register shortcuts. Alias synchronization (step 7)
// is left to the caller, which re-scans the full installed-runtime set and
// invokes internal/alias once per command, keeping the whole pipeline
// single-flow: resolve, download, extract, and sync never interleave.
package install

import (
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/tag"
)

// Options controls one install invocation.
type Options struct {
	Force  bool
	Repair bool
	Update bool
	// Target overrides the default install_dir/<id> destination.
	Target string
	// DownloadOnly diverts the pipeline to a local offline index instead
	// of extracting.
	DownloadOnly string
}

// Decide reports whether to proceed with installing candidate given the
// already-registered installs.
func Decide(candidateID, candidateSortVersion string, existing []*installmeta.Install, opts Options) (proceed bool, reason string) {
	if opts.Force || opts.Repair {
		return true, "force/repair requested"
	}

	for _, inst := range existing {
		if inst.ID != candidateID {
			continue
		}
		cv := tag.ParseVersion(candidateSortVersion)
		ev := tag.ParseVersion(inst.SortVersion)
		cmp := cv.Compare(ev)
		if opts.Update {
			if cmp > 0 {
				return true, "strictly newer version available"
			}
			return false, "not strictly newer, --update skips"
		}
		if cmp <= 0 {
			return false, "equal-or-newer install already present"
		}
		return true, "newer version available"
	}
	return true, "not yet installed"
}
