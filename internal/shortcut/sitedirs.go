package shortcut

import "github.com/pymanager/pymanager/internal/installmeta"

// SiteDirsHandler is the handler for site-dirs descriptors; its Create and
// Cleanup do nothing. Dirs reads a descriptor's dirs list, and the alias
// synchronizer scans its own SiteDirs list for entry_points.txt.
type SiteDirsHandler struct{}

func (SiteDirsHandler) Kind() string { return "site-dirs" }

func (SiteDirsHandler) Create(inst *installmeta.Install, descriptor installmeta.Shortcut) error {
	return nil
}

func (SiteDirsHandler) Cleanup(remaining []Pair) error { return nil }

// Dirs extracts the configured site directories from a site-dirs
// descriptor, or DefaultSiteDirs if the field is absent or malformed.
func Dirs(descriptor installmeta.Shortcut) []string {
	raw, ok := descriptor.Fields["dirs"]
	if !ok {
		return DefaultSiteDirs
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return DefaultSiteDirs
}
