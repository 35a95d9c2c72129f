package install

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pymanager/pymanager/internal/checksum"
	"github.com/pymanager/pymanager/internal/download"
	"github.com/pymanager/pymanager/internal/extract"
	"github.com/pymanager/pymanager/internal/feed"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/shortcut"
)

// Engine runs the install pipeline for one resolved feed entry.
type Engine struct {
	InstallDir            string
	Downloader            *download.Downloader
	Shortcuts             *shortcut.Registry
	PreserveSiteOnUpgrade bool
	EnabledKinds          map[string]bool
	DisabledKinds         map[string]bool
}

// Run executes the full pipeline for entry and returns the persisted
// Install plus any non-fatal warnings collected along the way. Alias
// synchronization is the caller's responsibility (package doc).
func (e *Engine) Run(ctx context.Context, entry *feed.Entry, existing []*installmeta.Install, opts Options, sink download.Progress) (*installmeta.Install, []string, error) {
	var warnings []string

	proceed, reason := Decide(entry.ID, entry.SortVersion, existing, opts)
	slog.Debug("install: decide", "id", entry.ID, "proceed", proceed, "reason", reason)
	if !proceed {
		return nil, warnings, nil
	}

	dest := opts.Target
	if dest == "" {
		dest = filepath.Join(e.InstallDir, entry.ID)
	}

	var stagingDir string
	var movedSiteDirs []string
	if e.PreserveSiteOnUpgrade && !opts.Force && !opts.Repair {
		var err error
		stagingDir, movedSiteDirs, err = PreserveSite(dest, shortcut.DefaultSiteDirs)
		if err != nil {
			return nil, warnings, err
		}
	}

	if err := Prepare(dest, opts.Repair); err != nil {
		return nil, warnings, err
	}

	archivePath, err := e.Downloader.Download(ctx, download.Entry{
		URL:      entry.URL,
		Filename: filepath.Base(entry.URL),
		Hash:     toHashMap(entry.Hash),
	}, filepath.Join(e.downloadCacheDir(), entry.ID+filepath.Ext(entry.URL)), opts.Force, sink)
	if err != nil {
		return nil, warnings, err
	}

	if opts.DownloadOnly != "" {
		if err := divert(opts.DownloadOnly, archivePath, entry); err != nil {
			return nil, warnings, err
		}
		return entry.ToInstall(dest, download.SanitizeURL(entry.URL)), warnings, nil
	}

	res, err := extract.Extract(archivePath, dest, extract.Options{Repair: opts.Repair})
	if err != nil {
		return nil, warnings, err
	}
	for _, skipped := range res.Skipped {
		warnings = append(warnings, fmt.Sprintf("extract: refused path-traversal member %q", skipped))
	}

	if opts.Target != "" {
		if err := extract.RemoveExistingMetadata(dest); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if err := RestoreSite(dest, stagingDir, movedSiteDirs); err != nil {
		warnings = append(warnings, err.Error())
	}

	inst := persist(entry, dest, res.RootJSON)
	if err := os.MkdirAll(filepath.Join(e.InstallDir, inst.ID), 0755); err != nil {
		return nil, warnings, err
	}
	if err := installmeta.Save(filepath.Join(e.InstallDir, inst.ID, "__install__.json"), inst); err != nil {
		return nil, warnings, err
	}

	if e.Shortcuts != nil {
		warnings = append(warnings, e.Shortcuts.Register(inst, e.EnabledKinds, e.DisabledKinds)...)
	}

	return inst, warnings, nil
}

func (e *Engine) downloadCacheDir() string {
	return filepath.Join(e.InstallDir, ".cache")
}

func toHashMap(h map[string]string) checksum.Map {
	m := make(checksum.Map, len(h))
	for algo, hex := range h {
		m[checksum.Algorithm(algo)] = checksum.Digest(hex)
	}
	return m
}

// persist merges the archive's root __install__.json (if any) with the
// feed entry, feed fields filling keys the archive's metadata left unset.
func persist(entry *feed.Entry, dest string, rootJSON []byte) *installmeta.Install {
	inst := entry.ToInstall(dest, download.SanitizeURL(entry.URL))
	inst.URL = download.SanitizeURL(entry.URL)

	if len(rootJSON) > 0 {
		var archiveMeta installmeta.Install
		if err := json.Unmarshal(rootJSON, &archiveMeta); err == nil {
			mergeInstall(inst, &archiveMeta)
		}
	}

	inst.OriginalShortcuts = append([]installmeta.Shortcut(nil), inst.Shortcuts...)
	return inst
}

// mergeInstall overlays archive-root metadata (src) onto the install built
// from the feed entry (dst): display-name, run-for, alias, shortcuts,
// executable, executablew and unknown keys that src sets replace dst's, and
// dst keeps its value where src sets none. id, company, tag, sort-version,
// install-for and url always come from the feed entry; src's values for
// them are ignored.
func mergeInstall(dst *installmeta.Install, src *installmeta.Install) {
	if src.DisplayName != "" {
		dst.DisplayName = src.DisplayName
	}
	if len(src.RunFor) > 0 {
		dst.RunFor = src.RunFor
	}
	if len(src.Alias) > 0 {
		dst.Alias = src.Alias
	}
	if len(src.Shortcuts) > 0 {
		dst.Shortcuts = src.Shortcuts
	}
	if src.Executable != "" {
		dst.Executable = src.Executable
	}
	if src.ExecutableW != "" {
		dst.ExecutableW = src.ExecutableW
	}
	for k, v := range src.Unknown {
		if dst.Unknown == nil {
			dst.Unknown = map[string]json.RawMessage{}
		}
		dst.Unknown[k] = v
	}
}

// offlineIndexEntry is one row of the --download=<dir> index.json.
type offlineIndexEntry struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// divert copies archivePath into dir and merges it into dir/index.json,
// keyed on URL case-insensitively with new entries placed first.
func divert(dir, archivePath string, entry *feed.Entry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	filename := filepath.Base(entry.URL)
	dstPath := filepath.Join(dir, filename)
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dstPath, data, 0644); err != nil {
		return err
	}

	indexPath := filepath.Join(dir, "index.json")
	var existing []offlineIndexEntry
	if raw, err := os.ReadFile(indexPath); err == nil {
		_ = json.Unmarshal(raw, &existing)
	}

	merged := []offlineIndexEntry{{URL: entry.URL, Filename: filename}}
	seen := map[string]bool{strings.ToLower(entry.URL): true}
	for _, e := range existing {
		if seen[strings.ToLower(e.URL)] {
			continue
		}
		seen[strings.ToLower(e.URL)] = true
		merged = append(merged, e)
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(indexPath, out, 0644)
}
