package alias

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Templates locates the launcher template executables used to materialize
// aliases, and the platform fallback chain to try.
type Templates struct {
	Dir             string
	ExeStem         string // e.g. "venvlauncher"
	WExeStem        string // e.g. "venvwlauncher"
	DefaultPlatform string
}

// Select picks the best-matching launcher template file for a platform,
// preferring an exact platform match, then the configured default
// platform, then "-64", then the bare stem. platform
// and DefaultPlatform follow tag.Tag.Platform()'s convention of a leading
// "-" (e.g. "-arm64"), or are empty.
func (t Templates) Select(windowed bool, platform string) (string, error) {
	stem := t.ExeStem
	if windowed {
		stem = t.WExeStem
	}
	norm := func(p string) string {
		if p == "" || strings.HasPrefix(p, "-") {
			return p
		}
		return "-" + p
	}
	platform = norm(platform)
	defaultPlatform := norm(t.DefaultPlatform)

	candidates := []string{}
	if platform != "" {
		candidates = append(candidates, stem+platform+".exe")
	}
	if defaultPlatform != "" && defaultPlatform != platform {
		candidates = append(candidates, stem+defaultPlatform+".exe")
	}
	candidates = append(candidates, stem+"-64.exe", stem+".exe")

	for _, c := range candidates {
		path := filepath.Join(t.Dir, c)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("alias: no launcher template found for stem %q platform %q", stem, platform)
}

// existingAlias is the observed state of one materialized launcher: its
// target- and script-sidecar contents, enough for compare to detect drift
// without re-reading the launcher binary itself.
type existingAlias struct {
	name       string
	targetAbs  string
	hasScript  bool
	scriptCode string
}

// ScanExisting reads the current *.exe + sidecar state of globalDir into a
// map keyed the same way the reconciler keys desired Info values.
func ScanExisting(globalDir string) (map[string]existingAlias, error) {
	entries, err := os.ReadDir(globalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]existingAlias{}, nil
		}
		return nil, err
	}
	out := make(map[string]existingAlias)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".exe") {
			continue
		}
		name := e.Name()
		targetAbs := ""
		if b, err := os.ReadFile(filepath.Join(globalDir, name+".__target__")); err == nil {
			targetAbs = string(b)
		}
		scriptCode := ""
		hasScript := false
		if b, err := os.ReadFile(filepath.Join(globalDir, name+".__script__.py")); err == nil {
			scriptCode = string(b)
			hasScript = true
		}
		out[strings.ToLower(name)] = existingAlias{name: name, targetAbs: targetAbs, hasScript: hasScript, scriptCode: scriptCode}
	}
	return out, nil
}

// compare reports whether a desired Info needs rematerializing against its
// observed existingAlias state: target sidecar or script sidecar drift.
func compare(desired Info, prefix string, current existingAlias) (bool, string) {
	wantTarget := filepath.Join(prefix, desired.Target)
	if current.targetAbs != wantTarget {
		return true, "target changed"
	}
	if (current.scriptCode != desired.ScriptCode) || (current.hasScript != (desired.ScriptCode != "")) {
		return true, "script body changed"
	}
	return false, ""
}

// Materialize writes one alias's launcher copy/link and sidecars into
// globalDir, reusing content-identical existing launchers and falling back
// from hard link to copy on cross-volume failure.
func Materialize(globalDir string, info Info, prefix string, launcherPath string, linkCache map[string]string) error {
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		return err
	}
	aliasPath := filepath.Join(globalDir, info.Name)

	launcherData, err := os.ReadFile(launcherPath)
	if err != nil {
		return fmt.Errorf("alias: read launcher template: %w", err)
	}

	if existing, err := os.ReadFile(aliasPath); err == nil {
		if len(existing) >= len(launcherData) && bytes.Equal(existing[:len(launcherData)], launcherData) {
			linkCache[launcherPath] = aliasPath
		} else if err := relink(globalDir, launcherPath, aliasPath, launcherData, linkCache); err != nil {
			return err
		}
	} else if err := relink(globalDir, launcherPath, aliasPath, launcherData, linkCache); err != nil {
		return err
	}

	targetAbs := filepath.Join(prefix, info.Target)
	if err := writeIfDiffers(aliasPath+".__target__", targetAbs); err != nil {
		return err
	}

	scriptPath := aliasPath + ".__script__.py"
	if info.ScriptCode != "" {
		if err := writeIfDiffers(scriptPath, info.ScriptCode); err != nil {
			return err
		}
	} else if _, err := os.Stat(scriptPath); err == nil {
		if err := os.Remove(scriptPath); err != nil {
			return err
		}
	}
	return nil
}

// relink removes any stale alias file and re-creates it by hard link to
// the launcher template, falling back to a previously-materialized copy of
// the same template on cross-volume failure, and finally to a byte copy.
func relink(globalDir, launcherPath, aliasPath string, launcherData []byte, linkCache map[string]string) error {
	_ = os.Remove(aliasPath)

	if err := os.Link(launcherPath, aliasPath); err == nil {
		linkCache[launcherPath] = aliasPath
		return nil
	}

	if prior, ok := linkCache[launcherPath]; ok && prior != aliasPath {
		if err := os.Link(prior, aliasPath); err == nil {
			return nil
		}
	}

	if err := os.WriteFile(aliasPath, launcherData, 0755); err != nil {
		return fmt.Errorf("alias: materialize %s: %w", aliasPath, err)
	}
	linkCache[launcherPath] = aliasPath
	return nil
}

func writeIfDiffers(path, content string) error {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == content {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Cleanup removes every launcher (and its sidecars) in globalDir whose
// lower-cased file name (including ".exe") is not present in keep, using an
// atomic-rename-then-delete pattern so an in-use launcher is skipped
// without aborting the rest of the sweep.
func Cleanup(globalDir string, keep map[string]struct{}) {
	entries, err := os.ReadDir(globalDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".exe") {
			continue
		}
		if _, ok := keep[strings.ToLower(e.Name())]; ok {
			continue
		}
		base := filepath.Join(globalDir, e.Name())
		removeStale(base)
		removeStale(base + ".__target__")
		removeStale(base + ".__script__.py")
	}
}

// removeStale renames path aside before deleting it, so a launcher exe
// currently mapped into a running process can still be unlinked on
// Windows.
func removeStale(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	tmp := path + ".__removing__"
	if err := os.Rename(path, tmp); err != nil {
		slog.Warn("alias cleanup: rename failed, leaving in place", "path", path, "error", err)
		return
	}
	if err := os.Remove(tmp); err != nil {
		slog.Warn("alias cleanup: delete failed after rename", "path", tmp, "error", err)
	}
}
