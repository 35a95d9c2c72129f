package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pymanager/pymanager/internal/errs"
)

// Prepare wipes dest ahead of extraction when not in --repair mode,
// removing .exe/.dll/.json files first to minimize in-use conflicts.
// In-use files bubble up as errs.FilesInUseError.
func Prepare(dest string, repair bool) error {
	if repair {
		return nil
	}
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return nil
	}

	var inUse []string
	_ = filepath.WalkDir(dest, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".exe" || ext == ".dll" || ext == ".json" {
			if rmErr := os.Remove(path); rmErr != nil {
				inUse = append(inUse, path)
			}
		}
		return nil
	})
	if len(inUse) > 0 {
		return errs.NewFilesInUseError(inUse, fmt.Errorf("%d file(s) could not be removed", len(inUse)))
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("install: wipe %s: %w", dest, err)
	}
	return nil
}

// PreserveSite moves the configured site directories out of dest into a
// sibling staging area ahead of the wipe, returning the staging dir so
// RestoreSite can put them back after extraction.
func PreserveSite(dest string, siteDirs []string) (stagingDir string, moved []string, err error) {
	if _, statErr := os.Stat(dest); os.IsNotExist(statErr) {
		return "", nil, nil
	}

	base := filepath.Dir(dest)
	name := filepath.Base(dest)
	staging := filepath.Join(base, "_"+name)
	n := 0
	for {
		candidate := filepath.Join(staging, fmt.Sprint(n))
		if _, statErr := os.Stat(candidate); os.IsNotExist(statErr) {
			staging = candidate
			break
		}
		n++
	}

	for _, rel := range siteDirs {
		src := filepath.Join(dest, rel)
		if _, statErr := os.Stat(src); statErr != nil {
			continue
		}
		dstPath := filepath.Join(staging, rel)
		if mkErr := os.MkdirAll(filepath.Dir(dstPath), 0755); mkErr != nil {
			return staging, moved, mkErr
		}
		if renErr := os.Rename(src, dstPath); renErr != nil {
			return staging, moved, fmt.Errorf("install: preserve %s: %w", rel, renErr)
		}
		moved = append(moved, rel)
	}
	return staging, moved, nil
}

// RestoreSite moves preserved site directories back over the freshly
// extracted tree, skipping any path the new install already created.
func RestoreSite(dest, stagingDir string, moved []string) error {
	if stagingDir == "" {
		return nil
	}
	for _, rel := range moved {
		src := filepath.Join(stagingDir, rel)
		dstPath := filepath.Join(dest, rel)
		if _, statErr := os.Stat(dstPath); statErr == nil {
			continue
		}
		if mkErr := os.MkdirAll(filepath.Dir(dstPath), 0755); mkErr != nil {
			return mkErr
		}
		if renErr := os.Rename(src, dstPath); renErr != nil {
			return fmt.Errorf("install: restore %s: %w", rel, renErr)
		}
	}
	_ = os.RemoveAll(stagingDir)
	return nil
}
