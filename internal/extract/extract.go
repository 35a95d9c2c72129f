// Package extract unpacks a downloaded runtime archive into an install
// prefix: the ZIP family, with .nupkg archives treated as a ZIP rooted at
// "tools/", plus .tar.xz/.txz for mirrors that ship sdist-style tarballs.
// Every member is checked against path traversal, with the per-member
// warn-and-continue policy and --repair overwrite semantics a Windows
// runtime installer needs.
package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Result summarizes one extraction pass: members written, and any members
// skipped as path-traversal attempts. Extraction continues for the
// remaining members and a prominent warning is produced for each skip.
type Result struct {
	Written  int
	Skipped  []string
	RootJSON []byte // contents of __install__.json at the archive root, if present
}

// Options controls overwrite behavior.
type Options struct {
	// Repair removes an existing target before writing instead of
	// refusing to overwrite it.
	Repair bool
}

// member is one archive entry, normalized across the ZIP and tar.xz
// readers so the path-traversal and overwrite logic lives in one place.
type member struct {
	name  string
	isDir bool
	mode  os.FileMode
	open  func() (io.ReadCloser, error)
}

// Extract unpacks src into destDir, dispatching on its extension: .zip and
// .nupkg (a ZIP rooted at "tools/") via archive/zip, .tar.xz/.txz via
// ulikunitz/xz plus archive/tar.
func Extract(src string, destDir string, opts Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if ext == ".xz" || strings.HasSuffix(strings.ToLower(src), ".tar.xz") || ext == ".txz" {
		return extractTarXZ(src, destDir, opts)
	}
	return extractZip(src, destDir, opts)
}

func extractZip(src, destDir string, opts Options) (*Result, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("extract: open zip %s: %w", src, err)
	}

	root := ""
	if strings.EqualFold(filepath.Ext(src), ".nupkg") {
		root = "tools/"
	}

	members := make([]member, 0, len(zr.File))
	for _, zf := range zr.File {
		zf := zf
		members = append(members, member{
			name:  zf.Name,
			isDir: zf.FileInfo().IsDir(),
			mode:  zf.Mode(),
			open:  func() (io.ReadCloser, error) { return zf.Open() },
		})
	}
	return extractMembers(members, root, destDir, opts)
}

// extractTarXZ unpacks an xz-compressed tar archive (no "tools/" rooting;
// that convention is .nupkg/NuGet-specific).
func extractTarXZ(src, destDir string, opts Options) (*Result, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("extract: open xz %s: %w", src, err)
	}
	tr := tar.NewReader(xr)

	var members []member
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("extract: read tar %s: %w", src, err)
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}
		name := hdr.Name
		isDir := hdr.Typeflag == tar.TypeDir
		mode := hdr.FileInfo().Mode()
		// The tar reader only decodes the current header's body while
		// its data is still the next thing on the stream, so buffer it
		// now rather than deferring the read to extractMembers.
		var data []byte
		if !isDir {
			data, err = io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("extract: read member %s: %w", name, err)
			}
		}
		members = append(members, member{
			name:  name,
			isDir: isDir,
			mode:  mode,
			open:  func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		})
	}
	return extractMembers(members, "", destDir, opts)
}

func extractMembers(members []member, root, destDir string, opts Options) (*Result, error) {
	res := &Result{}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}

	for _, m := range members {
		name := m.name
		if root != "" {
			if !strings.HasPrefix(name, root) {
				continue
			}
			name = strings.TrimPrefix(name, root)
			if name == "" {
				continue
			}
		}

		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !isInsideDir(destDir, target) {
			res.Skipped = append(res.Skipped, m.name)
			slog.Warn("extract: refusing path-traversal member", "member", m.name)
			continue
		}

		if m.isDir {
			if err := os.MkdirAll(target, 0755); err != nil {
				return res, err
			}
			continue
		}

		if err := extractMember(m, target, opts); err != nil {
			return res, err
		}
		res.Written++

		if name == "__install__.json" {
			if data, err := os.ReadFile(target); err == nil {
				res.RootJSON = data
			}
		}
	}

	return res, nil
}

func extractMember(m member, target string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	if _, err := os.Stat(target); err == nil {
		if !opts.Repair {
			return fmt.Errorf("extract: %s already exists (use --repair to overwrite)", target)
		}
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("extract: remove existing %s: %w", target, err)
		}
	}

	rc, err := m.open()
	if err != nil {
		return fmt.Errorf("extract: open member %s: %w", m.name, err)
	}
	defer rc.Close()

	mode := m.mode
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("extract: create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract: write %s: %w", target, err)
	}
	return nil
}

// isInsideDir reports whether target resolves to a path inside baseDir,
// refusing any member whose relative path escapes via "..".
func isInsideDir(baseDir, target string) bool {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// RemoveExistingMetadata deletes __install__.json from a user-specified
// --target path as the final step of extraction.
func RemoveExistingMetadata(destDir string) error {
	path := filepath.Join(destDir, "__install__.json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
