package extract

import (
	"archive/tar"
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtractWritesMembers(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "py.zip")
	writeZip(t, zipPath, map[string]string{
		"python.exe":          "exe-bytes",
		"Lib/site-packages/x": "pkg",
	})

	dest := filepath.Join(dir, "dest")
	res, err := Extract(zipPath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)

	data, err := os.ReadFile(filepath.Join(dest, "python.exe"))
	require.NoError(t, err)
	assert.Equal(t, "exe-bytes", string(data))
}

func TestExtractNupkgRootsAtTools(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pkg.nupkg")
	writeZip(t, zipPath, map[string]string{
		"tools/python.exe": "exe-bytes",
		"pkg.nuspec":       "metadata",
	})

	dest := filepath.Join(dir, "dest")
	res, err := Extract(zipPath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	_, err = os.Stat(filepath.Join(dest, "python.exe"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "pkg.nuspec"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractRefusesPathTraversalButContinues(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"../escape.txt": "bad",
		"good.txt":      "ok",
	})

	dest := filepath.Join(dir, "dest")
	res, err := Extract(zipPath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.Len(t, res.Skipped, 1)
}

func writeTarXZ(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	xw, err := xz.NewWriter(f)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
}

func TestExtractTarXZWritesMembers(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "py.tar.xz")
	writeTarXZ(t, archivePath, map[string]string{
		"python.exe":          "exe-bytes",
		"Lib/site-packages/x": "pkg",
	})

	dest := filepath.Join(dir, "dest")
	res, err := Extract(archivePath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)

	data, err := os.ReadFile(filepath.Join(dest, "python.exe"))
	require.NoError(t, err)
	assert.Equal(t, "exe-bytes", string(data))
}

func TestExtractRepairOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "py.zip")
	writeZip(t, zipPath, map[string]string{"python.exe": "new"})

	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.MkdirAll(dest, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "python.exe"), []byte("old"), 0644))

	_, err := Extract(zipPath, dest, Options{})
	require.Error(t, err)

	_, err = Extract(zipPath, dest, Options{Repair: true})
	require.NoError(t, err)
	data, _ := os.ReadFile(filepath.Join(dest, "python.exe"))
	assert.Equal(t, "new", string(data))
}
