package uninstall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pymanager/pymanager/internal/alias"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLauncherTemplates(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "venvlauncher.exe"), []byte("launcher"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "venvwlauncher.exe"), []byte("wlauncher"), 0755))
}

func TestRemovePrefixDeletesDirectory(t *testing.T) {
	root := t.TempDir()
	prefix := filepath.Join(root, "PythonCore-3.13")
	require.NoError(t, os.MkdirAll(prefix, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "python.exe"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "README.txt"), []byte("x"), 0644))

	inst := &installmeta.Install{ID: "PythonCore-3.13", Prefix: prefix}
	require.NoError(t, RemovePrefix(inst))

	_, err := os.Stat(prefix)
	assert.True(t, os.IsNotExist(err))
}

func TestAliasesToRemoveMatchesSidecarTarget(t *testing.T) {
	globalDir := t.TempDir()
	prefix := filepath.Join(t.TempDir(), "PythonCore-3.13")
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "python.exe"), []byte("x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "python.exe.__target__"), []byte(filepath.Join(prefix, "python.exe")), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "other.exe"), []byte("x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "other.exe.__target__"), []byte(filepath.Join(t.TempDir(), "python.exe")), 0644))

	names, err := AliasesToRemove(globalDir, prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"python.exe"}, names)
}

func TestPurgePathEntriesRemovesMatchingDir(t *testing.T) {
	sep := string(os.PathListSeparator)
	out := PurgePathEntries(`C:\tools`+sep+`C:\global`+sep+`C:\more`, `C:\global`)
	assert.Equal(t, `C:\tools`+sep+`C:\more`, out)
}

func TestEngineRemoveDeletesPrefixAndResyncsAliases(t *testing.T) {
	installDir := t.TempDir()
	globalDir := t.TempDir()
	templatesDir := t.TempDir()
	writeLauncherTemplates(t, templatesDir)

	prefix := filepath.Join(installDir, "PythonCore-3.13")
	require.NoError(t, os.MkdirAll(prefix, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "python.exe"), []byte("x"), 0755))

	inst := &installmeta.Install{
		ID: "PythonCore-3.13", Company: "PythonCore", Tag: "3.13", SortVersion: "3.13.0",
		Prefix: prefix, Executable: "python.exe", InstallFor: []string{"PythonCore\\3.13"},
		Default: true,
	}

	sync := alias.New(globalDir, alias.Templates{Dir: templatesDir, ExeStem: "venvlauncher", WExeStem: "venvwlauncher"})
	require.Empty(t, sync.Sync([]*installmeta.Install{inst}))
	_, err := os.Stat(filepath.Join(globalDir, "python.exe"))
	require.NoError(t, err)

	var removedKeys int
	e := &Engine{InstallDir: installDir, GlobalDir: globalDir, Sync: sync, KeyRemovers: []KeyRemover{
		func(i *installmeta.Install) error { removedKeys++; return nil },
	}}

	removed, warnings, err := e.Remove("PythonCore-3.13", []*installmeta.Install{inst}, Options{ByID: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, removed, 1)
	assert.Equal(t, 1, removedKeys)

	_, err = os.Stat(prefix)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(globalDir, "python.exe"))
	assert.True(t, os.IsNotExist(err), "stale alias should be swept by the re-synced launcher directory")
}

func TestEnginePurgeRemovesDownloadCacheAndPathEntry(t *testing.T) {
	installDir := t.TempDir()
	cacheDir := filepath.Join(installDir, ".cache")
	require.NoError(t, os.MkdirAll(cacheDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "x.zip"), []byte("x"), 0644))

	prefix := filepath.Join(installDir, "PythonCore-3.13")
	require.NoError(t, os.MkdirAll(prefix, 0755))
	inst := &installmeta.Install{ID: "PythonCore-3.13", Prefix: prefix}

	env := &fakeEnv{userPath: `C:\tools` + string(os.PathListSeparator) + `C:\global`}
	e := &Engine{InstallDir: installDir, GlobalDir: `C:\global`, DownloadCache: cacheDir, Env: env}

	warnings := e.Purge([]*installmeta.Install{inst})
	assert.Empty(t, warnings)

	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(prefix)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, `C:\tools`, env.userPath)
}

type fakeEnv struct {
	userPath string
}

func (f *fakeEnv) UserPath() (string, error)      { return f.userPath, nil }
func (f *fakeEnv) SetUserPath(value string) error { f.userPath = value; return nil }
func (f *fakeEnv) BroadcastSettingChange()         {}
func (f *fakeEnv) LongPathsEnabled() (bool, error) { return true, nil }
