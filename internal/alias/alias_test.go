package alias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDesiredSetExplicitAliasRequiresExistingTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "python.exe"), "exe")

	inst := &installmeta.Install{
		ID: "PythonCore-3.13", Prefix: dir,
		Alias: []installmeta.AliasEntry{
			{Name: "python3.13.exe", Target: "python.exe"},
			{Name: "missing.exe", Target: "nope.exe"},
		},
	}
	infos, warnings := DesiredSet(inst, nil, false)
	require.Len(t, infos, 1)
	assert.Equal(t, "python3.13.exe", infos[0].Name)
	assert.Len(t, warnings, 1)
}

func TestDesiredSetDefaultInstallSynthesizesPythonAliases(t *testing.T) {
	dir := t.TempDir()
	inst := &installmeta.Install{
		ID: "PythonCore-3.13", Prefix: dir, Default: true,
		RunFor: []installmeta.RunForEntry{
			{Tag: "3.13", Target: "python.exe"},
			{Tag: "3.13", Target: "pythonw.exe", Windowed: true},
		},
	}
	infos, _ := DesiredSet(inst, nil, false)
	require.Len(t, infos, 2)
	names := map[string]Info{}
	for _, i := range infos {
		names[i.Name] = i
	}
	assert.Equal(t, "python.exe", names["python.exe"].Target)
	assert.False(t, names["python.exe"].Windowed)
	assert.Equal(t, "pythonw.exe", names["pythonw.exe"].Target)
	assert.True(t, names["pythonw.exe"].Windowed)
}

func TestDesiredSetEntryPointsProducesConsoleAndGuiAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Lib", "site-packages", "demo-1.0.dist-info", "entry_points.txt"), `[console_scripts]
demo = demo.cli:main

[gui_scripts]
demo-gui = demo.gui:run

[unrelated_section]
x = y:z
`)
	inst := &installmeta.Install{
		ID: "PythonCore-3.13", Prefix: dir,
		RunFor: []installmeta.RunForEntry{
			{Tag: "3.13", Target: "python.exe"},
			{Tag: "3.13", Target: "pythonw.exe", Windowed: true},
		},
	}
	infos, warnings := DesiredSet(inst, []string{"Lib/site-packages"}, true)
	assert.Empty(t, warnings)
	require.Len(t, infos, 2)
	byName := map[string]Info{}
	for _, i := range infos {
		byName[i.Name] = i
	}
	console := byName["demo.exe"]
	assert.Equal(t, "python.exe", console.Target)
	assert.False(t, console.Windowed)
	assert.Contains(t, console.ScriptCode, "from demo.cli import main")

	gui := byName["demo-gui.exe"]
	assert.Equal(t, "pythonw.exe", gui.Target)
	assert.True(t, gui.Windowed)
}

func TestDesiredSetSkipsNonIdentifierEntryPoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Lib", "site-packages", "demo-1.0.dist-info", "entry_points.txt"), `[console_scripts]
bad = 123bad:main
`)
	inst := &installmeta.Install{ID: "X", Prefix: dir}
	infos, warnings := DesiredSet(inst, []string{"Lib/site-packages"}, true)
	assert.Empty(t, infos)
	require.Len(t, warnings, 1)
}
