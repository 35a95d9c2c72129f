package main

import (
	"testing"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/shebang"
	"github.com/stretchr/testify/assert"
)

func testInstalls() []*installmeta.Install {
	return []*installmeta.Install{
		{
			ID:         "PythonCore-3.13.0-64",
			Company:    "PythonCore",
			SortVersion: "3.13.0",
			Prefix:     `C:\pymanager\pkgs\PythonCore-3.13.0-64`,
			Executable: "python.exe",
			ExecutableW: "pythonw.exe",
			InstallFor: []string{"3.13-64", "3.13"},
			Alias: []installmeta.AliasEntry{
				{Name: "python3.13.exe", Target: "python.exe"},
				{Name: "pythonw3.13.exe", Target: "pythonw.exe", Windowed: true},
			},
		},
	}
}

func TestMatchExecutablePath(t *testing.T) {
	insts := testInstalls()
	d := shebang.Directive{Token: "python", Path: `C:\pymanager\pkgs\PythonCore-3.13.0-64\python.exe`}

	inst, target, ok := matchExecutablePath(insts, d)
	assert.True(t, ok)
	assert.Equal(t, "PythonCore-3.13.0-64", inst.ID)
	assert.Equal(t, "python.exe", target)
}

func TestMatchExecutablePathMiss(t *testing.T) {
	_, _, ok := matchExecutablePath(testInstalls(), shebang.Directive{Path: `C:\other\python.exe`})
	assert.False(t, ok)
}

func TestMatchAliasNameExact(t *testing.T) {
	inst, target, ok := matchAliasName(testInstalls(), shebang.Directive{Token: "python3.13"}, false)
	assert.True(t, ok)
	assert.Equal(t, "python.exe", target)
	assert.Equal(t, "PythonCore-3.13.0-64", inst.ID)
}

func TestMatchAliasNameWindowed(t *testing.T) {
	inst, target, ok := matchAliasName(testInstalls(), shebang.Directive{Token: "pythonw3.13"}, true)
	assert.True(t, ok)
	assert.Equal(t, "pythonw.exe", target)
	assert.Equal(t, "PythonCore-3.13.0-64", inst.ID)
}

func TestMatchAliasNameNoMatch(t *testing.T) {
	_, _, ok := matchAliasName(testInstalls(), shebang.Directive{Token: "ruby"}, false)
	assert.False(t, ok)
}
