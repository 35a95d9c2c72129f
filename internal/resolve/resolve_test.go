package resolve

import (
	"testing"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installs() []*installmeta.Install {
	return []*installmeta.Install{
		{ID: "PythonCore-3.12.5-64", Company: "PythonCore", SortVersion: "3.12.5", InstallFor: []string{"3.12.5-64", "3.12-64", "3.12"}, Executable: "python.exe"},
		{ID: "PythonCore-3.13.0-64", Company: "PythonCore", SortVersion: "3.13.0", InstallFor: []string{"3.13.0-64", "3.13-64", "3.13"}, Executable: "python.exe"},
	}
}

func TestResolveExactTag(t *testing.T) {
	r := New(installs())
	inst, err := r.ResolveInstall("3.13-64", Options{})
	require.NoError(t, err)
	assert.Equal(t, "PythonCore-3.13.0-64", inst.ID)
}

func TestResolvePrefixPrefersNewest(t *testing.T) {
	r := New(installs())
	inst, err := r.ResolveInstall("3", Options{})
	require.NoError(t, err)
	assert.Equal(t, "PythonCore-3.13.0-64", inst.ID)
}

func TestResolveNoMatchReturnsNoInstallFound(t *testing.T) {
	r := New(installs())
	_, err := r.ResolveInstall("3.11", Options{})
	require.Error(t, err)
}

func TestResolvePreferNonPrerelease(t *testing.T) {
	withPre := append(installs(), &installmeta.Install{
		ID: "PythonCore-3.14.0rc1-64", Company: "PythonCore", SortVersion: "3.14.0rc1",
		InstallFor: []string{"3.14.0rc1-64", "3.14-64", "3.14"}, Executable: "python.exe",
	})
	r := New(withPre)
	inst, err := r.ResolveInstall("3", Options{})
	require.NoError(t, err)
	assert.NotEqual(t, "PythonCore-3.14.0rc1-64", inst.ID)
}

func TestGetInstallToRunWindowed(t *testing.T) {
	insts := []*installmeta.Install{{
		ID: "PythonCore-3.13-64", Company: "PythonCore", SortVersion: "3.13.0",
		InstallFor: []string{"3.13-64"}, Executable: "python.exe",
		RunFor: []installmeta.RunForEntry{
			{Tag: "3.13-64", Target: "python.exe"},
			{Tag: "3.13-64", Target: "pythonw.exe", Windowed: true},
		},
	}}
	r := New(insts)
	_, target, err := r.GetInstallToRun("3.13-64", true, Options{})
	require.NoError(t, err)
	assert.Equal(t, "pythonw.exe", target)
}

func TestDefaultLiteralUsesConfiguredDefault(t *testing.T) {
	r := New(installs())
	inst, err := r.ResolveInstall("default", Options{DefaultTag: "3.12-64"})
	require.NoError(t, err)
	assert.Equal(t, "PythonCore-3.12.5-64", inst.ID)
}
