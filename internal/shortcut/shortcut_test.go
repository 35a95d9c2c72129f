package shortcut

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	kind    string
	created []*installmeta.Install
	failOn  string
}

func (f *fakeHandler) Kind() string { return f.kind }
func (f *fakeHandler) Create(inst *installmeta.Install, d installmeta.Shortcut) error {
	if f.failOn == inst.ID {
		return assert.AnError
	}
	f.created = append(f.created, inst)
	return nil
}
func (f *fakeHandler) Cleanup(remaining []Pair) error { return nil }

func TestRegistrySynthesizesDefaultSiteDirs(t *testing.T) {
	site := &fakeHandler{kind: "site-dirs"}
	r := NewRegistry(site)
	inst := &installmeta.Install{ID: "X"}
	warnings := r.Register(inst, nil, nil)
	assert.Empty(t, warnings)
	require.Len(t, site.created, 1)
}

func TestRegistryHonorsEnabledAndDisabled(t *testing.T) {
	pep := &fakeHandler{kind: "pep514"}
	start := &fakeHandler{kind: "start"}
	r := NewRegistry(pep, start)
	inst := &installmeta.Install{
		ID: "X",
		Shortcuts: []installmeta.Shortcut{
			{Kind: "pep514"}, {Kind: "start"},
		},
	}
	warnings := r.Register(inst, map[string]bool{"pep514": true}, nil)
	assert.Empty(t, warnings)
	assert.Len(t, pep.created, 1)
	assert.Empty(t, start.created)
}

func TestRegistryCollectsPerKindFailuresAsWarnings(t *testing.T) {
	pep := &fakeHandler{kind: "pep514", failOn: "X"}
	r := NewRegistry(pep)
	inst := &installmeta.Install{ID: "X", Shortcuts: []installmeta.Shortcut{{Kind: "pep514"}}}
	warnings := r.Register(inst, nil, nil)
	require.Len(t, warnings, 1)
}

func TestDirsFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultSiteDirs, Dirs(installmeta.Shortcut{}))
	assert.Equal(t, []string{"a", "b"}, Dirs(installmeta.Shortcut{Fields: map[string]any{"dirs": []string{"a", "b"}}}))
}

func TestEstimateSizeSumsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("12345"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), []byte("12"), 0644))
	assert.EqualValues(t, 7, estimateSize(dir))
}
