package firstrun

import (
	"os"
	"testing"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnv struct {
	userPath     string
	longPaths    bool
	longPathsErr error
}

func (f *fakeEnv) UserPath() (string, error)       { return f.userPath, nil }
func (f *fakeEnv) SetUserPath(value string) error  { f.userPath = value; return nil }
func (f *fakeEnv) BroadcastSettingChange()          {}
func (f *fakeEnv) LongPathsEnabled() (bool, error)  { return f.longPaths, f.longPathsErr }

func TestCheckLongPathsEnabled(t *testing.T) {
	r := &Runner{Env: &fakeEnv{longPaths: false}}
	res := r.checkLongPathsEnabled()
	assert.Equal(t, Fail, res.Status)

	r.Env = &fakeEnv{longPaths: true}
	res = r.checkLongPathsEnabled()
	assert.Equal(t, Pass, res.Status)
}

func TestCheckGlobalDirOnPathViaUserRegistry(t *testing.T) {
	sep := string(os.PathListSeparator)
	r := &Runner{Env: &fakeEnv{userPath: `C:\tools` + sep + `C:\Users\me\AppData\Local\pymanager\bin`}, GlobalDir: `C:\Users\me\AppData\Local\pymanager\bin`}
	res := r.checkGlobalDirOnPath()
	assert.Equal(t, Pass, res.Status)
}

func TestCheckGlobalDirOnPathMissing(t *testing.T) {
	r := &Runner{Env: &fakeEnv{userPath: `C:\tools`}, GlobalDir: `C:\global`}
	res := r.checkGlobalDirOnPath()
	assert.Equal(t, Fail, res.Status)
}

func TestCheckAnyManagedInstall(t *testing.T) {
	r := &Runner{Installs: func() ([]*installmeta.Install, error) {
		return []*installmeta.Install{{ID: "x", Unmanaged: true}}, nil
	}}
	res := r.checkAnyManagedInstall()
	assert.Equal(t, Fail, res.Status)

	r.Installs = func() ([]*installmeta.Install, error) {
		return []*installmeta.Install{{ID: "x"}}, nil
	}
	res = r.checkAnyManagedInstall()
	assert.Equal(t, Pass, res.Status)
}

func TestWelcomeFiresOnce(t *testing.T) {
	var w Welcome
	count := 0
	for i := 0; i < 3; i++ {
		w.Once(func() { count++ })
	}
	require.Equal(t, 1, count)
	assert.True(t, w.Fired())
}

func TestAddGlobalDirToPathAppendsOnce(t *testing.T) {
	sep := string(os.PathListSeparator)
	env := &fakeEnv{userPath: `C:\tools`}
	require.NoError(t, AddGlobalDirToPath(env, `C:\global`))
	assert.Equal(t, `C:\tools`+sep+`C:\global`, env.userPath)

	require.NoError(t, AddGlobalDirToPath(env, `C:\global`))
	assert.Equal(t, `C:\tools`+sep+`C:\global`, env.userPath)
}
