// Package path resolves the on-disk locations pymanager reads and writes:
// the install directory, the global launcher directory, the download
// cache, and the config file, all rooted under %LocalAppData% by default,
// using a functional-options Paths type so callers can override any one
// root independently.
package path

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/pymanager/pymanager/internal/config"
)

var winEnvRef = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// Default path suffixes, relative to %LocalAppData%.
const (
	defaultInstallSuffix  = `pymanager\pkgs`
	defaultGlobalSuffix   = `pymanager\bin`
	defaultCacheSuffix    = `pymanager\cache`
	defaultConfigFileName = "pymanager.cue"
)

// Paths holds the resolved directories for one invocation.
type Paths struct {
	installDir string
	globalDir  string
	cacheDir   string
	configFile string
}

// Option configures a Paths value.
type Option func(*Paths)

// WithInstallDir overrides the install directory.
func WithInstallDir(dir string) Option { return func(p *Paths) { p.installDir = dir } }

// WithGlobalDir overrides the global launcher directory.
func WithGlobalDir(dir string) Option { return func(p *Paths) { p.globalDir = dir } }

// WithCacheDir overrides the download cache directory.
func WithCacheDir(dir string) Option { return func(p *Paths) { p.cacheDir = dir } }

// New returns Paths defaulting to the %LocalAppData%\pymanager tree,
// falling back to %TEMP% if LocalAppData is unset.
func New(opts ...Option) (*Paths, error) {
	base, err := localAppData()
	if err != nil {
		return nil, err
	}

	p := &Paths{
		installDir: filepath.Join(base, defaultInstallSuffix),
		globalDir:  filepath.Join(base, defaultGlobalSuffix),
		cacheDir:   filepath.Join(base, defaultCacheSuffix),
		configFile: filepath.Join(base, "pymanager", defaultConfigFileName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewFromConfig builds Paths from a loaded Config, expanding any
// environment-variable references each field carries.
func NewFromConfig(cfg *config.Config) (*Paths, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	if cfg.InstallDir != "" {
		dir, err := Expand(cfg.InstallDir)
		if err != nil {
			return nil, err
		}
		p.installDir = dir
	}
	if cfg.GlobalDir != "" {
		dir, err := Expand(cfg.GlobalDir)
		if err != nil {
			return nil, err
		}
		p.globalDir = dir
	}
	if cfg.CacheDir != "" {
		dir, err := Expand(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		p.cacheDir = dir
	}
	return p, nil
}

// InstallDir returns install_dir: the root directory managed installs are
// unpacked into, one subdirectory per install id.
func (p *Paths) InstallDir() string { return p.installDir }

// GlobalDir returns global_dir: the shared launcher directory aliases are
// materialized into.
func (p *Paths) GlobalDir() string { return p.globalDir }

// CacheDir returns the download cache directory.
func (p *Paths) CacheDir() string { return p.cacheDir }

// ConfigFile returns the default config file path.
func (p *Paths) ConfigFile() string { return p.configFile }

// EnsureDir creates dir (and parents) if it doesn't already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Expand resolves %VAR%-style environment references in raw.
func Expand(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	expanded := winEnvRef.ReplaceAllStringFunc(raw, func(tok string) string {
		name := tok[1 : len(tok)-1]
		return os.Getenv(name)
	})
	return filepath.Clean(expanded), nil
}

// localAppData resolves %LocalAppData%, falling back to
// %TEMP%\pymanager-local when the variable is unset (e.g. under a stripped test environment).
func localAppData() (string, error) {
	if v := os.Getenv("LocalAppData"); v != "" {
		return v, nil
	}
	if v := os.Getenv("TEMP"); v != "" {
		return filepath.Join(v, "pymanager-local"), nil
	}
	return "", os.ErrNotExist
}
