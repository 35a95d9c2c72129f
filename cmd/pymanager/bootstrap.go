package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pymanager/pymanager/internal/alias"
	"github.com/pymanager/pymanager/internal/config"
	"github.com/pymanager/pymanager/internal/download"
	"github.com/pymanager/pymanager/internal/feed"
	"github.com/pymanager/pymanager/internal/firstrun"
	pmpath "github.com/pymanager/pymanager/internal/path"
	"github.com/pymanager/pymanager/internal/registry"
	"github.com/pymanager/pymanager/internal/session"
	"github.com/pymanager/pymanager/internal/shortcut"
	"github.com/pymanager/pymanager/internal/verify"
	"github.com/pymanager/pymanager/internal/winapi"
)

// app collects the pieces every subcommand wires together once per
// invocation: resolved paths, loaded config, the process-lifetime
// Session, and the full component graph (feed store, registry,
// downloader, alias synchronizer, shortcut registry, first-run runner).
type app struct {
	cfg     *config.Config
	paths   *pmpath.Paths
	session *session.Session

	feedStore *feed.Store
	registry  *registry.Registry
	shortcuts *shortcut.Registry
	sync      *alias.Synchronizer
	env       winapi.Environment
}

// newApp resolves configuration and paths, creates the session, and builds
// the full component graph, with all mutable process-lifetime state
// threaded through one Session. It does not take the session's advisory
// lock; commands that mutate state call session.Lock themselves.
func newApp() (*app, error) {
	defaultPaths, err := pmpath.New()
	if err != nil {
		return nil, fmt.Errorf("pymanager: resolve default paths: %w", err)
	}

	cfg, err := config.LoadConfig(filepath.Dir(defaultPaths.ConfigFile()))
	if err != nil {
		return nil, fmt.Errorf("pymanager: load config: %w", err)
	}

	paths, err := pmpath.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("pymanager: resolve paths: %w", err)
	}
	if err := pmpath.EnsureDir(paths.InstallDir()); err != nil {
		return nil, err
	}
	if err := pmpath.EnsureDir(paths.GlobalDir()); err != nil {
		return nil, err
	}
	if err := pmpath.EnsureDir(paths.CacheDir()); err != nil {
		return nil, err
	}

	sess := session.New(paths.InstallDir())

	store := feed.NewStore(http.DefaultClient)
	if cfg.RequireSignedIndex {
		v, verr := verify.NewSigstoreVerifier("")
		if verr != nil {
			return nil, fmt.Errorf("pymanager: build index verifier: %w", verr)
		}
		store.Verifier = v
	}
	store.RequireSigned = cfg.RequireSignedIndex

	env := winapi.NewEnvironment()

	reg := registry.New(paths.InstallDir())
	reg.VirtualEnv = activeVirtualEnv

	enabledTemplates := alias.Templates{
		Dir:             filepath.Join(filepath.Dir(mustExecutable()), "launchers"),
		ExeStem:         "venvlauncher",
		WExeStem:        "venvwlauncher",
		DefaultPlatform: cfg.DefaultPlatform,
	}
	sync := alias.New(paths.GlobalDir(), enabledTemplates)

	shortcuts := shortcut.NewRegistry(
		&shortcut.PEP514Handler{Root: `Software\Python`, Writer: winapi.NewPEP514Writer()},
		&shortcut.StartHandler{ProgramsDir: os.Getenv("AppData"), StartFolder: "Python", Writer: winapi.NewShortcutWriter()},
		&shortcut.UninstallHandler{Root: `Software\Microsoft\Windows\CurrentVersion\Uninstall`, Writer: winapi.NewPEP514Writer()},
		shortcut.SiteDirsHandler{},
	)

	return &app{
		cfg:       cfg,
		paths:     paths,
		session:   sess,
		feedStore: store,
		registry:  reg,
		shortcuts: shortcuts,
		sync:      sync,
		env:       env,
	}, nil
}

// downloader builds a Downloader honoring configured/environment
// credentials.
func (a *app) downloader() *download.Downloader {
	creds := config.DetectCredentials()
	d := download.New(http.DefaultClient)
	d.BundledDir = filepath.Join(a.paths.CacheDir(), "bundled")
	if creds.HasCredentials() {
		d.EnvUsername = creds.Username
		d.EnvPassword = creds.Password
	}
	return d
}

// firstrunRunner builds the Runner RunAll() drives under the Welcome latch.
func (a *app) firstrunRunner() *firstrun.Runner {
	return &firstrun.Runner{
		Env:       a.env,
		GlobalDir: a.paths.GlobalDir(),
		Installs:  a.registry.Scan,
	}
}

// welcome prints the first-run banner and check results at most once per
// process, honoring the Session's latch.
func (a *app) welcome() {
	a.session.Welcome.Once(func() {
		results := a.firstrunRunner().RunAll()
		for _, r := range results {
			if r.Status == firstrun.Fail {
				fmt.Fprintf(os.Stderr, "pymanager: %s: %s\n", r.Name, r.Detail)
			}
		}
	})
}

// activeVirtualEnv resolves VIRTUAL_ENV for registry.Registry.VirtualEnv.
func activeVirtualEnv() (string, bool) {
	v := os.Getenv("VIRTUAL_ENV")
	return v, v != ""
}

func mustExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return exe
}

// indexSources returns the configured feed sources, falling back to the
// default config's single source.
func (a *app) indexSources() []string {
	if len(a.cfg.IndexSources) > 0 {
		return a.cfg.IndexSources
	}
	return config.DefaultConfig().IndexSources
}

// fetchFeed fetches the deduplicated entry set from the first configured
// index source, falling back to the second source if the first fails;
// sources after the second are not consulted. The result is cached in the
// session under the first source.
func (a *app) fetchFeed(ctx *cliContext) ([]feed.Entry, error) {
	sources := a.indexSources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("pymanager: no index-sources configured")
	}

	normalized := make([]string, len(sources))
	for i, s := range sources {
		n, err := feed.NormalizeSource(s)
		if err != nil {
			return nil, err
		}
		normalized[i] = n
	}

	if cached, ok := a.session.CachedFeed(normalized[0]); ok {
		return cached.Versions, nil
	}

	var entries []feed.Entry
	var err error
	if len(normalized) == 1 {
		entries, err = a.feedStore.FetchAll(ctx.ctx, normalized[0])
	} else {
		entries, err = a.feedStore.FetchWithFallback(ctx.ctx, normalized[0], normalized[1])
	}
	if err != nil {
		return nil, err
	}
	a.session.CacheFeed(normalized[0], &feed.Document{Versions: entries})
	return entries, nil
}
