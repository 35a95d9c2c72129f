//go:build e2e

package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
)

// executor runs the pymanager binary under test against an isolated
// %LocalAppData% tree, so installs, aliases, and config never touch the
// machine actually running the suite.
type executor struct {
	binary       string
	localAppData string
	extraEnv     map[string]string
}

// newExecutor resolves the binary under test from PYMANAGER_E2E_BINARY, or
// PATH; Setup then prepares a fresh isolated %LocalAppData% tree.
func newExecutor() (*executor, error) {
	binary := os.Getenv("PYMANAGER_E2E_BINARY")
	if binary == "" {
		var err error
		binary, err = exec.LookPath("pymanager")
		if err != nil {
			return nil, fmt.Errorf("pymanager binary not found; set PYMANAGER_E2E_BINARY")
		}
	}
	return &executor{binary: binary, extraEnv: map[string]string{}}, nil
}

func (e *executor) Setup() error {
	dir, err := os.MkdirTemp("", "pymanager-e2e-")
	if err != nil {
		return fmt.Errorf("create isolated LocalAppData: %w", err)
	}
	e.localAppData = dir
	return nil
}

func (e *executor) Cleanup() error {
	if e.localAppData == "" {
		return nil
	}
	return os.RemoveAll(e.localAppData)
}

// WriteConfig writes cue, the literal contents of a pymanager.cue document,
// into the isolated tree's config location.
func (e *executor) WriteConfig(cue string) error {
	dir := filepath.Join(e.localAppData, "pymanager")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "pymanager.cue"), []byte(cue), 0644)
}

func (e *executor) Setenv(key, value string) { e.extraEnv[key] = value }

func (e *executor) buildEnv() []string {
	env := append(os.Environ(), "LocalAppData="+e.localAppData)
	for k, v := range e.extraEnv {
		env = append(env, k+"="+v)
	}
	return env
}

// Run invokes the binary with args, returning its combined stdout/stderr
// and exit error (nil on a zero exit code).
func (e *executor) Run(args ...string) (string, error) {
	cmd := exec.Command(e.binary, args...)
	cmd.Env = e.buildEnv()
	out, err := cmd.CombinedOutput()
	fmt.Fprintf(GinkgoWriter, "$ pymanager %v\n%s", args, out)
	if err != nil {
		fmt.Fprintf(GinkgoWriter, "error: %v\n", err)
	}
	return string(out), err
}

// InstallDir is the isolated tree's default pkgs directory.
func (e *executor) InstallDir() string { return filepath.Join(e.localAppData, "pymanager", "pkgs") }

// GlobalDir is the isolated tree's default launcher directory.
func (e *executor) GlobalDir() string { return filepath.Join(e.localAppData, "pymanager", "bin") }
