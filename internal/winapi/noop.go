//go:build !windows

package winapi

import "fmt"

// NewPEP514Writer returns a stand-in PEP514Writer on non-Windows platforms,
// used so the shortcut package and its tests build everywhere; on Windows
// this resolves to the real registry-backed implementation in windows.go.
func NewPEP514Writer() PEP514Writer { return noopPEP514{} }

// NewShortcutWriter returns a stand-in ShortcutWriter on non-Windows
// platforms.
func NewShortcutWriter() ShortcutWriter { return noopShortcuts{} }

// NewEnvironment returns a stand-in Environment on non-Windows platforms.
func NewEnvironment() Environment { return noopEnvironment{} }

type noopPEP514 struct{}

func (noopPEP514) WriteKey(path string, defaultValue string, values []RegistryValue) error {
	return nil
}
func (noopPEP514) KeyExists(path string) (bool, bool, error)  { return false, false, nil }
func (noopPEP514) RemoveManagedKey(path string) error         { return nil }

type noopShortcuts struct{}

func (noopShortcuts) WriteLink(path, target, args, workingDir, description string) error { return nil }
func (noopShortcuts) RemoveLink(path string) error                                       { return nil }

type noopEnvironment struct{}

func (noopEnvironment) UserPath() (string, error)      { return "", nil }
func (noopEnvironment) SetUserPath(value string) error { return nil }
func (noopEnvironment) BroadcastSettingChange()        {}
func (noopEnvironment) LongPathsEnabled() (bool, error) { return false, fmt.Errorf("winapi: unsupported on this platform") }
