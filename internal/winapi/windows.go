//go:build windows

package winapi

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const managedMarker = "ManagedByPyManager"

// NewPEP514Writer returns the registry-backed PEP514Writer for the
// pep514 shortcut kind.
func NewPEP514Writer() PEP514Writer { return realPEP514{} }

// NewShortcutWriter returns the .lnk-backed ShortcutWriter for the
// start-menu shortcut kind.
func NewShortcutWriter() ShortcutWriter { return realShortcuts{} }

// NewEnvironment returns the HKCU\Environment-backed Environment.
func NewEnvironment() Environment { return realEnvironment{} }

type realPEP514 struct{}

func (realPEP514) WriteKey(path string, defaultValue string, values []RegistryValue) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("winapi: create key %s: %w", path, err)
	}
	defer k.Close()

	if defaultValue != "" {
		if err := k.SetStringValue("", defaultValue); err != nil {
			return err
		}
	}
	for _, v := range values {
		if err := k.SetStringValue(v.Name, v.Value); err != nil {
			return err
		}
	}
	return k.SetDWordValue(managedMarker, 1)
}

func (realPEP514) KeyExists(path string) (bool, bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return false, false, nil
		}
		return false, false, err
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(managedMarker)
	managed := err == nil && v == 1
	return true, managed, nil
}

func (realPEP514) RemoveManagedKey(path string) error {
	exists, managed, err := realPEP514{}.KeyExists(path)
	if err != nil || !exists {
		return err
	}
	if !managed {
		return nil
	}
	return registry.DeleteKey(registry.CURRENT_USER, path)
}

// realShortcuts shells out to the WScript.Shell COM object via PowerShell,
// since x/sys/windows exposes no IShellLink binding; this mirrors the
// approach most Go CLIs take for .lnk creation absent a dedicated library.
type realShortcuts struct{}

func (realShortcuts) WriteLink(path, target, args, workingDir, description string) error {
	script := fmt.Sprintf(`$s=(New-Object -ComObject WScript.Shell).CreateShortcut(%q); $s.TargetPath=%q; $s.Arguments=%q; $s.WorkingDirectory=%q; $s.Description=%q; $s.Save()`,
		path, target, args, workingDir, description)
	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("winapi: create shortcut %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (realShortcuts) RemoveLink(path string) error {
	return windows.DeleteFile(windows.StringToUTF16Ptr(path))
}

type realEnvironment struct{}

func (realEnvironment) UserPath() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, `Environment`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	v, _, err := k.GetStringValue("Path")
	if err == registry.ErrNotExist {
		return "", nil
	}
	return v, err
}

func (realEnvironment) SetUserPath(value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, `Environment`, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.SetExpandStringValue("Path", value); err != nil {
		return err
	}
	realEnvironment{}.BroadcastSettingChange()
	return nil
}

func (realEnvironment) BroadcastSettingChange() {
	const hwndBroadcast = 0xffff
	const wmSettingChange = 0x001A
	user32 := syscall.NewLazyDLL("user32.dll")
	sendMessageTimeout := user32.NewProc("SendMessageTimeoutW")
	env, _ := syscall.UTF16PtrFromString("Environment")
	var result uintptr
	sendMessageTimeout.Call(
		hwndBroadcast, wmSettingChange, 0,
		uintptr(unsafe.Pointer(env)),
		0x0002, 5000, uintptr(unsafe.Pointer(&result)),
	)
}

func (realEnvironment) LongPathsEnabled() (bool, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Control\FileSystem`, registry.QUERY_VALUE)
	if err != nil {
		return false, err
	}
	defer k.Close()
	v, _, err := k.GetIntegerValue("LongPathsEnabled")
	if err != nil {
		return false, err
	}
	return v == 1, nil
}
