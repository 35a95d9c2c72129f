package shortcut

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/winapi"
)

// PEP514Handler registers installs under the PEP-514 shell registration
// tree so other launchers can discover them.
type PEP514Handler struct {
	Root   string // e.g. `Software\Python`
	Writer winapi.PEP514Writer
}

func (h *PEP514Handler) Kind() string { return "pep514" }

func (h *PEP514Handler) Create(inst *installmeta.Install, descriptor installmeta.Shortcut) error {
	keyPath := fmt.Sprintf(`%s\%s\%s`, h.Root, inst.Company, inst.Tag)

	exists, managed, err := h.Writer.KeyExists(keyPath)
	if err != nil {
		return err
	}
	if exists && !managed {
		slog.Warn("pep514: pre-existing unmanaged key left alone", "key", keyPath)
		return nil
	}

	values := []winapi.RegistryValue{
		{Name: "DisplayName", Value: inst.DisplayName},
	}
	if url, ok := descriptor.Fields["support-url"].(string); ok {
		values = append(values, winapi.RegistryValue{Name: "SupportUrl", Value: url})
	}
	values = append(values, winapi.RegistryValue{Name: "Version", Value: inst.SortVersion})

	if err := h.Writer.WriteKey(keyPath, inst.Prefix, values); err != nil {
		return err
	}

	installPathKey := keyPath + `\InstallPath`
	installValues := []winapi.RegistryValue{
		{Name: "ExecutablePath", Value: filepath.Join(inst.Prefix, inst.Executable)},
	}
	if inst.ExecutableW != "" {
		installValues = append(installValues, winapi.RegistryValue{Name: "WindowedExecutablePath", Value: filepath.Join(inst.Prefix, inst.ExecutableW)})
	}
	return h.Writer.WriteKey(installPathKey, inst.Prefix, installValues)
}

// Cleanup is a no-op here: the handler only ever creates keys for installs
// still present in the registry set, and removal of a specific install's
// key happens through RemoveKey from the uninstall engine, which knows
// exactly which install is going away.
func (h *PEP514Handler) Cleanup(remaining []Pair) error {
	return nil
}

// RemoveKey deletes inst's PEP-514 key if this handler manages it.
func (h *PEP514Handler) RemoveKey(inst *installmeta.Install) error {
	keyPath := fmt.Sprintf(`%s\%s\%s`, h.Root, inst.Company, inst.Tag)
	return h.Writer.RemoveManagedKey(keyPath)
}
