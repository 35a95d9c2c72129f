package shortcut

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/winapi"
)

// UninstallHandler writes the Add/Remove Programs entry for an install.
type UninstallHandler struct {
	Root   string // e.g. `Software\Microsoft\Windows\CurrentVersion\Uninstall`
	Writer winapi.PEP514Writer
}

func (h *UninstallHandler) Kind() string { return "uninstall" }

func (h *UninstallHandler) Create(inst *installmeta.Install, descriptor installmeta.Shortcut) error {
	size := estimateSize(inst.Prefix)
	keyPath := h.Root + `\` + inst.ID
	values := []winapi.RegistryValue{
		{Name: "DisplayName", Value: inst.DisplayName},
		{Name: "DisplayVersion", Value: inst.SortVersion},
		{Name: "InstallLocation", Value: inst.Prefix},
		{Name: "Publisher", Value: inst.Company},
		{Name: "EstimatedSize", Value: strconv.FormatInt(size/1024, 10)},
	}
	return h.Writer.WriteKey(keyPath, "", values)
}

func (h *UninstallHandler) Cleanup(remaining []Pair) error {
	return nil
}

// RemoveEntry deletes inst's Add/Remove Programs entry.
func (h *UninstallHandler) RemoveEntry(inst *installmeta.Install) error {
	return h.Writer.RemoveManagedKey(h.Root + `\` + inst.ID)
}

// estimateSize sums the byte size of every regular file under root,
// tolerating per-file stat errors.
func estimateSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
