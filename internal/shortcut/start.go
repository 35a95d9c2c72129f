package shortcut

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/winapi"
)

// StartHandler creates Start Menu .lnk entries.
type StartHandler struct {
	ProgramsDir string // %Programs%
	StartFolder string // e.g. "Python"
	Writer      winapi.ShortcutWriter
}

func (h *StartHandler) Kind() string { return "start" }

func (h *StartHandler) Create(inst *installmeta.Install, descriptor installmeta.Shortcut) error {
	name, _ := descriptor.Fields["name"].(string)
	if name == "" {
		name = inst.DisplayName
	}
	target := filepath.Join(inst.Prefix, inst.Executable)

	dir := filepath.Join(h.ProgramsDir, h.StartFolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	linkPath := filepath.Join(dir, name+".lnk")
	return h.Writer.WriteLink(linkPath, target, "", inst.Prefix, inst.DisplayName)
}

func (h *StartHandler) Cleanup(remaining []Pair) error {
	keep := make(map[string]bool, len(remaining))
	for _, p := range remaining {
		name, _ := p.Descriptor.Fields["name"].(string)
		if name == "" {
			name = p.Install.DisplayName
		}
		keep[name+".lnk"] = true
	}

	dir := filepath.Join(h.ProgramsDir, h.StartFolder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || keep[e.Name()] {
			continue
		}
		if err := h.Writer.RemoveLink(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("start: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
