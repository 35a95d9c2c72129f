// Package installmeta defines the persisted Install entity — one Python
// runtime's metadata, written to install_dir/<id>/__install__.json — and
// the shapes it shares with a feed entry.
package installmeta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pymanager/pymanager/internal/checksum"
)

// RunForEntry describes which in-prefix executable services a tag, with an
// optional windowed variant.
type RunForEntry struct {
	Tag      string `json:"tag"`
	Target   string `json:"target"`
	Windowed bool   `json:"windowed,omitempty"`
}

// AliasEntry is a launcher name exposed in the global launcher directory,
// bound to an in-prefix relative target.
type AliasEntry struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Windowed bool   `json:"windowed,omitempty"`
}

// Shortcut is a kind-tagged registration descriptor. Kind-specific fields
// live in Fields, since the kind set is open and each handler owns its own
// schema.
type Shortcut struct {
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"-"`
}

// MarshalJSON flattens Fields alongside Kind.
func (s Shortcut) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": s.Kind}
	for k, v := range s.Fields {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits kind out of the generic field bag.
func (s *Shortcut) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	kind, _ := m["kind"].(string)
	delete(m, "kind")
	s.Kind = kind
	s.Fields = m
	return nil
}

// Install is the persisted metadata for one installed runtime.
type Install struct {
	ID            string        `json:"id"`
	Company       string        `json:"company"`
	Tag           string        `json:"tag"`
	SortVersion   string        `json:"sort-version"`
	DisplayName   string        `json:"display-name,omitempty"`
	Prefix        string        `json:"prefix"`
	Executable    string        `json:"executable"`
	ExecutableW   string        `json:"executablew,omitempty"`
	InstallFor    []string      `json:"install-for"`
	RunFor        []RunForEntry `json:"run-for,omitempty"`
	Alias         []AliasEntry  `json:"alias,omitempty"`
	Shortcuts     []Shortcut    `json:"shortcuts,omitempty"`
	URL           string        `json:"url,omitempty"`
	Source        string        `json:"source,omitempty"`
	Default       bool          `json:"default,omitempty"`
	Unmanaged     bool          `json:"unmanaged,omitempty"`
	OriginalShortcuts []Shortcut `json:"__original-shortcuts,omitempty"`

	// Unknown carries any wire keys this schema doesn't model, preserved
	// verbatim on persist.
	Unknown map[string]json.RawMessage `json:"-"`
}

// installAlias is the struct shape used for JSON round-tripping; it exists
// so MarshalJSON/UnmarshalJSON can merge Unknown without infinite recursion.
type installAlias Install

// MarshalJSON emits the known fields plus any preserved unknown keys.
func (i Install) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(installAlias(i))
	if err != nil {
		return nil, err
	}
	if len(i.Unknown) == 0 {
		return known, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(known, &m); err != nil {
		return nil, err
	}
	for k, v := range i.Unknown {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON parses known fields and stashes everything else in Unknown.
func (i *Install) UnmarshalJSON(data []byte) error {
	var a installAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Install(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range knownInstallKeys {
		delete(raw, known)
	}
	if len(raw) > 0 {
		i.Unknown = raw
	}
	return nil
}

var knownInstallKeys = []string{
	"id", "company", "tag", "sort-version", "display-name", "prefix",
	"executable", "executablew", "install-for", "run-for", "alias",
	"shortcuts", "url", "source", "default", "unmanaged", "__original-shortcuts",
}

// Load reads and parses install_dir/<id>/__install__.json, tolerating a
// leading UTF-8 BOM.
func Load(path string) (*Install, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var inst Install
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("installmeta: parse %s: %w", path, err)
	}
	return &inst, nil
}

// Save writes inst to path as indented JSON.
func Save(path string, inst *Install) error {
	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// HashMap is checksum.Map, the type of a feed-style {algo: hex} map.
type HashMap = checksum.Map
