// Package feed loads and validates the JSON index documents that list
// installable runtimes, following pagination and caching pages in memory
// per source URL.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/pymanager/pymanager/internal/installmeta"
)

// Entry mirrors Install but carries hash instead of prefix/source.
type Entry struct {
	Schema      int                      `json:"schema,omitempty"`
	ID          string                   `json:"id"`
	Company     string                   `json:"company"`
	Tag         string                   `json:"tag"`
	SortVersion string                   `json:"sort-version"`
	DisplayName string                   `json:"display-name,omitempty"`
	InstallFor  []string                 `json:"install-for"`
	RunFor      []installmeta.RunForEntry `json:"run-for,omitempty"`
	Alias       []installmeta.AliasEntry  `json:"alias,omitempty"`
	URL         string                   `json:"url"`
	Hash        map[string]string        `json:"hash,omitempty"`
	Shortcuts   []installmeta.Shortcut   `json:"shortcuts,omitempty"`
	Executable  string                   `json:"executable,omitempty"`
	ExecutableW string                   `json:"executablew,omitempty"`

	Unknown map[string]json.RawMessage `json:"-"`
}

type entryAlias Entry

func (e *Entry) UnmarshalJSON(data []byte) error {
	var a entryAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Entry(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownEntryKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Unknown = raw
	}
	return nil
}

var knownEntryKeys = []string{
	"schema", "id", "company", "tag", "sort-version", "display-name",
	"install-for", "run-for", "alias", "url", "hash", "shortcuts",
	"executable", "executablew",
}

// Validate checks the fields a feed entry must carry: id, company, tag,
// sort-version, install-for, url.
func (e Entry) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("feed: entry missing id")
	case e.Company == "":
		return fmt.Errorf("feed: entry %s missing company", e.ID)
	case e.Tag == "":
		return fmt.Errorf("feed: entry %s missing tag", e.ID)
	case e.SortVersion == "":
		return fmt.Errorf("feed: entry %s missing sort-version", e.ID)
	case len(e.InstallFor) == 0:
		return fmt.Errorf("feed: entry %s missing install-for", e.ID)
	case e.URL == "":
		return fmt.Errorf("feed: entry %s missing url", e.ID)
	}
	return nil
}

// ToInstall builds the Install that would be persisted for this entry under
// prefix, merging in any unknown wire keys.
func (e Entry) ToInstall(prefix, source string) *installmeta.Install {
	return &installmeta.Install{
		ID:          e.ID,
		Company:     e.Company,
		Tag:         e.Tag,
		SortVersion: e.SortVersion,
		DisplayName: e.DisplayName,
		Prefix:      prefix,
		Executable:  e.Executable,
		ExecutableW: e.ExecutableW,
		InstallFor:  e.InstallFor,
		RunFor:      e.RunFor,
		Alias:       e.Alias,
		Shortcuts:   e.Shortcuts,
		URL:         e.URL,
		Source:      source,
		Unknown:     e.Unknown,
	}
}

// Document is one fetched feed page.
type Document struct {
	Versions []Entry `json:"versions"`
	Next     string  `json:"next,omitempty"`
}

// Parse unmarshals and structurally validates raw feed bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("feed: malformed JSON: %w", err)
	}
	if doc.Versions == nil {
		return nil, fmt.Errorf("feed: missing required \"versions\" array")
	}
	for i, e := range doc.Versions {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("feed: versions[%d]: %w", i, err)
		}
	}
	return &doc, nil
}

// Dedupe removes entries sharing (id, sort-version), keeping the first
// occurrence across paginated hops.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := e.ID + "\x00" + e.SortVersion
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
