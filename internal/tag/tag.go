package tag

import "strings"

// platformSuffixes lists the recognized PLATFORM suffixes on a tag (spec
// §3.1). "-64" is not a suffix of "-arm64", so at most one entry matches
// a tag and the order of this list does not affect the result.
var platformSuffixes = []string{"-arm64", "-32", "-64"}

// Tag is a parsed `VERSION[-PLATFORM]` identity string, e.g. "3.13-64".
type Tag struct {
	raw      string
	version  Version
	platform string // "", "32", "64", "arm64"
}

// ParseTag splits raw on a recognized trailing platform suffix and parses
// the remainder as a Version.
func ParseTag(raw string) Tag {
	t := Tag{raw: raw}
	body := raw
	for _, suf := range platformSuffixes {
		if strings.HasSuffix(raw, suf) {
			body = strings.TrimSuffix(raw, suf)
			t.platform = strings.TrimPrefix(suf, "-")
			break
		}
	}
	t.version = ParseVersion(body)
	return t
}

// Version returns the tag's parsed VERSION portion.
func (t Tag) Version() Version { return t.version }

// Platform returns the tag's PLATFORM suffix without the leading "-", or ""
// if the tag carries none.
func (t Tag) Platform() string { return t.platform }

// HasPlatform reports whether the tag carries an explicit platform suffix.
func (t Tag) HasPlatform() bool { return t.platform != "" }

// String returns the original tag text.
func (t Tag) String() string { return t.raw }

// Identity is a (company, tag) pair identifying a runtime.
type Identity struct {
	Company string
	Tag     string
}

// String renders the identity, eliding the company when it is PythonCore.
func (id Identity) String() string {
	if IsDefaultCompany(id.Company) {
		return id.Tag
	}
	return id.Company + "\\" + id.Tag
}
