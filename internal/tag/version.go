// Package tag implements the company/tag identity grammar and version
// algebra used to identify Python runtimes and match them against
// scripts, command-line requests, and feed entries.
package tag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// adornmentKind classifies the suffix attached to a version component.
type adornmentKind int

const (
	adornmentNone adornmentKind = iota
	adornmentPrerelease
	adornmentThreaded
)

// prereleaseLabel identifies which of a/b/rc a prerelease component uses.
type prereleaseLabel int

const (
	prereleaseNone prereleaseLabel = iota
	prereleaseAlpha
	prereleaseBeta
	prereleaseCandidate
)

func (l prereleaseLabel) String() string {
	switch l {
	case prereleaseAlpha:
		return "a"
	case prereleaseBeta:
		return "b"
	case prereleaseCandidate:
		return "rc"
	default:
		return ""
	}
}

// component is one dotted segment of a VERSION string: an integer plus an
// optional adornment.
type component struct {
	value      int
	valid      bool   // false when the raw text could not be parsed as an int
	raw        string // original text, used for lexicographic fallback sort
	kind       adornmentKind
	prerelease prereleaseLabel
	prereleaseN int
}

// Version is a totally ordered value derived from a tag's VERSION portion.
type Version struct {
	raw        string
	components []component
	threaded   bool // trailing "t" threading adornment
}

// ParseVersion parses a VERSION string such as "3.13", "3.13.1", "3.13.0a1",
// "3.13.0rc2", or "3.13t". Components are split on ".". Anything unparseable
// in a component causes that component (and the comparison from that point)
// to sort lexicographically, always after parseable components.
func ParseVersion(raw string) Version {
	raw = strings.TrimSpace(raw)
	v := Version{raw: raw}

	text := raw
	if strings.HasSuffix(text, "t") && !strings.Contains(text, "-") {
		// Trailing "t" attaches to the last component as a threaded adornment.
		v.threaded = true
		text = strings.TrimSuffix(text, "t")
	}

	if text == "" {
		return v
	}

	parts := strings.Split(text, ".")
	v.components = make([]component, 0, len(parts))
	for i, p := range parts {
		c := parseComponent(p)
		if i == len(parts)-1 && v.threaded {
			c.kind = adornmentThreaded
		}
		v.components = append(v.components, c)
	}
	return v
}

// parseComponent parses one dotted segment, splitting off a trailing
// prerelease marker (a<N>, b<N>, rc<N>).
func parseComponent(p string) component {
	for label, prefix := range map[prereleaseLabel]string{
		prereleaseCandidate: "rc",
		prereleaseAlpha:     "a",
		prereleaseBeta:      "b",
	} {
		if idx := strings.Index(p, prefix); idx > 0 {
			head, tail := p[:idx], p[idx+len(prefix):]
			n, err := strconv.Atoi(head)
			if err != nil {
				continue
			}
			tailN := 0
			if tail != "" {
				tn, terr := strconv.Atoi(tail)
				if terr != nil {
					continue
				}
				tailN = tn
			}
			return component{
				value:       n,
				valid:       true,
				raw:         p,
				kind:        adornmentPrerelease,
				prerelease:  label,
				prereleaseN: tailN,
			}
		}
	}

	n, err := strconv.Atoi(p)
	if err != nil {
		return component{raw: p, valid: false}
	}
	return component{value: n, valid: true, raw: p}
}

// String renders the version's canonical normalized form.
func (v Version) String() string {
	if len(v.components) == 0 {
		return v.raw
	}
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		if !c.valid {
			parts[i] = c.raw
			continue
		}
		switch c.kind {
		case adornmentPrerelease:
			parts[i] = fmt.Sprintf("%d%s%d", c.value, c.prerelease, c.prereleaseN)
		default:
			parts[i] = strconv.Itoa(c.value)
		}
	}
	s := strings.Join(parts, ".")
	if v.threaded {
		s += "t"
	}
	return s
}

// Raw returns the original unparsed text.
func (v Version) Raw() string { return v.raw }

// IsThreaded reports whether the version carries the trailing "t" adornment.
func (v Version) IsThreaded() bool { return v.threaded }

// IsPrerelease reports whether any component carries an a/b/rc adornment.
func (v Version) IsPrerelease() bool {
	for _, c := range v.components {
		if c.kind == adornmentPrerelease {
			return true
		}
	}
	return false
}

// ToPythonStyle truncates the version to its first n dotted components,
// returning the "python-style" form.
func (v Version) ToPythonStyle(n int) Version {
	if n >= len(v.components) {
		return v
	}
	out := Version{components: append([]component(nil), v.components[:n]...)}
	out.raw = out.String()
	return out
}

// semverApprox builds a best-effort semver.Version from the leading
// numeric run of components, used only as a cheap pre-comparison substrate:
// the custom prerelease/threaded adornments this VERSION grammar allows
// can't be expressed in plain semver, so this is advisory only — the
// authoritative comparison is Compare below. It reports false when a
// component it scans is unparseable.
func (v Version) semverApprox() (*semver.Version, bool) {
	nums := make([]string, 0, 3)
	for _, c := range v.components {
		if !c.valid {
			return nil, false
		}
		if c.kind == adornmentPrerelease {
			break
		}
		nums = append(nums, strconv.Itoa(c.value))
		if len(nums) == 3 {
			break
		}
	}
	for len(nums) < 3 {
		nums = append(nums, "0")
	}
	sv, err := semver.NewVersion(strings.Join(nums, "."))
	if err != nil {
		return nil, false
	}
	return sv, true
}

// Compare returns -1, 0, or 1 comparing v to other componentwise. Missing
// tail components equal zero; a prerelease adornment sorts less than no
// adornment for the same base version.
func (v Version) Compare(other Version) int {
	// Fast path: if both versions are clean (no prerelease, no unparseable
	// component, no threaded adornment) lean on semver for the numeric part.
	if !v.IsPrerelease() && !other.IsPrerelease() && !v.threaded && !other.threaded {
		if a, ok := v.semverApprox(); ok {
			if b, ok := other.semverApprox(); ok {
				if c := a.Compare(b); c != 0 {
					return c
				}
			}
		}
	}

	n := len(v.components)
	if len(other.components) > n {
		n = len(other.components)
	}
	for i := 0; i < n; i++ {
		a := componentAt(v.components, i)
		b := componentAt(other.components, i)
		if c := compareComponent(a, b); c != 0 {
			return c
		}
	}
	if v.threaded != other.threaded {
		if v.threaded {
			return 1
		}
		return -1
	}
	return 0
}

func componentAt(cs []component, i int) component {
	if i < len(cs) {
		return cs[i]
	}
	return component{value: 0, valid: true}
}

// compareComponent orders two components. Unparseable components sort
// lexicographically and always after parseable ones.
func compareComponent(a, b component) int {
	if a.valid != b.valid {
		if a.valid {
			return -1
		}
		return 1
	}
	if !a.valid {
		return strings.Compare(a.raw, b.raw)
	}
	if a.value != b.value {
		if a.value < b.value {
			return -1
		}
		return 1
	}
	// Same integer value: prerelease adornment sorts before no adornment.
	aRank := adornmentRank(a)
	bRank := adornmentRank(b)
	if aRank != bRank {
		if aRank < bRank {
			return -1
		}
		return 1
	}
	if a.kind == adornmentPrerelease {
		if a.prerelease != b.prerelease {
			if a.prerelease < b.prerelease {
				return -1
			}
			return 1
		}
		if a.prereleaseN != b.prereleaseN {
			if a.prereleaseN < b.prereleaseN {
				return -1
			}
			return 1
		}
	}
	return 0
}

// adornmentRank ranks no-adornment above a prerelease adornment, so that
// 3.13 > 3.13rc1 > 3.13b1 > 3.13a1 for equal integer components.
func adornmentRank(c component) int {
	if c.kind == adornmentPrerelease {
		return 0
	}
	return 1
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other compare equal.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// DescendingVersion is an auxiliary sort key expressing the resolver's
// preferred order, newest-stable-first: final releases sort before
// prereleases of the same version, then older versions follow.
type DescendingVersion struct{ V Version }

// Less implements the stable total order used by standard sorts: a sorts
// before b (i.e. a should appear earlier in a newest-first list) when a is
// newer, or when a and b share the same base version but a is the final
// release and b is the prerelease.
func (a DescendingVersion) Less(b DescendingVersion) bool {
	if a.V.Equal(b.V) {
		return false
	}
	// Same numeric components but differing only in prerelease status:
	// prefer the non-prerelease.
	if stripPrerelease(a.V).Equal(stripPrerelease(b.V)) {
		if a.V.IsPrerelease() != b.V.IsPrerelease() {
			return !a.V.IsPrerelease()
		}
	}
	return b.V.Less(a.V)
}

func stripPrerelease(v Version) Version {
	out := Version{raw: v.raw, threaded: v.threaded}
	for _, c := range v.components {
		cc := c
		if cc.kind == adornmentPrerelease {
			cc.kind = adornmentNone
		}
		out.components = append(out.components, cc)
	}
	return out
}
