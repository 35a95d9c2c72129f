package tag

import (
	"fmt"
	"strings"
)

// comparatorKind is the inequality operator on a comparator clause.
type comparatorKind int

const (
	comparatorNone comparatorKind = iota
	comparatorGE
	comparatorGT
	comparatorLE
	comparatorLT
)

// clauseKind distinguishes the three range-grammar shapes: exact tag,
// prefix match, or comparator.
type clauseKind int

const (
	clauseExact clauseKind = iota
	clausePrefix
	clauseComparator
)

// clause is a single (non-disjunctive) element of a TagRange.
type clause struct {
	kind       clauseKind
	company    string // "" means unscoped: loose company matching applies
	hasCompany bool
	tag        Tag
	cmp        comparatorKind
}

// TagRange is a filter over (company, tag) identities, built from a
// comma-separated disjunction of exact tags, prefix matches, company-scoped
// forms, and version comparators.
type TagRange struct {
	raw     string
	clauses []clause
}

// TagOrRange parses a textual range spec, e.g. "3.13-64", "Company\3",
// ">=3.11", or "3.11,3.12,>=3.13t".
func TagOrRange(text string) (TagRange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TagRange{}, fmt.Errorf("tag: empty range spec")
	}
	r := TagRange{raw: text}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseClause(part)
		if err != nil {
			return TagRange{}, err
		}
		r.clauses = append(r.clauses, c)
	}
	if len(r.clauses) == 0 {
		return TagRange{}, fmt.Errorf("tag: no clauses in range spec %q", text)
	}
	return r, nil
}

func parseClause(part string) (clause, error) {
	c := clause{}

	if idx := strings.Index(part, "\\"); idx >= 0 {
		c.company = part[:idx]
		c.hasCompany = true
		part = part[idx+1:]
	}

	for _, op := range []struct {
		prefix string
		kind   comparatorKind
	}{
		{">=", comparatorGE},
		{"<=", comparatorLE},
		{">", comparatorGT},
		{"<", comparatorLT},
	} {
		if strings.HasPrefix(part, op.prefix) {
			c.kind = clauseComparator
			c.cmp = op.kind
			c.tag = ParseTag(strings.TrimPrefix(part, op.prefix))
			return c, nil
		}
	}

	t := ParseTag(part)
	c.tag = t
	if t.HasPlatform() {
		c.kind = clauseExact
	} else {
		c.kind = clausePrefix
	}
	return c, nil
}

// String returns the original spec text.
func (r TagRange) String() string { return r.raw }

// SatisfiedBy reports whether (company, tagText) satisfies any clause of r.
func (r TagRange) SatisfiedBy(company, tagText string) bool {
	candidate := ParseTag(tagText)
	for _, c := range r.clauses {
		if clauseMatches(c, company, candidate) {
			return true
		}
	}
	return false
}

func clauseMatches(c clause, company string, candidate Tag) bool {
	if c.hasCompany && !strings.EqualFold(c.company, company) {
		return false
	}

	switch c.kind {
	case clauseExact:
		return candidate.Platform() == c.tag.Platform() && candidate.version.Equal(c.tag.version)

	case clausePrefix:
		return hasVersionPrefix(candidate.version, c.tag.version)

	case clauseComparator:
		if c.tag.HasPlatform() && candidate.Platform() != c.tag.Platform() {
			return false
		}
		cmp := candidate.version.Compare(c.tag.version)
		switch c.cmp {
		case comparatorGE:
			return cmp >= 0
		case comparatorGT:
			return cmp > 0
		case comparatorLE:
			return cmp <= 0
		case comparatorLT:
			return cmp < 0
		}
	}
	return false
}

// hasVersionPrefix reports whether v's leading components equal prefix's
// components exactly (a "3.13" prefix range matches "3.13", "3.13.1",
// "3.13.0rc1", any platform).
func hasVersionPrefix(v, prefix Version) bool {
	if len(prefix.components) > len(v.components) {
		return false
	}
	for i, pc := range prefix.components {
		vc := v.components[i]
		if compareComponent(pc, vc) != 0 {
			return false
		}
	}
	return true
}

// InstallMatchesAny reports whether any of install's install-for tags
// satisfies any range in ranges. When looseCompany is true, company
// mismatches on company-scoped clauses are ignored.
func InstallMatchesAny(company string, installFor []string, ranges TagRange, looseCompany bool) bool {
	for _, tagText := range installFor {
		candidate := ParseTag(tagText)
		for _, c := range ranges.clauses {
			cc := c
			if looseCompany {
				cc.hasCompany = false
			}
			if clauseMatches(cc, company, candidate) {
				return true
			}
		}
	}
	return false
}
