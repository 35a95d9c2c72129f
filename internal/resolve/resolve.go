// Package resolve implements the runtime resolver: given a tag, range, or
// script directive, it selects the best-matching installed (or
// installable) runtime.
package resolve

import (
	"sort"
	"strings"

	"github.com/pymanager/pymanager/internal/errs"
	"github.com/pymanager/pymanager/internal/installmeta"
	"github.com/pymanager/pymanager/internal/tag"
)

// Options configures one resolve call.
type Options struct {
	// DefaultTag is substituted when the caller passes the literal
	// "default".
	DefaultTag string

	// DefaultPlatform, if non-empty, is preferred when the request has no
	// explicit platform suffix.
	DefaultPlatform string

	// SingleTag, when true, limits the result to the single top-ranked
	// candidate.
	SingleTag bool
}

// Resolver selects installs matching a tag/range request against a fixed
// installed set.
type Resolver struct {
	Installs []*installmeta.Install
}

// New creates a Resolver over installs.
func New(installs []*installmeta.Install) *Resolver {
	return &Resolver{Installs: installs}
}

// Resolve picks the best-matching installed runtime(s) for rangeText and opts.
func (r *Resolver) Resolve(rangeText string, opts Options) ([]*installmeta.Install, error) {
	if rangeText == "default" {
		if opts.DefaultTag == "" {
			return nil, errs.NewNoInstallFoundError(rangeText)
		}
		rangeText = opts.DefaultTag
	}

	looseCompany := !strings.Contains(rangeText, `\`)
	rng, err := tag.TagOrRange(rangeText)
	if err != nil {
		return nil, errs.NewArgumentError(err.Error(), "expected a tag, range, or comparator, e.g. '3.13' or '>=3.11'")
	}

	requestHasPlatform := tagRequestHasPlatform(rangeText)

	var candidates []*installmeta.Install
	for _, inst := range r.Installs {
		if inst.Unmanaged && inst.ID == "__active-virtual-env" {
			// The active virtualenv is never a resolve candidate.
			continue
		}
		if tag.InstallMatchesAny(inst.Company, inst.InstallFor, rng, looseCompany) {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		return nil, errs.NewNoInstallFoundError(rangeText)
	}

	if requestHasPlatform {
		if exact := findExactTagMatch(candidates, rangeText); exact != nil {
			return []*installmeta.Install{exact}, nil
		}
	}

	ranked := rank(candidates, opts.DefaultPlatform, requestHasPlatform)

	if opts.SingleTag {
		return ranked[:1], nil
	}
	return ranked, nil
}

// ResolveInstall is the single-result convenience wrapper: it always
// returns exactly one top-ranked install.
func (r *Resolver) ResolveInstall(rangeText string, opts Options) (*installmeta.Install, error) {
	opts.SingleTag = true
	results, err := r.Resolve(rangeText, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// GetInstallToRun additionally selects the run-for entry whose windowed
// flag matches windowed; if no windowed variant exists, the non-windowed
// executable is returned unchanged.
func (r *Resolver) GetInstallToRun(rangeText string, windowed bool, opts Options) (*installmeta.Install, string, error) {
	inst, err := r.ResolveInstall(rangeText, opts)
	if err != nil {
		return nil, "", err
	}

	target := inst.Executable
	var fallback string
	for _, rf := range inst.RunFor {
		if rf.Windowed == windowed {
			return inst, rf.Target, nil
		}
		if !rf.Windowed {
			fallback = rf.Target
		}
	}
	if fallback != "" {
		return inst, fallback, nil
	}
	return inst, target, nil
}

func tagRequestHasPlatform(rangeText string) bool {
	// A platform suffix is present when the first disjunction element,
	// stripped of any company scope and comparator, parses to a Tag with
	// an explicit platform.
	first := rangeText
	if idx := strings.Index(first, ","); idx >= 0 {
		first = first[:idx]
	}
	if idx := strings.Index(first, `\`); idx >= 0 {
		first = first[idx+1:]
	}
	for _, cmp := range []string{">=", "<=", ">", "<"} {
		first = strings.TrimPrefix(first, cmp)
	}
	return tag.ParseTag(first).HasPlatform()
}

func findExactTagMatch(candidates []*installmeta.Install, rangeText string) *installmeta.Install {
	want := rangeText
	if idx := strings.Index(want, `\`); idx >= 0 {
		want = want[idx+1:]
	}
	for _, c := range candidates {
		for _, t := range c.InstallFor {
			if strings.EqualFold(t, want) {
				return c
			}
		}
	}
	return nil
}

// rank orders candidates: prefer the configured default platform (when the
// request carried none), prefer non-prerelease over prerelease, then newest
// sort_version > PythonCore company > lexically smaller id.
func rank(candidates []*installmeta.Install, defaultPlatform string, requestHasPlatform bool) []*installmeta.Install {
	out := append([]*installmeta.Install(nil), candidates...)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if !requestHasPlatform && defaultPlatform != "" {
			ap := platformMatches(a, defaultPlatform)
			bp := platformMatches(b, defaultPlatform)
			if ap != bp {
				return ap
			}
		}

		aPre := tag.ParseVersion(a.SortVersion).IsPrerelease()
		bPre := tag.ParseVersion(b.SortVersion).IsPrerelease()
		if aPre != bPre {
			return !aPre
		}

		av := tag.ParseVersion(a.SortVersion)
		bv := tag.ParseVersion(b.SortVersion)
		if !av.Equal(bv) {
			return bv.Less(av)
		}

		aCore := strings.EqualFold(a.Company, tag.PythonCore)
		bCore := strings.EqualFold(b.Company, tag.PythonCore)
		if aCore != bCore {
			return aCore
		}

		return a.ID < b.ID
	})
	return out
}

func platformMatches(inst *installmeta.Install, platform string) bool {
	for _, t := range inst.InstallFor {
		if tag.ParseTag(t).Platform() == platform {
			return true
		}
	}
	return false
}
