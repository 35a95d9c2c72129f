// Package shortcut implements the four shortcut handlers the install
// engine invokes during registration: pep514, start, uninstall and
// site-dirs. Each handler is idempotent: running create twice
// produces the same filesystem/registry state.
package shortcut

import (
	"fmt"

	"github.com/pymanager/pymanager/internal/installmeta"
)

// Handler registers and tears down one shortcut kind for an install.
type Handler interface {
	Kind() string
	Create(inst *installmeta.Install, descriptor installmeta.Shortcut) error
	// Cleanup removes registrations for installs no longer present, given
	// the full remaining (install, descriptor) set still desired.
	Cleanup(remaining []Pair) error
}

// Pair is one still-desired (install, descriptor) binding, passed to
// Cleanup so a handler can diff against what it currently has registered.
type Pair struct {
	Install    *installmeta.Install
	Descriptor installmeta.Shortcut
}

// Registry dispatches by shortcut kind, invoking the matching Handler, and
// synthesizing a default site-dirs descriptor when an install declares
// none.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a Registry from handlers.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// DefaultSiteDirs is the fallback site-dirs list synthesized when an
// install declares no site-dirs shortcut.
var DefaultSiteDirs = []string{"Lib/site-packages", "Scripts"}

// Register invokes every enabled, non-disabled shortcut handler declared
// on inst, synthesizing a default site-dirs descriptor if none was present.
// Per-kind failures are collected as warnings rather than aborting the
// remaining kinds.
func (r *Registry) Register(inst *installmeta.Install, enabled, disabled map[string]bool) []string {
	var warnings []string

	descriptors := append([]installmeta.Shortcut(nil), inst.Shortcuts...)
	if !hasKind(descriptors, "site-dirs") {
		descriptors = append(descriptors, installmeta.Shortcut{
			Kind:   "site-dirs",
			Fields: map[string]any{"dirs": DefaultSiteDirs},
		})
	}

	for _, d := range descriptors {
		if disabled[d.Kind] || (len(enabled) > 0 && !enabled[d.Kind]) {
			continue
		}
		h, ok := r.handlers[d.Kind]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("shortcut: no handler for kind %q", d.Kind))
			continue
		}
		if err := h.Create(inst, d); err != nil {
			warnings = append(warnings, fmt.Sprintf("shortcut %s: %v", d.Kind, err))
		}
	}
	return warnings
}

// Handlers returns the registered handlers, for callers (uninstall.Engine)
// that need to drive per-kind teardown directly rather than through
// Register/Cleanup.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	return out
}

// Cleanup re-runs every handler's Cleanup against the still-desired
// (install, descriptor) pairs grouped by kind.
func (r *Registry) Cleanup(remaining []Pair) []string {
	byKind := make(map[string][]Pair)
	for _, p := range remaining {
		byKind[p.Descriptor.Kind] = append(byKind[p.Descriptor.Kind], p)
	}
	var warnings []string
	for kind, h := range r.handlers {
		if err := h.Cleanup(byKind[kind]); err != nil {
			warnings = append(warnings, fmt.Sprintf("shortcut cleanup %s: %v", kind, err))
		}
	}
	return warnings
}

func hasKind(descriptors []installmeta.Shortcut, kind string) bool {
	for _, d := range descriptors {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
