// Package verify checks the Sigstore bundle signature carried alongside a
// fetched runtime index: the feed document bytes plus a detached
// "<index-url>.sigstore" bundle fetched alongside it.
package verify

import "context"

// Result is the outcome of checking one index source's signature.
type Result struct {
	Source     string
	Verified   bool
	Skipped    bool
	SkipReason string
}

// Verifier checks a detached Sigstore bundle against the raw bytes of a
// fetched feed document.
type Verifier interface {
	// Verify checks bundleBytes (the JSON contents of "<source>.sigstore")
	// against artifact (the raw feed document bytes fetched from source).
	Verify(ctx context.Context, source string, artifact []byte, bundleBytes []byte) (Result, error)
}
