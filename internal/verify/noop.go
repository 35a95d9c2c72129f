package verify

import "context"

// noopVerifier is a Verifier that skips all verification.
// It is the feed Store's default verifier; bootstrap replaces it with a
// Sigstore verifier only when require-signed-index is set.
type noopVerifier struct {
	reason string
}

// NewNoopVerifier creates a Verifier that skips all verification with the given reason.
func NewNoopVerifier(reason string) Verifier {
	return &noopVerifier{reason: reason}
}

// Verify returns a skipped Result unconditionally.
func (v *noopVerifier) Verify(_ context.Context, source string, _ []byte, _ []byte) (Result, error) {
	return Result{
		Source:     source,
		Skipped:    true,
		SkipReason: v.reason,
	}, nil
}
