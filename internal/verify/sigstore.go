package verify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	protobundle "github.com/sigstore/protobuf-specs/gen/pb-go/bundle/v1"
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/tuf"
	sgverify "github.com/sigstore/sigstore-go/pkg/verify"
	"google.golang.org/protobuf/encoding/protojson"
)

// defaultOIDCIssuer is the OIDC issuer used for keyless GitHub Actions
// signing.
const defaultOIDCIssuer = "https://token.actions.githubusercontent.com"

var _ Verifier = (*SigstoreIndexVerifier)(nil)

// SigstoreIndexVerifier verifies a detached Sigstore bundle over the raw
// bytes of a fetched feed document using keyless Fulcio+Rekor verification
// against a plain HTTPS artifact (no registry round-trip, no manifest
// digest indirection — the artifact bytes are hashed directly).
type SigstoreIndexVerifier struct {
	// publisherSAN matches the expected SAN (repository workflow identity)
	// of the certificate that signed the index, e.g.
	// `^https://github\.com/pythonmanager/pymanager-index/`.
	publisherSAN string

	trustedRootOnce sync.Once
	trustedRoot     *root.LiveTrustedRoot
	trustedRootErr  error
}

// NewSigstoreVerifier creates a SigstoreIndexVerifier that accepts
// signatures from any workflow identity matching publisherSAN. An empty
// publisherSAN matches any identity (useful for test fixtures; production
// configuration should always set one).
func NewSigstoreVerifier(publisherSAN string) (*SigstoreIndexVerifier, error) {
	if publisherSAN == "" {
		publisherSAN = ".*"
	}
	if _, err := regexp.Compile(publisherSAN); err != nil {
		return nil, fmt.Errorf("verify: invalid publisher identity pattern %q: %w", publisherSAN, err)
	}
	return &SigstoreIndexVerifier{publisherSAN: publisherSAN}, nil
}

// Verify checks bundleBytes against artifact. Unlike cosign-on-OCI, there is
// no registry fetch step: the artifact and its detached bundle both arrive
// from the same HTTPS round-trip the feed store already performed.
//
// A missing or unparseable bundle degrades to a skipped result (warn,
// don't hard fail) unless the caller's config sets require_signed_index,
// which the caller enforces on the Result.
func (v *SigstoreIndexVerifier) Verify(_ context.Context, source string, artifact []byte, bundleBytes []byte) (Result, error) {
	if len(bundleBytes) == 0 {
		slog.Warn("index signature bundle not found", "source", source)
		return Result{Source: source, Skipped: true, SkipReason: "no .sigstore bundle found"}, nil
	}

	b, err := parseIndexBundle(bundleBytes)
	if err != nil {
		slog.Warn("index signature bundle could not be parsed", "source", source, "error", err)
		return Result{Source: source, Skipped: true, SkipReason: fmt.Sprintf("malformed bundle: %v", err)}, nil
	}

	trustedRoot, err := v.getTrustedRoot()
	if err != nil {
		slog.Warn("index signature verification skipped: trusted root unavailable", "source", source, "error", err)
		return Result{Source: source, Skipped: true, SkipReason: fmt.Sprintf("trusted root unavailable: %v", err)}, nil
	}

	verifierConfig, err := sgverify.NewVerifier(
		trustedRoot,
		sgverify.WithSignedCertificateTimestamps(1),
		sgverify.WithTransparencyLog(1),
		sgverify.WithIntegratedTimestamps(1),
	)
	if err != nil {
		return Result{}, fmt.Errorf("verify: create verifier: %w", err)
	}

	certIdentity, err := sgverify.NewShortCertificateIdentity(defaultOIDCIssuer, "", "", v.publisherSAN)
	if err != nil {
		return Result{}, fmt.Errorf("verify: build certificate identity: %w", err)
	}

	_, err = verifierConfig.Verify(b, sgverify.NewPolicy(
		sgverify.WithArtifact(bytes.NewReader(artifact)),
		sgverify.WithCertificateIdentity(certIdentity),
	))
	if err != nil {
		slog.Warn("index signature verification failed", "source", source, "error", err)
		return Result{Source: source, Skipped: true, SkipReason: fmt.Sprintf("signature verification failed: %v", err)}, nil
	}

	slog.Info("index signature verified", "source", source)
	return Result{Source: source, Verified: true}, nil
}

// getTrustedRoot returns the cached public-good Sigstore trusted root,
// fetching it on the first call.
func (v *SigstoreIndexVerifier) getTrustedRoot() (*root.LiveTrustedRoot, error) {
	v.trustedRootOnce.Do(func() {
		v.trustedRoot, v.trustedRootErr = root.NewLiveTrustedRoot(tuf.DefaultOptions())
	})
	return v.trustedRoot, v.trustedRootErr
}

// parseIndexBundle parses the protobuf-JSON contents of a "<source>.sigstore"
// file into a validated Sigstore bundle. Uses protojson (not encoding/json)
// because the bundle's oneof fields require protobuf-aware deserialization.
func parseIndexBundle(data []byte) (*bundle.Bundle, error) {
	var pb protobundle.Bundle
	if err := protojson.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("parse sigstore bundle JSON: %w", err)
	}
	b, err := bundle.NewBundle(&pb)
	if err != nil {
		return nil, fmt.Errorf("construct sigstore bundle: %w", err)
	}
	return b, nil
}
