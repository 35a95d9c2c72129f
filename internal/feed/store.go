package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pymanager/pymanager/internal/verify"
)

// Store fetches and caches feed documents keyed by source URL, following
// "next" pagination links.
type Store struct {
	client *http.Client

	// Verifier checks each fetched page's detached ".sigstore" bundle.
	// Defaults to a no-op verifier that skips every page.
	Verifier verify.Verifier

	// RequireSigned turns a failed/missing signature into a fetch error
	// instead of a logged warning.
	RequireSigned bool

	mu    sync.Mutex
	cache map[string][]byte
}

// NewStore creates a Store using client, or http.DefaultClient if nil.
func NewStore(client *http.Client) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{client: client, cache: make(map[string][]byte), Verifier: verify.NewNoopVerifier("signature verification not configured")}
}

// NormalizeSource resolves an https://, file://, or bare filesystem path
// source into a URL string, turning bare paths into file:// URIs (spec
// §4.2 "Source kinds").
func NormalizeSource(source string) (string, error) {
	if strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "file://") {
		return source, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("feed: resolve source %q: %w", source, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// fetchOne retrieves and caches a single page's raw bytes.
func (s *Store) fetchOne(ctx context.Context, sourceURL string) ([]byte, error) {
	s.mu.Lock()
	if cached, ok := s.cache[sourceURL]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("feed: invalid source %q: %w", sourceURL, err)
	}

	var data []byte
	switch u.Scheme {
	case "file":
		data, err = os.ReadFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("feed: read %s: %w", u.Path, err)
		}
	case "http", "https":
		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
		if rerr != nil {
			return nil, rerr
		}
		resp, rerr := s.client.Do(req)
		if rerr != nil {
			return nil, fmt.Errorf("feed: fetch %s: %w", sourceURL, rerr)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("feed: fetch %s: HTTP %d", sourceURL, resp.StatusCode)
		}
		data, rerr = io.ReadAll(resp.Body)
		if rerr != nil {
			return nil, fmt.Errorf("feed: read body of %s: %w", sourceURL, rerr)
		}
	default:
		return nil, fmt.Errorf("feed: unsupported source scheme %q", u.Scheme)
	}

	if err := s.checkSignature(ctx, sourceURL, data); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[sourceURL] = data
	s.mu.Unlock()
	return data, nil
}

// checkSignature fetches the detached "<sourceURL>.sigstore" bundle, if
// any, and checks it against artifact via s.Verifier. A
// missing or unverifiable bundle only fails the fetch when RequireSigned
// is set; otherwise it's logged and the page is used as-is.
func (s *Store) checkSignature(ctx context.Context, sourceURL string, artifact []byte) error {
	verifier := s.Verifier
	if verifier == nil {
		return nil
	}
	bundleBytes, _ := s.fetchSidecar(ctx, sourceURL+".sigstore")
	result, err := verifier.Verify(ctx, sourceURL, artifact, bundleBytes)
	if err != nil {
		return fmt.Errorf("feed: verify %s: %w", sourceURL, err)
	}
	if result.Verified {
		return nil
	}
	if s.RequireSigned {
		return fmt.Errorf("feed: index signature required but not verified for %s: %s", sourceURL, result.SkipReason)
	}
	slog.Warn("feed: index signature not verified", "source", sourceURL, "reason", result.SkipReason)
	return nil
}

// fetchSidecar retrieves a detached bundle file alongside a feed source,
// tolerating its absence (not every source is signed).
func (s *Store) fetchSidecar(ctx context.Context, sidecarURL string) ([]byte, error) {
	u, err := url.Parse(sidecarURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sidecarURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// FetchAll follows pagination from sourceURL and returns the deduplicated
// entries across every hop.
func (s *Store) FetchAll(ctx context.Context, sourceURL string) ([]Entry, error) {
	var all []Entry
	next := sourceURL
	for next != "" {
		data, err := s.fetchOne(ctx, next)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, err
		}
		all = append(all, doc.Versions...)
		if doc.Next == "" {
			break
		}
		resolved, err := resolveRelative(next, doc.Next)
		if err != nil {
			return nil, err
		}
		next = resolved
	}
	return Dedupe(all), nil
}

// FetchWithFallback tries primary, then falls back to secondary when
// fetching or parsing primary fails for any reason; if secondary also
// fails, primary's error is returned.
func (s *Store) FetchWithFallback(ctx context.Context, primary, secondary string) ([]Entry, error) {
	entries, err := s.FetchAll(ctx, primary)
	if err == nil {
		return entries, nil
	}
	if secondary == "" {
		return nil, err
	}
	slog.Warn("primary feed source failed, trying fallback", "primary", primary, "error", err)
	fallbackEntries, fallbackErr := s.FetchAll(ctx, secondary)
	if fallbackErr != nil {
		return nil, err
	}
	return fallbackEntries, nil
}

func resolveRelative(base, next string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	nextURL, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("feed: invalid next link %q: %w", next, err)
	}
	return baseURL.ResolveReference(nextURL).String(), nil
}

// Forget clears a cached source so it is re-fetched on next use.
func (s *Store) Forget(sourceURL string) {
	s.mu.Lock()
	delete(s.cache, sourceURL)
	s.mu.Unlock()
}
