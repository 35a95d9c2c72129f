// Package download fetches runtime archives by URL, verifies them against
// a feed entry's multi-algorithm hash map, and reuses bundled or
// previously-downloaded copies where possible.
package download

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

	"github.com/pymanager/pymanager/internal/checksum"
	"github.com/pymanager/pymanager/internal/errs"
)

// Progress is a caller-supplied sink for download progress. Total is 0
// when the server didn't report a Content-Length.
type Progress interface {
	Start(total int64)
	Advance(n int64)
	Done()
}

// noopProgress discards progress events.
type noopProgress struct{}

func (noopProgress) Start(int64)  {}
func (noopProgress) Advance(int64) {}
func (noopProgress) Done()         {}

// Auth resolves download credentials in order: embedded URL userinfo, a
// configured source URL's credentials, then environment variables.
type Auth struct {
	SourceURL string // URL prefix this credential pair is scoped to
	Username  string
	Password  string
}

// Downloader fetches, verifies, and caches runtime archives.
type Downloader struct {
	Client      *http.Client
	BundledDir  string
	Auths       []Auth
	EnvUsername string
	EnvPassword string
}

// New creates a Downloader using client, or http.DefaultClient if nil.
func New(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{Client: client}
}

// Entry is the minimal shape a feed/install entry needs for Download.
type Entry struct {
	URL      string
	Filename string
	Hash     checksum.Map
}

// Download fetches entry's archive to destPath and returns the local path,
// reusing an existing verified file or bundled copy where possible.
func (d *Downloader) Download(ctx context.Context, entry Entry, destPath string, force bool, sink Progress) (string, error) {
	if sink == nil {
		sink = noopProgress{}
	}

	if !force {
		if _, err := os.Stat(destPath); err == nil {
			if verr := checksum.VerifyAll(destPath, entry.Hash); verr == nil {
				return destPath, nil
			}
			slog.Warn("existing download failed verification, refetching", "path", destPath)
			_ = os.Remove(destPath)
		}
	}

	if d.BundledDir != "" && entry.Filename != "" {
		bundled := filepath.Join(d.BundledDir, entry.Filename)
		if _, err := os.Stat(bundled); err == nil {
			if verr := checksum.VerifyAll(bundled, entry.Hash); verr == nil {
				return bundled, nil
			}
		}
	}

	if err := d.fetch(ctx, entry.URL, destPath, sink); err != nil {
		return "", err
	}

	if err := checksum.VerifyAll(destPath, entry.Hash); err != nil {
		algo, expected := firstHash(entry.Hash)
		_ = os.Remove(destPath)
		return "", errs.NewHashMismatchError(sanitizeURL(entry.URL), string(algo), string(expected), "")
	}

	return destPath, nil
}

func firstHash(m checksum.Map) (checksum.Algorithm, checksum.Digest) {
	for algo, digest := range m {
		return algo, digest
	}
	return "", ""
}

func (d *Downloader) fetch(ctx context.Context, rawURL, destPath string, sink Progress) error {
	reqURL, username, password := d.resolveAuth(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download: fetch %s: %w", sanitizeURL(rawURL), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: fetch %s: HTTP %d", sanitizeURL(rawURL), resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	sink.Start(resp.ContentLength)
	defer sink.Done()

	buf := make([]byte, 256*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return werr
			}
			sink.Advance(int64(n))
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// resolveAuth tries, in order: (a) embedded user:pass@ in the URL, (b) a
// configured source URL's credentials if this URL is under it, (c) the
// environment variables.
func (d *Downloader) resolveAuth(rawURL string) (cleanedURL, username, password string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, "", ""
	}
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
		return u.String(), username, password
	}

	for _, a := range d.Auths {
		if strings.HasPrefix(rawURL, a.SourceURL) {
			return rawURL, a.Username, a.Password
		}
	}

	if d.EnvUsername != "" || d.EnvPassword != "" {
		return rawURL, d.EnvUsername, d.EnvPassword
	}
	return rawURL, "", ""
}

// sanitizeURL strips userinfo before the URL is surfaced in logs or
// persisted metadata.
func sanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	return u.String()
}

// SanitizeURL is the exported form used by the install engine when
// persisting an install's url field.
func SanitizeURL(rawURL string) string { return sanitizeURL(rawURL) }
