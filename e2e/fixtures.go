//go:build e2e

package e2e

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
)

// buildZip packs files (path -> contents) into an in-memory zip archive,
// the shape the install engine extracts a runtime from.
func buildZip(files map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(0755)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(contents)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fakeRuntime is one installable version served by a fakeFeed.
type fakeRuntime struct {
	ID          string
	Tag         string
	SortVersion string
	InstallFor  []string
	RunFor      []map[string]any
	Alias       []map[string]any
	Archive     map[string]string // path -> contents, zipped on the fly
}

// fakeFeed serves a single-page feed index plus each runtime's archive over
// HTTP, the same shapes internal/feed and internal/download consume.
type fakeFeed struct {
	server *httptest.Server
}

func newFakeFeed(runtimes []fakeRuntime) (*fakeFeed, error) {
	archives := make(map[string][]byte, len(runtimes))
	for _, r := range runtimes {
		data, err := buildZip(r.Archive)
		if err != nil {
			return nil, err
		}
		archives[r.ID] = data
	}

	mux := http.NewServeMux()
	f := &fakeFeed{}
	mux.HandleFunc("/archive/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/archive/"):]
		data, ok := archives[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	})
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		versions := make([]map[string]any, 0, len(runtimes))
		for _, rt := range runtimes {
			sum := sha256.Sum256(archives[rt.ID])
			versions = append(versions, map[string]any{
				"schema":        1,
				"id":            rt.ID,
				"company":       "PythonCore",
				"tag":           rt.Tag,
				"sort-version":  rt.SortVersion,
				"display-name":  "Python " + rt.SortVersion,
				"install-for":   rt.InstallFor,
				"run-for":       rt.RunFor,
				"alias":         rt.Alias,
				"url":           f.server.URL + "/archive/" + rt.ID,
				"hash":          map[string]string{"sha256": fmt.Sprintf("%x", sum)},
				"executable":    "python.exe",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"versions": versions})
	})

	f.server = httptest.NewServer(mux)
	return f, nil
}

func (f *fakeFeed) IndexURL() string { return f.server.URL + "/index.json" }
func (f *fakeFeed) Close()           { f.server.Close() }
