// Package mapview loads the year-specific SVG map and keeps the displayed
// document together with its pin registry.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

var (
	// ErrAssetFetch wraps any failure to retrieve a map asset.
	ErrAssetFetch = errors.New("asset fetch failed")
	// ErrMissingContainer means the asset has no <svg> element to host
	// the pins.
	ErrMissingContainer = errors.New("missing svg container")
)

// maxAssetSize bounds a single SVG download.
const maxAssetSize = 32 << 20

// Source retrieves map assets by file name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	String() string
}

// DirSource reads assets from a file system.
type DirSource struct {
	fsys fs.FS
	name string
}

// NewDirSource serves assets from a directory on disk.
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir), name: dir}
}

// NewFSSource serves assets from fsys.
func NewFSSource(fsys fs.FS, name string) *DirSource {
	return &DirSource{fsys: fsys, name: name}
}

func (s *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetFetch, name, err)
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid asset name %q", ErrAssetFetch, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetFetch, err)
	}
	return data, nil
}

func (s *DirSource) String() string {
	return "dir:" + s.name
}

// HTTPSource fetches assets relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource fetches assets below baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing asset base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("asset base URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: u, client: client}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	target := s.base.JoinPath(name).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrAssetFetch, target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrAssetFetch, target, err)
	}
	return data, nil
}

func (s *HTTPSource) String() string {
	return s.base.String()
}
