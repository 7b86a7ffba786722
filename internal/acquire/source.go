// Package acquire fetches the station and trip tables from files, uploads,
// URLs or pasted text before they reach the ingestion core.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	resty "gopkg.in/resty.v1"

	"github.com/zigzag-timetable/backend/internal/storage"
)

// Source yields the raw bytes of one table.
type Source interface {
	// Name labels the table in diagnostics.
	Name() string
	// Open returns the table content. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a table from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

// TextSource wraps table text pasted by a user.
type TextSource struct {
	Label   string
	Content string
}

func (s TextSource) Name() string { return s.Label }

func (s TextSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(s.Content)), nil
}

// StoreSource reads a previously uploaded table.
type StoreSource struct {
	store storage.Store
	id    string
	name  string
}

// NewStoreSource resolves id in store. It fails with storage.ErrNotFound for
// an unknown id.
func NewStoreSource(store storage.Store, id string) (*StoreSource, error) {
	info, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	return &StoreSource{store: store, id: id, name: info.Name}, nil
}

func (s *StoreSource) Name() string { return s.name }

func (s *StoreSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Open(s.id)
}

// HTTPStatusError reports a non-success response from a URL source.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// URLSource downloads a table over HTTP.
type URLSource struct {
	URL     string
	client  *resty.Client
	maxSize int64
}

// NewURLSource creates a source for url. A positive maxSize caps the body.
func NewURLSource(url string, timeout time.Duration, maxSize int64) *URLSource {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/csv, text/plain, text/html;q=0.9, */*;q=0.5")
	return &URLSource{URL: url, client: client, maxSize: maxSize}
}

func (s *URLSource) Name() string {
	name := s.URL
	if i := strings.LastIndexByte(name, '/'); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	return name
}

func (s *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.URL, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, &HTTPStatusError{URL: s.URL, Status: resp.StatusCode()}
	}

	body := resp.Body()
	if s.maxSize > 0 && int64(len(body)) > s.maxSize {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", s.URL, s.maxSize)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
