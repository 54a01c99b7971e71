package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// IsURL reports whether location names an http or https resource.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Source is a remote input file.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source for url using a client built from cfg.
func NewSource(url string, cfg Config) *Source {
	return &Source{client: NewClient(cfg), url: url}
}

// Path returns the source URL.
func (s *Source) Path() string { return s.url }

// Open issues a GET and returns the body positioned at the first byte.
// Non-2xx responses are errors.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d", s.url, resp.StatusCode)
	}
	return resp.Body, nil
}

// Check verifies the resource is reachable by fetching its first byte with a
// Range request. Servers that ignore Range still pass; only one byte is read.
func (s *Source) Check(ctx context.Context) error {
	h := make(http.Header)
	h.Set("Range", "bytes=0-0")
	resp, err := s.client.Get(ctx, s.url, h)
	if err != nil {
		return fmt.Errorf("get %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: status %d", s.url, resp.StatusCode)
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 1)); err != nil {
		return fmt.Errorf("get %s: %w", s.url, err)
	}
	return nil
}
