// Package webclient wraps outbound HTTP behind a small interface so the
// resolver and profile scraper can be exercised against test servers.
package webclient

import (
	"context"
	"net/http"
	"time"
)

// WebClient executes HTTP requests on behalf of the diagnosis pipeline.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience wrapper for simple GET requests.
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int

	// FinalURL is the URL after all redirects were followed. Listing short
	// links resolve through several hops; the canonical id lives in the
	// final location.
	FinalURL string

	FetchedAt time.Time
}
