package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mversen/keyfall/internal/version"
)

// Fetcher retrieves a fresh credential list from the backing lookup
// service.
type Fetcher interface {
	FetchCredentials(ctx context.Context) ([]Credential, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]Credential, error)

func (f FetcherFunc) FetchCredentials(ctx context.Context) ([]Credential, error) {
	return f(ctx)
}

// HTTPFetcher queries an HTTP endpoint that returns a JSON array of
// credentials. The request carries no deadline of its own; cancellation is
// driven entirely by the caller's context.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// FetchOption configures an HTTPFetcher.
type FetchOption func(*HTTPFetcher)

// WithFetchClient overrides the HTTP client used for lookups.
func WithFetchClient(client *http.Client) FetchOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithFetchHeader adds a header to every lookup request, for deployments
// whose lookup endpoint requires its own authentication.
func WithFetchHeader(key, value string) FetchOption {
	return func(f *HTTPFetcher) {
		f.headers[key] = value
	}
}

// NewHTTPFetcher creates a fetcher for the given lookup URL.
func NewHTTPFetcher(url string, opts ...FetchOption) *HTTPFetcher {
	f := &HTTPFetcher{
		url:     url,
		client:  &http.Client{},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) FetchCredentials(ctx context.Context) ([]Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credential lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("credential lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var creds []Credential
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, fmt.Errorf("failed to decode credential list: %w", err)
	}
	return creds, nil
}
