package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher is the production Fetcher and GitHubFetcher implementation,
// backed by a plain net/http client. Fetching an arbitrary URL or a GitHub
// raw file is a single GET with no retry/backoff semantics worth pulling a
// library in for, unlike the LLM and storage clients elsewhere in this
// repository.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher with a bounded request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves url and returns its body as text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %q: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %q: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body of %q: %w", url, err)
	}
	return string(body), nil
}

// FetchFile retrieves a single file from a GitHub repository via the
// raw.githubusercontent.com mirror.
func (f *HTTPFetcher) FetchFile(ctx context.Context, ownerRepo, ref, path string) (string, error) {
	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", ownerRepo, ref, path)
	return f.Fetch(ctx, url)
}
