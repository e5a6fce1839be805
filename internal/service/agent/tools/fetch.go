package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"finbot/internal/config"
	"finbot/internal/domain"
)

// Fetcher downloads PDF documents over HTTP. Government portals serve
// large scans, so the body is read fully before OCR.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: config.FetchTimeout},
	}
}

// Fetch downloads the document at url and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
