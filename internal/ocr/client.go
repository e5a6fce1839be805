// Package ocr adapts an external OCR sidecar service. The sidecar
// rasterizes PDF pages and runs Tesseract over the page images; this
// process consumes it over HTTP and never links OCR code in-process.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finbot/internal/config"
)

// Client calls the OCR sidecar.
type Client struct {
	serviceURL string
	languages  []string
	httpClient *http.Client
}

// ClientConfig configures the OCR sidecar client.
type ClientConfig struct {
	ServiceURL string
	// Languages are Tesseract script hints. The corpus is dual-script:
	// Latin for English subjects, Gujarati for the regional text.
	Languages []string
	Timeout   time.Duration
}

// NewClient creates an OCR sidecar client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = "http://localhost:8081"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng", "guj"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.OCRTimeout
	}
	return &Client{
		serviceURL: cfg.ServiceURL,
		languages:  cfg.Languages,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Pages []string `json:"pages"`
	Error string   `json:"error,omitempty"`
}

// ExtractPages rasterizes the PDF and OCRs every page, returning one
// text string per page in page order. A page the sidecar could not read
// comes back as an empty string; only a transport or sidecar failure is
// an error.
func (c *Client) ExtractPages(ctx context.Context, pdf []byte) ([]string, error) {
	url := fmt.Sprintf("%s/extract?lang=%s", c.serviceURL, strings.Join(c.languages, "+"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call OCR service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service: status %d", resp.StatusCode)
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode OCR response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("OCR service: %s", result.Error)
	}

	return result.Pages, nil
}
