package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"justified-gallery/internal/logging"
)

// maxHeaderBytes caps how much of a response body is read to find the image
// header. Every supported format stores its size well within this limit.
const maxHeaderBytes = 1 << 20

// StatusError is returned by HTTPProber for non-2xx responses. The body is
// never decoded in that case, even if the server sent an image.
type StatusError struct {
	Src    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("probe %s: unexpected status %d", e.Src, e.Status)
}

// HTTPProber fetches images over HTTP and decodes their header.
type HTTPProber struct {
	Client  *http.Client
	BaseURL string
}

// NewHTTPProber creates an HTTPProber with the given request timeout.
func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: baseURL,
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, src string) (Size, error) {
	if src == "" {
		return Size{}, ErrEmptySource
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+src, http.NoBody)
	if err != nil {
		return Size{}, fmt.Errorf("build request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Size{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close response body for %s: %v", src, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Size{}, &StatusError{Src: src, Status: resp.StatusCode}
	}

	size, _, err := decodeSize(io.LimitReader(resp.Body, maxHeaderBytes))
	if err != nil {
		return Size{}, fmt.Errorf("decode %s: %w", src, err)
	}
	return size, nil
}
