package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxAttempts = 3

// ArtifactFetcher downloads a model artifact from a remote location.
type ArtifactFetcher interface {
	FetchArtifact(ctx context.Context, artifactURL string) (io.ReadCloser, error)
}

// HTTPArtifactFetcher fetches artifacts over HTTP(S) with retries on
// transient failures.
type HTTPArtifactFetcher struct {
	client  *http.Client
	backoff time.Duration
}

// NewHTTPArtifactFetcher creates an HTTP artifact fetcher
func NewHTTPArtifactFetcher() *HTTPArtifactFetcher {
	transport := &http.Transport{
		MaxIdleConns:           4,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  30 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPArtifactFetcher{
		client: &http.Client{
			Transport: transport,
			// Model files are large; the caller's context bounds the download.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

// FetchArtifact returns the response body of a successful download. 4xx
// responses fail immediately; network errors and 5xx are retried with
// linear backoff.
func (h *HTTPArtifactFetcher) FetchArtifact(ctx context.Context, artifactURL string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("artifact download canceled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		req.Header.Set("Accept", "application/octet-stream, */*")
		req.Header.Set("User-Agent", "Rice-Leaf-Inspector/1.0")

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("failed to fetch artifact: client error: status code %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("unknown error")
	}
	return nil, fmt.Errorf("failed to fetch artifact after %d attempts: %w", maxAttempts, lastErr)
}
