package gaugedata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Exporter sends a published snapshot somewhere else. Export failures are
// logged and never affect the local file.
type Exporter interface {
	Export(ctx context.Context, data []byte) error
}

// HTTPPostExporter posts each snapshot as JSON to a URL.
type HTTPPostExporter struct {
	url    string
	client *http.Client
	logger *zap.SugaredLogger
}

// NewHTTPPostExporter returns an exporter posting to url with client. A nil
// client gets a 5 second timeout.
func NewHTTPPostExporter(url string, client *http.Client, logger *zap.SugaredLogger) *HTTPPostExporter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPPostExporter{
		url:    url,
		client: client,
		logger: logger,
	}
}

// Export posts data and checks for a 2xx response.
func (e *HTTPPostExporter) Export(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.Debugf("posting gauge data to %s", e.url)
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bad response from %s (status %d): %s", e.url, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
