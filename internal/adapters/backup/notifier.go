// Package backup copies newly added members to an external spreadsheet endpoint.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Notifier delivers one backup payload.
type Notifier interface {
	Notify(ctx context.Context, payload []byte) error
}

// StatusError reports a server-side rejection from the endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backup endpoint returned %d", e.StatusCode)
}

// SheetsNotifier POSTs payloads as text/plain to a spreadsheet web-app URL.
type SheetsNotifier struct {
	url    string
	client *http.Client
}

// NewSheetsNotifier creates a notifier for url. A nil client selects http.DefaultClient.
// PRE: url is an absolute http(s) URL
func NewSheetsNotifier(url string, client *http.Client) *SheetsNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetsNotifier{url: url, client: client}
}

// Notify sends payload. Redirects are followed; any 5xx or transport error fails.
// POST: Returns nil once the endpoint has accepted the request
func (n *SheetsNotifier) Notify(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build backup request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send backup: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// NoopNotifier drops payloads. It is used when no endpoint is configured.
type NoopNotifier struct{}

// Notify logs and discards payload.
func (NoopNotifier) Notify(_ context.Context, payload []byte) error {
	slog.Debug("backup_skipped", "reason", "no_endpoint", "bytes", len(payload))
	return nil
}
