package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const errBodySnippet = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm endpoint returned %d: %s", e.Status, e.Body)
}

// Caller posts JSON to a model endpoint. Each request is sent once; a
// throttled or failed call surfaces to the caller as is.
type Caller struct {
	Client *http.Client
	Logger *slog.Logger
}

// PostJSON returns the raw response body of a 2xx answer.
func (c *Caller) PostJSON(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	reqID := uuid.New().String()
	return c.send(ctx, url, payload, headers, reqID, logger.With("req_id", reqID))
}

func (c *Caller) send(ctx context.Context, url string, payload []byte, headers map[string]string, reqID string, log *slog.Logger) ([]byte, error) {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ms-client-request-id", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"request_bytes", len(payload),
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		if len(raw) > errBodySnippet {
			raw = raw[:errBodySnippet]
		}
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
