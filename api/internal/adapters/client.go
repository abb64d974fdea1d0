package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Option customises an adapter client.
type Option func(*httpClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *httpClient) {
		if h != nil {
			c.http = h
		}
	}
}

// APIError is a non-2xx response from a Google API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

type httpClient struct {
	http *http.Client
}

func newHTTPClient(opts []Option) httpClient {
	c := httpClient{http: &http.Client{Timeout: 60 * time.Second}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// doJSON sends body as JSON (when non-nil) and decodes the reply into v.
func (c httpClient) doJSON(ctx context.Context, method, endpoint string, header http.Header, body, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vals := range header {
		req.Header[k] = vals
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, v)
}

func (c httpClient) send(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	if t := strings.TrimSpace(token); t != "" {
		h.Set("Authorization", "Bearer "+t)
	}
	return h
}

// extractError reads Google's {"error":{"message":...}} envelope, falling
// back to a flat {"error":"..."} or the raw body.
func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &nested) == nil && nested.Error.Message != "" {
		return strings.TrimSpace(nested.Error.Message)
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &flat) == nil && flat.Error != "" {
		return strings.TrimSpace(flat.Error)
	}
	return strings.TrimSpace(string(data))
}
