package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/tmaps/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 64 << 10
)

// Client talks JSON over HTTP to the data service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new data service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("data service URL not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// errorResponse is the body the service sends on failure.
type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

// Do implements ports.Transport.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "JWT "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeServiceError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeServiceError(resp *http.Response) *domain.ServiceError {
	svcErr := &domain.ServiceError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		svcErr.Message = http.StatusText(resp.StatusCode)
		return svcErr
	}

	var envelope errorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Error) == 0 {
		svcErr.Message = strings.TrimSpace(string(raw))
		return svcErr
	}

	svcErr.Payload = envelope.Error
	svcErr.Message = errorMessage(envelope.Error)
	if svcErr.Message == "" {
		svcErr.Message = http.StatusText(resp.StatusCode)
	}
	return svcErr
}

// errorMessage extracts a human readable message from the "error" member,
// which is either a string or an object with a message or description.
func errorMessage(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}

	var obj struct {
		Message     string `json:"message"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return ""
	}
	if obj.Message != "" {
		return obj.Message
	}
	return obj.Description
}
