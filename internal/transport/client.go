// Package transport wraps every outgoing HTTP call to the chat backend.
// It attaches the API key and bearer token, converts any transport-level
// failure into a uniform Envelope, and never lets an error escape as a panic
// or a raw *http.Response problem. The one exception is Stream, which hands
// the caller the live response body for chunked consumption.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ragchat/internal/apperr"
)

// Envelope is the uniform result of every non-streaming request.
// Err is non-empty exactly when Success is false.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// Ok builds a success envelope.
func Ok(data json.RawMessage) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope.
func Fail(msg string) Envelope {
	return Envelope{Success: false, Err: msg}
}

// TokenStore is the slice of the token store the client needs.
type TokenStore interface {
	Load() string
	Clear() error
}

// Client issues requests against the backend's base URL.
type Client struct {
	baseURL    string
	apiKey     string
	tokens     TokenStore
	httpClient *http.Client
}

// NewClient creates a transport client. timeout bounds every non-streaming
// request end to end.
func NewClient(baseURL, apiKey string, tokens TokenStore, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs one request and reports the outcome as an Envelope. body, when
// non-nil, is marshaled as JSON. Transport failures, timeouts, and non-2xx
// statuses all land in the failure branch; a 401 additionally discards the
// stored bearer token before the envelope is returned.
func (c *Client) Do(ctx context.Context, method, path string, body any) Envelope {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return Fail(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Request failed", "method", method, "path", path, "error", err)
		return Fail(err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail(fmt.Sprintf("could not read response: %v", err))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if cErr := c.tokens.Clear(); cErr != nil {
			slog.Warn("Failed to discard bearer token after 401", "error", cErr)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fail(errorMessage(resp.StatusCode, respBody))
	}
	return Ok(respBody)
}

// Stream performs a POST and returns the raw response for chunked reading.
// Unlike Do it reports failures as errors, because a broken stream is
// terminal for the caller. The response carries no client-side timeout; the
// caller cancels through ctx and must close the body.
func (c *Client) Stream(ctx context.Context, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	// A fresh client without the timeout: streams legitimately outlive it.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized {
			if cErr := c.tokens.Clear(); cErr != nil {
				slog.Warn("Failed to discard bearer token after 401", "error", cErr)
			}
			return nil, fmt.Errorf("%w: %s", apperr.ErrUnauthorized, errorMessage(resp.StatusCode, respBody))
		}
		return nil, fmt.Errorf("stream returned status %d: %s", resp.StatusCode, errorMessage(resp.StatusCode, respBody))
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if tok := c.tokens.Load(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// errorMessage prefers the backend's own {"message": ...} body over the bare
// status line.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}
