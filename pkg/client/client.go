// Package client is a typed HTTP client for the Notely AI endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notely-be/pkg/variant"
)

// CodeAPIKeyRequired is the machine-readable error the server returns when the
// user has no provider credential configured.
const CodeAPIKeyRequired = "API_KEY_REQUIRED"

var ErrAPIKeyRequired = errors.New("an AI provider API key is required")

// APIError is a non-2xx answer carrying the server's error string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notely api: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

var _ variant.Transformer = (*Client)(nil)

// NewRequest builds an authenticated JSON request against path.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Do sends req using the configured http.Client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// DecodeError turns a failed response into ErrAPIKeyRequired or *APIError.
func DecodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error == CodeAPIKeyRequired {
			return ErrAPIKeyRequired
		}
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	req, err := c.NewRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Transform(ctx context.Context, req variant.TransformRequest) (variant.Variant, error) {
	var out variant.Variant
	err := c.postJSON(ctx, "/api/ai/v1/transform", req, &out)
	return out, err
}

func (c *Client) Regenerate(ctx context.Context, req variant.RegenerateRequest) (variant.Variant, error) {
	var out variant.Variant
	err := c.postJSON(ctx, "/api/ai/v1/regenerate", req, &out)
	return out, err
}

type DetectedSection struct {
	variant.Variant
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func (c *Client) DetectSections(ctx context.Context, transcript string) ([]DetectedSection, error) {
	var out struct {
		Sections []DetectedSection `json:"sections"`
	}
	err := c.postJSON(ctx, "/api/ai/v1/sections", map[string]string{"transcript": transcript}, &out)
	return out.Sections, err
}

func (c *Client) Inline(ctx context.Context, text, action string) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	err := c.postJSON(ctx, "/api/ai/v1/inline", map[string]string{"text": text, "action": action}, &out)
	return out.Result, err
}
