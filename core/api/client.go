// Package api wraps the BARS REST API, one method per operation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/heronhoga/bars-fe/logger"
)

// Client BARS REST API 客户端
type Client struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient 创建新的API客户端
func NewClient(baseURL, appKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetRateLimit caps outgoing requests per second; rps <= 0 removes the cap.
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// BaseURL returns the upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// createRequest builds a request with the app key and, when token is set, the bearer token.
func (c *Client) createRequest(ctx context.Context, method, path string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("app-key", c.appKey)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// jsonRequest builds a request with a JSON body.
func (c *Client) jsonRequest(ctx context.Context, method, path string, payload any, token string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.createRequest(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out. Non-2xx responses become *APIError
// carrying the server message or fallback.
func (c *Client) do(op string, req *http.Request, fallback string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("[api] request failed", logger.String("op", op), logger.ErrorField(err))
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("[api] read response failed", logger.String("op", op), logger.ErrorField(err))
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	logger.Debug("[api] response",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body, fallback)}
		logger.Warn("[api] error response",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
			logger.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		logger.Error("[api] decode response failed", logger.String("op", op), logger.ErrorField(err))
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
	}
	return nil
}

// errorMessage picks error, then message, then a short text body, then fallback.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
		return fallback
	}
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fallback
}
