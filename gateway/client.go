// Package gateway is the sole component that performs network I/O on
// behalf of the stores. Each intent is exactly one round-trip against the
// manager API; on success the matching store transition is dispatched with
// the server's response record, on failure the typed error is returned to
// the caller and nothing is dispatched. The package also owns the
// WebSocket subscription that feeds push events into the same stores.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manus-manager/console/logger"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer credential attached to every call.
// store.Session satisfies it.
type TokenSource interface {
	Token() string
}

// Client is the low-level JSON client for the manager API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *logger.Logger
}

type ClientConfig struct {
	BaseURL string
	Tokens  TokenSource
	Timeout time.Duration
	Logger  *logger.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  cfg.Tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// detailBody is the error shape the manager API returns on non-2xx.
type detailBody struct {
	Detail string `json:"detail"`
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := marshalBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", body, out)
}

func (c *Client) putJSON(ctx context.Context, path string, in, out any) error {
	body, err := marshalBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, "application/json", body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, "", nil, nil)
}

// postForm sends a form-encoded body; the login endpoint is the only
// consumer.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", body, out)
}

func marshalBody(in any) (io.Reader, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	start := time.Now()
	requestID := uuid.New().String()
	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Infow("gateway_request",
		"method", method,
		"path", path,
		"request_id", requestID,
	)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("gateway_network_error",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return &TransportError{Err: err, Timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err, Timeout: isTimeout(err)}
	}

	c.logger.Infow("gateway_response",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(respBody)
		if detail == "" {
			detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		c.logger.Warnw("gateway_bad_status",
			"method", method,
			"path", path,
			"request_id", requestID,
			"status", resp.StatusCode,
			"detail", detail,
		)
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func extractDetail(body []byte) string {
	var d detailBody
	if err := json.Unmarshal(body, &d); err != nil {
		return ""
	}
	return d.Detail
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if os.IsTimeout(err) {
		return true
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), context.DeadlineExceeded.Error())
}
