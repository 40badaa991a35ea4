package adapterhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// APIOption customises the behaviour of the WEB API client.
type APIOption func(*APIClient)

// WithAPIHTTPClient overrides the HTTP client used to talk to the hub API.
func WithAPIHTTPClient(client HTTPClient) APIOption {
	return func(c *APIClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPITimeout sets the request timeout used by the default HTTP client.
func WithAPITimeout(timeout time.Duration) APIOption {
	return func(c *APIClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithAPILogger attaches a logger; the client logs nothing by default.
func WithAPILogger(logger zerolog.Logger) APIOption {
	return func(c *APIClient) {
		if !reflect.ValueOf(logger).IsZero() {
			c.logger = logger
		}
	}
}

// WithAPIBodyLimit adjusts how many bytes are read from an API response.
func WithAPIBodyLimit(limit int64) APIOption {
	return func(c *APIClient) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// APIClient sends WEB request messages to the hub's HTTP API. Unlike the
// RPC client it reports business failures as errors: a reply whose status is
// not "success" surfaces as an *Error carrying the decoded mapping.
type APIClient struct {
	baseURL      string
	httpClient   HTTPClient
	logger       zerolog.Logger
	timeout      time.Duration
	maxBodyBytes int64
}

// NewAPIClient constructs a client for the given API base URL, e.g.
// "http://localhost:8080/api". The URL must be absolute; a trailing slash
// is trimmed.
func NewAPIClient(baseURL string, opts ...APIOption) (*APIClient, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("adapter hub: api base url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("adapter hub: api base url %q must be an absolute url", baseURL)
	}

	c := &APIClient{
		baseURL:      trimmed,
		logger:       zerolog.Nop(),
		timeout:      defaultTimeout,
		maxBodyBytes: defaultBodyLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// BaseURL returns the configured API base URL.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// SendRequest posts the data mapping as JSON to baseURL/endpoint. HTTP
// status codes >= 400 and non-success business replies both surface as an
// *Error; transport failures classify per the shared taxonomy.
func (c *APIClient) SendRequest(ctx context.Context, endpoint string, data map[string]any) (*APIResult, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("adapter hub: endpoint is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("adapter hub: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("adapter hub: new request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("url", requestURL).
		Int("body_bytes", len(body)).
		Msg("sending api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err, requestURL)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, classifyTransport(err, requestURL)
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("http error: %d %s", resp.StatusCode, httpReason(resp.StatusCode)),
			Data: map[string]any{
				"url":           requestURL,
				"status_code":   resp.StatusCode,
				"response_text": raw,
			},
		}
	}

	result, err := ParseAPIResult(raw, resp.StatusCode)
	if err != nil {
		return nil, &Error{
			Code:    CodeParse,
			Message: fmt.Sprintf("response parse failed: %v", err),
			Data: map[string]any{
				"error":         err.Error(),
				"response_text": raw,
			},
		}
	}

	if !result.IsSuccess() {
		return nil, &Error{
			Code:    result.StatusCode(),
			Message: result.Message(),
			Data:    result.ToMap(),
		}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("url", requestURL).
		Str("status", result.Status()).
		Msg("api request reply")

	return result, nil
}

// httpReason covers the status codes the hub API is known to emit; anything
// else falls back to the standard library text.
func httpReason(statusCode int) string {
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return "Unknown Error"
}
