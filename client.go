package adapterhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultBodyLimit = 1 << 20
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RPCOption customises the behaviour of the RPC client.
type RPCOption func(*RPCClient)

// WithRPCHTTPClient overrides the HTTP client used to talk to the hub.
func WithRPCHTTPClient(client HTTPClient) RPCOption {
	return func(c *RPCClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRPCTimeout sets the request timeout used by the default HTTP client.
// It has no effect when a custom HTTP client is supplied.
func WithRPCTimeout(timeout time.Duration) RPCOption {
	return func(c *RPCClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRPCLogger attaches a logger; the client logs nothing by default.
func WithRPCLogger(logger zerolog.Logger) RPCOption {
	return func(c *RPCClient) {
		if !reflect.ValueOf(logger).IsZero() {
			c.logger = logger
		}
	}
}

// WithRPCBodyLimit adjusts how many bytes are read from a hub response.
func WithRPCBodyLimit(limit int64) RPCOption {
	return func(c *RPCClient) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// RPCClient sends topic messages to an Adapter Hub RPC endpoint. It holds no
// call-specific state, so a single instance may be shared across goroutines.
type RPCClient struct {
	serverURL    string
	httpClient   HTTPClient
	logger       zerolog.Logger
	timeout      time.Duration
	maxBodyBytes int64
}

// topicMessage is the request frame for a single topic-message exchange.
type topicMessage struct {
	Topic string  `json:"topic"`
	Data  Payload `json:"data"`
}

// NewRPCClient constructs a client for the given RPC endpoint, e.g.
// "http://localhost:8080/rpc". The URL must be absolute.
func NewRPCClient(serverURL string, opts ...RPCOption) (*RPCClient, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		return nil, errors.New("adapter hub: rpc server url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("adapter hub: rpc server url %q must be an absolute url", serverURL)
	}

	c := &RPCClient{
		serverURL:    trimmed,
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

// ServerURL returns the configured RPC endpoint.
func (c *RPCClient) ServerURL() string {
	return c.serverURL
}

// SendTopicMessage posts one topic message to the hub and decodes the reply.
// A well-formed reply is always returned as a Result, even when it carries a
// non-success business code; the returned error is non-nil only for
// transport and protocol failures, in which case it is an *Error classified
// per the fixed taxonomy.
func (c *RPCClient) SendTopicMessage(ctx context.Context, topic string, data Payload) (*Result, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("adapter hub: topic is required")
	}
	if data.IsZero() {
		return nil, errors.New("adapter hub: payload is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(topicMessage{Topic: topic, Data: data})
	if err != nil {
		return nil, fmt.Errorf("adapter hub: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("adapter hub: new request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("topic", topic).
		Str("url", c.serverURL).
		Int("body_bytes", len(body)).
		Msg("sending topic message")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err, c.serverURL)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, classifyTransport(err, c.serverURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Code:    CodeHTTPError,
			Message: fmt.Sprintf("http protocol error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Data: map[string]any{
				"url":           c.serverURL,
				"status_code":   resp.StatusCode,
				"response_text": raw,
			},
		}
	}

	result, err := ParseResult(raw)
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

	c.logger.Debug().
		Str("request_id", requestID).
		Str("topic", topic).
		Int("code", result.Code()).
		Bool("success", result.IsSuccess()).
		Msg("topic message reply")

	return result, nil
}

func readBody(rc io.Reader, limit int64) (string, error) {
	if rc == nil {
		return "", nil
	}
	if limit <= 0 {
		limit = defaultBodyLimit
	}

	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
