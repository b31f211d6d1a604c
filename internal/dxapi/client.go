package dxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/five82/dxportal/internal/datacache"
)

//go:generate mockgen -destination=../mocks/token_source_mock.go -package=mocks . TokenSource

// TokenSource hands out a bearer token just before each call. An empty token
// means the call is made without an Authorization header.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Ensure Client can back the data cache at compile time.
var _ datacache.Fetcher = (*Client)(nil)

// Client talks to the portal HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	validate  *validator.Validate
	requestID func() string
}

const (
	defaultUserAgent = "dxportal/0.1"
	apiPrefix        = "/api/"
)

// NewClient builds a Client for server, a host name or URL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(server string, tokens TokenSource, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		tokens:    tokens,
		userAgent: defaultUserAgent,
		validate:  newValidator(),
		requestID: func() string { return uuid.NewString() },
	}, nil
}

// RequestConfig customizes a single call. Method defaults to GET, or POST
// when Body is set. Headers are applied over the defaults.
type RequestConfig struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Fetch performs the GET for a cache key.
func (c *Client) Fetch(ctx context.Context, key datacache.Key) (json.RawMessage, error) {
	if key.IsNull() {
		return nil, fmt.Errorf("fetch: null key")
	}
	return c.Do(ctx, key.Endpoint(), RequestConfig{})
}

// Do issues an authorized call to /api/{endpoint} and returns the raw JSON
// body of a 2xx response.
func (c *Client) Do(ctx context.Context, endpoint string, cfg RequestConfig) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := url.Parse(apiPrefix + strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	method := http.MethodGet
	var body io.Reader
	if cfg.Body != nil {
		method = http.MethodPost
		payload, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	if cfg.Method != "" {
		method = strings.ToUpper(cfg.Method)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", c.requestID())

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("get access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "" {
		return nil, fmt.Errorf("api %s: %w", rel.Path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(method, rel.Path, resp.StatusCode, raw)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode response: api %s returned invalid json", rel.Path)
	}
	return json.RawMessage(raw), nil
}

// get decodes the response of a GET into T.
func get[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var out T
	raw, err := c.Do(ctx, endpoint, RequestConfig{})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		return nil, errors.New("server address is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
