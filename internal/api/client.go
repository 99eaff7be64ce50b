// Package api is the HTTP transport to the fintrack backend. One Client
// implements the transport contract of every store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// ErrUnauthorized is matched by a 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer. Message is written by the backend for the
// user and may be empty.
type APIError struct {
	Status           int               `json:"status"`
	Message          string            `json:"message"`
	CorrelationID    string            `json:"correlationId,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) ServerMessage() string {
	return e.Message
}

// Is lets callers test status classes against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == core.ErrPremiumRequired
	case http.StatusNotFound:
		return target == core.ErrNotFound
	}
	return false
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *log.Logger
}

// New builds a client for baseURL, e.g. http://localhost:8081/api/v1. An
// empty token sends no Authorization header.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: DefaultTimeout,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	c.logger = c.logger.WithComponent(log.ComponentAPI)
	return c
}

// IsConfigured reports whether the client has somewhere to talk to.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do sends one JSON request and decodes the answer into out when both are
// present. Non-2xx answers become *APIError.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.DebugContext(ctx, "API request",
		log.NewFields().WithHTTP(method, path, resp.StatusCode, time.Since(start).Milliseconds()).ToSlice()...)

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = ""
	}
	apiErr.Status = status
	return apiErr
}

// query collects non-empty parameters.
type query url.Values

func (q query) set(key, value string) query {
	if value != "" {
		url.Values(q).Set(key, value)
	}
	return q
}

func (q query) add(key string, values []string) query {
	for _, v := range values {
		if v != "" {
			url.Values(q).Add(key, v)
		}
	}
	return q
}

func (q query) page(page, size int) query {
	if size <= 0 {
		size = core.DefaultPageSize
	}
	url.Values(q).Set("page", strconv.Itoa(page))
	url.Values(q).Set("size", strconv.Itoa(size))
	return q
}

func (q query) values() url.Values {
	return url.Values(q)
}

func newQuery() query {
	return query(url.Values{})
}

func pathID(prefix, id string, rest ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
