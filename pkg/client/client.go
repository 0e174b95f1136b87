package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Entry is a named balance.
type Entry struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("walletd: %d: %s", e.StatusCode, e.Message)
}

// Client is the walletd SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithToken attaches a previously issued session token to every request.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// New creates a Client for the server at base, e.g. "http://localhost:4000".
func New(base string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Token returns the session token currently held by the client.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// Register creates an account and stores the returned token on the client.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	in := map[string]string{"username": username, "email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/register", in, &resp); err != nil {
		return "", err
	}
	c.setToken(resp.Token)
	return resp.Token, nil
}

// Login exchanges a username and password for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/login", in, &resp); err != nil {
		return "", err
	}
	c.setToken(resp.Token)
	return resp.Token, nil
}

// ListEntries returns the caller's balances in order.
func (c *Client) ListEntries(ctx context.Context) ([]Entry, error) {
	out := []Entry{}
	if err := c.call(ctx, http.MethodGet, "/currencies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddEntry appends a balance. Currencies are not unique; adding one twice
// yields two entries.
func (c *Client) AddEntry(ctx context.Context, currency string, amount float64) error {
	return c.call(ctx, http.MethodPost, "/currencies", Entry{Currency: currency, Amount: amount}, nil)
}

// SetEntry overwrites the amount of the first entry for currency.
func (c *Client) SetEntry(ctx context.Context, currency string, amount float64) error {
	in := map[string]float64{"amount": amount}
	return c.call(ctx, http.MethodPut, "/currencies/"+url.PathEscape(currency), in, nil)
}

// RemoveEntries deletes every entry for currency.
func (c *Client) RemoveEntries(ctx context.Context, currency string) error {
	return c.call(ctx, http.MethodDelete, "/currencies/"+url.PathEscape(currency), nil, nil)
}

// call sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do executes an HTTP request, attaching the session token if present.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	return body, nil
}
