// Package client talks to the menu server the way the web frontend does: a cookie-carrying
// HTTP client plus the auth state and route guard built on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/common/security"
	"restaurant_menu/internal/domain/model"
)

// ErrTransient marks failures that never reached the server or never got an answer.
var ErrTransient = errors.New("transient network error")

// TransientError wraps a transport failure. Timeout reports whether the request was
// cut off by its deadline.
type TransientError struct {
	Timeout bool
	Err     error
}

func (e *TransientError) Error() string {
	if e.Timeout {
		return "request timed out: " + e.Err.Error()
	}
	return "network error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() []error { return []error{ErrTransient, e.Err} }

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []common.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Role            string `json:"role"`
}

type LoginResult struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	IsAdmin bool        `json:"isAdmin"`
}

type VerifyResult struct {
	User    *model.User `json:"user"`
	IsAdmin bool        `json:"isAdmin"`
}

// Client is safe for concurrent use; the session cookie lives in its jar.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Jar is replaced if nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}

	c := &Client{baseURL: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// SessionToken returns the session cookie currently held for the server, if any.
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == security.SessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken seeds the jar, e.g. from a saved session.
func (c *Client) SetSessionToken(token string) {
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  security.SessionCookieName,
		Value: token,
		Path:  "/",
	}})
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodGet, "/api/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *Client) ListMenu(ctx context.Context) ([]model.MenuItem, error) {
	var items []model.MenuItem
	if err := c.do(ctx, http.MethodGet, "/api/uploads", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/uploads/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload common.ErrorResponse
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &TransientError{Timeout: timeout, Err: err}
}
