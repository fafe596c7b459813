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
	"strings"
	"sync"
	"time"

	"github.com/killallgit/compass/pkg/auth"
	"github.com/killallgit/compass/pkg/logger"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	chatPath     = "/agents/chat"
	streamPath   = "/api/v1/agents/memory-chat/stream"
	sessionsPath = "/agents/sessions"
	loginPath    = "/auth/login"
	refreshPath  = "/auth/refresh"
	logoutPath   = "/auth/logout"
	healthPath   = "/health"
)

// Client talks to the dashboard backend. Requests carry the stored bearer
// token; a 401 triggers one token refresh and a single retry.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client

	// set by options, resolved in NewClient
	base    *http.Client
	timeout time.Duration

	tokens       auth.TokenStore
	refreshMu    sync.Mutex
	log          *logger.ComponentLogger
}

type Option func(*Client)

// WithHTTPClient sets the client whose transport both regular calls and
// streams use. hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.base = hc
	}
}

// WithTimeout bounds regular calls. Streams are bounded by their context
// only.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTokenStore(store auth.TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		tokens:  auth.NewMemoryStore(auth.Tokens{}),
		log:     logger.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.base
	if base == nil {
		base = &http.Client{}
	}
	regular, streaming := *base, *base
	regular.Timeout = c.timeout
	streaming.Timeout = 0
	c.httpClient, c.streamClient = &regular, &streaming
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a request/response agent call.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.doJSON(ctx, "chat", http.MethodPost, chatPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenStream starts a streaming agent call and returns the event stream body.
// The caller must close it.
func (c *Client) OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	resp, err := c.do(ctx, "open stream", c.streamClient, http.MethodPost, streamPath, req, "text/event-stream")
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, &TransportError{Op: "open stream", Message: "no response body for streaming"}
	}
	return resp.Body, nil
}

// ClearSession drops the backend's memory of a conversation.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	path := sessionsPath + "/" + url.PathEscape(sessionID)
	return c.doJSON(ctx, "clear session", http.MethodDelete, path, nil, nil)
}

func (c *Client) SessionStats(ctx context.Context) (*SessionStats, error) {
	var stats SessionStats
	if err := c.doJSON(ctx, "session stats", http.MethodGet, sessionsPath+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Login exchanges credentials for tokens and stores them.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.doJSON(ctx, "login", http.MethodPost, loginPath, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &TransportError{Op: "login", Message: "no access token in response"}
	}
	if err := c.tokens.Save(auth.Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Email:        email,
	}); err != nil {
		return nil, err
	}
	c.log.Info("logged in", "email", email)
	return &resp, nil
}

// Refresh trades the stored refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Client) refreshLocked(ctx context.Context) error {
	current, err := c.tokens.Load()
	if err != nil || current.RefreshToken == "" {
		return ErrNotAuthenticated
	}

	var resp TokenResponse
	if err := c.send(ctx, "refresh", c.httpClient, http.MethodPost, refreshPath,
		RefreshRequest{RefreshToken: current.RefreshToken}, "application/json", &resp); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return &TransportError{Op: "refresh", Message: "no access token in response"}
	}
	next := auth.Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Email:        current.Email,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return c.tokens.Save(next)
}

// Logout tells the backend to revoke the session and always removes the
// stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, "logout", http.MethodPost, logoutPath, nil, nil)
	if clearErr := c.tokens.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, "health", http.MethodGet, healthPath, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, op, c.httpClient, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(op, resp, out)
}

// do sends a request and, on 401, refreshes the tokens and retries once. Any
// non-2xx response is turned into a TransportError.
func (c *Client) do(ctx context.Context, op string, hc *http.Client, method, path string, body interface{}, accept string) (*http.Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	resp, err := c.roundTrip(ctx, op, hc, method, path, payload, accept)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if refreshErr := c.refreshAfter401(ctx); refreshErr != nil {
			c.log.Warn("token refresh failed", "op", op, "error", refreshErr)
			return nil, &TransportError{Op: op, Status: http.StatusUnauthorized, Err: refreshErr}
		}
		resp, err = c.roundTrip(ctx, op, hc, method, path, payload, accept)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drain(resp)
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Message: readErrorMessage(resp)}
	}
	return resp, nil
}

// refreshAfter401 refreshes the tokens unless there are none to refresh, in
// which case the stored credentials are dropped.
func (c *Client) refreshAfter401(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	err := c.refreshLocked(ctx)
	if err != nil {
		if clearErr := c.tokens.Clear(); clearErr != nil {
			c.log.Warn("failed to clear credentials", "error", clearErr)
		}
	}
	return err
}

// send performs a single request without the refresh logic. It is used for
// the refresh call itself.
func (c *Client) send(ctx context.Context, op string, hc *http.Client, method, path string, body interface{}, accept string, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}
	resp, err := c.roundTrip(ctx, op, hc, method, path, payload, accept)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, Status: resp.StatusCode, Message: readErrorMessage(resp)}
	}
	return decodeBody(op, resp, out)
}

func (c *Client) roundTrip(ctx context.Context, op string, hc *http.Client, method, path string, payload []byte, accept string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	if tokens, err := c.tokens.Load(); err == nil && tokens.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	}

	c.log.Debug("request", "op", op, "method", method, "path", path)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Message: "request failed", Err: err}
	}
	return resp, nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

func decodeBody(op string, resp *http.Response, out interface{}) error {
	if out == nil {
		drain(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransportError{Op: op, Message: "failed to decode response", Err: err}
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		return body.text()
	}
	return strings.TrimSpace(string(data))
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}
