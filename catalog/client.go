// Package catalog is the client for the remote catalog and order service.
//
// Every call carries the session's bearer token. A 401 triggers one token
// refresh and one replay of the same request; a second 401 clears the stored
// tokens and surfaces an unauthorized error.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/json"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/tokenstore"
)

const (
	// TraceIDHeader forwards the inbound trace id to the remote service.
	TraceIDHeader = "X-Trace-ID"

	maxResponseBytes = 32 << 20

	refreshPath = "/auth/token/refresh/"
)

// TokenSource supplies and updates the bearer tokens of one studio session.
// *tokenstore.Bound satisfies it.
type TokenSource interface {
	Tokens(ctx context.Context) (tokenstore.Tokens, error)
	SetTokens(ctx context.Context, t tokenstore.Tokens) error
	ClearTokens(ctx context.Context) error
}

// Observer receives request outcomes. Status is 0 when no response arrived.
type Observer interface {
	ObserveRequest(method string, status int, took time.Duration)
	ObserveRefresh(ok bool)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Observer   Observer
	Logger     logging.Logger
}

type Client struct {
	baseURL    string
	origin     string
	userAgent  string
	httpClient *http.Client
	observer   Observer
	logger     logging.Logger
	tokens     TokenSource
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperrors.NewRequired("base URL")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, apperrors.NewInvalid("base URL", cfg.BaseURL, err.Error())
	}
	origin, ok := editor.Origin(cfg.BaseURL)
	if !ok {
		return nil, apperrors.NewInvalid("base URL", cfg.BaseURL, "not an absolute URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		origin:     origin,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		observer:   cfg.Observer,
		logger:     logger.Named("catalog"),
	}, nil
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// body is an encoded request body that can be replayed.
type body struct {
	data        []byte
	contentType string
}

func jsonBody(v any) (*body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.NewInternal("encode request").WithInnerError(err)
	}
	return &body{data: data, contentType: "application/json"}, nil
}

// call sends one request, refreshing and replaying once on 401, and decodes a
// JSON response into out when out is non-nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, b *body, out any) error {
	status, respBody, err := c.send(ctx, method, path, query, b)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.tokens != nil && path != refreshPath {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, path, query, b)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.clearTokens(ctx)
			return apperrors.NewUnauthorized("session expired, please log in again").
				WithDetail("detail", serverDetail(respBody))
		}
	}

	if err := statusError(status, respBody); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewExternal("unexpected response from catalog service").WithInnerError(err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, b *body) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if b != nil {
		reader = bytes.NewReader(b.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, apperrors.NewInternal("create request").WithInnerError(err)
	}
	if b != nil {
		req.Header.Set("Content-Type", b.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if traceID := logging.GetTraceID(ctx); traceID != "" {
		req.Header.Set(TraceIDHeader, traceID)
	}
	if c.tokens != nil {
		t, err := c.tokens.Tokens(ctx)
		if err != nil {
			return 0, nil, apperrors.NewInternal("load tokens").WithInnerError(err)
		}
		if t.Access != "" {
			req.Header.Set("Authorization", "Bearer "+t.Access)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(start)
	if err != nil {
		c.observe(method, 0, took)
		c.logger.Warn("catalog request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(method, resp.StatusCode, took)
	if err != nil {
		return 0, nil, apperrors.NewExternal("read catalog response").WithInnerError(err)
	}

	c.logger.Debug("catalog request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", took),
	)
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh token for a new access token. Without a
// refresh token, or when the exchange fails, the session is logged out.
func (c *Client) refresh(ctx context.Context) error {
	t, err := c.tokens.Tokens(ctx)
	if err != nil {
		return apperrors.NewInternal("load tokens").WithInnerError(err)
	}
	if t.Refresh == "" {
		c.clearTokens(ctx)
		return apperrors.NewUnauthorized("login required")
	}

	b, err := jsonBody(map[string]string{"refresh": t.Refresh})
	if err != nil {
		return err
	}
	// The refresh call itself carries no bearer token.
	anon := c.WithTokens(nil)
	var pair TokenPair
	err = anon.call(ctx, http.MethodPost, refreshPath, nil, b, &pair)
	if err != nil && !rejected(err) {
		// Transport or server failure: keep the tokens for a later retry.
		c.observeRefresh(false)
		return err
	}
	if err != nil || pair.Access == "" {
		c.observeRefresh(false)
		c.clearTokens(ctx)
		return apperrors.NewUnauthorized("session expired, please log in again")
	}
	c.observeRefresh(true)

	if pair.Refresh == "" {
		pair.Refresh = t.Refresh
	}
	if err := c.tokens.SetTokens(ctx, pair.tokens(time.Now())); err != nil {
		return apperrors.NewInternal("save tokens").WithInnerError(err)
	}
	return nil
}

func (c *Client) clearTokens(ctx context.Context) {
	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.logger.Warn("clear tokens failed", zap.Error(err))
	}
}

func (c *Client) observe(method string, status int, took time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, took)
	}
}

func (c *Client) observeRefresh(ok bool) {
	if c.observer != nil {
		c.observer.ObserveRefresh(ok)
	}
}

func transportError(ctx context.Context, err error) error {
	var netErr interface{ Timeout() bool }
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeout("catalog service did not respond in time").WithInnerError(err)
	}
	return apperrors.NewExternal("catalog service unreachable").WithInnerError(err)
}

// statusError maps a non-2xx status to an AppError.
func statusError(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	detail := serverDetail(body)

	switch status {
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorized("login required").WithDetail("detail", detail)
	case http.StatusForbidden:
		msg := "you do not have permission to perform this action"
		if detail != "" {
			msg = detail
		}
		return apperrors.NewForbidden(msg)
	}

	msg := "catalog request failed"
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return apperrors.NewExternal(msg).
		WithDetail("status", status).
		WithDetail("detail", detail)
}

// rejected reports whether the service answered with a 4xx.
func rejected(err error) bool {
	if apperrors.IsType(err, apperrors.ErrorTypeUnauthorized) || apperrors.IsType(err, apperrors.ErrorTypeForbidden) {
		return true
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	status, ok := appErr.Details["status"].(int)
	return ok && status >= 400 && status < 500
}

// serverDetail extracts the human-readable message from an error body.
func serverDetail(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		v := json.Get(body, key)
		if s := strings.TrimSpace(v.ToString()); s != "" && v.LastError() == nil {
			return s
		}
	}
	return ""
}
