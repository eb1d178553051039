package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
	"github.com/noah-isme/bus-console-api/pkg/middleware/requestid"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
)

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(method, endpoint, outcome string, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	DefaultRole models.ConsoleRole
	HTTPClient  *http.Client
	Manager     *RequestManager
	Observer    Observer
	Logger      *zap.Logger
}

// Client calls the platform REST backend under /{role}/... . Every call is attempted once.
type Client struct {
	baseURL     string
	timeout     time.Duration
	defaultRole models.ConsoleRole
	http        *http.Client
	manager     *RequestManager
	observer    Observer
	logger      *zap.Logger
}

// Request describes one upstream call. Path is relative to the role namespace, e.g. "/schedules".
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// NewClient builds a Client. A nil manager gets a private one.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = models.RoleOperator
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if opts.Manager == nil {
		opts.Manager = NewRequestManager()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		timeout:     opts.Timeout,
		defaultRole: opts.DefaultRole,
		http:        opts.HTTPClient,
		manager:     opts.Manager,
		observer:    opts.Observer,
		logger:      opts.Logger,
	}
}

// Manager exposes the request manager so callers can cancel in-flight calls.
func (c *Client) Manager() *RequestManager {
	return c.manager
}

// Do performs the call and decodes a successful body into dest (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, dest interface{}) error {
	raw, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, "UPSTREAM_DECODE_ERROR", http.StatusBadGateway, "unexpected response from server")
	}
	return nil
}

// DoRaw performs the call and returns the undecoded body of a successful response.
func (c *Client) DoRaw(ctx context.Context, req Request) ([]byte, error) {
	role := c.defaultRole
	if r, ok := RoleFrom(ctx); ok {
		role = r
	}
	endpoint := "/" + string(role) + "/" + strings.TrimLeft(req.Path, "/")
	target := c.baseURL + endpoint
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	key := RequestKey{Scope: ScopeFrom(ctx), Method: req.Method, URL: target}
	managed, done := c.manager.Start(ctx, key)
	defer done()
	reqCtx, cancel := context.WithTimeout(managed, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := AuthTokenFrom(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		httpReq.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		appErr := classifyTransport(reqCtx, ctx, err)
		c.observe(req.Method, req.Path, appErr.Code, start)
		if appErr.Code != appErrors.ErrRequestCancelled.Code {
			c.logger.Warn("upstream call failed",
				zap.String("method", req.Method),
				zap.String("endpoint", endpoint),
				zap.String("code", appErr.Code),
				zap.Error(err))
		}
		return nil, appErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		appErr := classifyTransport(reqCtx, ctx, err)
		c.observe(req.Method, req.Path, appErr.Code, start)
		return nil, appErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := classifyStatus(resp.StatusCode, raw)
		c.observe(req.Method, req.Path, fmt.Sprintf("%d", resp.StatusCode), start)
		c.logger.Info("upstream rejected request",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", appErr.Message))
		return nil, appErr
	}

	c.observe(req.Method, req.Path, "ok", start)
	return raw, nil
}

func (c *Client) observe(method, path, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, endpointLabel(path), outcome, time.Since(start))
}

// endpointLabel collapses ids so metric cardinality stays bounded: /schedules/42/x -> /schedules/:id/x.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if i == 0 || part == "" {
			continue
		}
		if isStaticSegment(part) {
			continue
		}
		parts[i] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}

func isStaticSegment(segment string) bool {
	switch segment {
	case "current", "emergency-cancel":
		return true
	}
	return false
}

// FetchList calls a list endpoint and decodes it whatever shape the backend used.
func FetchList[T any](ctx context.Context, c *Client, req Request, key string) ([]T, error) {
	raw, err := c.DoRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if err := json.Unmarshal(UnwrapList(raw, key), &items); err != nil {
		return nil, appErrors.Wrap(err, "UPSTREAM_DECODE_ERROR", http.StatusBadGateway, fmt.Sprintf("unexpected %s response from server", key))
	}
	return items, nil
}

// FetchListOr behaves like FetchList but returns fallback when the call was cancelled.
func FetchListOr[T any](ctx context.Context, c *Client, req Request, key string, fallback []T) ([]T, error) {
	items, err := FetchList[T](ctx, c, req, key)
	if err != nil {
		if appErrors.IsCancelled(err) {
			return fallback, nil
		}
		return nil, err
	}
	return items, nil
}
