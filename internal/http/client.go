// Package http implements the wire transport for the invocation engine.
//
// The transport is deliberately thin: it serializes bodies, runs the
// interceptor chain, and re-dials on connection-level failures. It never
// interprets HTTP status codes; classification and service-level retry
// policy belong to the invocation engine.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// Request represents an outgoing wire request.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response represents a received wire response. Non-2xx responses are
// returned as responses, not errors.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is the shared transport of one connection. Safe for concurrent use.
type Client struct {
	httpClient   *retryablehttp.Client
	userAgent    string
	logger       exo.Logger
	debug        bool
	interceptors *exo.InterceptorChain
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets a logger for debug logging.
func WithLogger(logger exo.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging when a logger is present.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithInterceptors attaches an interceptor chain run around every request.
func WithInterceptors(chain *exo.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithTransport sets the underlying pooled HTTP client.
func WithTransport(transport *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = transport
	}
}

// WithTransportRetry tunes the connection-level retry policy.
func WithTransportRetry(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// NewClient creates a transport client.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.TransportRetryMax
	retryClient.RetryWaitMin = constants.TransportRetryWaitMin
	retryClient.RetryWaitMax = constants.TransportRetryWaitMax
	retryClient.Logger = nil

	// Only connection-level failures are retried here. Any response, whatever
	// its status, is handed to the caller for classification.
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		return err != nil, nil
	}

	client := &Client{
		httpClient: retryClient,
		userAgent:  constants.DefaultClientApplication,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do sends one request and reads the whole response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var (
		bodyBytes []byte
		err       error
	)

	if req.Body != nil {
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	target := req.URL
	if len(req.Query) > 0 {
		target = target + "?" + req.Query.Encode()
	}

	headers := make(http.Header)
	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		headers.Set("Content-Type", "application/json")
	}

	view := &exo.Request{
		Method:  req.Method,
		URL:     target,
		Headers: headers,
		Body:    bodyBytes,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, view)
		if err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
		})
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = view.Headers

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.notifyResponse(ctx, view, &exo.Response{Error: err})

		return nil, fmt.Errorf("sending request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	c.notifyResponse(ctx, view, &exo.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	})

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         target,
			"status_code": resp.StatusCode,
			"body_size":   len(resp.Body),
		})
	}

	return resp, nil
}

// notifyResponse runs response interceptors, reporting their failures to the
// logger instead of masking the transport outcome.
func (c *Client) notifyResponse(ctx context.Context, req *exo.Request, resp *exo.Response) {
	if c.interceptors == nil {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
