// Package http provides the default transport of the SimplyRESTful client,
// built on go-retryablehttp with retries disabled.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/internal/uri"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Client performs HTTP exchanges for the SimplyRESTful client. Non-2xx
// responses are returned as responses, never as errors.
type Client struct {
	serverURL    string
	httpClient   *retryablehttp.Client
	logger       simplyrestful.Logger
	debug        bool
	userAgent    string
	interceptors *simplyrestful.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger simplyrestful.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent when the request has none.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithInterceptors runs chain around every exchange.
func WithInterceptors(chain *simplyrestful.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithSkipTLSVerify disables certificate verification.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}

		transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport)
		if !ok {
			return
		}

		transport = transport.Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for development servers
		c.httpClient.HTTPClient.Transport = transport
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a client that resolves relative URLs against serverURL.
// serverURL may be empty when only absolute URLs are used.
func NewClient(serverURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = noRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		serverURL:  strings.TrimSpace(serverURL),
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.debug && client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, nil
}

// Do performs req. The request interceptors may modify req before it is
// sent; the response interceptors see every outcome, including failures and
// requests a request interceptor rejected.
func (c *Client) Do(ctx context.Context, req *simplyrestful.Request) (*simplyrestful.Response, error) {
	if req.Headers == nil {
		req.Headers = make(http.Header)
	}

	if req.Headers.Get(constants.HeaderUserAgent) == "" && c.userAgent != "" {
		req.Headers.Set(constants.HeaderUserAgent, c.userAgent)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		rejected := &simplyrestful.Response{Error: err}
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, rejected)

		return nil, err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		failed := &simplyrestful.Response{Error: err}
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, failed)

		return nil, err
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, req *simplyrestful.Request) (*simplyrestful.Response, error) {
	target, err := c.resolve(req.URL)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, target, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &simplyrestful.Response{
		StatusCode: httpResp.StatusCode,
		Status:     reasonOf(httpResp),
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         target,
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
			"body_size":   len(respBody),
		})
	}

	return resp, nil
}

func (c *Client) resolve(target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", uri.ErrInvalidURI, target, err)
	}

	if parsed.IsAbs() {
		return target, nil
	}

	if c.serverURL == "" {
		return "", fmt.Errorf("%w: %s", simplyrestful.ErrRelativeURLWithoutBase, target)
	}

	return uri.Resolve(c.serverURL, target)
}

// reasonOf strips the status code from the status line, e.g. "404 Not Found"
// becomes "Not Found".
func reasonOf(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, target string, headers http.Header) (*simplyrestful.Response, error) {
	return c.Do(ctx, &simplyrestful.Request{Method: http.MethodGet, URL: target, Headers: headers})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, target string, body []byte, headers http.Header) (*simplyrestful.Response, error) {
	return c.Do(ctx, &simplyrestful.Request{Method: http.MethodPost, URL: target, Headers: headers, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, target string, body []byte, headers http.Header) (*simplyrestful.Response, error) {
	return c.Do(ctx, &simplyrestful.Request{Method: http.MethodPut, URL: target, Headers: headers, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, target string, headers http.Header) (*simplyrestful.Response, error) {
	return c.Do(ctx, &simplyrestful.Request{Method: http.MethodDelete, URL: target, Headers: headers})
}

// leveledLogger bridges retryablehttp's logging to simplyrestful.Logger.
type leveledLogger struct {
	logger simplyrestful.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
