package simplyrestful

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	// ErrCircuitBreakerOpen is returned by the circuit breaker interceptor
	// while the circuit is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	// ErrRequestRejected wraps the error of a request interceptor that
	// stopped a request before it was sent.
	ErrRequestRejected = errors.New("request rejected")
)

// RequestInterceptor is called before a request is sent. Returning an error
// aborts the exchange.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called once the exchange is over. It is also called
// when the exchange failed, with resp.Error set, and when a request
// interceptor rejected the request, with resp.Error wrapping
// ErrRequestRejected.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds the interceptors run by the default transport, in
// the order they were added. A nil chain runs nothing.
type InterceptorChain struct {
	onRequest  []RequestInterceptor
	onResponse []ResponseInterceptor
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.onRequest = append(c.onRequest, interceptor)
}

// AddResponseInterceptor appends a response interceptor.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.onResponse = append(c.onResponse, interceptor)
}

// ExecuteRequestInterceptors runs the request interceptors until one fails.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.onRequest {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("%w by interceptor %d, %s %s: %w", ErrRequestRejected, i, req.Method, req.URL, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs the response interceptors until one fails.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.onResponse {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor %d rejected %s %s: %w", i, req.Method, req.URL, err)
		}
	}

	return nil
}

// LoggingInterceptor logs each outgoing request at debug level, along with
// the media type it asks for or sends.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		}

		if accept := req.Headers.Get(constants.HeaderAccept); accept != "" {
			fields["accept"] = accept
		}

		if len(req.Body) > 0 {
			fields["content_type"] = req.Headers.Get(constants.HeaderContentType)
			fields["body_bytes"] = len(req.Body)
		}

		logger.Debug("sending request", fields)

		return nil
	}
}

// LoggingResponseInterceptor logs each exchange once it is over. Transport
// failures are logged as errors; any status, even an error status, is logged
// at debug level since the client classifies it.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		}

		if started, ok := req.Metadata[constants.MetadataStartTime].(time.Time); ok {
			fields["duration"] = time.Since(started).String()
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("request failed", fields)

			return nil
		}

		fields["status"] = resp.StatusCode
		fields["content_type"] = resp.Header(constants.HeaderContentType)
		fields["body_bytes"] = len(resp.Body)

		if location := resp.Header("Location"); location != "" {
			fields["location"] = location
		}

		logger.Debug("received response", fields)

		return nil
	}
}

// HeaderInterceptor sets the given headers on every request, replacing any
// values the request already carries for them. Use it for credentials, which
// the client itself never adds.
func HeaderInterceptor(headers http.Header) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header, len(headers))
		}

		for name, values := range headers {
			req.Headers[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}

		return nil
	}
}

// Metrics holds the counters of one endpoint. An exchange fails when the
// transport fails or the status is outside the 2xx range. Requests stopped
// by a request interceptor are only counted as rejections.
type Metrics struct {
	Requests        int64
	Rejections      int64
	Failures        int64
	Redirections    int64
	ClientErrors    int64
	ServerErrors    int64
	TransportErrors int64
	LastStatus      int
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

func (m *Metrics) observe(resp *Response, latency time.Duration) {
	if errors.Is(resp.Error, ErrRequestRejected) {
		m.Rejections++

		return
	}

	m.Requests++
	m.LastRequestTime = time.Now()

	if latency > 0 {
		m.TotalLatency += latency
		m.AverageLatency = m.TotalLatency / time.Duration(m.Requests)
	}

	if resp.Error != nil {
		m.TransportErrors++
		m.Failures++

		return
	}

	m.LastStatus = resp.StatusCode

	switch FamilyOf(resp.StatusCode) {
	case FamilyRedirection:
		m.Redirections++
	case FamilyClient:
		m.ClientErrors++
	case FamilyServer:
		m.ServerErrors++
	default:
		if resp.IsSuccess() {
			return
		}
	}

	m.Failures++
}

// MetricsCollector aggregates Metrics per endpoint. An endpoint is the method
// and the URL without its query, so every page of a collection counts
// towards the same endpoint.
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange registers a callback receiving a snapshot after every exchange.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot of the metrics of an endpoint, or nil.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		return nil
	}

	snapshot := *metrics

	return &snapshot
}

// Endpoints returns the endpoints seen so far, sorted.
func (m *MetricsCollector) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	endpoints := make([]string, 0, len(m.metrics))
	for endpoint := range m.metrics {
		endpoints = append(endpoints, endpoint)
	}

	sort.Strings(endpoints)

	return endpoints
}

func (m *MetricsCollector) record(endpoint string, resp *Response, latency time.Duration) {
	m.mu.Lock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	metrics.observe(resp, latency)

	snapshot := *metrics
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

// Endpoint returns the key a MetricsCollector files a request under.
func Endpoint(req *Request) string {
	target, _, _ := strings.Cut(req.URL, "?")

	return req.Method + " " + target
}

// MetricsRequestInterceptor stamps the request with its start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[constants.MetadataStartTime] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records the outcome of the exchange. Requests
// without a start time are counted without latency.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		var latency time.Duration

		if started, ok := req.Metadata[constants.MetadataStartTime].(time.Time); ok {
			latency = time.Since(started)
		}

		collector.record(Endpoint(req), resp, latency)

		return nil
	}
}

// CircuitState is the state of a CircuitBreaker.
type CircuitState string

// Circuit states.
const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration
	// SuccessThreshold is the number of trial successes that closes it again.
	SuccessThreshold int
}

// CircuitBreaker stops sending requests to an API that keeps failing. Only
// transport failures and 5xx statuses count: a 4xx says the request was
// wrong, not that the API is down. It rejects requests; it never retries them.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      CircuitBreakerConfig
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. A nil config uses the
// defaults.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	breaker := &CircuitBreaker{
		config: CircuitBreakerConfig{
			Threshold:        constants.CircuitBreakerThreshold,
			Timeout:          constants.CircuitBreakerTimeout,
			SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
		},
		state: CircuitClosed,
	}

	if config != nil {
		breaker.config = *config
	}

	return breaker
}

// State returns the current state.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Allow reports whether a request may be sent. Once the timeout has passed
// an open circuit turns half-open and lets trial requests through.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitOpen {
		return nil
	}

	if time.Since(b.lastFailure) <= b.config.Timeout {
		return ErrCircuitBreakerOpen
	}

	b.state = CircuitHalfOpen
	b.successes = 0

	return nil
}

// Record updates the state with the outcome of an exchange. Rejected
// requests never reached the API and are ignored.
func (b *CircuitBreaker) Record(resp *Response) {
	if errors.Is(resp.Error, ErrRequestRejected) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if resp.Error != nil || FamilyOf(resp.StatusCode) == FamilyServer {
		b.failures++
		b.lastFailure = time.Now()

		if b.state == CircuitHalfOpen || b.failures >= b.config.Threshold {
			b.state = CircuitOpen
		}

		return
	}

	if b.state == CircuitHalfOpen {
		b.successes++
		if b.successes < b.config.SuccessThreshold {
			return
		}

		b.state = CircuitClosed
	}

	b.failures = 0
}

// CircuitBreakerRequestInterceptor rejects requests while the circuit is open.
func CircuitBreakerRequestInterceptor(breaker *CircuitBreaker) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		return breaker.Allow()
	}
}

// CircuitBreakerResponseInterceptor feeds every outcome to the breaker.
func CircuitBreakerResponseInterceptor(breaker *CircuitBreaker) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		breaker.Record(resp)

		return nil
	}
}
