package simplyrestful

import (
	"context"
	"iter"
	"net/http"
	"time"
)

// Request is an HTTP request as seen by a Transport and by interceptors.
// URL may be relative; the transport decides what it is relative to.
type Request struct {
	Method   string
	URL      string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is a fully drained HTTP response.
type Response struct {
	StatusCode int
	// Status is the reason phrase sent by the server, e.g. "Not Found".
	Status  string
	Headers http.Header
	Body    []byte
	// Error is set when the exchange failed before a response was received.
	Error error
}

// Header returns the first value of the named response header.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}

	return r.Headers.Get(name)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs a single HTTP exchange. Implementations must not treat
// non-2xx statuses as errors; classification is up to the client.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// ResourceClient is a typed client for one SimplyRESTful resource type.
//
// Every operation discovers the API first if that has not happened yet.
// Discovery reads the service document at the base API URI, follows its
// describedBy link to the OpenAPI description and picks the first path whose
// GET operation returns the resource media type.
type ResourceClient[T APIResource] interface {
	// DiscoverAPI resolves the resource URI template. It is a no-op once the
	// template is known.
	DiscoverAPI(ctx context.Context, headers http.Header) error
	// SetResourceURITemplate sets the template manually, disabling discovery.
	// An empty template enables it again.
	SetResourceURITemplate(template string)
	// ResourceURITemplate returns the template and whether it is known.
	ResourceURITemplate() (string, bool)
	// TotalAmountOfLastRetrievedCollection returns the total declared by the
	// last collection retrieved, or UnknownTotal.
	TotalAmountOfLastRetrievedCollection() int64

	List(ctx context.Context, opts *ListOptions) ([]T, error)
	Stream(ctx context.Context, opts *ListOptions) iter.Seq2[T, error]
	Create(ctx context.Context, resource T, opts *RequestOptions) (string, error)
	Read(ctx context.Context, identifier string, opts *RequestOptions) (T, error)
	ReadWithUUID(ctx context.Context, id string, opts *RequestOptions) (T, error)
	Update(ctx context.Context, resource T, opts *RequestOptions) error
	Delete(ctx context.Context, identifier string, opts *RequestOptions) (bool, error)
	DeleteWithUUID(ctx context.Context, id string, opts *RequestOptions) (bool, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a ResourceClient.
//
// # Relative URIs
//
// BaseAPIURI may be relative (even empty). Relative URIs are kept relative in
// everything the client sends to the transport and returns to the caller, so
// the discovered template is relative too. The default transport resolves
// relative URIs against ServerURL; a custom Transport may resolve them however
// it likes.
type Config struct {
	// BaseAPIURI is the URI of the service document (the API root).
	BaseAPIURI string
	// ResourceMediaType is the media type of the resource, e.g.
	// "application/x.example-v1+json". Required.
	ResourceMediaType string
	// ResourceURITemplate optionally sets the template up front, which
	// disables discovery. It must contain the {id} placeholder.
	ResourceURITemplate string

	// ServerURL is the absolute URL relative URIs are resolved against by the
	// default transport.
	ServerURL string
	// Transport replaces the default HTTP transport. When set, HTTPTimeout,
	// UserAgent, Debug, Interceptors and SkipTLSVerify are ignored.
	Transport Transport

	// HTTPTimeout bounds each HTTP exchange of the default transport.
	// Per-call deadlines should be set on the context instead.
	HTTPTimeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger.
	Logger Logger
	// Interceptors run around every exchange of the default transport.
	Interceptors *InterceptorChain
	// SkipTLSVerify disables certificate verification. Development only.
	SkipTLSVerify bool
}
