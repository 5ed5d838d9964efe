package simplyrestful

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
)

const tracerName = "github.com/fivetwenty-io/simplyrestful-client"

// Span attribute keys.
const (
	AttrHTTPMethod     = "http.request.method"
	AttrHTTPURL        = "url.full"
	AttrHTTPStatusCode = "http.response.status_code"
)

// TracingInterceptors returns a request/response interceptor pair that wraps
// every exchange in a client span and propagates the trace context in the
// request headers. A nil provider uses the global one.
func TracingInterceptors(provider trace.TracerProvider) (RequestInterceptor, ResponseInterceptor) {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	tracer := provider.Tracer(tracerName)

	requestInterceptor := func(ctx context.Context, req *Request) error {
		spanCtx, span := tracer.Start(ctx, "HTTP "+req.Method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String(AttrHTTPMethod, req.Method),
				attribute.String(AttrHTTPURL, req.URL),
			),
		)

		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[constants.MetadataSpan] = span

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		otel.GetTextMapPropagator().Inject(spanCtx, propagation.HeaderCarrier(req.Headers))

		return nil
	}

	responseInterceptor := func(ctx context.Context, req *Request, resp *Response) error {
		span, ok := req.Metadata[constants.MetadataSpan].(trace.Span)
		if !ok {
			return nil
		}

		defer span.End()

		if resp.Error != nil {
			span.RecordError(resp.Error)
			span.SetStatus(codes.Error, resp.Error.Error())

			return nil
		}

		span.SetAttributes(attribute.Int(AttrHTTPStatusCode, resp.StatusCode))

		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}

		return nil
	}

	return requestInterceptor, responseInterceptor
}

// AddTracing registers the tracing interceptors on the chain.
func (c *InterceptorChain) AddTracing(provider trace.TracerProvider) *InterceptorChain {
	requestInterceptor, responseInterceptor := TracingInterceptors(provider)
	c.AddRequestInterceptor(requestInterceptor)
	c.AddResponseInterceptor(responseInterceptor)

	return c
}
