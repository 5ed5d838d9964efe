package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Route is a canned response for one "METHOD url" pair.
type Route struct {
	Status  int
	Headers http.Header
	Body    string
}

// Transport is a scripted simplyrestful.Transport that records every request.
// Unknown requests get a 404.
type Transport struct {
	mu       sync.Mutex
	routes   map[string]Route
	requests []*simplyrestful.Request
}

// NewTransport creates an empty scripted transport.
func NewTransport() *Transport {
	return &Transport{routes: make(map[string]Route)}
}

// Handle registers the response for method and url.
func (t *Transport) Handle(method, url string, route Route) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.routes[method+" "+url] = route

	return t
}

// Do implements simplyrestful.Transport.
func (t *Transport) Do(ctx context.Context, req *simplyrestful.Request) (*simplyrestful.Response, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = append(t.requests, req)

	route, ok := t.routes[req.Method+" "+req.URL]
	if !ok {
		return &simplyrestful.Response{
			StatusCode: http.StatusNotFound,
			Status:     http.StatusText(http.StatusNotFound),
			Headers:    make(http.Header),
			Body:       []byte("no route for " + req.Method + " " + req.URL),
		}, nil
	}

	headers := route.Headers
	if headers == nil {
		headers = make(http.Header)
	}

	return &simplyrestful.Response{
		StatusCode: route.Status,
		Status:     http.StatusText(route.Status),
		Headers:    headers,
		Body:       []byte(route.Body),
	}, nil
}

// Requests returns the requests received so far.
func (t *Transport) Requests() []*simplyrestful.Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]*simplyrestful.Request(nil), t.requests...)
}

// Calls returns "METHOD url" of every request received so far.
func (t *Transport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	calls := make([]string, 0, len(t.requests))
	for _, req := range t.requests {
		calls = append(calls, req.Method+" "+req.URL)
	}

	return calls
}
