package client_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/simplyrestful-client/internal/client"
	"github.com/fivetwenty-io/simplyrestful-client/internal/testutil"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

const (
	testMediaType      = "application/x.testresource-v1+json"
	testDescriptionURL = "http://localhost/openapi.json"
	testDescription    = `{
		"openapi": "3.0.1",
		"paths": {
			"/unrelated/{id}": {"get": {"responses": {"200": {"content": {"application/json": {}}}}}},
			"/discoveredtestresources/{id}": {"get": {"responses": {"200": {"content": {"application/x.testresource-v1+json": {}}}}}}
		}
	}`
	testServiceDocument = `{"describedBy": {"href": "http://localhost/openapi.json"}}`
)

type testResource struct {
	simplyrestful.Resource
	Name string `json:"name"`
}

func discoverableTransport(serviceURL string) *testutil.Transport {
	return testutil.NewTransport().
		Handle(http.MethodGet, serviceURL, testutil.Route{Status: http.StatusOK, Body: testServiceDocument}).
		Handle(http.MethodGet, testDescriptionURL, testutil.Route{Status: http.StatusOK, Body: testDescription})
}

func TestDiscoverAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		baseURI    string
		serviceURL string
		expected   string
	}{
		{
			name:       "absolute base",
			baseURI:    "http://localhost/",
			serviceURL: "http://localhost/",
			expected:   "http://localhost/discoveredtestresources/{id}",
		},
		{
			name:       "empty base",
			baseURI:    "",
			serviceURL: "/",
			expected:   "/discoveredtestresources/{id}",
		},
		{
			name:       "absolute base with path",
			baseURI:    "http://localhost/some/base/path/",
			serviceURL: "http://localhost/some/base/path/",
			expected:   "http://localhost/some/base/path/discoveredtestresources/{id}",
		},
		{
			name:       "relative base with path",
			baseURI:    "some/base/path/",
			serviceURL: "/some/base/path/",
			expected:   "/some/base/path/discoveredtestresources/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := discoverableTransport(tt.serviceURL)
			c := client.New[*testResource](transport, tt.baseURI, testMediaType, nil)

			err := c.DiscoverAPI(context.Background(), nil)
			require.NoError(t, err)

			template, ok := c.ResourceURITemplate()
			require.True(t, ok)
			assert.Equal(t, tt.expected, template)
			assert.Equal(t, []string{"GET " + tt.serviceURL, "GET " + testDescriptionURL}, transport.Calls())
		})
	}
}

func TestDiscoverAPI_Idempotent(t *testing.T) {
	t.Parallel()

	transport := discoverableTransport("http://localhost/")
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))
	require.Len(t, transport.Calls(), 2)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))
	assert.Len(t, transport.Calls(), 2)
}

func TestDiscoverAPI_ForwardsHeaders(t *testing.T) {
	t.Parallel()

	transport := discoverableTransport("http://localhost/")
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	headers := http.Header{"Authorization": {"Bearer token"}}
	require.NoError(t, c.DiscoverAPI(context.Background(), headers))

	for _, req := range transport.Requests() {
		assert.Equal(t, "Bearer token", req.Headers.Get("Authorization"))
	}
}

func TestDiscoverAPI_ManualTemplate(t *testing.T) {
	t.Parallel()

	transport := testutil.NewTransport()
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)
	c.SetResourceURITemplate("http://localhost/testresources/{id}")

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))
	assert.Empty(t, transport.Calls())

	template, ok := c.ResourceURITemplate()
	require.True(t, ok)
	assert.Equal(t, "http://localhost/testresources/{id}", template)
}

func TestDiscoverAPI_EmptyManualTemplate(t *testing.T) {
	t.Parallel()

	transport := discoverableTransport("http://localhost/")
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	c.SetResourceURITemplate("http://localhost/testresources/{id}")
	c.SetResourceURITemplate("")

	_, ok := c.ResourceURITemplate()
	require.False(t, ok)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))
	assert.Len(t, transport.Calls(), 2)

	template, ok := c.ResourceURITemplate()
	require.True(t, ok)
	assert.Equal(t, "http://localhost/discoveredtestresources/{id}", template)
}

func TestDiscoverAPI_OnlyErrorResponses(t *testing.T) {
	t.Parallel()

	transport := testutil.NewTransport().
		Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusOK, Body: testServiceDocument}).
		Handle(http.MethodGet, testDescriptionURL, testutil.Route{Status: http.StatusOK, Body: `{"paths": {
			"/discoveredtestresources/{id}": {"get": {"responses": {"404": {"content": {"application/x.testresource-v1+json": {}}}}}}
		}}`})
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))

	_, ok := c.ResourceURITemplate()
	assert.False(t, ok)

	_, err := c.List(context.Background(), nil)
	require.ErrorIs(t, err, simplyrestful.ErrTemplateUnresolved)

	_, err = c.ReadWithUUID(context.Background(), "x", nil)
	require.ErrorIs(t, err, simplyrestful.ErrTemplateUnresolved)
}

func TestDiscoverAPI_OrderSensitive(t *testing.T) {
	t.Parallel()

	transport := testutil.NewTransport().
		Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusOK, Body: testServiceDocument}).
		Handle(http.MethodGet, testDescriptionURL, testutil.Route{Status: http.StatusOK, Body: `{"paths": {
			"/second/{id}": {"get": {"responses": {"default": {"content": {"application/x.testresource-v1+json": {}}}}}},
			"/first/{id}": {"get": {"responses": {"200": {"content": {"application/x.testresource-v1+json": {}}}}}}
		}}`})
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))

	template, ok := c.ResourceURITemplate()
	require.True(t, ok)
	assert.Equal(t, "http://localhost/second/{id}", template)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDiscoverAPI_Failures(t *testing.T) {
	t.Parallel()

	t.Run("service document unavailable", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusServiceUnavailable, Body: "maintenance"})
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.DiscoverAPI(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, simplyrestful.ErrServiceUnavailable)
		assert.ErrorIs(t, err, simplyrestful.ErrServerError)
		assert.ErrorIs(t, err, simplyrestful.ErrServiceDocumentUnavailable)
		assert.Contains(t, err.Error(), "http://localhost/")
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "maintenance")
		assert.Len(t, transport.Calls(), 1)
	})

	t.Run("missing describedBy", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusOK, Body: `{}`})
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.DiscoverAPI(context.Background(), nil)
		require.ErrorIs(t, err, simplyrestful.ErrNoAPIDescription)
		assert.Len(t, transport.Calls(), 1)
	})

	t.Run("service document is not JSON", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusOK, Body: `<html></html>`})
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.DiscoverAPI(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service document")
	})

	t.Run("description unavailable", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/", testutil.Route{Status: http.StatusOK, Body: testServiceDocument})
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.DiscoverAPI(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, simplyrestful.ErrNotFound)
		assert.ErrorIs(t, err, simplyrestful.ErrAPIDescriptionUnavailable)
		assert.Contains(t, err.Error(), testDescriptionURL)

		var webErr *simplyrestful.WebApplicationError
		require.True(t, errors.As(err, &webErr))
		assert.Equal(t, http.StatusNotFound, webErr.Status)
		assert.NotNil(t, webErr.Response)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		errOffline := errors.New("offline")
		transport := simplyrestful.TransportFunc(func(ctx context.Context, req *simplyrestful.Request) (*simplyrestful.Response, error) {
			return nil, errOffline
		})
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.DiscoverAPI(context.Background(), nil)
		require.ErrorIs(t, err, errOffline)
	})
}

func TestDiscoverAPI_RelativeDescriptionLink(t *testing.T) {
	t.Parallel()

	transport := testutil.NewTransport().
		Handle(http.MethodGet, "http://localhost/api/", testutil.Route{Status: http.StatusOK, Body: `{"describedBy": {"href": "openapi.json"}}`}).
		Handle(http.MethodGet, "http://localhost/api/openapi.json", testutil.Route{Status: http.StatusOK, Body: testDescription})
	c := client.New[*testResource](transport, "http://localhost/api/", testMediaType, nil)

	require.NoError(t, c.DiscoverAPI(context.Background(), nil))

	template, ok := c.ResourceURITemplate()
	require.True(t, ok)
	assert.Equal(t, "http://localhost/api/discoveredtestresources/{id}", template)
}
