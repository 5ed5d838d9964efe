package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/simplyrestful-client/internal/client"
	"github.com/fivetwenty-io/simplyrestful-client/internal/testutil"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

const (
	testTemplate   = "http://localhost/testresources/{id}"
	testCollection = "http://localhost/testresources/"
)

func newTestClient(transport simplyrestful.Transport) *client.Client[*testResource] {
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)
	c.SetResourceURITemplate(testTemplate)

	return c
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_List(t *testing.T) {
	t.Parallel()

	t.Run("empty envelope", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusOK, Body: `{}`})
		c := newTestClient(transport)

		items, err := c.List(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)
		assert.Equal(t, int64(-1), c.TotalAmountOfLastRetrievedCollection())
	})

	t.Run("items and total", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusOK, Body: `{
				"total": 17,
				"item": [{"name": "a"}, {"name": "b"}, {"name": "c"}]
			}`})
		c := newTestClient(transport)

		items, err := c.List(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "a", items[0].Name)
		assert.Equal(t, "b", items[1].Name)
		assert.Equal(t, "c", items[2].Name)
		assert.Equal(t, int64(17), c.TotalAmountOfLastRetrievedCollection())
	})

	t.Run("non-numeric total", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusOK, Body: `{"total": "many", "item": []}`})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), c.TotalAmountOfLastRetrievedCollection())
	})

	t.Run("accept header and caller headers", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusOK, Body: `{}`})
		c := newTestClient(transport)

		headers := http.Header{"Authorization": {"Bearer token"}}

		_, err := c.List(context.Background(), &simplyrestful.ListOptions{Headers: headers})
		require.NoError(t, err)

		requests := transport.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, simplyrestful.MediaTypeCollectionV1JSON, requests[0].Headers.Get("Accept"))
		assert.Equal(t, "Bearer token", requests[0].Headers.Get("Authorization"))
		assert.Empty(t, headers.Get("Accept"), "caller headers must not be modified")
	})

	t.Run("zero paging values are omitted", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusOK, Body: `{}`})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), &simplyrestful.ListOptions{PageStart: 0, PageSize: 0})
		require.NoError(t, err)
		assert.Equal(t, []string{"GET " + testCollection}, transport.Calls())
	})

	t.Run("query parameters", func(t *testing.T) {
		t.Parallel()

		var received *url.URL

		transport := simplyrestful.TransportFunc(func(ctx context.Context, req *simplyrestful.Request) (*simplyrestful.Response, error) {
			parsed, err := url.Parse(req.URL)
			require.NoError(t, err)

			received = parsed

			return &simplyrestful.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
		})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), &simplyrestful.ListOptions{
			PageStart: 10,
			PageSize:  5,
			Fields:    []string{"name", "description"},
			Query:     "name==widget",
			Sort: []simplyrestful.SortOrder{
				{FieldName: "name", Ascending: true},
				{FieldName: "created", Ascending: false},
			},
			AdditionalQueryParameters: url.Values{"sort": {"extra:asc"}, "custom": {"1", "2"}},
		})
		require.NoError(t, err)
		require.NotNil(t, received)

		assert.Equal(t, "/testresources/", received.Path)
		assert.Equal(t, url.Values{
			"pageStart": {"10"},
			"pageSize":  {"5"},
			"fields":    {"name,description"},
			"query":     {"name==widget"},
			"sort":      {"name:asc,created:desc", "extra:asc"},
			"custom":    {"1", "2"},
		}, received.Query())
	})

	t.Run("relative template", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "/testresources/", testutil.Route{Status: http.StatusOK, Body: `{}`})
		c := client.New[*testResource](transport, "", testMediaType, nil)
		c.SetResourceURITemplate("/testresources/{id}")

		_, err := c.List(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"GET /testresources/"}, transport.Calls())
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusForbidden, Body: "denied"})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, simplyrestful.IsForbidden(err))
		assert.ErrorIs(t, err, simplyrestful.ErrListFailed)
		assert.Contains(t, err.Error(), testCollection)
		assert.Contains(t, err.Error(), "denied")
	})

	t.Run("redirect without location", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{Status: http.StatusFound})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), nil)
		require.ErrorIs(t, err, simplyrestful.ErrMissingRedirectLocation)
		assert.ErrorIs(t, err, simplyrestful.ErrListFailed)
	})

	t.Run("redirect with location", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, testCollection, testutil.Route{
				Status:  http.StatusMovedPermanently,
				Headers: http.Header{"Location": {"http://localhost/elsewhere/"}},
			})
		c := newTestClient(transport)

		_, err := c.List(context.Background(), nil)
		require.ErrorIs(t, err, simplyrestful.ErrRedirection)

		var webErr *simplyrestful.WebApplicationError
		require.True(t, errors.As(err, &webErr))
		assert.Equal(t, "http://localhost/elsewhere/", webErr.Location)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Create(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPost, testCollection, testutil.Route{
				Status:  http.StatusCreated,
				Headers: http.Header{"Location": {"http://localhost/testresources/abc"}},
			})
		c := newTestClient(transport)

		location, err := c.Create(context.Background(), &testResource{Name: "new"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/testresources/abc", location)

		requests := transport.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, testMediaType, requests[0].Headers.Get("Content-Type"))
		assert.JSONEq(t, `{"name": "new"}`, string(requests[0].Body))
	})

	t.Run("created without location", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPost, testCollection, testutil.Route{Status: http.StatusCreated})
		c := newTestClient(transport)

		_, err := c.Create(context.Background(), &testResource{Name: "new"}, nil)
		require.ErrorIs(t, err, simplyrestful.ErrCreatedWithoutLocation)
		assert.NotErrorIs(t, err, simplyrestful.ErrWebApplication)
	})

	t.Run("conflict", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPost, testCollection, testutil.Route{Status: http.StatusConflict, Body: "duplicate"})
		c := newTestClient(transport)

		_, err := c.Create(context.Background(), &testResource{Name: "new"}, nil)
		require.ErrorIs(t, err, simplyrestful.ErrClientError)
		assert.ErrorIs(t, err, simplyrestful.ErrCreateFailed)

		var webErr *simplyrestful.WebApplicationError
		require.True(t, errors.As(err, &webErr))
		assert.Equal(t, http.StatusConflict, webErr.Status)
		assert.Equal(t, "Conflict", webErr.Reason)
	})

	t.Run("success other than created", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPost, testCollection, testutil.Route{Status: http.StatusOK})
		c := newTestClient(transport)

		_, err := c.Create(context.Background(), &testResource{Name: "new"}, nil)
		require.ErrorIs(t, err, simplyrestful.ErrInvalidErrorStatus)
		assert.ErrorIs(t, err, simplyrestful.ErrCreateFailed)
	})

	t.Run("query replaces collection query", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPost, testCollection+"?dryRun=true", testutil.Route{
				Status:  http.StatusCreated,
				Headers: http.Header{"Location": {"/testresources/abc"}},
			})
		c := newTestClient(transport)

		location, err := c.Create(context.Background(), &testResource{Name: "new"},
			&simplyrestful.RequestOptions{Query: url.Values{"dryRun": {"true"}}})
		require.NoError(t, err)
		assert.Equal(t, "/testresources/abc", location)
	})
}

func TestClient_Read(t *testing.T) {
	t.Parallel()

	t.Run("read by URI", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/testresources/abc", testutil.Route{
				Status: http.StatusOK,
				Body:   `{"self": {"href": "http://localhost/testresources/abc"}, "name": "found"}`,
			})
		c := newTestClient(transport)

		resource, err := c.Read(context.Background(), "http://localhost/testresources/abc", nil)
		require.NoError(t, err)
		assert.Equal(t, "found", resource.Name)
		require.NotNil(t, resource.SelfLink())
		assert.Equal(t, "http://localhost/testresources/abc", resource.SelfLink().Href)

		requests := transport.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, testMediaType, requests[0].Headers.Get("Accept"))
	})

	t.Run("read with UUID", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "http://localhost/testresources/abc?fields=name", testutil.Route{
				Status: http.StatusOK,
				Body:   `{"name": "found"}`,
			})
		c := newTestClient(transport)

		resource, err := c.ReadWithUUID(context.Background(), "abc",
			&simplyrestful.RequestOptions{Query: url.Values{"fields": {"name"}}})
		require.NoError(t, err)
		assert.Equal(t, "found", resource.Name)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport()
		c := newTestClient(transport)

		_, err := c.Read(context.Background(), "http://localhost/testresources/missing", nil)
		require.Error(t, err)
		assert.True(t, simplyrestful.IsNotFound(err))
		assert.ErrorIs(t, err, simplyrestful.ErrReadFailed)
		assert.Contains(t, err.Error(), "http://localhost/testresources/missing")
	})

	t.Run("untyped document", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodGet, "/testresources/abc", testutil.Route{
				Status: http.StatusOK,
				Body:   `{"self": {"href": "/testresources/abc"}, "name": "doc"}`,
			})
		c := client.New[simplyrestful.Document](transport, "", testMediaType, nil)
		c.SetResourceURITemplate("/testresources/{id}")

		doc, err := c.ReadWithUUID(context.Background(), "abc", nil)
		require.NoError(t, err)
		assert.Equal(t, "doc", doc["name"])
		assert.Equal(t, "/testresources/abc", doc.SelfLink().Href)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Update(t *testing.T) {
	t.Parallel()

	self := &simplyrestful.Link{Href: "http://localhost/testresources/abc"}

	t.Run("updated", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPut, self.Href, testutil.Route{Status: http.StatusNoContent})
		c := newTestClient(transport)

		err := c.Update(context.Background(), &testResource{Resource: simplyrestful.Resource{Self: self}, Name: "changed"}, nil)
		require.NoError(t, err)

		requests := transport.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, testMediaType, requests[0].Headers.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(requests[0].Body, &body))
		assert.Equal(t, "changed", body["name"])
	})

	t.Run("missing self link", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport()
		c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

		err := c.Update(context.Background(), &testResource{Name: "orphan"}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, simplyrestful.ErrBadRequest)
		assert.ErrorIs(t, err, simplyrestful.ErrMissingSelfLink)
		assert.Empty(t, transport.Calls())
	})

	t.Run("nil resource", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport()
		c := newTestClient(transport)

		err := c.Update(context.Background(), nil, nil)
		require.ErrorIs(t, err, simplyrestful.ErrBadRequest)
		assert.Empty(t, transport.Calls())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPut, self.Href, testutil.Route{Status: http.StatusNotFound})
		c := newTestClient(transport)

		err := c.Update(context.Background(), &testResource{Resource: simplyrestful.Resource{Self: self}}, nil)
		require.ErrorIs(t, err, simplyrestful.ErrNotFound)
		assert.Contains(t, err.Error(), "could not be found")
		assert.Contains(t, err.Error(), self.Href)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodPut, self.Href, testutil.Route{Status: http.StatusInternalServerError, Body: "boom"})
		c := newTestClient(transport)

		err := c.Update(context.Background(), &testResource{Resource: simplyrestful.Resource{Self: self}}, nil)
		require.ErrorIs(t, err, simplyrestful.ErrInternalServer)
		assert.ErrorIs(t, err, simplyrestful.ErrUpdateFailed)
		assert.True(t, simplyrestful.IsServerError(err))
	})
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodDelete, "http://localhost/testresources/abc", testutil.Route{Status: http.StatusNoContent})
		c := newTestClient(transport)

		deleted, err := c.DeleteWithUUID(context.Background(), "abc", nil)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport()
		c := newTestClient(transport)

		deleted, err := c.Delete(context.Background(), "http://localhost/testresources/missing", nil)
		require.ErrorIs(t, err, simplyrestful.ErrNotFound)
		assert.False(t, deleted)
		assert.Contains(t, err.Error(), "could not be found")
	})

	t.Run("success other than no content", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodDelete, "http://localhost/testresources/abc", testutil.Route{Status: http.StatusOK})
		c := newTestClient(transport)

		deleted, err := c.Delete(context.Background(), "http://localhost/testresources/abc", nil)
		require.ErrorIs(t, err, simplyrestful.ErrInvalidErrorStatus)
		assert.ErrorIs(t, err, simplyrestful.ErrDeleteFailed)
		assert.False(t, deleted)
	})

	t.Run("not allowed", func(t *testing.T) {
		t.Parallel()

		transport := testutil.NewTransport().
			Handle(http.MethodDelete, "http://localhost/testresources/abc", testutil.Route{Status: http.StatusMethodNotAllowed})
		c := newTestClient(transport)

		_, err := c.Delete(context.Background(), "http://localhost/testresources/abc", nil)
		require.ErrorIs(t, err, simplyrestful.ErrNotAllowed)
	})
}

func TestClient_DiscoversBeforeOperations(t *testing.T) {
	t.Parallel()

	transport := discoverableTransport("http://localhost/").
		Handle(http.MethodGet, "http://localhost/discoveredtestresources/", testutil.Route{Status: http.StatusOK, Body: `{"total": 0}`})
	c := client.New[*testResource](transport, "http://localhost/", testMediaType, nil)

	_, err := c.List(context.Background(), nil)
	require.NoError(t, err)

	_, err = c.List(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET http://localhost/",
		"GET " + testDescriptionURL,
		"GET http://localhost/discoveredtestresources/",
		"GET http://localhost/discoveredtestresources/",
	}, transport.Calls())
	assert.Equal(t, int64(0), c.TotalAmountOfLastRetrievedCollection())
}
