package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/internal/uri"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Client implements simplyrestful.ResourceClient for one resource type.
type Client[T simplyrestful.APIResource] struct {
	transport  simplyrestful.Transport
	baseAPIURI string
	mediaType  string
	logger     simplyrestful.Logger

	// template is nil until the API has been discovered.
	template  atomic.Pointer[string]
	lastTotal atomic.Int64
}

var _ simplyrestful.ResourceClient[simplyrestful.Document] = (*Client[simplyrestful.Document])(nil)

// New creates a client for the resource with the given media type. A nil
// logger discards everything.
func New[T simplyrestful.APIResource](
	transport simplyrestful.Transport,
	baseAPIURI, mediaType string,
	logger simplyrestful.Logger,
) *Client[T] {
	if logger == nil {
		logger = simplyrestful.NopLogger{}
	}

	client := &Client[T]{
		transport:  transport,
		baseAPIURI: baseAPIURI,
		mediaType:  mediaType,
		logger:     logger,
	}
	client.lastTotal.Store(simplyrestful.UnknownTotal)

	return client
}

// SetResourceURITemplate sets the template manually. Discovery will not run
// afterwards. An empty template resets the client to undiscovered.
func (c *Client[T]) SetResourceURITemplate(template string) {
	if template == "" {
		c.template.Store(nil)

		return
	}

	c.template.Store(&template)
}

// ResourceURITemplate returns the template and whether it is known.
func (c *Client[T]) ResourceURITemplate() (string, bool) {
	template := c.template.Load()
	if template == nil {
		return "", false
	}

	return *template, true
}

// TotalAmountOfLastRetrievedCollection returns the total declared by the last
// collection retrieved, or simplyrestful.UnknownTotal.
func (c *Client[T]) TotalAmountOfLastRetrievedCollection() int64 {
	return c.lastTotal.Load()
}

// List retrieves one page of the collection.
func (c *Client[T]) List(ctx context.Context, opts *simplyrestful.ListOptions) ([]T, error) {
	resp, target, err := c.requestCollection(ctx, opts)
	if err != nil {
		return nil, err
	}

	var collection simplyrestful.Collection[T]

	err = json.Unmarshal(resp.Body, &collection)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the collection at %s: %w", target, err)
	}

	c.lastTotal.Store(collection.DeclaredTotal())

	return collection.Items(), nil
}

// Create posts resource to the collection and returns the location of the
// created resource.
func (c *Client[T]) Create(ctx context.Context, resource T, opts *simplyrestful.RequestOptions) (string, error) {
	headers, query := requestOptions(opts)

	err := c.DiscoverAPI(ctx, headers)
	if err != nil {
		return "", err
	}

	collectionURI, err := c.resolveTemplate("")
	if err != nil {
		return "", err
	}

	target, err := uri.WithQuery(collectionURI, query)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(resource)
	if err != nil {
		return "", fmt.Errorf("failed to encode the resource: %w", err)
	}

	headers.Add(constants.HeaderContentType, c.mediaType)

	resp, err := c.do(ctx, http.MethodPost, target, headers, body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusCreated {
		return "", classify(resp, failure(simplyrestful.ErrCreateFailed, target, resp))
	}

	location := resp.Header(simplyrestful.HeaderLocation)
	if location == "" {
		return "", simplyrestful.ErrCreatedWithoutLocation
	}

	c.logger.Debug("resource created", map[string]interface{}{"location": location})

	return location, nil
}

// Read retrieves the resource at identifier, a relative or absolute URI.
func (c *Client[T]) Read(ctx context.Context, identifier string, opts *simplyrestful.RequestOptions) (T, error) {
	var resource T

	headers, query := requestOptions(opts)

	err := c.DiscoverAPI(ctx, headers)
	if err != nil {
		return resource, err
	}

	target, err := uri.WithQuery(identifier, query)
	if err != nil {
		return resource, err
	}

	headers.Add(constants.HeaderAccept, c.mediaType)

	resp, err := c.do(ctx, http.MethodGet, target, headers, nil)
	if err != nil {
		return resource, err
	}

	if !resp.IsSuccess() {
		return resource, classify(resp, failure(simplyrestful.ErrReadFailed, identifier, resp))
	}

	err = json.Unmarshal(resp.Body, &resource)
	if err != nil {
		return resource, fmt.Errorf("failed to decode the resource at %s: %w", identifier, err)
	}

	return resource, nil
}

// ReadWithUUID retrieves the resource with the given identifier.
func (c *Client[T]) ReadWithUUID(ctx context.Context, id string, opts *simplyrestful.RequestOptions) (T, error) {
	var resource T

	err := c.DiscoverAPI(ctx, headersOf(opts))
	if err != nil {
		return resource, err
	}

	target, err := c.resolveTemplate(id)
	if err != nil {
		return resource, err
	}

	return c.Read(ctx, target, opts)
}

// Update replaces the resource at its self link.
func (c *Client[T]) Update(ctx context.Context, resource T, opts *simplyrestful.RequestOptions) error {
	self := selfHref(resource)
	if self == "" {
		return simplyrestful.NewBadRequestError(
			fmt.Errorf("the update failed because %w", simplyrestful.ErrMissingSelfLink), nil)
	}

	headers, query := requestOptions(opts)

	err := c.DiscoverAPI(ctx, headers)
	if err != nil {
		return err
	}

	target, err := uri.WithQuery(self, query)
	if err != nil {
		return err
	}

	body, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to encode the resource: %w", err)
	}

	headers.Add(constants.HeaderContentType, c.mediaType)

	resp, err := c.do(ctx, http.MethodPut, target, headers, body)
	if err != nil {
		return err
	}

	if resp.IsSuccess() {
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return simplyrestful.NewNotFoundError(
			fmt.Errorf("resource at %s %w", target, simplyrestful.ErrResourceNotFound), resp)
	}

	return classify(resp, failure(simplyrestful.ErrUpdateFailed, target, resp))
}

// Delete removes the resource at identifier, a relative or absolute URI.
func (c *Client[T]) Delete(ctx context.Context, identifier string, opts *simplyrestful.RequestOptions) (bool, error) {
	headers, query := requestOptions(opts)

	err := c.DiscoverAPI(ctx, headers)
	if err != nil {
		return false, err
	}

	target, err := uri.WithQuery(identifier, query)
	if err != nil {
		return false, err
	}

	resp, err := c.do(ctx, http.MethodDelete, target, headers, nil)
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, simplyrestful.NewNotFoundError(
			fmt.Errorf("resource at %s %w", identifier, simplyrestful.ErrResourceNotFound), resp)
	default:
		return false, classify(resp, failure(simplyrestful.ErrDeleteFailed, identifier, resp))
	}
}

// DeleteWithUUID removes the resource with the given identifier.
func (c *Client[T]) DeleteWithUUID(ctx context.Context, id string, opts *simplyrestful.RequestOptions) (bool, error) {
	err := c.DiscoverAPI(ctx, headersOf(opts))
	if err != nil {
		return false, err
	}

	target, err := c.resolveTemplate(id)
	if err != nil {
		return false, err
	}

	return c.Delete(ctx, target, opts)
}

// requestCollection discovers the API and fetches the collection, returning
// the successful response and the URI it was fetched from.
func (c *Client[T]) requestCollection(
	ctx context.Context,
	opts *simplyrestful.ListOptions,
) (*simplyrestful.Response, string, error) {
	if opts == nil {
		opts = &simplyrestful.ListOptions{}
	}

	headers := cloneHeaders(opts.Headers)

	err := c.DiscoverAPI(ctx, headers)
	if err != nil {
		return nil, "", err
	}

	collectionURI, err := c.resolveTemplate("")
	if err != nil {
		return nil, "", err
	}

	target, err := uri.WithQuery(collectionURI, listQuery(opts))
	if err != nil {
		return nil, "", err
	}

	headers.Add(constants.HeaderAccept, simplyrestful.MediaTypeCollectionV1JSON)

	resp, err := c.do(ctx, http.MethodGet, target, headers, nil)
	if err != nil {
		return nil, "", err
	}

	if !resp.IsSuccess() {
		return nil, "", classify(resp, failure(simplyrestful.ErrListFailed, target, resp))
	}

	return resp, target, nil
}

func (c *Client[T]) resolveTemplate(id string) (string, error) {
	template := c.template.Load()
	if template == nil {
		return "", simplyrestful.ErrTemplateUnresolved
	}

	return uri.SubstituteID(*template, id)
}

func (c *Client[T]) do(
	ctx context.Context,
	method, target string,
	headers http.Header,
	body []byte,
) (*simplyrestful.Response, error) {
	resp, err := c.transport.Do(ctx, &simplyrestful.Request{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	return resp, nil
}

// listQuery builds the collection query. Zero paging values are omitted.
func listQuery(opts *simplyrestful.ListOptions) url.Values {
	query := url.Values{}

	if opts.PageStart != 0 {
		query.Add(constants.QueryPageStart, strconv.Itoa(opts.PageStart))
	}

	if opts.PageSize != 0 {
		query.Add(constants.QueryPageSize, strconv.Itoa(opts.PageSize))
	}

	if len(opts.Fields) > 0 {
		query.Add(constants.QueryFields, strings.Join(opts.Fields, ","))
	}

	if opts.Query != "" {
		query.Add(constants.QueryQuery, opts.Query)
	}

	if len(opts.Sort) > 0 {
		sorts := make([]string, 0, len(opts.Sort))
		for _, order := range opts.Sort {
			sorts = append(sorts, order.String())
		}

		query.Add(constants.QuerySort, strings.Join(sorts, ","))
	}

	for name, values := range opts.AdditionalQueryParameters {
		for _, value := range values {
			query.Add(name, value)
		}
	}

	return query
}

// classify turns a non-success response into a *WebApplicationError. A
// status that cannot be classified is reported together with the cause.
func classify(resp *simplyrestful.Response, cause error) error {
	webErr, err := simplyrestful.FromResponse(resp, cause)
	if err != nil {
		return fmt.Errorf("%w: %w", err, cause)
	}

	return webErr
}

func failure(operation error, target string, resp *simplyrestful.Response) error {
	return fmt.Errorf("%w at %s: the API returned status %d with message: %s",
		operation, target, resp.StatusCode, string(resp.Body))
}

func requestOptions(opts *simplyrestful.RequestOptions) (http.Header, url.Values) {
	if opts == nil {
		return make(http.Header), nil
	}

	return cloneHeaders(opts.Headers), opts.Query
}

func headersOf(opts *simplyrestful.RequestOptions) http.Header {
	headers, _ := requestOptions(opts)

	return headers
}

func cloneHeaders(headers http.Header) http.Header {
	if headers == nil {
		return make(http.Header)
	}

	return headers.Clone()
}

// selfHref returns the self link of resource, tolerating nil pointers.
func selfHref[T simplyrestful.APIResource](resource T) string {
	value := reflect.ValueOf(resource)
	if !value.IsValid() || (value.Kind() == reflect.Pointer && value.IsNil()) {
		return ""
	}

	link := resource.SelfLink()
	if link == nil {
		return ""
	}

	return link.Href
}
