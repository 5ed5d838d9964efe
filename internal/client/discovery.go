package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/simplyrestful-client/internal/openapi"
	"github.com/fivetwenty-io/simplyrestful-client/internal/uri"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// serviceDocument is the document at the root of a SimplyRESTful API.
type serviceDocument struct {
	DescribedBy *simplyrestful.Link `json:"describedBy"`
}

// DiscoverAPI resolves the resource URI template from the API description. It
// does nothing once the template is known. When no path serves the resource
// media type the template stays unknown and operations that need it fail
// with simplyrestful.ErrTemplateUnresolved.
func (c *Client[T]) DiscoverAPI(ctx context.Context, headers http.Header) error {
	if c.template.Load() != nil {
		return nil
	}

	descriptionURI, err := c.retrieveServiceDocument(ctx, headers)
	if err != nil {
		return err
	}

	description, err := c.retrieveAPIDescription(ctx, descriptionURI, headers)
	if err != nil {
		return err
	}

	path, found := description.ResourcePath(c.mediaType)
	if !found {
		c.logger.Warn("no path in the API description serves the resource media type", map[string]interface{}{
			"description": descriptionURI,
			"media_type":  c.mediaType,
		})

		return nil
	}

	template, err := uri.ResolveTemplate(c.baseAPIURI, path)
	if err != nil {
		return err
	}

	if c.template.CompareAndSwap(nil, &template) {
		c.logger.Debug("discovered resource URI template", map[string]interface{}{
			"template":   template,
			"media_type": c.mediaType,
		})
	}

	return nil
}

// retrieveServiceDocument fetches the API root and returns the URI of the API
// description it links to, resolved against the base API URI.
func (c *Client[T]) retrieveServiceDocument(ctx context.Context, headers http.Header) (string, error) {
	target, err := uri.WithQuery(c.baseAPIURI, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodGet, target, cloneHeaders(headers), nil)
	if err != nil {
		return "", err
	}

	if !resp.IsSuccess() {
		return "", classify(resp, failure(simplyrestful.ErrServiceDocumentUnavailable, c.baseAPIURI, resp))
	}

	var document serviceDocument

	err = json.Unmarshal(resp.Body, &document)
	if err != nil {
		return "", fmt.Errorf("failed to decode the service document at %s: %w", c.baseAPIURI, err)
	}

	if document.DescribedBy == nil || document.DescribedBy.Href == "" {
		return "", fmt.Errorf("%w: %s", simplyrestful.ErrNoAPIDescription, c.baseAPIURI)
	}

	return uri.Reference(c.baseAPIURI, document.DescribedBy.Href)
}

func (c *Client[T]) retrieveAPIDescription(
	ctx context.Context,
	descriptionURI string,
	headers http.Header,
) (*openapi.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, descriptionURI, cloneHeaders(headers), nil)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, classify(resp, failure(simplyrestful.ErrAPIDescriptionUnavailable, descriptionURI, resp))
	}

	description, err := openapi.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", simplyrestful.ErrAPIDescriptionUnavailable, descriptionURI, err)
	}

	return description, nil
}
