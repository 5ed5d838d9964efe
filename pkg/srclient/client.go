package srclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/simplyrestful-client/internal/client"
	internalhttp "github.com/fivetwenty-io/simplyrestful-client/internal/http"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// ErrTemplateWithoutPlaceholder is returned when a configured resource URI
// template lacks the {id} placeholder.
var ErrTemplateWithoutPlaceholder = errors.New("resource URI template must contain " + simplyrestful.IDPlaceholder)

// New creates a client for resources of type T as described by config.
func New[T simplyrestful.APIResource](config *simplyrestful.Config) (simplyrestful.ResourceClient[T], error) {
	if config == nil {
		return nil, simplyrestful.ErrConfigRequired
	}

	mediaType := strings.TrimSpace(config.ResourceMediaType)
	if mediaType == "" {
		return nil, simplyrestful.ErrMediaTypeRequired
	}

	template := strings.TrimSpace(config.ResourceURITemplate)
	if template != "" && !strings.Contains(template, simplyrestful.IDPlaceholder) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateWithoutPlaceholder, template)
	}

	transport := config.Transport
	if transport == nil {
		transport = newTransport(config)
	}

	resourceClient := client.New[T](transport, strings.TrimSpace(config.BaseAPIURI), mediaType, config.Logger)
	if template != "" {
		resourceClient.SetResourceURITemplate(template)
	}

	return resourceClient, nil
}

// NewDocumentClient creates a client that handles resources as untyped
// documents.
func NewDocumentClient(config *simplyrestful.Config) (simplyrestful.ResourceClient[simplyrestful.Document], error) {
	return New[simplyrestful.Document](config)
}

// NewWithBaseURI creates a client for the resource with the given media type
// of the API whose service document is at baseAPIURI, an absolute URL.
func NewWithBaseURI[T simplyrestful.APIResource](baseAPIURI, mediaType string) (simplyrestful.ResourceClient[T], error) {
	return New[T](&simplyrestful.Config{
		BaseAPIURI:        baseAPIURI,
		ResourceMediaType: mediaType,
	})
}

func newTransport(config *simplyrestful.Config) simplyrestful.Transport {
	opts := []internalhttp.Option{
		internalhttp.WithDebug(config.Debug),
		internalhttp.WithInterceptors(config.Interceptors),
		internalhttp.WithSkipTLSVerify(config.SkipTLSVerify),
	}

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	return internalhttp.NewClient(serverURL(config), opts...)
}

// serverURL returns the configured server URL, or the origin of the base API
// URI when that is absolute.
func serverURL(config *simplyrestful.Config) string {
	if config.ServerURL != "" {
		return config.ServerURL
	}

	base, err := url.Parse(strings.TrimSpace(config.BaseAPIURI))
	if err != nil || !base.IsAbs() {
		return ""
	}

	return (&url.URL{Scheme: base.Scheme, Host: base.Host}).String()
}
