package simplyrestful

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Media types defined by the SimplyRESTful conventions.
const (
	// MediaTypeCollectionV1JSON is the media type of a collection envelope.
	MediaTypeCollectionV1JSON = "application/x.simplyrestful-collection-v1+json"

	// IDPlaceholder marks where a resource identifier goes in a URI template.
	IDPlaceholder = "{id}"

	// UnknownTotal is reported when a collection does not declare a numeric total.
	UnknownTotal int64 = -1
)

// Link represents a hypermedia link to another resource.
type Link struct {
	// Href is the target of the link.
	Href string `json:"href"           mapstructure:"href"           yaml:"href"`
	// Type is the content type of the target resource.
	Type string `json:"type,omitempty" mapstructure:"type,omitempty" yaml:"type,omitempty"`
}

// APIResource is implemented by every resource a client can handle. The self
// link is the canonical location used when updating the resource.
type APIResource interface {
	SelfLink() *Link
}

// Resource is the base structure for typed resources. Embed it to get a self
// link and satisfy APIResource.
type Resource struct {
	Self *Link `json:"self,omitempty" yaml:"self,omitempty"`
}

// SelfLink implements APIResource.
func (r Resource) SelfLink() *Link {
	return r.Self
}

// Document is an untyped resource, useful when the resource shape is not
// known at compile time.
type Document map[string]interface{}

// SelfLink implements APIResource.
func (d Document) SelfLink() *Link {
	raw, ok := d["self"]
	if !ok || raw == nil {
		return nil
	}

	var link Link

	err := mapstructure.Decode(raw, &link)
	if err != nil || link.Href == "" {
		return nil
	}

	return &link
}

// Total is the declared item count of a collection. Anything that is not a
// JSON number decodes to UnknownTotal.
type Total int64

// UnmarshalJSON implements json.Unmarshaler.
func (t *Total) UnmarshalJSON(data []byte) error {
	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*t = Total(UnknownTotal)

		return nil
	}

	*t = Total(value)

	return nil
}

// Collection is the paginated envelope around a list of resources.
type Collection[T any] struct {
	Total *Total `json:"total,omitempty" yaml:"total,omitempty"`
	Item  []T    `json:"item,omitempty"  yaml:"item,omitempty"`
	First *Link  `json:"first,omitempty" yaml:"first,omitempty"`
	Last  *Link  `json:"last,omitempty"  yaml:"last,omitempty"`
	Prev  *Link  `json:"prev,omitempty"  yaml:"prev,omitempty"`
	Next  *Link  `json:"next,omitempty"  yaml:"next,omitempty"`
}

// DeclaredTotal returns the total item count declared by the server, or
// UnknownTotal when the envelope does not carry one.
func (c *Collection[T]) DeclaredTotal() int64 {
	if c.Total == nil {
		return UnknownTotal
	}

	return int64(*c.Total)
}

// Items returns the items of the collection, never nil.
func (c *Collection[T]) Items() []T {
	if c.Item == nil {
		return []T{}
	}

	return c.Item
}

// SortOrder sorts a collection on a single field.
type SortOrder struct {
	FieldName string `json:"fieldName" yaml:"fieldName"`
	Ascending bool   `json:"ascending" yaml:"ascending"`
}

// String renders the sort order the way the API expects it, e.g. "name:asc".
func (s SortOrder) String() string {
	if s.Ascending {
		return s.FieldName + ":asc"
	}

	return s.FieldName + ":desc"
}

// RequestOptions carries extra headers and query parameters for a single request.
type RequestOptions struct {
	Headers http.Header
	Query   url.Values
}

// ListOptions configures paging, filtering and sorting for List and Stream.
// PageStart and PageSize are only sent when non-zero.
type ListOptions struct {
	PageStart int
	PageSize  int
	// Fields selects the fields to return for each item.
	Fields []string
	// Query is a filter expression passed to the API verbatim.
	Query string
	Sort  []SortOrder
	// Headers are sent with the request, including the discovery requests.
	Headers http.Header
	// AdditionalQueryParameters are appended after the built-in parameters.
	AdditionalQueryParameters url.Values
}
