package simplyrestful

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HeaderLocation is the header carrying the target of a redirect or the
// location of a newly created resource.
const HeaderLocation = "Location"

// Family groups status codes by their first digit.
type Family int

// Status code families that represent an error.
const (
	FamilyRedirection Family = 3
	FamilyClient      Family = 4
	FamilyServer      Family = 5
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case FamilyRedirection:
		return "redirection"
	case FamilyClient:
		return "client error"
	case FamilyServer:
		return "server error"
	default:
		return "unknown"
	}
}

// Static errors for err113 compliance.
var (
	ErrInvalidErrorStatus      = errors.New("status codes outside the 3xx, 4xx and 5xx ranges do not imply an error")
	ErrStatusOutsideFamily     = errors.New("status code does not belong to the requested family")
	ErrMissingRedirectLocation = errors.New("a 3xx response must include a location URI in the Location header")
	ErrTemplateUnresolved      = errors.New("the resource URI template has not been discovered; call DiscoverAPI first")
	ErrNoAPIDescription        = errors.New("the service document does not reference an API description (describedBy.href)")
	ErrCreatedWithoutLocation  = errors.New("resource seems to have been created but no location was returned; please report this to the maintainers of the API")
	ErrMissingSelfLink         = errors.New("the resource does not contain a valid self link")
	ErrConfigRequired          = errors.New("config is required")
	ErrMediaTypeRequired       = errors.New("resource media type is required")
	ErrRelativeURLWithoutBase  = errors.New("relative URL requires a server URL to resolve against")
)

// Causes attached to classified errors, naming the operation that failed.
var (
	ErrServiceDocumentUnavailable = errors.New("the client could not access the API")
	ErrAPIDescriptionUnavailable  = errors.New("the client could not retrieve the OpenAPI description")
	ErrListFailed                 = errors.New("failed to list the resource")
	ErrCreateFailed               = errors.New("failed to create the new resource")
	ErrReadFailed                 = errors.New("failed to read the resource")
	ErrUpdateFailed               = errors.New("failed to update the resource")
	ErrDeleteFailed               = errors.New("failed to delete the resource")
	ErrResourceNotFound           = errors.New("could not be found")
)

// StatusKind matches a range of status codes with errors.Is. The package
// level Err* kinds form the taxonomy: every WebApplicationError matches
// ErrWebApplication, its family kind, and its named variant kind if any.
type StatusKind struct {
	name string
	min  int
	max  int
}

// Error implements the error interface.
func (k *StatusKind) Error() string {
	return k.name
}

func (k *StatusKind) matches(status int) bool {
	return status >= k.min && status < k.max
}

func exactly(name string, status int) *StatusKind {
	return &StatusKind{name: name, min: status, max: status + 1}
}

// Error taxonomy.
var (
	ErrWebApplication = &StatusKind{name: "web application error", min: 300, max: 600}

	ErrRedirection = &StatusKind{name: "redirection", min: 300, max: 400}
	ErrClientError = &StatusKind{name: "client error", min: 400, max: 500}
	ErrServerError = &StatusKind{name: "server error", min: 500, max: 600}

	ErrBadRequest         = exactly("bad request", http.StatusBadRequest)
	ErrNotAuthorized      = exactly("not authorized", http.StatusUnauthorized)
	ErrForbidden          = exactly("forbidden", http.StatusForbidden)
	ErrNotFound           = exactly("not found", http.StatusNotFound)
	ErrNotAllowed         = exactly("not allowed", http.StatusMethodNotAllowed)
	ErrNotAcceptable      = exactly("not acceptable", http.StatusNotAcceptable)
	ErrNotSupported       = exactly("not supported", http.StatusUnsupportedMediaType)
	ErrInternalServer     = exactly("internal server error", http.StatusInternalServerError)
	ErrNotImplemented     = exactly("not implemented", http.StatusNotImplemented)
	ErrBadGateway         = exactly("bad gateway", http.StatusBadGateway)
	ErrServiceUnavailable = exactly("service unavailable", http.StatusServiceUnavailable)
	ErrGatewayTimeout     = exactly("gateway timeout", http.StatusGatewayTimeout)
)

// reasons holds the reason phrases of RFC 7231 and RFC 6585.
var reasons = map[int]string{
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	511: "Network Authentication Required",
}

// variants names the status codes with a dedicated error kind.
var variants = map[int]string{
	400: "BadRequest",
	401: "NotAuthorized",
	403: "Forbidden",
	404: "NotFound",
	405: "NotAllowed",
	406: "NotAcceptable",
	415: "NotSupported",
	500: "InternalServerError",
	501: "NotImplemented",
	502: "BadGateway",
	503: "ServiceUnavailable",
	504: "GatewayTimeout",
}

// ReasonPhrase returns the standard reason phrase for a status code, or an
// empty string if the code has none.
func ReasonPhrase(status int) string {
	return reasons[status]
}

// WebApplicationError is an HTTP failure classified by its status code.
// Match it with errors.Is against the taxonomy kinds (ErrClientError,
// ErrNotFound, ...) or extract it with errors.As.
type WebApplicationError struct {
	// Status is the HTTP status code, always within [300, 600).
	Status int
	// Reason is the HTTP reason phrase.
	Reason string
	// Location is the redirect target, only set for the redirection family.
	Location string
	// Cause describes which operation failed.
	Cause error
	// Response is the raw response, if the error was built from one.
	Response *Response
}

// NewWebApplicationError creates an error for any status in [300, 600).
func NewWebApplicationError(status int, reason string, cause error, resp *Response) (*WebApplicationError, error) {
	if !ErrWebApplication.matches(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidErrorStatus, status)
	}

	return &WebApplicationError{
		Status:   status,
		Reason:   reason,
		Cause:    cause,
		Response: resp,
	}, nil
}

// NewRedirectionError creates a 3xx error carrying the redirect location.
func NewRedirectionError(status int, location, reason string, cause error, resp *Response) (*WebApplicationError, error) {
	err := checkFamily(ErrRedirection, status)
	if err != nil {
		return nil, err
	}

	if location == "" {
		return nil, ErrMissingRedirectLocation
	}

	return &WebApplicationError{
		Status:   status,
		Reason:   reason,
		Location: location,
		Cause:    cause,
		Response: resp,
	}, nil
}

// NewClientError creates a 4xx error.
func NewClientError(status int, reason string, cause error, resp *Response) (*WebApplicationError, error) {
	err := checkFamily(ErrClientError, status)
	if err != nil {
		return nil, err
	}

	return &WebApplicationError{Status: status, Reason: reason, Cause: cause, Response: resp}, nil
}

// NewServerError creates a 5xx error.
func NewServerError(status int, reason string, cause error, resp *Response) (*WebApplicationError, error) {
	err := checkFamily(ErrServerError, status)
	if err != nil {
		return nil, err
	}

	return &WebApplicationError{Status: status, Reason: reason, Cause: cause, Response: resp}, nil
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(cause error, resp *Response) *WebApplicationError {
	return named(http.StatusBadRequest, cause, resp)
}

// NewNotFoundError creates a 404 Not Found error.
func NewNotFoundError(cause error, resp *Response) *WebApplicationError {
	return named(http.StatusNotFound, cause, resp)
}

func named(status int, cause error, resp *Response) *WebApplicationError {
	return &WebApplicationError{Status: status, Reason: reasons[status], Cause: cause, Response: resp}
}

func checkFamily(kind *StatusKind, status int) error {
	if !ErrWebApplication.matches(status) {
		return fmt.Errorf("%w: %d", ErrInvalidErrorStatus, status)
	}

	if !kind.matches(status) {
		return fmt.Errorf("%w: %d is not a %s", ErrStatusOutsideFamily, status, kind.name)
	}

	return nil
}

// FromResponse classifies a non-success response. It fails when the status
// does not denote an error or when a 3xx response has no Location header;
// both mean the caller or the API broke the protocol.
func FromResponse(resp *Response, cause error) (*WebApplicationError, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: no response", ErrInvalidErrorStatus)
	}

	status := resp.StatusCode
	if !ErrWebApplication.matches(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidErrorStatus, status)
	}

	if ErrRedirection.matches(status) {
		location := resp.Header(HeaderLocation)
		if location == "" {
			return nil, fmt.Errorf("%w (status %d)", ErrMissingRedirectLocation, status)
		}

		reason, ok := reasons[status]
		if !ok {
			reason = resp.Status
		}

		return NewRedirectionError(status, location, reason, cause, resp)
	}

	reason, ok := reasons[status]
	if !ok {
		reason = resp.Status
	}

	if reason == "" {
		reason = http.StatusText(status)
	}

	return &WebApplicationError{Status: status, Reason: reason, Cause: cause, Response: resp}, nil
}

// Family returns the status family of the error.
func (e *WebApplicationError) Family() Family {
	return FamilyOf(e.Status)
}

// FamilyOf returns the family of a status code. Informational and success
// codes have no error family and return their first digit as is.
func FamilyOf(status int) Family {
	return Family(status / 100)
}

// Variant names the most specific kind of the error, e.g. "NotFound" or
// "ClientError" for a 4xx without a dedicated kind.
func (e *WebApplicationError) Variant() string {
	if name, ok := variants[e.Status]; ok {
		return name
	}

	switch e.Family() {
	case FamilyRedirection:
		return "RedirectionError"
	case FamilyClient:
		return "ClientError"
	case FamilyServer:
		return "ServerError"
	default:
		return "WebApplicationError"
	}
}

// Error implements the error interface.
func (e *WebApplicationError) Error() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%d", e.Status)

	if e.Reason != "" {
		builder.WriteString(" " + e.Reason)
	}

	if e.Location != "" {
		builder.WriteString(" (location: " + e.Location + ")")
	}

	if e.Cause != nil {
		builder.WriteString(": " + e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the cause of the error.
func (e *WebApplicationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the given taxonomy kind.
func (e *WebApplicationError) Is(target error) bool {
	kind, ok := target.(*StatusKind)
	if !ok {
		return false
	}

	return kind.matches(e.Status)
}

// IsNotFound checks if the error is a 404 Not Found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is a 401 Unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// IsForbidden checks if the error is a 403 Forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsClientError checks if the error is any 4xx error.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClientError)
}

// IsServerError checks if the error is any 5xx error.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}
