// Package uri resolves the relative and absolute URIs a SimplyRESTful client
// works with. Relative URIs are resolved against a placeholder authority so
// that they can be manipulated like absolute ones, and are turned back into
// relative form before they leave this package.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Static errors for err113 compliance.
var (
	ErrTemplateUnresolved = simplyrestful.ErrTemplateUnresolved
	ErrInvalidURI         = errors.New("invalid URI")
)

// IDPlaceholder marks where a resource identifier goes in a template.
const IDPlaceholder = "{id}"

var placeholder = mustParse(constants.PlaceholderOrigin)

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}

	return u
}

// Join concatenates two paths with exactly one slash between them.
func Join(base, rel string) string {
	rel = strings.TrimPrefix(rel, "/")

	if strings.HasSuffix(base, "/") {
		return base + rel
	}

	return base + "/" + rel
}

// ToAbsolute parses candidate, resolving it against the placeholder authority
// when it is relative. An empty candidate resolves to the root path.
func ToAbsolute(candidate string) (*url.URL, error) {
	ref, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURI, candidate, err)
	}

	return placeholder.ResolveReference(ref), nil
}

// IsPlaceholder reports whether u was resolved from a relative URI.
func IsPlaceholder(u *url.URL) bool {
	return u.Host == placeholder.Host
}

// ToOutputForm renders u as it should be handed to a transport or caller:
// path and query only for URIs resolved from relative ones, the full URI
// otherwise.
func ToOutputForm(u *url.URL) string {
	if !IsPlaceholder(u) {
		return u.String()
	}

	out := u.EscapedPath()
	if out == "" {
		out = "/"
	}

	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}

	return out
}

// Decode percent-decodes s, returning s unchanged when it is not validly
// encoded.
func Decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}

	return decoded
}

// SubstituteID replaces the first {id} of template with the path-escaped id.
// An empty id yields the collection URI.
func SubstituteID(template, id string) (string, error) {
	if template == "" {
		return "", ErrTemplateUnresolved
	}

	return strings.Replace(template, IDPlaceholder, url.PathEscape(id), 1), nil
}

// ResolveTemplate builds a resource URI template by appending path to the
// path of base. The result keeps base relative when base is relative.
func ResolveTemplate(base, path string) (string, error) {
	u, err := ToAbsolute(base)
	if err != nil {
		return "", err
	}

	u.Path = Join(u.Path, path)
	u.RawPath = ""

	return Decode(ToOutputForm(u)), nil
}

// WithQuery returns target in output form, with its query replaced by query
// when query is not empty.
func WithQuery(target string, query url.Values) (string, error) {
	u, err := ToAbsolute(target)
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return ToOutputForm(u), nil
}

// Reference resolves ref against base the way a browser resolves a link
// found in the document at base. The result is relative when base is.
func Reference(base, ref string) (string, error) {
	baseURL, err := ToAbsolute(base)
	if err != nil {
		return "", err
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidURI, ref, err)
	}

	return ToOutputForm(baseURL.ResolveReference(refURL)), nil
}

// Resolve resolves target against server. Absolute targets are returned
// unchanged.
func Resolve(server, target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidURI, target, err)
	}

	if ref.IsAbs() {
		return target, nil
	}

	base, err := url.Parse(server)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("%w: server URL %q is not absolute", ErrInvalidURI, server)
	}

	return base.ResolveReference(ref).String(), nil
}
