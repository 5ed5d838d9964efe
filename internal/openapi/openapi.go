// Package openapi scans OpenAPI descriptions for the path that serves a
// resource media type. Documents are read as YAML nodes so the order of the
// paths is preserved; JSON documents are valid YAML and parse the same way.
package openapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static errors for err113 compliance.
var (
	ErrEmptyDocument   = errors.New("the API description is empty")
	ErrInvalidDocument = errors.New("the API description is not an object")
)

const (
	keyPaths     = "paths"
	keyGet       = "get"
	keyResponses = "responses"
	keyContent   = "content"
	keyDefault   = "default"
)

// Document is a parsed OpenAPI description.
type Document struct {
	root *yaml.Node
}

// Parse reads a JSON or YAML OpenAPI description.
func Parse(data []byte) (*Document, error) {
	var node yaml.Node

	err := yaml.Unmarshal(data, &node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the API description: %w", err)
	}

	if node.Kind == 0 || len(node.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	root := resolve(node.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, ErrInvalidDocument
	}

	return &Document{root: root}, nil
}

// Paths returns the path templates in document order.
func (d *Document) Paths() []string {
	paths := lookup(d.root, keyPaths)
	if paths == nil || paths.Kind != yaml.MappingNode {
		return nil
	}

	result := make([]string, 0, len(paths.Content)/2)
	for i := 0; i+1 < len(paths.Content); i += 2 {
		result = append(result, paths.Content[i].Value)
	}

	return result
}

// ResourcePath returns the first path, in document order, whose GET operation
// has a success or default response with mediaType among its content types.
// Spaces in the content types are ignored.
func (d *Document) ResourcePath(mediaType string) (string, bool) {
	paths := lookup(d.root, keyPaths)
	if paths == nil || paths.Kind != yaml.MappingNode {
		return "", false
	}

	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value

		responses := lookup(lookup(resolve(paths.Content[i+1]), keyGet), keyResponses)
		if responses == nil || responses.Kind != yaml.MappingNode {
			continue
		}

		for j := 0; j+1 < len(responses.Content); j += 2 {
			if !isSuccessKey(responses.Content[j].Value) {
				continue
			}

			content := lookup(resolve(responses.Content[j+1]), keyContent)
			if content == nil || content.Kind != yaml.MappingNode {
				continue
			}

			for k := 0; k+1 < len(content.Content); k += 2 {
				if NormalizeContentType(content.Content[k].Value) == mediaType {
					return path, true
				}
			}
		}
	}

	return "", false
}

// NormalizeContentType strips all spaces from a content type.
func NormalizeContentType(contentType string) string {
	return strings.ReplaceAll(contentType, " ", "")
}

func isSuccessKey(key string) bool {
	if key == keyDefault {
		return true
	}

	status, err := strconv.Atoi(key)
	if err != nil {
		return false
	}

	return status >= 200 && status < 300
}

func lookup(node *yaml.Node, key string) *yaml.Node {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolve(node.Content[i+1])
		}
	}

	return nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	return node
}
