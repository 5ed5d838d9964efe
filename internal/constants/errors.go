package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured       = errors.New("no API configured, use --api or 'srclient config set api <url>'")
	ErrNoMediaTypeConfigured = errors.New("no resource media type configured, use --media-type or 'srclient config set media-type <type>'")
	ErrUnknownConfigKey      = errors.New("unknown configuration key")
)

// Input errors.
var (
	ErrNoResourceData       = errors.New("resource data is required, use --data or --file")
	ErrConflictingInput     = errors.New("--data and --file cannot be used together")
	ErrResourceNotAnObject  = errors.New("resource data must be a JSON or YAML object")
	ErrInvalidHeader        = errors.New("invalid header, expected 'Name: value'")
	ErrInvalidQueryParam    = errors.New("invalid query parameter, expected 'name=value'")
	ErrInvalidSortOrder     = errors.New("invalid sort order, expected 'field' or 'field:asc|desc'")
	ErrInvalidOutputFormat  = errors.New("invalid output format, expected table, json or yaml")
	ErrConfirmationRequired = errors.New("refusing to delete without confirmation, use --force")
)

// Listing errors.
var (
	ErrTooManyPages = errors.New("collection has more pages than the listing limit")
)
