package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// MaxConcurrencyLimit caps user supplied concurrency.
	MaxConcurrencyLimit = 64
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the number of failures before the circuit opens.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout = 30 * time.Second

	// CircuitBreakerSuccessThreshold is the number of half-open successes needed to close.
	CircuitBreakerSuccessThreshold = 2
)

// Request metadata keys shared by interceptors.
const (
	// MetadataStartTime holds the time.Time a request was sent.
	MetadataStartTime = "start_time"

	// MetadataSpan holds the trace span of a request.
	MetadataSpan = "span"
)

// HTTP headers and defaults.
const (
	// HeaderAccept is the Accept header.
	HeaderAccept = "Accept"

	// HeaderContentType is the Content-Type header.
	HeaderContentType = "Content-Type"

	// HeaderUserAgent is the User-Agent header.
	HeaderUserAgent = "User-Agent"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "simplyrestful-client-go/1.0.0"

	// PlaceholderOrigin is the authority relative URIs are resolved against
	// while they are manipulated. It never leaves the uri package.
	PlaceholderOrigin = "http://placeholderforrelativeurl/"
)

// Query parameters of a SimplyRESTful collection.
const (
	QueryPageStart = "pageStart"
	QueryPageSize  = "pageSize"
	QueryFields    = "fields"
	QueryQuery     = "query"
	QuerySort      = "sort"
)

// Pagination and display limits.
const (
	// DefaultPageSize is the page size the CLI asks for when none is given.
	DefaultPageSize = 50

	// MaxListPages caps the pages 'list --all' fetches.
	MaxListPages = 1000

	// StringTruncationLimit is used when truncating strings in tables.
	StringTruncationLimit = 60
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate success.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// CLI configuration.
const (
	// ConfigDirName is the directory under $HOME holding the CLI configuration.
	ConfigDirName = ".srclient"

	// ConfigFileName is the name of the CLI configuration file.
	ConfigFileName = "config.yml"

	// EnvPrefix prefixes the environment variables the CLI reads.
	EnvPrefix = "SRCLIENT"

	// MinimumArgumentCount is the number of arguments of "config set".
	MinimumArgumentCount = 2

	// MaxTableColumns caps the number of resource fields shown in a table.
	MaxTableColumns = 6
)
