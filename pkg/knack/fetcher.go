package knack

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Knack API host.
const DefaultBaseURL = "https://api.knackhq.com"

// Header names carrying the static credentials.
const (
	HeaderApplicationID = "X-Knack-Application-Id"
	HeaderAPIKey        = "X-Knack-REST-API-Key"
)

// Fetcher reads field schemas and records for an object. Implementations
// live under internal/knack but satisfy this contract.
type Fetcher interface {
	FetchFields(ctx context.Context, objectID string) ([]FieldSchema, error)
	FetchRecord(ctx context.Context, objectID, recordID string) (RawRecord, error)
}

// FetcherFunc pairs two functions into a Fetcher. Handy for tests and for
// wrapping an existing client with instrumentation.
type FetcherFunc struct {
	Fields func(ctx context.Context, objectID string) ([]FieldSchema, error)
	Record func(ctx context.Context, objectID, recordID string) (RawRecord, error)
}

// FetchFields calls Fields.
func (f FetcherFunc) FetchFields(ctx context.Context, objectID string) ([]FieldSchema, error) {
	return f.Fields(ctx, objectID)
}

// FetchRecord calls Record.
func (f FetcherFunc) FetchRecord(ctx context.Context, objectID, recordID string) (RawRecord, error) {
	return f.Record(ctx, objectID, recordID)
}

// ClientOptions configures the HTTP fetcher.
type ClientOptions struct {
	// BaseURL is the API host; defaults to DefaultBaseURL.
	BaseURL string

	// AppID and APIKey are sent on every request.
	AppID  string
	APIKey string

	// HTTPClient allows callers to inject proxies or transports. Its own
	// Timeout is left untouched. Nil uses a private client.
	HTTPClient *http.Client

	// RequestTimeout caps each request through its context. Zero disables
	// the per-request cap.
	RequestTimeout time.Duration

	// SkipLabels drops fields with these labels from every fetched schema.
	SkipLabels []string

	// ValidateContract checks each successful response against the embedded
	// OpenAPI description of the two endpoints before decoding.
	ValidateContract bool
}

// ClientOption mutates ClientOptions prior to construction.
type ClientOption func(*ClientOptions)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(raw string) ClientOption {
	return func(opts *ClientOptions) {
		opts.BaseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
}

// WithCredentials sets the application id and REST API key.
func WithCredentials(appID, apiKey string) ClientOption {
	return func(opts *ClientOptions) {
		opts.AppID = appID
		opts.APIKey = apiKey
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithRequestTimeout caps the duration of each request.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.RequestTimeout = timeout
	}
}

// WithSkipLabels excludes fields by label.
func WithSkipLabels(labels ...string) ClientOption {
	return func(opts *ClientOptions) {
		opts.SkipLabels = append(opts.SkipLabels, labels...)
	}
}

// WithContractValidation toggles response validation.
func WithContractValidation(enabled bool) ClientOption {
	return func(opts *ClientOptions) {
		opts.ValidateContract = enabled
	}
}

// NewClientOptions applies the options over the defaults.
func NewClientOptions(options ...ClientOption) ClientOptions {
	cfg := ClientOptions{BaseURL: DefaultBaseURL}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}
