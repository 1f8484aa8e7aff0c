package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-knackobject/internal/knack/contract"
	"github.com/goliatone/go-knackobject/pkg/knack"
)

// Client implements knack.Fetcher over the REST API.
type Client struct {
	base     string
	http     *http.Client
	timeout  time.Duration
	appID    string
	apiKey   string
	skip     []string
	contract *contract.Validator
}

// Ensure the implementation satisfies the public interface.
var _ knack.Fetcher = (*Client)(nil)

// New constructs a Client from pre-resolved options.
func New(options knack.ClientOptions) (*Client, error) {
	if strings.TrimSpace(options.AppID) == "" || strings.TrimSpace(options.APIKey) == "" {
		return nil, errors.New("knack client: application id and api key are required")
	}

	base := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if base == "" {
		base = knack.DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("knack client: invalid base url %q: %w", base, err)
	}

	// RequestTimeout is applied per request through the context, so an
	// injected client keeps its own Timeout.
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		base:    base,
		http:    httpClient,
		timeout: options.RequestTimeout,
		appID:   options.AppID,
		apiKey:  options.APIKey,
		skip:    append([]string(nil), options.SkipLabels...),
	}

	if options.ValidateContract {
		validator, err := contract.New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("knack client: %w", err)
		}
		c.contract = validator
	}

	return c, nil
}

type fieldsResponse struct {
	Fields *[]knack.FieldSchema `json:"fields"`
}

// FetchFields returns the object's field schema minus skipped labels.
func (c *Client) FetchFields(ctx context.Context, objectID string) ([]knack.FieldSchema, error) {
	if strings.TrimSpace(objectID) == "" {
		return nil, &knack.FetchError{Op: "fields", Kind: knack.FetchInvalid, Err: errors.New("object id is required")}
	}

	endpoint := c.base + "/v1/objects/" + url.PathEscape(objectID) + "/fields"
	params := map[string]string{"objectId": objectID}

	body, err := c.get(ctx, "fields", contract.RouteFields, endpoint, params, objectID, "")
	if err != nil {
		return nil, err
	}

	var payload fieldsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &knack.FetchError{Op: "fields", ObjectID: objectID, Kind: knack.FetchDecode, Err: err}
	}
	if payload.Fields == nil {
		return nil, &knack.FetchError{Op: "fields", ObjectID: objectID, Kind: knack.FetchDecode, Err: errors.New("response has no fields array")}
	}

	return knack.FilterFields(*payload.Fields, c.skip), nil
}

// FetchRecord returns one record keyed by field key.
func (c *Client) FetchRecord(ctx context.Context, objectID, recordID string) (knack.RawRecord, error) {
	if strings.TrimSpace(objectID) == "" || strings.TrimSpace(recordID) == "" {
		return nil, &knack.FetchError{Op: "record", ObjectID: objectID, RecordID: recordID, Kind: knack.FetchInvalid, Err: errors.New("object id and record id are required")}
	}

	endpoint := c.base + "/v1/objects/" + url.PathEscape(objectID) + "/records/" + url.PathEscape(recordID)
	params := map[string]string{"objectId": objectID, "recordId": recordID}

	body, err := c.get(ctx, "record", contract.RouteRecord, endpoint, params, objectID, recordID)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var record knack.RawRecord
	if err := decoder.Decode(&record); err != nil {
		return nil, &knack.FetchError{Op: "record", ObjectID: objectID, RecordID: recordID, Kind: knack.FetchDecode, Err: err}
	}
	if record == nil {
		return nil, &knack.FetchError{Op: "record", ObjectID: objectID, RecordID: recordID, Kind: knack.FetchDecode, Err: errors.New("response is not an object")}
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, op, route, endpoint string, params map[string]string, objectID, recordID string) ([]byte, error) {
	fail := func(kind knack.FetchKind, status int, err error) error {
		return &knack.FetchError{Op: op, ObjectID: objectID, RecordID: recordID, Status: status, Kind: kind, Err: err}
	}

	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, fail(knack.FetchTransport, 0, err)
	}

	switch {
	case resp.status == http.StatusNotFound:
		return nil, fail(knack.FetchNotFound, resp.status, nil)
	case resp.status < 200 || resp.status >= 300:
		var detail error
		if msg := strings.TrimSpace(string(truncate(resp.body, 256))); msg != "" {
			detail = errors.New(msg)
		}
		return nil, fail(knack.FetchStatus, resp.status, detail)
	}

	if c.contract != nil {
		if err := c.contract.ValidateResponse(ctx, route, resp.request, params, resp.status, resp.header, resp.body); err != nil {
			return nil, fail(knack.FetchContract, resp.status, err)
		}
	}
	return resp.body, nil
}

func truncate(body []byte, limit int) []byte {
	if len(body) <= limit {
		return body
	}
	return body[:limit]
}
