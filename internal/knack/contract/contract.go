// Package contract validates API responses against an embedded OpenAPI
// description of the Knack read endpoints.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed knack.yaml
var document []byte

// Route names used by the client.
const (
	RouteFields = "fields"
	RouteRecord = "record"
)

var routePaths = map[string]string{
	RouteFields: "/v1/objects/{objectId}/fields",
	RouteRecord: "/v1/objects/{objectId}/records/{recordId}",
}

// Validator checks response payloads against the embedded document.
type Validator struct {
	api    *openapi3.T
	routes map[string]*routers.Route
}

// Document returns the embedded OpenAPI source.
func Document() []byte {
	return append([]byte(nil), document...)
}

// New loads and validates the embedded document.
func New(ctx context.Context) (*Validator, error) {
	loader := &openapi3.Loader{Context: ctx}
	api, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := api.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contract: invalid document: %w", err)
	}
	if api.Paths == nil {
		return nil, errors.New("contract: document has no paths")
	}

	routes := make(map[string]*routers.Route, len(routePaths))
	for name, path := range routePaths {
		item := api.Paths.Value(path)
		if item == nil || item.Get == nil {
			return nil, fmt.Errorf("contract: GET %s not described", path)
		}
		routes[name] = &routers.Route{
			Spec:      api,
			Path:      path,
			PathItem:  item,
			Method:    http.MethodGet,
			Operation: item.Get,
		}
	}

	return &Validator{api: api, routes: routes}, nil
}

// ValidateResponse checks status, content type and body of a response to the
// named route.
func (v *Validator) ValidateResponse(ctx context.Context, route string, req *http.Request, params map[string]string, status int, header http.Header, body []byte) error {
	if v == nil {
		return nil
	}
	r, ok := v.routes[route]
	if !ok {
		return fmt.Errorf("contract: unknown route %q", route)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: params,
			Route:      r,
		},
		Status: status,
		Header: header,
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}
	input.SetBodyBytes(body)

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return fmt.Errorf("contract: %s response: %w", route, err)
	}
	return nil
}
