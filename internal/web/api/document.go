// Package api implements the endpoint management API.
// Documents follow the JSON:API shape the original service exposed: a single
// resource type "endpoints" whose attributes describe the route and the
// canned response it returns.
package api

import (
	"fmt"
	"strings"

	"github.com/echo-labs/echo-service/internal/store"
)

// MediaType is the JSON:API media type used for all documents.
const MediaType = "application/vnd.api+json"

// ResourceType is the only resource type the API serves.
const ResourceType = "endpoints"

var allowedVerbs = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
}

// Document wraps a single resource.
type Document struct {
	Data *Resource `json:"data"`
}

// ListDocument wraps a resource collection.
type ListDocument struct {
	Data []*Resource `json:"data"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	ID         string     `json:"id,omitempty"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// Attributes describe an endpoint: the route it answers on and its response.
type Attributes struct {
	Verb     string       `json:"verb"`
	Path     string       `json:"path"`
	Response ResponseSpec `json:"response"`
}

// ResponseSpec is the canned response returned by an endpoint.
type ResponseSpec struct {
	Code    int               `json:"code"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    *string           `json:"body,omitempty"`
}

// ErrorDocument is the error envelope.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// ErrorObject carries a single error.
type ErrorObject struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// Validate checks the attributes of an incoming document.
func (a Attributes) Validate() error {
	if _, ok := allowedVerbs[a.Verb]; !ok {
		return fmt.Errorf("invalid verb %q: must be one of GET, POST, PUT, PATCH, DELETE", a.Verb)
	}
	if err := validatePath(a.Path); err != nil {
		return err
	}
	if a.Response.Code < 100 || a.Response.Code > 599 {
		return fmt.Errorf("invalid response code %d: must be between 100 and 599", a.Response.Code)
	}
	return nil
}

func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid path %q: must start with /", path)
	}
	if strings.ContainsAny(path, " \t\n") {
		return fmt.Errorf("invalid path %q: must not contain whitespace", path)
	}
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return fmt.Errorf("invalid path %q: /api is reserved for the management API", path)
	}
	return nil
}

// toStore converts document attributes to store attributes.
func (a Attributes) toStore() store.Attributes {
	attrs := store.Attributes{
		Verb:    a.Verb,
		Path:    a.Path,
		Code:    a.Response.Code,
		Headers: a.Response.Headers,
	}
	if a.Response.Body != nil {
		attrs.Body = *a.Response.Body
	}
	return attrs
}

// resourceFrom converts a stored endpoint to a resource object.
func resourceFrom(ep *store.Endpoint) *Resource {
	spec := ResponseSpec{
		Code:    ep.Code,
		Headers: ep.Headers,
	}
	if ep.Body != "" {
		body := ep.Body
		spec.Body = &body
	}
	return &Resource{
		ID:   ep.ID,
		Type: ResourceType,
		Attributes: Attributes{
			Verb:     ep.Verb,
			Path:     ep.Path,
			Response: spec,
		},
	}
}
