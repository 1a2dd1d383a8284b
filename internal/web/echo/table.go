// Package echo serves the dynamic routes registered through the management
// API. The route table is mutable at runtime: creating, updating, or deleting
// an endpoint takes effect without a restart.
package echo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/echo-labs/echo-service/internal/store"
)

// mediaType matches the management API's media type so route misses carry the
// same error envelope as every other error the service produces.
const mediaType = "application/vnd.api+json"

type errorDocument struct {
	Errors []errorObject `json:"errors"`
}

type errorObject struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

type routeKey struct {
	verb string
	path string
}

// Table maps (verb, path) pairs to their canned responses.
// Safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	routes map[routeKey]*store.Endpoint
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{routes: make(map[routeKey]*store.Endpoint)}
}

// Load replaces the table contents with the given endpoints.
// Used to hydrate routes from the database at startup.
func (t *Table) Load(endpoints []*store.Endpoint) {
	routes := make(map[routeKey]*store.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		routes[keyFor(ep.Verb, ep.Path)] = ep
	}

	t.mu.Lock()
	t.routes = routes
	t.mu.Unlock()
}

// Set registers or replaces the route for an endpoint.
func (t *Table) Set(ep *store.Endpoint) {
	t.mu.Lock()
	t.routes[keyFor(ep.Verb, ep.Path)] = ep
	t.mu.Unlock()
}

// Remove unregisters the route for a (verb, path) pair.
func (t *Table) Remove(verb, path string) {
	t.mu.Lock()
	delete(t.routes, keyFor(verb, path))
	t.mu.Unlock()
}

// Lookup returns the endpoint registered for a (verb, path) pair.
func (t *Table) Lookup(verb, path string) (*store.Endpoint, bool) {
	t.mu.RLock()
	ep, ok := t.routes[keyFor(verb, path)]
	t.mu.RUnlock()
	return ep, ok
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// ServeHTTP answers a request with the stored response for its route, or a
// 404 error envelope if no endpoint is registered for it.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ep, ok := t.Lookup(r.Method, r.URL.Path)
	if !ok {
		w.Header().Set("Content-Type", mediaType)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(errorDocument{
			Errors: []errorObject{{
				Code:   http.StatusNotFound,
				Detail: fmt.Sprintf("no endpoint registered for %s %s", r.Method, r.URL.Path),
			}},
		})
		return
	}

	for name, value := range ep.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(ep.Code)
	if ep.Body != "" {
		_, _ = w.Write([]byte(ep.Body))
	}
}

func keyFor(verb, path string) routeKey {
	return routeKey{verb: strings.ToUpper(verb), path: path}
}
