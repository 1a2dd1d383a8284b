package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echo-labs/echo-service/internal/store"
	"github.com/echo-labs/echo-service/internal/web/echo"
)

// Handlers provides HTTP handlers for the management API.
type Handlers struct {
	store   *store.SQLiteStore
	table   *echo.Table
	logger  *slog.Logger
	version string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *store.SQLiteStore, table *echo.Table, logger *slog.Logger, version string) *Handlers {
	return &Handlers{
		store:   s,
		table:   table,
		logger:  logger,
		version: version,
	}
}

// Routes mounts the management API on the given router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/endpoints", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Health reports service liveness and the running version.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// List returns all registered endpoints.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.store.ListEndpoints(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}

	resources := make([]*Resource, 0, len(endpoints))
	for _, ep := range endpoints {
		resources = append(resources, resourceFrom(ep))
	}
	h.writeDocument(w, http.StatusOK, ListDocument{Data: resources})
}

// Create registers a new endpoint and activates its route.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	attrs, ok := h.decodeAttributes(w, r)
	if !ok {
		return
	}

	ep, err := h.store.CreateEndpoint(r.Context(), attrs.toStore())
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.table.Set(ep)

	h.logger.Info("registered endpoint",
		"id", ep.ID, "verb", ep.Verb, "path", ep.Path, "code", ep.Code)
	h.writeDocument(w, http.StatusCreated, Document{Data: resourceFrom(ep)})
}

// Get returns a single endpoint by ID.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	ep, err := h.store.GetEndpoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.writeDocument(w, http.StatusOK, Document{Data: resourceFrom(ep)})
}

// Update replaces the attributes of an endpoint and reroutes it.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	attrs, ok := h.decodeAttributes(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	current, err := h.store.GetEndpoint(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	updated, err := h.store.UpdateEndpoint(r.Context(), id, attrs.toStore())
	if err != nil {
		h.storeError(w, err)
		return
	}

	// The route key may have changed; drop the old one before registering.
	h.table.Remove(current.Verb, current.Path)
	h.table.Set(updated)

	h.logger.Info("updated endpoint",
		"id", updated.ID, "verb", updated.Verb, "path", updated.Path, "code", updated.Code)
	h.writeDocument(w, http.StatusOK, Document{Data: resourceFrom(updated)})
}

// Delete removes an endpoint and deactivates its route.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ep, err := h.store.GetEndpoint(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	if err := h.store.DeleteEndpoint(r.Context(), id); err != nil {
		h.storeError(w, err)
		return
	}
	h.table.Remove(ep.Verb, ep.Path)

	h.logger.Info("removed endpoint", "id", id, "verb", ep.Verb, "path", ep.Path)
	w.WriteHeader(http.StatusNoContent)
}

// decodeAttributes parses and validates an incoming document body.
func (h *Handlers) decodeAttributes(w http.ResponseWriter, r *http.Request) (Attributes, bool) {
	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return Attributes{}, false
	}
	if doc.Data == nil {
		h.writeError(w, http.StatusBadRequest, "request document must contain a data object")
		return Attributes{}, false
	}
	if doc.Data.Type != ResourceType {
		// JSON:API: unsupported resource type for the endpoint is a conflict.
		h.writeError(w, http.StatusConflict, "unsupported resource type: "+doc.Data.Type)
		return Attributes{}, false
	}
	if err := doc.Data.Attributes.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return Attributes{}, false
	}
	return doc.Data.Attributes, true
}

func (h *Handlers) writeDocument(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorDocument{
		Errors: []ErrorObject{{Code: status, Detail: detail}},
	})
}

// storeError maps store errors to API error responses.
func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateRoute):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("store operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
