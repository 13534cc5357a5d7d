package demoapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// defaultLimit is the page size used when ?limit is absent.
const defaultLimit = 30

// Handler handles HTTP requests for the demo resources.
type Handler struct {
	store     Store
	logger    *slog.Logger
	resources map[string]struct{}
}

// NewHandler creates a Handler serving the given resource names.
func NewHandler(store Store, logger *slog.Logger, resources ...string) *Handler {
	set := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		set[r] = struct{}{}
	}
	return &Handler{store: store, logger: logger, resources: set}
}

// Routes mounts the resource endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/{resource}", func(r chi.Router) {
		r.Get("/", h.handleListItems)
		r.Post("/add", h.handleCreateItem)
		r.Get("/{id}", h.handleGetItem)
		r.Put("/{id}", h.handleUpdateItem)
		r.Patch("/{id}", h.handleUpdateItem)
		r.Delete("/{id}", h.handleDeleteItem)
	})
}

// resource returns the {resource} URL parameter, writing 404 if it is unknown.
func (h *Handler) resource(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "resource")
	if _, ok := h.resources[name]; !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("resource %q not found", name))
		return "", false
	}
	return name, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	name, ok := h.resource(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s id %q", name, chi.URLParam(r, "id")))
		return "", 0, false
	}
	return name, id, true
}

// handleListItems processes GET /{resource}.
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	name, ok := h.resource(w, r)
	if !ok {
		return
	}
	limit, skip, err := paging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.store.List(r.Context(), name)
	if err != nil {
		h.internalError(w, r, "error listing items", err)
		return
	}
	total := len(items)
	if skip > total {
		skip = total
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	docs := make([]map[string]any, len(items))
	for i, it := range items {
		docs[i] = it.Document()
	}
	writeJSON(w, http.StatusOK, ListResponse{Total: total, Skip: skip, Limit: len(docs)}.body(name, docs))
}

// handleCreateItem processes POST /{resource}/add.
func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	name, ok := h.resource(w, r)
	if !ok {
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	delete(fields, "id")
	item, err := h.store.Create(r.Context(), name, fields)
	if err != nil {
		h.internalError(w, r, "error saving item", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/%s/%d", name, item.ID))
	writeJSON(w, http.StatusCreated, item.Document())
}

// handleGetItem processes GET /{resource}/{id}.
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	name, id, ok := h.target(w, r)
	if !ok {
		return
	}
	item, err := h.store.Get(r.Context(), name, id)
	if err != nil {
		h.storeError(w, r, name, id, err)
		return
	}
	writeJSON(w, http.StatusOK, item.Document())
}

// handleUpdateItem processes PUT and PATCH /{resource}/{id}. Both merge the
// given fields into the stored item.
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	name, id, ok := h.target(w, r)
	if !ok {
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.store.Get(r.Context(), name, id)
	if err != nil {
		h.storeError(w, r, name, id, err)
		return
	}
	item.Merge(fields)
	item.LastModified = time.Now().UTC()
	if err := h.store.Save(r.Context(), item); err != nil {
		h.internalError(w, r, "error updating item", err)
		return
	}
	writeJSON(w, http.StatusOK, item.Document())
}

// handleDeleteItem processes DELETE /{resource}/{id} and returns the removed
// record marked as deleted.
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	name, id, ok := h.target(w, r)
	if !ok {
		return
	}
	item, err := h.store.Get(r.Context(), name, id)
	if err != nil {
		h.storeError(w, r, name, id, err)
		return
	}
	if err := h.store.Delete(r.Context(), name, id); err != nil {
		h.storeError(w, r, name, id, err)
		return
	}
	doc := item.Document()
	doc["isDeleted"] = true
	doc["deletedOn"] = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, name string, id int64, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s with id '%d' not found", name, id))
		return
	}
	h.internalError(w, r, "store error", err)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// decodeFields reads a single JSON object from the request body.
func decodeFields(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := ensureSingleJSON(dec); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrInvalidInput)
	}
	return fields, nil
}

// ensureSingleJSON ensures only a single JSON object is in the request body.
func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return fmt.Errorf("%w: request body must only contain a single JSON object", ErrInvalidInput)
	}
	return nil
}

func paging(r *http.Request) (limit, skip int, err error) {
	limit, skip = defaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", v)
		}
	}
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			return 0, 0, fmt.Errorf("invalid skip %q", v)
		}
	}
	return limit, skip, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
