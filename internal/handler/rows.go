package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/identity"
	"github.com/sakif/snipspace/internal/rowstore"
)

// RowsHandler serves the REST row endpoints under /rest/v1/{collection}. It
// speaks the same dialect the rest adapter emits: eq./in. filters as query
// parameters, order=field.dir, JSON row bodies, inserted rows echoed back.
//
// Access control is row-level and owner-based, applied here rather than in
// the backing store: reads of public snippets are open to anonymous callers,
// everything else requires a session, and writes are constrained to rows the
// caller owns by forcing a user_id filter into the query.
type RowsHandler struct {
	store  rowstore.Client
	logger *slog.Logger
}

func NewRowsHandler(store rowstore.Client, logger *slog.Logger) *RowsHandler {
	return &RowsHandler{store: store, logger: logger}
}

func (h *RowsHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	filter, order, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err = h.authorizeRead(r, collection, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.store.Select(r.Context(), rowstore.Query{
		Collection: collection,
		Filter:     filter,
		Order:      order,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *RowsHandler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	session, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	var record rowstore.Row
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}

	switch collection {
	case "snippets", "folders":
		// The owner is always the caller, whatever the payload says.
		record["user_id"] = session.ID
	case "snippet_folders":
		if err := h.requireSnippetOwner(r, record, session.ID); err != nil {
			writeError(w, err)
			return
		}
	default:
		writeError(w, apperror.Forbidden("collection is not writable"))
		return
	}

	row, err := h.store.Insert(r.Context(), collection, record)
	if err != nil {
		writeError(w, err)
		return
	}
	// The adapter expects the representation as a one-element array.
	writeJSON(w, http.StatusCreated, []rowstore.Row{row})
}

func (h *RowsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	filter, err := h.writeFilter(r, collection)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch rowstore.Row
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}
	// created_at and ownership never change through a patch.
	delete(patch, "created_at")
	delete(patch, "user_id")
	delete(patch, "id")

	if err := h.store.Update(r.Context(), collection, filter, patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RowsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	filter, err := h.writeFilter(r, collection)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.Delete(r.Context(), collection, filter); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeRead scopes a select to what the caller may see. Public snippets
// are world-readable; everything else is owner-only, enforced by forcing
// user_id into the filter when the query does not already carry it.
func (h *RowsHandler) authorizeRead(r *http.Request, collection string, filter rowstore.Filter) (rowstore.Filter, error) {
	session, authed := identity.FromContext(r.Context())

	switch collection {
	case "snippets":
		if isPublicOnly(filter) {
			return filter, nil
		}
		if !authed {
			return filter, apperror.Forbidden("authentication required")
		}
		if owner, ok := filter.Equals["user_id"]; ok && owner != session.ID {
			return filter, apperror.Forbidden("cannot read another user's snippets")
		}
		// Reads by explicit id (folder contents) stay unscoped: the ids
		// came from the caller's own join rows.
		if _, byID := filter.In["id"]; !byID {
			if _, byID := filter.Equals["id"]; !byID {
				filter = withEquals(filter, "user_id", session.ID)
			}
		}
		return filter, nil

	case "folders":
		if !authed {
			return filter, apperror.Forbidden("authentication required")
		}
		if owner, ok := filter.Equals["user_id"]; ok && owner != session.ID {
			return filter, apperror.Forbidden("cannot read another user's folders")
		}
		if _, byID := filter.Equals["id"]; !byID {
			filter = withEquals(filter, "user_id", session.ID)
		}
		return filter, nil

	case "snippet_folders":
		if !authed {
			return filter, apperror.Forbidden("authentication required")
		}
		return filter, nil

	default:
		return filter, apperror.Forbidden("collection is not readable")
	}
}

// writeFilter builds the filter for a patch or delete, constrained to rows
// the caller owns.
func (h *RowsHandler) writeFilter(r *http.Request, collection string) (rowstore.Filter, error) {
	session, ok := identity.FromContext(r.Context())
	if !ok {
		return rowstore.Filter{}, apperror.Forbidden("authentication required")
	}

	filter, _, err := parseFilter(r.URL.Query())
	if err != nil {
		return rowstore.Filter{}, err
	}

	switch collection {
	case "snippets", "folders":
		// RLS-style scoping: the write silently touches only the caller's
		// rows, whatever the id filter says.
		return withEquals(filter, "user_id", session.ID), nil
	case "snippet_folders":
		if err := h.requireLinkOwner(r, filter, session.ID); err != nil {
			return rowstore.Filter{}, err
		}
		return filter, nil
	default:
		return rowstore.Filter{}, apperror.Forbidden("collection is not writable")
	}
}

// requireSnippetOwner checks that the join row being inserted points at a
// snippet the caller owns.
func (h *RowsHandler) requireSnippetOwner(r *http.Request, record rowstore.Row, userID string) error {
	snippetID, _ := record["snippet_id"].(string)
	if snippetID == "" {
		return apperror.ValidationFailed("snippet_id", "snippet_id is required")
	}
	rows, err := h.store.Select(r.Context(), rowstore.Query{
		Collection: "snippets",
		Filter:     rowstore.Eq("id", snippetID),
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return apperror.NotFound("snippet", snippetID)
	}
	if owner, _ := rows[0]["user_id"].(string); owner != userID {
		return apperror.Forbidden("cannot link another user's snippet")
	}
	return nil
}

// requireLinkOwner authorizes a join-row delete via the snippet named in
// the filter.
func (h *RowsHandler) requireLinkOwner(r *http.Request, filter rowstore.Filter, userID string) error {
	snippetID, _ := filter.Equals["snippet_id"].(string)
	if snippetID == "" {
		return apperror.ValidationFailed("snippet_id", "snippet_id filter is required")
	}
	return h.requireSnippetOwner(r, rowstore.Row{"snippet_id": snippetID}, userID)
}

func isPublicOnly(filter rowstore.Filter) bool {
	v, ok := filter.Equals["is_public"]
	return ok && v == true
}

func withEquals(filter rowstore.Filter, field string, value any) rowstore.Filter {
	if filter.Equals == nil {
		filter.Equals = map[string]any{}
	}
	filter.Equals[field] = value
	return filter
}

// parseFilter decodes eq./in. query parameters and the order key back into
// the store's filter shape. "true" and "false" become booleans so integer-
// backed boolean columns compare correctly.
func parseFilter(values url.Values) (rowstore.Filter, *rowstore.Order, error) {
	filter := rowstore.Filter{}
	var order *rowstore.Order

	for field, vs := range values {
		if field == "select" || len(vs) == 0 {
			continue
		}
		raw := vs[0]

		if field == "order" {
			name, dir, _ := strings.Cut(raw, ".")
			if name == "" {
				return filter, nil, apperror.ValidationFailed("order", "empty order field")
			}
			order = &rowstore.Order{Field: name, Descending: dir == "desc"}
			continue
		}

		switch {
		case strings.HasPrefix(raw, "eq."):
			filter = withEquals(filter, field, parseValue(strings.TrimPrefix(raw, "eq.")))
		case strings.HasPrefix(raw, "in.(") && strings.HasSuffix(raw, ")"):
			list := strings.TrimSuffix(strings.TrimPrefix(raw, "in.("), ")")
			var vals []any
			if list != "" {
				for _, v := range strings.Split(list, ",") {
					vals = append(vals, parseValue(v))
				}
			}
			if filter.In == nil {
				filter.In = map[string][]any{}
			}
			filter.In[field] = vals
		default:
			return filter, nil, apperror.ValidationFailed(field, "unsupported filter operator")
		}
	}
	return filter, order, nil
}

func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
