package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// indexParam reads the {index} URL parameter.
func indexParam(r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	return index, err == nil
}

// handleAddItem appends a task under the node at "index" (default 0, the
// list itself).
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	var req struct {
		Label string `json:"label"`
		Index *int   `json:"index"`
	}
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Label == "" {
		jsonError(w, "label is required", http.StatusBadRequest)
		return
	}
	index := 0
	if req.Index != nil {
		index = *req.Index
	}

	root, err := s.lists.Add(r.Context(), listID, req.Label, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listResponse{ListID: listID, List: root})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	index, ok := indexParam(r)
	if !ok {
		jsonError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	node, err := s.lists.Item(r.Context(), listID, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "item": node})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	index, ok := indexParam(r)
	if !ok {
		jsonError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	removed, err := s.lists.Remove(r.Context(), listID, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// handleMarkItem sets the completion flag of the node at index and every
// task below it. "value" defaults to true.
func (s *Server) handleMarkItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	index, ok := indexParam(r)
	if !ok {
		jsonError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	var req struct {
		Value *bool `json:"value"`
	}
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	value := true
	if req.Value != nil {
		value = *req.Value
	}

	root, err := s.lists.Mark(r.Context(), listID, index, value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{ListID: listID, List: root})
}
