package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/go-chi/chi/v5"
)

// listResponse is the body returned for a whole list.
type listResponse struct {
	ListID string         `json:"list_id"`
	List   *todolist.Node `json:"list"`
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	id, root, err := s.lists.Create(r.Context(), strings.TrimSpace(req.Label))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/lists/"+id)
	writeJSON(w, http.StatusCreated, listResponse{ListID: id, List: root})
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	ids, err := s.lists.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": ids})
}

// handleGetList returns the list as JSON, or as a document in
// ?format=yaml|toml|json, or as the numbered listing with ?format=text.
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	format := r.URL.Query().Get("format")

	if format == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.lists.Render(r.Context(), listID, w); err != nil {
			s.writeError(w, r, err)
		}
		return
	}

	root, err := s.lists.Get(r.Context(), listID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if format == "" {
		writeJSON(w, http.StatusOK, listResponse{ListID: listID, List: root})
		return
	}

	f, err := todolist.ParseFormat(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if err := todolist.Encode(w, root, f); err != nil {
		s.log.Error("encode list", "list_id", listID, "format", f, "error", err)
	}
}

// handleReplaceList stores the request body as the whole list. The body
// format follows ?format, then Content-Type, then defaults to JSON.
func (s *Server) handleReplaceList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	f, err := bodyFormat(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	root, err := todolist.Decode(r.Body, f)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "document too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeError(w, r, err)
		return
	}
	if err := s.lists.Replace(r.Context(), listID, root); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{ListID: listID, List: root})
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.lists.Delete(r.Context(), chi.URLParam(r, "listID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.lists.Stats(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func bodyFormat(r *http.Request) (todolist.Format, error) {
	if q := r.URL.Query().Get("format"); q != "" {
		return todolist.ParseFormat(q)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return todolist.YAML, nil
	case "application/toml":
		return todolist.TOML, nil
	}
	return todolist.JSON, nil
}

// decodeOptionalJSON decodes r's body into v; an empty body leaves v as is.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
