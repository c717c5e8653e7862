// Package pathstoretest provides an in-memory pathstore server for tests.
package pathstoretest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Server is a minimal pathstore: PUT, GET, DELETE and prefix scans of
// JSON values under /kv/.
type Server struct {
	*httptest.Server
	APIKey string

	mu     sync.Mutex
	values map[string]json.RawMessage
	// FailWith forces every request to answer with this status when non-zero.
	FailWith int
}

// NewServer starts a server that accepts apiKey as its bearer token.
func NewServer(apiKey string) *Server {
	s := &Server{APIKey: apiKey, values: make(map[string]json.RawMessage)}
	r := chi.NewRouter()
	r.Use(s.auth)
	r.Put("/kv/*", s.handlePut)
	r.Get("/kv/*", s.handleGet)
	r.Delete("/kv/*", s.handleDelete)
	s.Server = httptest.NewServer(r)
	return s
}

// Value returns the raw stored value at key.
func (s *Server) Value(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a raw value at key.
func (s *Server) Set(key string, value json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.FailWith != 0 {
			http.Error(w, "unavailable", s.FailWith)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Set(chi.URLParam(r, "*"), body.Value)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	w.Header().Set("Content-Type", "application/json")

	if prefix, ok := strings.CutSuffix(key, "/*"); ok {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		type entry struct {
			Key   string          `json:"key_path"`
			Value json.RawMessage `json:"value"`
		}
		s.mu.Lock()
		nodes := []entry{}
		for k, v := range s.values {
			if strings.HasPrefix(k, prefix+"/") {
				nodes = append(nodes, entry{Key: k, Value: v})
			}
		}
		s.mu.Unlock()
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
		if limit > 0 && len(nodes) > limit {
			nodes = nodes[:limit]
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
		return
	}

	v, ok := s.Value(key)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	recursive := r.URL.Query().Get("children") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.values[key]
	delete(s.values, key)
	if recursive {
		for k := range s.values {
			if strings.HasPrefix(k, key+"/") {
				delete(s.values, k)
				found = true
			}
		}
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
