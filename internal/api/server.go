package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/todotree/internal/config"
	"github.com/dgallion1/todotree/internal/lists"
	"github.com/dgallion1/todotree/internal/pipeline"
	"github.com/dgallion1/todotree/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StoreStats reports storage latency.
type StoreStats interface {
	Stats() store.StoreStats
}

// Server is the HTTP API server for todotree.
type Server struct {
	router       chi.Router
	lists        *lists.Service
	orchestrator *pipeline.Orchestrator
	storeStats   StoreStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. storeStats may be nil.
func NewServer(svc *lists.Service, orch *pipeline.Orchestrator, storeStats StoreStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		lists:        svc,
		orchestrator: orch,
		storeStats:   storeStats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/*", staticHandler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Route("/api/lists", func(r chi.Router) {
			r.Post("/", s.handleCreateList)
			r.Get("/", s.handleListLists)

			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", s.handleGetList)
				r.Put("/", s.handleReplaceList)
				r.Delete("/", s.handleDeleteList)
				r.Get("/stats", s.handleListStats)
				r.Post("/import", s.handleImport)

				r.Post("/items", s.handleAddItem)
				r.Get("/items/{index}", s.handleGetItem)
				r.Delete("/items/{index}", s.handleRemoveItem)
				r.Post("/items/{index}/mark", s.handleMarkItem)
			})
		})

		r.Get("/api/import/{jobID}/status", s.handleImportStatus)
		r.Get("/api/stats/store", s.handleStoreStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
