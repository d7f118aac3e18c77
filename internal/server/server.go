// Package server exposes the HTTP API: scan streaming, bucket management,
// webhook intake, and exports.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"talentlens/internal/store"
	"talentlens/internal/talent"
)

// Scanner runs a keyword scan, reporting progress through the emitter.
type Scanner interface {
	Scan(ctx context.Context, keyword string, maxProfiles, maxImages int, em Emitter)
}

// Emitter mirrors the pipeline's progress contract.
type Emitter interface {
	Log(msg string)
	Result(v any)
	Error(msg string)
	Done()
}

// Analyzer triggers candidate analysis.
type Analyzer interface {
	AnalyzeCandidate(ctx context.Context, bucketID, key string) error
	AnalyzeBucket(ctx context.Context, bucketID string) error
}

// Importer pulls sheet rows into a bucket on demand.
type Importer interface {
	ImportBucket(ctx context.Context, bucketID string) (int, error)
}

// Server carries the handler dependencies and the export cache.
type Server struct {
	store     *store.Store
	scanner   Scanner
	analyzer  Analyzer
	importer  Importer
	imagesDir string
	logger    *zap.Logger

	mu       sync.Mutex
	lastScan []*talent.Candidate
}

func New(st *store.Store, scanner Scanner, analyzer Analyzer, importer Importer, imagesDir string, logger *zap.Logger) *Server {
	return &Server{
		store:     st,
		scanner:   scanner,
		analyzer:  analyzer,
		importer:  importer,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/scan", s.handleScan)
	r.Get("/api/export", s.handleExport)

	r.Route("/api/devs", func(r chi.Router) {
		r.Get("/roles", s.handleListRoles)
		r.Post("/roles", s.handleCreateRole)
		r.Get("/roles/{id}", s.handleGetRole)
		r.Delete("/roles/{id}", s.handleDeleteRole)
		r.Put("/roles/{id}/candidates/{key}/status", s.handleSetStatus)
		r.Post("/roles/{id}/analyze", s.handleAnalyze)
		r.Post("/roles/{id}/import", s.handleImport)
		r.Post("/webhook", s.handleWebhook)
	})

	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) setLastScan(results []*talent.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = results
}

func (s *Server) getLastScan() []*talent.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}
