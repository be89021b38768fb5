// Package server exposes the scrape orchestrator over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/pitch-intel/internal/company"
	"github.com/sells-group/pitch-intel/internal/config"
	"github.com/sells-group/pitch-intel/internal/jobs"
	"github.com/sells-group/pitch-intel/internal/pipeline"
	"github.com/sells-group/pitch-intel/internal/prompt"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	cfg       *config.Config
	jobs      *jobs.Store
	queue     *jobs.Queue
	runner    *pipeline.Runner
	companies *company.Store
	prompts   *prompt.Store
}

// New wires a Server.
func New(
	cfg *config.Config,
	jobStore *jobs.Store,
	queue *jobs.Queue,
	runner *pipeline.Runner,
	companyStore *company.Store,
	promptStore *prompt.Store,
) *Server {
	return &Server{
		cfg:       cfg,
		jobs:      jobStore,
		queue:     queue,
		runner:    runner,
		companies: companyStore,
		prompts:   promptStore,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/scrape", s.handleStartScrape)
		r.Get("/scrape/{jobID}/status", s.handleScrapeStatus)
		r.Get("/scrape/{jobID}/result", s.handleScrapeResult)

		r.Get("/companies", s.handleListCompanies)
		r.Get("/companies/{name}", s.handleGetCompany)
		r.Post("/pitch", s.handleIngestPitch)

		r.Get("/prompts", s.handleListPrompts)
		r.Get("/prompts/{name}", s.handleGetPrompt)
		r.Post("/prompts/{name}", s.handleSavePrompt)
		r.Delete("/prompts/{name}", s.handleDeletePrompt)

		r.Get("/research/{company}", s.handleResearchCompany)
	})

	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
