// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/jobs"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/pipeline"
)

const defaultMaxUpload = 10 << 20 // 10MB

// Service is the pipeline surface served over HTTP.
type Service interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SelectionResult, error)
	Lookup(ctx context.Context, q model.SearchQuery) (*pipeline.Outcome, error)
	Capture(ctx context.Context, filename string, data []byte, contentType string, progress pipeline.ProgressFunc) (*pipeline.Outcome, error)
	FetchSnapshot(ctx context.Context, url string) (*model.SnapshotResult, error)
	Direct(ctx context.Context, payload json.RawMessage) (*pipeline.Outcome, error)
}

// JobQueue accepts background captures.
type JobQueue interface {
	Submit(filename string, data []byte, contentType string) (string, error)
	Get(id string) (jobs.Job, bool)
}

// Records reads persisted results.
type Records interface {
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, limit int) ([]model.Record, error)
}

// Deps are the collaborators of the HTTP handler.
type Deps struct {
	Pipeline       Service
	Jobs           JobQueue
	Records        Records
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewHandler builds the router.
func NewHandler(deps Deps) http.Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUpload
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Post("/search", handleSearch(deps))
	r.Post("/lookup", handleLookup(deps))
	r.Post("/capture", handleCapture(deps))
	r.Post("/capture/sync", handleCaptureSync(deps))
	r.Get("/jobs/{id}", handleGetJob(deps))
	r.Post("/linkedin", handleLinkedIn(deps))
	r.Post("/run", handleRun(deps))
	r.Get("/people", handleListPeople(deps))
	r.Get("/people/{id}", handleGetPerson(deps))

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
