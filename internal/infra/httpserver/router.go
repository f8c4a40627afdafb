package httpserver

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
	"github.com/go-chi/cors"

	appagents "github.com/bryanwahyu/convodoc/internal/application/agents"
	"github.com/bryanwahyu/convodoc/internal/application/analysis"
	"github.com/bryanwahyu/convodoc/internal/application/output"
	"github.com/bryanwahyu/convodoc/internal/domain"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	domai "github.com/bryanwahyu/convodoc/internal/domain/ai"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
	"github.com/bryanwahyu/convodoc/internal/middleware"
)

// DefaultMaxBodyBytes caps uploaded conversation exports.
const DefaultMaxBodyBytes = 10 << 20

// Options tune the HTTP surface. Zero values are usable.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter // guards run creation; nil disables
	Checkers       map[string]middleware.HealthChecker
	MaxBodyBytes   int64
}

type Router struct {
	runsSvc   *analysis.Service
	agentsSvc *appagents.Service
	logger    *slog.Logger
	maxBody   int64
}

func NewRouter(runsSvc *analysis.Service, agentsSvc *appagents.Service, opts Options) http.Handler {
	r := &Router{runsSvc: runsSvc, agentsSvc: agentsSvc, logger: opts.Logger, maxBody: opts.MaxBodyBytes}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.maxBody <= 0 {
		r.maxBody = DefaultMaxBodyBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(r.logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/documents", r.wrap(r.handleImport))
		rt.Get("/documents", r.wrap(r.handleListDocuments))
		rt.Get("/documents/{id}", r.wrap(r.handleGetDocument))

		rt.Group(func(limited chi.Router) {
			if opts.RateLimiter != nil {
				limited.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
			}
			limited.Post("/documents/{id}/runs", r.wrap(r.handleCreateRun))
			limited.Post("/runs", r.wrap(r.handleCreateRun))
		})

		rt.Get("/runs", r.wrap(r.handleLatest))
		rt.Get("/runs/{id}", r.wrap(r.handleGetRun))
		rt.Get("/runs/{id}/logs", r.wrap(r.handleLogs))
		rt.Get("/runs/{id}/artifacts", r.wrap(r.handleArtifacts))
		rt.Get("/runs/{id}/artifacts/{format}", r.wrap(r.handleArtifact))

		rt.Get("/agents", r.wrap(r.handleListAgents))
		rt.Patch("/agents/{id}", r.wrap(r.handleUpdateAgent))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var (
			verr   *middleware.ValidationError
			tooBig *http.MaxBytesError
		)
		switch {
		case errors.As(err, &verr):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &tooBig):
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, conversations.ErrMalformedExport):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, runs.ErrEmptyInput):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, runs.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return &middleware.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func limitQuery(req *http.Request) int {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	return middleware.ValidateLimit(limit)
}

// POST /v1/documents?title=&source=
// Body: JSON export (array or {"messages": [...]}) or a "role: content" transcript.
func (r *Router) handleImport(w http.ResponseWriter, req *http.Request) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		return err
	}
	title, err := middleware.ValidateTitle(req.URL.Query().Get("title"))
	if err != nil {
		return err
	}

	doc, err := r.runsSvc.Import(req.Context(), analysis.ImportCommand{
		Title:  title,
		Source: middleware.SanitizeString(req.URL.Query().Get("source")),
		Data:   data,
	})
	if err != nil {
		return err
	}
	middleware.IncrementDocuments()
	return writeJSON(w, http.StatusCreated, doc)
}

// GET /v1/documents?limit=20
func (r *Router) handleListDocuments(w http.ResponseWriter, req *http.Request) error {
	list, err := r.runsSvc.ListDocuments(req.Context(), limitQuery(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/documents/{id}
func (r *Router) handleGetDocument(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID("document id", id); err != nil {
		return err
	}
	doc, err := r.runsSvc.Document(req.Context(), conversations.DocumentID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, doc)
}

// POST /v1/documents/{id}/runs
// POST /v1/runs  Body: {"document_id": "<id>"}
func (r *Router) handleCreateRun(w http.ResponseWriter, req *http.Request) error {
	docID := chi.URLParam(req, "id")
	if docID == "" {
		var body struct {
			DocumentID string `json:"document_id"`
		}
		if err := decodeJSON(req, &body); err != nil {
			return err
		}
		docID = body.DocumentID
	}
	if err := middleware.ValidateUUID("document id", docID); err != nil {
		return err
	}

	run, err := r.runsSvc.RequestAnalysis(req.Context(), conversations.DocumentID(docID))
	if err != nil {
		return err
	}

	// 🚀 Jalankan di background, request HTTP gak nungguin pipeline
	middleware.IncrementRuns()
	middleware.IncrementRunsRunning()
	r.runsSvc.Start(run.ID, func(err error) {
		middleware.DecrementRunsRunning()
		if err != nil {
			middleware.IncrementRunsFailed()
		}
	})

	// 🔙 langsung balikin respons ke client
	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":          run.ID,
		"document_id": run.DocumentID,
		"status":      run.Status,
		"message":     "analysis started in background",
		"queuedAt":    time.Now().UTC(),
	})
}

// GET /v1/runs?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	list, err := r.runsSvc.Latest(req.Context(), limitQuery(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func runID(req *http.Request) (runs.RunID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID("run id", id); err != nil {
		return "", err
	}
	return runs.RunID(id), nil
}

// GET /v1/runs/{id}
func (r *Router) handleGetRun(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}
	run, err := r.runsSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, run)
}

// GET /v1/runs/{id}/logs?limit=
func (r *Router) handleLogs(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	logs, err := r.runsSvc.Logs(req.Context(), id, max(limit, 0))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, logs)
}

// GET /v1/runs/{id}/artifacts
// Content is omitted from the listing; fetch a single format for the body.
func (r *Router) handleArtifacts(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}
	list, err := r.runsSvc.ListArtifacts(req.Context(), id)
	if err != nil {
		return err
	}
	for _, a := range list {
		a.Content = ""
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/runs/{id}/artifacts/{format}
func (r *Router) handleArtifact(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}
	format, err := middleware.ValidateFormat(chi.URLParam(req, "format"))
	if err != nil {
		return err
	}
	a, err := r.runsSvc.Artifact(req.Context(), id, format)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "report-"+string(id)+"."+output.Extension(format)))
	_, err = io.WriteString(w, a.Content)
	return err
}

// GET /v1/agents
func (r *Router) handleListAgents(w http.ResponseWriter, req *http.Request) error {
	list, err := r.agentsSvc.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// PATCH /v1/agents/{id}
// Body: {"enabled": false, "config": {"maxGaps": 5}}
func (r *Router) handleUpdateAgent(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAgentID(id); err != nil {
		return err
	}
	var body struct {
		Enabled *bool         `json:"enabled"`
		Config  agents.Config `json:"config"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if body.Enabled == nil && body.Config == nil {
		return &middleware.ValidationError{Field: "body", Reason: "nothing to update"}
	}
	agent, err := r.agentsSvc.Update(req.Context(), agents.AgentID(id), body.Enabled, body.Config)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, agent)
}
