package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

const serviceName = "catalog-api"

type JobEnqueuer interface {
	Enqueue(ctx context.Context, kind string, clearExisting bool) (domain.Job, error)
}

type MetricsRecorder interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
	RecordJobEnqueued(service, kind string)
}

type Dependencies struct {
	Services ports.ServiceCatalogReader
	Agencies ports.AgencyReader
	Jobs     JobEnqueuer
	Metrics  MetricsRecorder
	Health   func(context.Context) error
	Breakers func() map[string]string
}

type Router struct {
	cfg  config.Config
	deps Dependencies
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{cfg: cfg, deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	mux.HandleFunc("GET /v1/services", rt.listServices)
	mux.HandleFunc("GET /v1/services/stats", rt.serviceStats)
	mux.HandleFunc("GET /v1/services/{id}/last-run", rt.lastRun)

	mux.HandleFunc("GET /v1/agencies", rt.listAgencies)
	mux.HandleFunc("GET /v1/agencies/stats", rt.agencyStats)
	mux.HandleFunc("GET /v1/agencies/{slug}", rt.getAgency)
	mux.HandleFunc("GET /v1/agencies/{slug}/matches", rt.agencyMatches)

	mux.HandleFunc("POST /v1/jobs", rt.enqueueJob)

	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Health != nil {
		if err := rt.deps.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	body := map[string]any{"status": "ok"}
	if rt.deps.Breakers != nil {
		breakers := rt.deps.Breakers()
		for _, state := range breakers {
			if state == "open" {
				body["status"] = "degraded"
			}
		}
		body["breakers"] = breakers
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) listServices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	services, err := rt.deps.Services.ListClassifications(r.Context(), domain.ClassificationFilter{
		Flag:     domain.AIFlag(strings.ToLower(strings.TrimSpace(query.Get("flag")))),
		Provider: query.Get("provider"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services, "count": len(services)})
}

func (rt *Router) serviceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.deps.Services.ClassificationStats(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	runs, err := rt.deps.Services.AnalysisRunStats(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classification": stats, "analysis_runs": runs})
}

func (rt *Router) lastRun(w http.ResponseWriter, r *http.Request) {
	run, err := rt.deps.Services.LastAnalysisRun(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (rt *Router) listAgencies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	agencies, err := rt.deps.Agencies.ListAgencies(r.Context(), domain.AgencyFilter{
		Category: domain.AgencyCategory(strings.TrimSpace(query.Get("category"))),
		Query:    query.Get("q"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agencies": agencies, "count": len(agencies)})
}

func (rt *Router) agencyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.deps.Agencies.AgencyStats(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) getAgency(w http.ResponseWriter, r *http.Request) {
	records, err := rt.deps.Agencies.AgencyBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slug": r.PathValue("slug"), "records": records})
}

func (rt *Router) agencyMatches(w http.ResponseWriter, r *http.Request) {
	confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("confidence"))))
	matches, err := rt.deps.Agencies.MatchesForAgency(r.Context(), r.PathValue("slug"), confidence)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
}

func (rt *Router) enqueueJob(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Jobs == nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrTemporary, "enqueue job", errors.New("job queue is not configured")))
		return
	}

	var req struct {
		Kind          string `json:"kind"`
		ClearExisting bool   `json:"clear_existing"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json", "request_id": requestIDFromContext(r.Context())})
		return
	}

	job, err := rt.deps.Jobs.Enqueue(r.Context(), req.Kind, req.ClearExisting)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordJobEnqueued(serviceName, string(job.Kind))
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"request_id": requestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
