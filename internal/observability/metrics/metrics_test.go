package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/agencies":                             "/v1/agencies",
		"/v1/agencies/stats":                       "/v1/agencies/stats",
		"/v1/agencies/department-of-state":         "/v1/agencies/{slug}",
		"/v1/agencies/department-of-state/matches": "/v1/agencies/{slug}/matches",
		"/v1/services":                             "/v1/services",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	return rec.Body.String()
}

func assertSample(t *testing.T, exposition, sample string) {
	t.Helper()
	if !strings.Contains(exposition, sample) {
		t.Fatalf("expected sample %q in exposition:\n%s", sample, exposition)
	}
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("catalog-api")
	handler := m.Middleware("catalog-api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/agencies/nasa", nil))
	m.RecordJobEnqueued("catalog-api", "classify")

	out := scrape(t, m.Handler())
	assertSample(t, out, `catalog_http_requests_total{method="GET",path="/v1/agencies/{slug}",service="catalog-api",status="404"} 1`)
	assertSample(t, out, `catalog_jobs_enqueued_total{kind="classify",service="catalog-api"} 1`)
	assertSample(t, out, `catalog_http_in_flight_requests{service="catalog-api"} 0`)
}

func TestPipelineMetricsObservesEntries(t *testing.T) {
	m := NewPipelineMetrics("catalog-worker")

	m.EntryStarted()
	m.EntryStarted()
	assertSample(t, scrape(t, m.Handler()), `catalog_classify_entries_in_flight{service="catalog-worker"} 2`)

	m.EntryFinished("classified", []domain.ServiceClassification{
		{HasAI: true, HasGenAI: true, HasLLM: true},
		{HasAI: true},
	}, 1.5)
	m.EntryFinished("failed", nil, 0.2)
	m.CheckpointCommitted()
	m.MatchRecorded(domain.ConfidenceHigh)
	m.FinishJob(domain.JobClassify, 3*time.Second, errors.New("checkpoint failed"))

	out := scrape(t, m.Handler())
	assertSample(t, out, `catalog_classify_entries_in_flight{service="catalog-worker"} 0`)
	assertSample(t, out, `catalog_classify_findings_total{flag="ai",service="catalog-worker"} 2`)
	assertSample(t, out, `catalog_classify_findings_total{flag="llm",service="catalog-worker"} 1`)
	assertSample(t, out, `catalog_classify_entries_total{outcome="failed",service="catalog-worker"} 1`)
	assertSample(t, out, `catalog_classify_checkpoints_total{service="catalog-worker"} 1`)
	assertSample(t, out, `catalog_match_matches_total{confidence="high",service="catalog-worker"} 1`)
	assertSample(t, out, `catalog_worker_jobs_total{kind="classify",service="catalog-worker",status="error"} 1`)
}
