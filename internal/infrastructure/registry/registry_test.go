package registry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

const sampleSnapshot = `{
  "data": {
    "Products": [
      {
        "id": "FR1234567890",
        "cso": "AWS GovCloud (US)",
        "csp": "Amazon Web Services",
        "service_desc": "Isolated region",
        "all_others": [" Amazon Bedrock ", "Amazon S3", ""],
        "status": "FedRAMP Authorized",
        "impact_level": ["High", "Moderate"],
        "agency_authorizations": {"parent": "DHS", "count": 2},
        "auth_date": "2016-06-21"
      },
      {
        "id": 42,
        "cso": "Tiny SaaS",
        "csp": "Acme",
        "all_others": null,
        "impact_level": "Low",
        "agency_authorizations": ["DoD", "VA"]
      }
    ]
  }
}`

func TestDecodeNormalisesFieldShapes(t *testing.T) {
	entries, err := NewDecoder().Decode(strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.ExternalID != "FR1234567890" || first.Offering != "AWS GovCloud (US)" || first.Provider != "Amazon Web Services" {
		t.Fatalf("unexpected identity: %+v", first)
	}
	if len(first.SubServices) != 2 || first.SubServices[0] != "Amazon Bedrock" {
		t.Fatalf("unexpected sub-services: %#v", first.SubServices)
	}
	if first.ImpactLevel != "High, Moderate" {
		t.Fatalf("unexpected impact level: %q", first.ImpactLevel)
	}
	if first.Agencies != `{"parent":"DHS","count":2}` {
		t.Fatalf("unexpected agencies: %q", first.Agencies)
	}

	second := entries[1]
	if second.ExternalID != "42" || second.HasSubServices() || second.Agencies != "DoD, VA" || second.ImpactLevel != "Low" {
		t.Fatalf("unexpected second entry: %+v", second)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := NewDecoder().Decode(strings.NewReader("<html>")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFetchReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleSnapshot))
	}))
	defer server.Close()

	body, err := NewClient(server.URL, time.Second, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	if string(raw) != sampleSnapshot {
		t.Fatalf("unexpected body")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"Products":[]}}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Policy{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		BreakerEnabled:      false,
	})
	body, err := NewClient(server.URL, time.Second, executor).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	body.Close()
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, nil).Fetch(context.Background())
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}
