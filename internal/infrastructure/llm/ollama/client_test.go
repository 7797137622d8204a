package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerateSendsPrompt(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  [] \n"}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", "llama3", time.Second)
	out, err := client.Generate(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "[]" {
		t.Fatalf("expected trimmed response, got %q", out)
	}
	if payload["prompt"] != "classify this" || payload["model"] != "llama3" || payload["stream"] != false {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestGenerateReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "llama3", time.Second).Generate(context.Background(), "hello")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.HTTPStatusCode() != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
