package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type generatorFake struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *generatorFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testEntry(id string, services ...string) domain.CatalogEntry {
	return domain.CatalogEntry{
		ExternalID:  id,
		Provider:    "Amazon Web Services",
		Offering:    "AWS GovCloud",
		Description: "Cloud platform",
		SubServices: services,
		Status:      "FedRAMP Authorized",
		ImpactLevel: "High",
		Agencies:    "DoD, DHS",
		AuthDate:    "2016-06-21",
	}
}

func TestClassifierSkipsEntryWithoutSubServices(t *testing.T) {
	gen := &generatorFake{reply: "[]"}
	result := NewClassifier(gen).Classify(context.Background(), testEntry("F1"))

	if gen.calls() != 0 {
		t.Fatalf("expected no generator calls, got %d", gen.calls())
	}
	if !result.Skipped || len(result.Findings) != 0 || result.Err != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Outcome() != OutcomeSkipped {
		t.Fatalf("expected skipped outcome, got %s", result.Outcome())
	}
}

func TestClassifierPromptListsFirstHundredSubServices(t *testing.T) {
	services := make([]string, 150)
	for i := range services {
		services[i] = fmt.Sprintf("svc-%03d", i)
	}
	gen := &generatorFake{reply: "[]"}
	NewClassifier(gen).Classify(context.Background(), testEntry("F1", services...))

	if gen.calls() != 1 {
		t.Fatalf("expected exactly one call, got %d", gen.calls())
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "svc-099") {
		t.Fatalf("expected svc-099 in prompt")
	}
	if strings.Contains(prompt, "svc-100") || strings.Contains(prompt, "svc-149") {
		t.Fatalf("expected services beyond the first 100 to be dropped")
	}
}

func TestClassifierPromptTruncatesDescription(t *testing.T) {
	entry := testEntry("F1", "Amazon Bedrock")
	entry.Description = strings.Repeat("é", 1500)
	gen := &generatorFake{reply: "[]"}
	NewClassifier(gen).Classify(context.Background(), entry)

	prompt := gen.prompts[0]
	if strings.Contains(prompt, strings.Repeat("é", 1001)) {
		t.Fatalf("expected description truncated to 1000 characters")
	}
	if !strings.Contains(prompt, strings.Repeat("é", 1000)+"...") {
		t.Fatalf("expected truncated description with ellipsis")
	}
}

func TestClassifierParsesFencedAndUnfencedResponses(t *testing.T) {
	body := `[{"service_name": "Amazon Bedrock", "has_ai": true, "has_genai": true, "has_llm": true, "relevant_excerpt": "Foundation models"}]`
	replies := map[string]string{
		"fenced-json":       "```json\n" + body + "\n```",
		"fenced-unlabelled": "```\n" + body + "\n```",
		"unfenced":          body,
		"with-preamble":     "Here are the results:\n```json\n" + body + "\n```\nDone.",
		"fenced-one-line":   "```json " + body + "```",
		"fenced-tag-only":   "```JSON" + body + "\n```",
	}

	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			gen := &generatorFake{reply: reply}
			result := NewClassifier(gen).Classify(context.Background(), testEntry("F1", "Amazon Bedrock", "Amazon S3"))
			if result.Err != nil {
				t.Fatalf("unexpected error: %v", result.Err)
			}
			if len(result.Findings) != 1 {
				t.Fatalf("expected one finding, got %d", len(result.Findings))
			}
			finding := result.Findings[0]
			if finding.ServiceName != "Amazon Bedrock" || !finding.HasAI || !finding.HasGenAI || !finding.HasLLM {
				t.Fatalf("unexpected finding: %+v", finding)
			}
			if finding.RelevantExcerpt != "Foundation models" {
				t.Fatalf("unexpected excerpt: %q", finding.RelevantExcerpt)
			}
		})
	}
}

func TestClassifierMalformedResponseIsEntryFailure(t *testing.T) {
	gen := &generatorFake{reply: "I could not find any AI services."}
	result := NewClassifier(gen).Classify(context.Background(), testEntry("F1", "Amazon S3"))

	if !domain.IsKind(result.Err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", result.Err)
	}
	if len(result.Findings) != 0 {
		t.Fatalf("expected no findings on failure")
	}
	if result.Outcome() != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome())
	}
}

func TestClassifierCallErrorIsEntryFailure(t *testing.T) {
	gen := &generatorFake{err: errors.New("rate limited")}
	result := NewClassifier(gen).Classify(context.Background(), testEntry("F1", "Amazon S3"))

	if result.Err == nil || !strings.Contains(result.Err.Error(), "rate limited") {
		t.Fatalf("expected call error, got %v", result.Err)
	}
	if gen.calls() != 1 {
		t.Fatalf("expected no retries, got %d calls", gen.calls())
	}
}

func TestClassifierBackfillsEntryAttributes(t *testing.T) {
	reply := `[{"service_name": ["Amazon", "SageMaker"], "has_ai": "yes", "has_genai": 0, "has_llm": false,
		"relevant_excerpt": null, "provider_name": "Someone Else", "fedramp_status": "Bogus"}]`
	gen := &generatorFake{reply: reply}
	entry := testEntry("F7", "Amazon SageMaker")
	result := NewClassifier(gen).Classify(context.Background(), entry)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected one finding, got %d", len(result.Findings))
	}
	finding := result.Findings[0]
	if finding.EntryID != "F7" || finding.Provider != entry.Provider || finding.EntryName != entry.Offering {
		t.Fatalf("expected entry identity backfilled, got %+v", finding)
	}
	if finding.Status != entry.Status || finding.ImpactLevel != entry.ImpactLevel ||
		finding.Agencies != entry.Agencies || finding.AuthDate != entry.AuthDate {
		t.Fatalf("expected entry attributes backfilled, got %+v", finding)
	}
	if finding.ServiceName != "Amazon, SageMaker" {
		t.Fatalf("expected list service name joined, got %q", finding.ServiceName)
	}
	if !finding.HasAI || finding.HasGenAI || finding.HasLLM {
		t.Fatalf("unexpected flags: %+v", finding)
	}
	if finding.RelevantExcerpt != "" {
		t.Fatalf("expected null excerpt to become empty, got %q", finding.RelevantExcerpt)
	}
}

func TestClassifierDropsElementsWithoutFlags(t *testing.T) {
	reply := `[{"service_name": "Amazon S3"}, {"service_name": "Amazon Lex", "has_ai": true}]`
	gen := &generatorFake{reply: reply}
	result := NewClassifier(gen).Classify(context.Background(), testEntry("F1", "Amazon S3", "Amazon Lex"))

	if len(result.Findings) != 1 || result.Findings[0].ServiceName != "Amazon Lex" {
		t.Fatalf("expected only flagged element kept, got %+v", result.Findings)
	}
}

func TestClassifierEmptyArrayIsSuccess(t *testing.T) {
	gen := &generatorFake{reply: "```json\n[]\n```"}
	result := NewClassifier(gen).Classify(context.Background(), testEntry("F1", "Amazon S3"))

	if result.Err != nil || len(result.Findings) != 0 || result.Outcome() != OutcomeClassified {
		t.Fatalf("unexpected result: %+v", result)
	}
}
