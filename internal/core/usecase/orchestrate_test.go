package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

const (
	bedrockReply = "```json\n" + `[{"service_name": "Amazon Bedrock", "has_ai": true, "has_genai": true, "has_llm": true, "relevant_excerpt": "Foundation models"}]` + "\n```"
	azureReply   = `[{"service_name": "Azure OpenAI", "has_ai": true, "has_genai": true, "has_llm": false, "relevant_excerpt": "Generative AI"}]`
)

func scriptedGenerator(replies map[string]string) ports.GenerateFunc {
	return func(_ context.Context, prompt string) (string, error) {
		for offering, reply := range replies {
			if strings.Contains(prompt, "Product: "+offering+"\n") {
				return reply, nil
			}
		}
		return "[]", nil
	}
}

func mixedCatalog() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{ExternalID: "E1", Provider: "Amazon Web Services", Offering: "Bedrock Suite", SubServices: []string{"Amazon Bedrock", "Amazon S3"}},
		{ExternalID: "E2", Provider: "Microsoft", Offering: "Azure Government", SubServices: []string{"Azure OpenAI"}},
		{ExternalID: "E3", Provider: "Acme", Offering: "Acme Empty"},
		{ExternalID: "E4", Provider: "Acme", Offering: "Acme Broken", SubServices: []string{"Widget"}},
	}
}

func newTestOrchestrator(
	entries []domain.CatalogEntry,
	store *classificationStoreFake,
	generator ports.TextGenerator,
	observer ports.PipelineObserver,
	cfg ClassifyConfig,
) *ClassifyCatalogUseCase {
	uc := NewClassifyCatalogUseCase(&catalogRepoFake{entries: entries}, store, NewClassifier(generator), observer, nil, cfg)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	uc.now = func() time.Time { return fixed }
	return uc
}

func TestClassifyCatalogStats(t *testing.T) {
	store := &classificationStoreFake{}
	observer := newObserverFake()
	generator := scriptedGenerator(map[string]string{
		"Bedrock Suite":    bedrockReply,
		"Azure Government": azureReply,
		"Acme Broken":      "not json",
	})
	uc := newTestOrchestrator(mixedCatalog(), store, generator, observer, ClassifyConfig{Workers: 3})

	stats, err := uc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.PassStats{
		PassID:    stats.PassID,
		Entries:   4,
		Processed: 4,
		Succeeded: 2,
		Failed:    1,
		Skipped:   1,
		ClassificationStats: domain.ClassificationStats{
			TotalAIServices: 2,
			CountAI:         2,
			CountGenAI:      2,
			CountLLM:        1,
			ProductsWithAI:  2,
			ProvidersWithAI: 2,
		},
	}
	if stats != want {
		t.Fatalf("unexpected stats:\n got %+v\nwant %+v", stats, want)
	}
	if stats.PassID == "" {
		t.Fatalf("expected pass id")
	}

	if len(store.runs) != 4 {
		t.Fatalf("expected a run for every entry, got %d", len(store.runs))
	}
	for _, run := range store.runs {
		if run.PassID != stats.PassID {
			t.Fatalf("expected run pass id %s, got %s", stats.PassID, run.PassID)
		}
		wantFindings := 0
		if run.EntryID == "E1" || run.EntryID == "E2" {
			wantFindings = 1
		}
		if run.FindingsCount != wantFindings {
			t.Fatalf("entry %s: expected %d findings on run, got %d", run.EntryID, wantFindings, run.FindingsCount)
		}
	}
	if len(store.committed) != 2 {
		t.Fatalf("expected 2 committed findings, got %d", len(store.committed))
	}
	if observer.outcomes[OutcomeClassified] != 2 || observer.outcomes[OutcomeFailed] != 1 || observer.outcomes[OutcomeSkipped] != 1 {
		t.Fatalf("unexpected observed outcomes: %+v", observer.outcomes)
	}
	if observer.started != 4 {
		t.Fatalf("expected 4 started entries, got %d", observer.started)
	}
}

func TestClassifyCatalogCheckpointCadence(t *testing.T) {
	entries := make([]domain.CatalogEntry, 25)
	for i := range entries {
		entries[i] = domain.CatalogEntry{
			ExternalID:  fmt.Sprintf("E%02d", i),
			Provider:    "Acme",
			Offering:    fmt.Sprintf("Offering %02d", i),
			SubServices: []string{"Storage"},
		}
	}
	store := &classificationStoreFake{}
	observer := newObserverFake()
	uc := newTestOrchestrator(entries, store, scriptedGenerator(nil), observer, ClassifyConfig{Workers: 4, CheckpointEvery: 10})

	stats, err := uc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 25 || stats.Succeeded != 25 || stats.TotalAIServices != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	// at 10, at 20, and the final flush
	if store.checkpoints != 3 || observer.checkpoints != 3 {
		t.Fatalf("expected 3 checkpoints, got store=%d observer=%d", store.checkpoints, observer.checkpoints)
	}
	if len(store.runs) != 25 {
		t.Fatalf("expected 25 zero-finding runs, got %d", len(store.runs))
	}
}

func TestClassifyCatalogContinuesAfterRejectedEntry(t *testing.T) {
	store := &classificationStoreFake{rejectEntries: map[string]bool{"E1": true}}
	generator := scriptedGenerator(map[string]string{
		"Bedrock Suite":    bedrockReply,
		"Azure Government": azureReply,
	})
	uc := newTestOrchestrator(mixedCatalog(), store, generator, nil, ClassifyConfig{Workers: 2})

	stats, err := uc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 4 || stats.Failed != 1 || stats.TotalAIServices != 1 || stats.ProvidersWithAI != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(store.runs) != 3 {
		t.Fatalf("expected rejected entry to leave no run, got %d runs", len(store.runs))
	}
	if len(store.committed) != 1 || store.committed[0].EntryID != "E2" {
		t.Fatalf("unexpected committed findings: %+v", store.committed)
	}
}

func TestClassifyCatalogSaveFailureIsFatal(t *testing.T) {
	store := &classificationStoreFake{saveErr: errors.New("connection reset")}
	uc := newTestOrchestrator(mixedCatalog(), store, scriptedGenerator(nil), nil, ClassifyConfig{Workers: 1})

	_, err := uc.Run(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected fatal save error, got %v", err)
	}
	if store.checkpoints != 0 {
		t.Fatalf("expected no checkpoint after fatal error, got %d", store.checkpoints)
	}
}

func TestClassifyCatalogCheckpointFailureIsFatal(t *testing.T) {
	entries := make([]domain.CatalogEntry, 25)
	for i := range entries {
		entries[i] = domain.CatalogEntry{ExternalID: fmt.Sprintf("E%02d", i), Offering: fmt.Sprintf("O%02d", i), SubServices: []string{"x"}}
	}
	store := &classificationStoreFake{checkpointErr: errors.New("disk full"), failAfter: 1}
	uc := newTestOrchestrator(entries, store, scriptedGenerator(nil), nil, ClassifyConfig{Workers: 2, CheckpointEvery: 10})

	stats, err := uc.Run(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	if store.checkpoints != 1 || len(store.runs) != 10 {
		t.Fatalf("expected only the first checkpoint durable, got checkpoints=%d runs=%d", store.checkpoints, len(store.runs))
	}
	if stats.Processed != 20 {
		t.Fatalf("expected processing to stop at the failed checkpoint, got %d", stats.Processed)
	}
}

func TestClassifyCatalogClearAndRerunIsIdempotent(t *testing.T) {
	store := &classificationStoreFake{}
	generator := scriptedGenerator(map[string]string{
		"Bedrock Suite":    bedrockReply,
		"Azure Government": azureReply,
	})
	uc := newTestOrchestrator(mixedCatalog(), store, generator, nil, ClassifyConfig{Workers: 4})

	first, err := uc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstRows, _ := store.ListClassifications(context.Background(), domain.ClassificationFilter{})

	second, err := uc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	secondRows, _ := store.ListClassifications(context.Background(), domain.ClassificationFilter{})

	if store.clears != 2 {
		t.Fatalf("expected two clears, got %d", store.clears)
	}
	if !reflect.DeepEqual(firstRows, secondRows) {
		t.Fatalf("expected identical findings after rerun:\n%+v\n%+v", firstRows, secondRows)
	}
	first.PassID, second.PassID = "", ""
	if first != second {
		t.Fatalf("expected identical stats: %+v vs %+v", first, second)
	}
}

func TestClassifyCatalogEmptyCatalog(t *testing.T) {
	store := &classificationStoreFake{}
	uc := newTestOrchestrator(nil, store, scriptedGenerator(nil), nil, ClassifyConfig{})

	stats, err := uc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 0 || store.checkpoints != 1 {
		t.Fatalf("unexpected stats=%+v checkpoints=%d", stats, store.checkpoints)
	}
}

func TestClassifyCatalogLogsPoolSize(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	store := &classificationStoreFake{}
	uc := NewClassifyCatalogUseCase(&catalogRepoFake{entries: mixedCatalog()}, store, NewClassifier(scriptedGenerator(nil)), nil, logger, ClassifyConfig{})

	if _, err := uc.Run(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, `"msg":"classification_pass_started"`) {
			if !strings.Contains(line, `"workers":10`) || !strings.Contains(line, `"entries":4`) {
				t.Fatalf("unexpected pass start log: %s", line)
			}
			return
		}
	}
	t.Fatalf("pass start not logged:\n%s", logs.String())
}
