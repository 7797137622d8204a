package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

type catalogRepoFake struct {
	entries  []domain.CatalogEntry
	listErr  error
	upserted []domain.CatalogEntry
}

func (f *catalogRepoFake) UpsertEntries(_ context.Context, entries []domain.CatalogEntry) (int, error) {
	f.upserted = append(f.upserted, entries...)
	return len(entries), nil
}

func (f *catalogRepoFake) ListEntries(context.Context) ([]domain.CatalogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

// classificationStoreFake keeps committed rows apart from rows saved in the
// open session, so tests can observe what a checkpoint made durable.
type classificationStoreFake struct {
	mu            sync.Mutex
	committed     []domain.ServiceClassification
	runs          []domain.AnalysisRun
	rejectEntries map[string]bool
	saveErr       error
	checkpointErr error
	failAfter     int
	checkpoints   int
	clears        int
}

func (f *classificationStoreFake) ClearClassifications(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.committed = nil
	return nil
}

func (f *classificationStoreFake) BeginSession(context.Context) (ports.ClassificationSession, error) {
	return &classificationSessionFake{store: f}, nil
}

func (f *classificationStoreFake) ListClassifications(context.Context, domain.ClassificationFilter) ([]domain.ServiceClassification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.ServiceClassification(nil), f.committed...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].ServiceName < out[j].ServiceName
	})
	return out, nil
}

func (f *classificationStoreFake) ClassificationStats(context.Context) (domain.ClassificationStats, error) {
	return domain.ClassificationStats{}, nil
}

func (f *classificationStoreFake) LastAnalysisRun(_ context.Context, entryID string) (*domain.AnalysisRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].EntryID == entryID {
			run := f.runs[i]
			return &run, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "last analysis run", errors.New(entryID))
}

func (f *classificationStoreFake) AnalysisRunStats(context.Context) (domain.AnalysisRunStats, error) {
	return domain.AnalysisRunStats{}, nil
}

type classificationSessionFake struct {
	store           *classificationStoreFake
	pendingFindings []domain.ServiceClassification
	pendingRuns     []domain.AnalysisRun
	closed          bool
}

func (s *classificationSessionFake) SaveEntry(_ context.Context, run domain.AnalysisRun, findings []domain.ServiceClassification) error {
	if s.store.saveErr != nil {
		return s.store.saveErr
	}
	if s.store.rejectEntries[run.EntryID] {
		return domain.WrapError(domain.ErrEntryRejected, "save entry", errors.New("value too long"))
	}
	s.pendingRuns = append(s.pendingRuns, run)
	s.pendingFindings = append(s.pendingFindings, findings...)
	return nil
}

func (s *classificationSessionFake) Checkpoint(context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.checkpointErr != nil && s.store.checkpoints >= s.store.failAfter {
		return s.store.checkpointErr
	}
	s.store.checkpoints++
	s.store.committed = append(s.store.committed, s.pendingFindings...)
	s.store.runs = append(s.store.runs, s.pendingRuns...)
	s.pendingFindings = nil
	s.pendingRuns = nil
	return nil
}

func (s *classificationSessionFake) Close() error {
	s.closed = true
	return nil
}

type observerFake struct {
	mu          sync.Mutex
	started     int
	outcomes    map[string]int
	checkpoints int
	matches     map[domain.Confidence]int
}

func newObserverFake() *observerFake {
	return &observerFake{outcomes: map[string]int{}, matches: map[domain.Confidence]int{}}
}

func (o *observerFake) EntryStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *observerFake) EntryFinished(outcome string, _ []domain.ServiceClassification, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *observerFake) CheckpointCommitted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkpoints++
}

func (o *observerFake) MatchRecorded(confidence domain.Confidence) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matches[confidence]++
}

type agencyRepoFake struct {
	records  []domain.AgencyUsageRecord
	replaced []domain.AgencyUsageRecord
	filters  []domain.AgencyFilter
}

func (f *agencyRepoFake) ReplaceAgencies(_ context.Context, records []domain.AgencyUsageRecord) (int, error) {
	f.replaced = records
	return len(records), nil
}

func (f *agencyRepoFake) ListAgencies(_ context.Context, filter domain.AgencyFilter) ([]domain.AgencyUsageRecord, error) {
	f.filters = append(f.filters, filter)
	out := make([]domain.AgencyUsageRecord, 0)
	for _, record := range f.records {
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		if filter.Slug != "" && record.Slug != filter.Slug {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (f *agencyRepoFake) AgencyStats(context.Context) (domain.AgencyStats, error) {
	return domain.AgencyStats{TotalAgencies: len(f.records)}, nil
}

type matchRepoFake struct {
	replaced []domain.AgencyServiceMatch
	replaces int
}

func (f *matchRepoFake) ReplaceMatches(_ context.Context, matches []domain.AgencyServiceMatch) error {
	f.replaces++
	f.replaced = matches
	return nil
}

func (f *matchRepoFake) ListMatches(_ context.Context, filter domain.MatchFilter) ([]domain.AgencyServiceMatch, error) {
	out := make([]domain.AgencyServiceMatch, 0)
	for _, match := range f.replaced {
		if filter.AgencyID != 0 && match.AgencyID != filter.AgencyID {
			continue
		}
		if filter.Confidence != "" && match.Confidence != filter.Confidence {
			continue
		}
		out = append(out, match)
	}
	return out, nil
}
