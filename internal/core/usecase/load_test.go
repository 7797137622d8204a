package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type registrySourceFake struct {
	body string
	err  error
}

func (f *registrySourceFake) Fetch(context.Context) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type objectStorageFake struct {
	objects map[string][]byte
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = raw
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open object", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type snapshotDecoderFake struct {
	entries []domain.CatalogEntry
	seen    string
}

func (f *snapshotDecoderFake) Decode(r io.Reader) ([]domain.CatalogEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.seen = string(raw)
	return f.entries, nil
}

type workbookReaderFake struct {
	records []domain.AgencyUsageRecord
	err     error
}

func (f *workbookReaderFake) ReadAgencies(io.Reader) ([]domain.AgencyUsageRecord, error) {
	return f.records, f.err
}

func TestDedupeEntriesKeepsFirstOccurrence(t *testing.T) {
	entries := []domain.CatalogEntry{
		{ExternalID: "F1", Offering: "first"},
		{ExternalID: " ", Offering: "blank"},
		{ExternalID: "F2", Offering: "second"},
		{ExternalID: "F1", Offering: "duplicate"},
	}

	got := DedupeEntries(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Offering != "first" || got[1].ExternalID != "F2" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestCatalogFetchThenLoad(t *testing.T) {
	source := &registrySourceFake{body: `{"data":{"Products":[]}}`}
	storage := &objectStorageFake{}
	decoder := &snapshotDecoderFake{entries: []domain.CatalogEntry{
		{ExternalID: "F1"}, {ExternalID: "F1"}, {ExternalID: "F2"},
	}}
	repo := &catalogRepoFake{}
	uc := NewCatalogUseCase(source, storage, decoder, repo, nil)

	if err := uc.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(storage.objects[SnapshotKey]) != source.body {
		t.Fatalf("expected snapshot cached under %s", SnapshotKey)
	}

	written, err := uc.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if written != 2 || len(repo.upserted) != 2 {
		t.Fatalf("expected 2 upserted entries, got written=%d upserted=%d", written, len(repo.upserted))
	}
	if decoder.seen != source.body {
		t.Fatalf("expected decoder to read cached snapshot")
	}
}

func TestCatalogLoadWithoutSnapshot(t *testing.T) {
	uc := NewCatalogUseCase(&registrySourceFake{}, &objectStorageFake{}, &snapshotDecoderFake{}, &catalogRepoFake{}, nil)

	_, err := uc.LoadSnapshot(context.Background())
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogLoadRejectsEmptySnapshot(t *testing.T) {
	storage := &objectStorageFake{objects: map[string][]byte{SnapshotKey: []byte("{}")}}
	uc := NewCatalogUseCase(&registrySourceFake{}, storage, &snapshotDecoderFake{}, &catalogRepoFake{}, nil)

	_, err := uc.LoadSnapshot(context.Background())
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCatalogFetchError(t *testing.T) {
	uc := NewCatalogUseCase(&registrySourceFake{err: errors.New("dial tcp: timeout")}, &objectStorageFake{}, &snapshotDecoderFake{}, &catalogRepoFake{}, nil)

	if err := uc.Fetch(context.Background()); err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestLoadAgenciesFillsSlugs(t *testing.T) {
	reader := &workbookReaderFake{records: []domain.AgencyUsageRecord{
		{AgencyName: "Department of State", Category: domain.CategoryStaffLLM},
		{AgencyName: "NASA", Category: domain.CategorySpecialized, Slug: "nasa"},
	}}
	repo := &agencyRepoFake{}

	written, err := NewLoadAgenciesUseCase(reader, repo, nil).Load(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 written, got %d", written)
	}
	if repo.replaced[0].Slug != "department-of-state" || repo.replaced[1].Slug != "nasa" {
		t.Fatalf("unexpected slugs: %q %q", repo.replaced[0].Slug, repo.replaced[1].Slug)
	}
}

func TestLoadAgenciesRejectsEmptyWorkbook(t *testing.T) {
	repo := &agencyRepoFake{}
	_, err := NewLoadAgenciesUseCase(&workbookReaderFake{}, repo, nil).Load(context.Background(), strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.replaced != nil {
		t.Fatalf("expected existing agencies untouched")
	}
}
