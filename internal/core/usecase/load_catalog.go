package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

// SnapshotKey is the storage key of the cached registry snapshot.
const SnapshotKey = "fedramp_products.json"

type CatalogUseCase struct {
	source  ports.RegistrySource
	storage ports.ObjectStorage
	decoder ports.SnapshotDecoder
	repo    ports.CatalogRepository
	logger  *slog.Logger
}

func NewCatalogUseCase(
	source ports.RegistrySource,
	storage ports.ObjectStorage,
	decoder ports.SnapshotDecoder,
	repo ports.CatalogRepository,
	logger *slog.Logger,
) *CatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogUseCase{
		source:  source,
		storage: storage,
		decoder: decoder,
		repo:    repo,
		logger:  logger,
	}
}

// Fetch downloads the registry snapshot and replaces the cached copy.
func (uc *CatalogUseCase) Fetch(ctx context.Context) error {
	body, err := uc.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch registry snapshot: %w", err)
	}
	defer body.Close()

	if err := uc.storage.Save(ctx, SnapshotKey, body); err != nil {
		return fmt.Errorf("save registry snapshot: %w", err)
	}
	uc.logger.Info("registry_snapshot_saved", "key", SnapshotKey)
	return nil
}

// LoadSnapshot upserts the cached snapshot into the catalog store and
// returns the number of distinct entries written.
func (uc *CatalogUseCase) LoadSnapshot(ctx context.Context) (int, error) {
	snapshot, err := uc.storage.Open(ctx, SnapshotKey)
	if err != nil {
		return 0, fmt.Errorf("open registry snapshot: %w", err)
	}
	defer snapshot.Close()

	decoded, err := uc.decoder.Decode(snapshot)
	if err != nil {
		return 0, fmt.Errorf("decode registry snapshot: %w", err)
	}

	entries := DedupeEntries(decoded)
	if len(entries) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "load registry snapshot", errors.New("snapshot has no catalog entries"))
	}

	written, err := uc.repo.UpsertEntries(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("upsert catalog entries: %w", err)
	}
	uc.logger.Info("catalog_loaded",
		"decoded", len(decoded),
		"distinct", len(entries),
		"written", written,
	)
	return written, nil
}

// DedupeEntries keeps the first entry per external id and drops entries
// without one. Order is preserved.
func DedupeEntries(entries []domain.CatalogEntry) []domain.CatalogEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.ExternalID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		entry.ExternalID = id
		out = append(out, entry)
	}
	return out
}
