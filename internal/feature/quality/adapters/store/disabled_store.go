package store

import (
	"context"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// DisabledStore stands in when no store is configured.
// Writes report domain.ErrStoreDisabled and the latest hash is always absent,
// so every payload counts as changed.
type DisabledStore struct{}

var (
	_ usecase.SummaryRepository = DisabledStore{}
	_ usecase.HistoryReader     = DisabledStore{}
	_ usecase.DemoRepository    = DisabledStore{}
)

func (DisabledStore) Save(context.Context, entity.StoredDocument) error {
	return domain.ErrStoreDisabled
}

func (DisabledStore) LatestHash(context.Context) (string, bool, error) {
	return "", false, nil
}

func (DisabledStore) Recent(context.Context, int) ([]entity.StoredDocument, error) {
	return nil, domain.ErrStoreDisabled
}

func (DisabledStore) DeleteDemo(context.Context) (int64, error) {
	return 0, domain.ErrStoreDisabled
}

func (DisabledStore) InsertMany(context.Context, []entity.StoredDocument) (int, error) {
	return 0, domain.ErrStoreDisabled
}

func (DisabledStore) Stats(context.Context) (usecase.DemoStats, error) {
	return usecase.DemoStats{}, domain.ErrStoreDisabled
}
