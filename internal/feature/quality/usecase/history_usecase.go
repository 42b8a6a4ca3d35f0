package usecase

import (
	"context"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
)

const (
	// DefaultHistoryLimit はデフォルトの履歴返却件数です。
	DefaultHistoryLimit = 20
	// MaxHistoryLimit は履歴の最大返却件数です。
	MaxHistoryLimit = 500
)

// HistoryReader は保存済みドキュメントの読み取りレイヤーを抽象化します。
type HistoryReader interface {
	// Recent は新しい順に最大 limit 件のドキュメントを返します（FullResults は含みません）。
	Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error)
}

// HistoryUsecase は過去の検証サマリー参照のユースケースを定義します。
type HistoryUsecase struct {
	repo HistoryReader
}

// NewHistoryUsecase は HistoryUsecase の新しいインスタンスを生成します。
func NewHistoryUsecase(repo HistoryReader) *HistoryUsecase {
	return &HistoryUsecase{repo: repo}
}

// Recent は直近の検証サマリーを新しい順に返します。
func (h *HistoryUsecase) Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error) {
	if h.repo == nil {
		return nil, domain.ErrStoreDisabled
	}
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return h.repo.Recent(ctx, limit)
}
