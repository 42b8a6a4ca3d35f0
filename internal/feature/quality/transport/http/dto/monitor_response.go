// Package dto はqualityフィーチャーのHTTPレスポンスDTOを定義します。
package dto

import (
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// SummaryResponse は1回の検証結果サマリーのレスポンスDTOです。
type SummaryResponse struct {
	Timestamp     string  `json:"timestamp"`      // 検証時刻（RFC3339, UTC）
	Success       bool    `json:"success"`        // 全期待値が成功したか
	NExpectations int     `json:"n_expectations"` // 評価した期待値の数
	NSuccess      int     `json:"n_success"`      // 成功数
	NFailed       int     `json:"n_failed"`       // 失敗数
	PercentValid  float64 `json:"percent_valid"`  // 成功率（%）
	ContentHash   string  `json:"content_hash"`   // ペイロードのSHA-256
}

// MonitorResponse は検証を実行した場合のレスポンスです。
type MonitorResponse struct {
	Summary SummaryResponse `json:"summary"`
}

// MessageResponse は検証をスキップした場合のレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryItem は履歴一覧の1件です。
type HistoryItem struct {
	SummaryResponse
	RunID            string `json:"run_id,omitempty"`
	ExpectationSuite string `json:"expectation_suite,omitempty"`
	StoredAt         string `json:"stored_at"`
	DemoData         bool   `json:"demo_data,omitempty"`
}

// HistoryResponse は履歴一覧のレスポンスです。
type HistoryResponse struct {
	Count int           `json:"count"`
	Items []HistoryItem `json:"items"`
}

// NewSummaryResponse はドメインのサマリーをDTOに変換します。
func NewSummaryResponse(s entity.Summary) SummaryResponse {
	return SummaryResponse{
		Timestamp:     s.Timestamp.UTC().Format(time.RFC3339Nano),
		Success:       s.Success,
		NExpectations: s.NExpectations,
		NSuccess:      s.NSuccess,
		NFailed:       s.NFailed,
		PercentValid:  s.PercentValid,
		ContentHash:   s.ContentHash,
	}
}

// NewHistoryResponse は保存済みドキュメント列をDTOに変換します。
func NewHistoryResponse(docs []entity.StoredDocument) HistoryResponse {
	items := make([]HistoryItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, HistoryItem{
			SummaryResponse:  NewSummaryResponse(d.Summary),
			RunID:            d.RunID,
			ExpectationSuite: d.ExpectationSuite,
			StoredAt:         d.StoredAt.UTC().Format(time.RFC3339Nano),
			DemoData:         d.DemoData,
		})
	}
	return HistoryResponse{Count: len(items), Items: items}
}
