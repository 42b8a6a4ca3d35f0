// Package handler はqualityフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/transport/http/dto"
	"quality_watchdog/internal/feature/quality/usecase"
)

// MonitorUsecase はパイプライン1回分の実行を定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MonitorUsecase interface {
	Run(ctx context.Context, force bool) (*usecase.Result, error)
}

// HistoryUsecase は保存済み検証結果の参照を定義します。
type HistoryUsecase interface {
	Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error)
}

// MonitorHandler は監視パイプラインのHTTPリクエストを処理します。
type MonitorHandler struct {
	monitor MonitorUsecase
	history HistoryUsecase
}

// NewMonitorHandler は MonitorHandler の新しいインスタンスを生成します。
func NewMonitorHandler(monitor MonitorUsecase, history HistoryUsecase) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, history: history}
}

// Monitor はパイプラインを1回実行し、スキップ・サマリー・エラーのいずれかを返します。
//
// エンドポイント例:
// GET /api/monitor?force=true
func (h *MonitorHandler) Monitor(c *gin.Context) {
	// force=true（大文字小文字を区別しない）の場合は変更検知を行わない
	force := strings.EqualFold(c.Query("force"), "true")

	res, err := h.monitor.Run(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if res.Outcome == usecase.OutcomeSkipped || res.Summary == nil {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: res.Message})
		return
	}
	c.JSON(http.StatusOK, dto.MonitorResponse{Summary: dto.NewSummaryResponse(*res.Summary)})
}

// History は直近の検証サマリーを新しい順に返します。
//
// エンドポイント例:
// GET /api/history?limit=50
func (h *MonitorHandler) History(c *gin.Context) {
	// 不正な値は0となり、usecase側でデフォルト値に変換される
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usecase.DefaultHistoryLimit)))

	docs, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrStoreDisabled) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(docs))
}
