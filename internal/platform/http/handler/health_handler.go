// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout は依存先ごとの疎通確認の上限時間です。
const checkTimeout = 2 * time.Second

// Check は /healthz で確認する依存先です（ストア、キャッシュなど）。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health はサービスヘルスチェック用の /healthz ハンドラーを返します。
// 依存先のいずれかが応答しない場合は 503 と "degraded" を返します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		results, healthy := runChecks(c.Request.Context(), checks)
		code := http.StatusOK
		status := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			status = "degraded"
		}

		if c.Request.Method == http.MethodHead {
			c.Status(code)
			return
		}
		body := gin.H{"status": status}
		if len(results) > 0 {
			body["checks"] = results
		}
		c.JSON(code, body)
	}
}

func runChecks(ctx context.Context, checks []Check) (map[string]string, bool) {
	results := make(map[string]string, len(checks))
	healthy := true
	for _, chk := range checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := chk.Ping(cctx)
		cancel()
		if err != nil {
			results[chk.Name] = "error: " + err.Error()
			healthy = false
			continue
		}
		results[chk.Name] = "ok"
	}
	return results, healthy
}
