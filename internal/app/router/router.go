package router

import (
	"github.com/gin-gonic/gin"

	qualityhandler "quality_watchdog/internal/feature/quality/transport/handler"
	healthhandler "quality_watchdog/internal/platform/http/handler"
	jwtmw "quality_watchdog/internal/platform/jwt"
)

// NewRouter registers the health endpoint and the monitor API.
// jwtSecret が空の場合、/api は認証なしで公開されます。
func NewRouter(monitor *qualityhandler.MonitorHandler, jwtSecret string, checks ...healthhandler.Check) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 認証不要
	// 導通確認用
	health := healthhandler.Health(checks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// 監視API（MONITOR_JWT_SECRET 設定時は Bearer トークン必須）
	api := r.Group("/api")
	api.Use(jwtmw.AuthRequired(jwtSecret))
	{
		// スケジューラからの起動は GET/POST どちらも受け付ける
		api.GET("/monitor", monitor.Monitor)
		api.POST("/monitor", monitor.Monitor)
		api.GET("/history", monitor.History)
	}

	return r
}
