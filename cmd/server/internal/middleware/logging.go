package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrisaathi/agriwaste/pkg/logger"
)

// RequestLogger 写入结构化请求日志并注入 request_id。
// 会话路由（/api/sessions/:id/...）额外记录 session_id，便于按会话追查
// 一次分类或翻译流程跨请求的日志。
func RequestLogger() gin.HandlerFunc {
	return requestLoggerWith(nil)
}

// requestLoggerWith 允许注入 logger，nil 时使用全局实例。
func requestLoggerWith(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		duration := time.Since(start)

		l := log
		if l == nil {
			l = logger.L()
		}

		attrs := []any{
			"rid", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", duration.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if sid := c.Param("id"); sid != "" {
			attrs = append(attrs, "session_id", sid)
		}
		l.Info("http_request", attrs...)
	}
}
