package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/health"
)

// ServicesStatusResponse 服务状态响应
type ServicesStatusResponse struct {
	GenAIAvailable  bool   `json:"genai_available"`
	SpeechAvailable bool   `json:"speech_available"`
	Mode            string `json:"mode"` // live / degraded

	GenAIError     string     `json:"genai_error,omitempty"`
	GenAILastCheck *time.Time `json:"genai_last_check,omitempty"`
}

// HandleServicesStatus 返回当前 AI 服务的可用状态
// GET /api/services/status
func HandleServicesStatus(checker *health.Checker, speechAvailable bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := ServicesStatusResponse{
			SpeechAvailable: speechAvailable,
			Mode:            "degraded",
		}

		// checker 为 nil 表示未配置 AI 端点，服务以降级模式运行
		if checker != nil {
			status := checker.GetStatus()
			resp.GenAIAvailable = status.IsHealthy
			if status.IsHealthy {
				resp.Mode = "live"
			}
			if status.ErrorMessage != "" {
				resp.GenAIError = status.ErrorMessage
			}
			if !status.LastCheckTime.IsZero() {
				t := status.LastCheckTime
				resp.GenAILastCheck = &t
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}
