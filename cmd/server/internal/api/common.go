package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/acquire"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/session"
)

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// mapSessionError 将会话层错误映射为 HTTP 状态码
func mapSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownWasteType),
		errors.Is(err, session.ErrUnsupportedLanguage),
		errors.Is(err, acquire.ErrEmptyImage),
		errors.Is(err, acquire.ErrNotAnImage):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, acquire.ErrCameraDenied),
		errors.Is(err, acquire.ErrCameraNotGranted):
		errorResponse(c, http.StatusForbidden, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
