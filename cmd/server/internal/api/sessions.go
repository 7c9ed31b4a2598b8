package api

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/session"
)

// maxUploadBytes 单张图片上传上限
const maxUploadBytes = 8 << 20 // 8 MB

// SessionHandler 会话 REST 接口
type SessionHandler struct {
	manager *session.Manager
}

// NewSessionHandler 创建会话接口处理器
func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// Register 挂载会话路由
func (h *SessionHandler) Register(r gin.IRouter) {
	sessions := r.Group("/api/sessions")
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.getSession)
	sessions.POST("/:id/image", h.uploadImage)
	sessions.POST("/:id/camera/permission", h.reportCameraPermission)
	sessions.POST("/:id/camera/frame", h.captureFrame)
	sessions.POST("/:id/correction", h.beginCorrection)
	sessions.DELETE("/:id/correction", h.cancelCorrection)
	sessions.POST("/:id/selection", h.selectWasteType)
	sessions.PUT("/:id/language", h.setLanguage)
	sessions.POST("/:id/speech/toggle", h.toggleSpeech)
	sessions.GET("/:id/speech", h.speechAudio)
	sessions.POST("/:id/reset", h.resetSession)
	sessions.DELETE("/:id", h.deleteSession)
}

// controller 解析路径中的会话 ID
func (h *SessionHandler) controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, ok := h.manager.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "session not found")
	}
	return ctrl, ok
}

// createSession POST /api/sessions
func (h *SessionHandler) createSession(c *gin.Context) {
	ctrl := h.manager.Create()
	c.JSON(http.StatusCreated, ctrl.Snapshot())
}

// getSession GET /api/sessions/:id
func (h *SessionHandler) getSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// uploadImage POST /api/sessions/:id/image
// multipart 字段 image 携带照片，上传即触发分类与描述工作流
func (h *SessionHandler) uploadImage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "multipart field 'image' is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		errorResponse(c, http.StatusRequestEntityTooLarge, "image exceeds the upload limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "cannot open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "cannot read uploaded file")
		return
	}

	if err := ctrl.AcquireFromFile(c.Request.Context(), fileHeader.Filename, data); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// reportCameraPermission POST /api/sessions/:id/camera/permission
func (h *SessionHandler) reportCameraPermission(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req struct {
		Granted bool `json:"granted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctrl.ReportCameraPermission(req.Granted)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// captureFrame POST /api/sessions/:id/camera/frame
// body 为 {"frame": "<base64>"}，即画布导出的一帧
func (h *SessionHandler) captureFrame(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req struct {
		Frame string `json:"frame"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Frame == "" {
		errorResponse(c, http.StatusBadRequest, "field 'frame' with base64 image data is required")
		return
	}
	frame, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "field 'frame' is not valid base64")
		return
	}

	if err := ctrl.AcquireFromCamera(c.Request.Context(), frame); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// beginCorrection POST /api/sessions/:id/correction
// 返回供手动选择的类型列表（模型建议在前）
func (h *SessionHandler) beginCorrection(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	choices := ctrl.BeginCorrection(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"choices":  choices,
		"snapshot": ctrl.Snapshot(),
	})
}

// cancelCorrection DELETE /api/sessions/:id/correction
func (h *SessionHandler) cancelCorrection(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.CancelCorrection()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// selectWasteType POST /api/sessions/:id/selection
func (h *SessionHandler) selectWasteType(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req struct {
		WasteType string `json:"wasteType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.WasteType == "" {
		errorResponse(c, http.StatusBadRequest, "field 'wasteType' is required")
		return
	}

	if err := ctrl.SelectManual(c.Request.Context(), req.WasteType); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// setLanguage PUT /api/sessions/:id/language
func (h *SessionHandler) setLanguage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Language == "" {
		errorResponse(c, http.StatusBadRequest, "field 'language' is required")
		return
	}

	if err := ctrl.SetLanguage(c.Request.Context(), req.Language); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// toggleSpeech POST /api/sessions/:id/speech/toggle
func (h *SessionHandler) toggleSpeech(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	if err := ctrl.ToggleReadAloud(c.Request.Context()); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// speechAudio GET /api/sessions/:id/speech
// 返回最近一次合成的音频
func (h *SessionHandler) speechAudio(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	audio, contentType, ok := ctrl.LastAudio()
	if !ok {
		errorResponse(c, http.StatusNotFound, "no synthesized audio for this session")
		return
	}
	c.Data(http.StatusOK, contentType, audio)
}

// resetSession POST /api/sessions/:id/reset
func (h *SessionHandler) resetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.Reset()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// deleteSession DELETE /api/sessions/:id
func (h *SessionHandler) deleteSession(c *gin.Context) {
	if !h.manager.Delete(c.Param("id")) {
		errorResponse(c, http.StatusNotFound, "session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
