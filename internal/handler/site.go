package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"webweaver/internal/model"
	"webweaver/internal/service"
	"webweaver/internal/utils"
	"webweaver/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultHeartbeat = 15 * time.Second

type SiteHandler struct {
	siteService *service.SiteService
	heartbeat   time.Duration
}

func NewSiteHandler(siteService *service.SiteService) *SiteHandler {
	return &SiteHandler{
		siteService: siteService,
		heartbeat:   defaultHeartbeat,
	}
}

func (h *SiteHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.siteService.Generate(c.Request.Context(), &req)
	if err != nil {
		// 驱动失败时仍返回报告
		if report != nil {
			c.JSON(statusFor(err), report)
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type generateResult struct {
	report *model.GenerationReport
	err    error
}

// GenerateStream SSE 版本：status -> progress/heartbeat -> result|error -> [DONE]
func (h *SiteHandler) GenerateStream(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sseWriter := utils.NewSSEWriter(c.Writer)
	streamID := uuid.New().String()
	pm := service.NewProgressManager(streamID)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sseWriter.WriteJSON("status", gin.H{
		"type":      "processing_start",
		"stream_id": streamID,
		"message":   "generation started",
		"timestamp": time.Now().Unix(),
	})

	done := make(chan generateResult, 1)
	go func() {
		defer pm.Close()
		report, err := h.siteService.Generate(service.WithProgress(ctx, pm), &req)
		done <- generateResult{report: report, err: err}
	}()

	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	events := pm.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := sseWriter.WriteJSON("progress", ev); err != nil {
				logger.Errorf("write sse progress: %v", err)
				return
			}

		case <-heartbeatTicker.C:
			if err := sseWriter.WriteJSON("heartbeat", gin.H{
				"type":      "heartbeat",
				"timestamp": time.Now().Unix(),
			}); err != nil {
				logger.Warnf("heartbeat failed: %v", err)
				return
			}

		case res := <-done:
			// 先把剩余的进度事件推完
			for ev := range pm.Events() {
				sseWriter.WriteJSON("progress", ev)
			}
			h.writeResult(sseWriter, res)
			sseWriter.Close()
			return

		case <-ctx.Done():
			return
		}
	}
}

func (h *SiteHandler) writeResult(w *utils.SSEWriter, res generateResult) {
	if res.err == nil {
		w.WriteJSON("result", res.report)
		return
	}
	payload := gin.H{
		"error":     res.err.Error(),
		"status":    statusFor(res.err),
		"timestamp": time.Now().Unix(),
	}
	if res.report != nil {
		payload["report"] = res.report
	}
	w.WriteJSON("error", payload)
}

// Download 返回最近一次生成的 zip 包
func (h *SiteHandler) Download(c *gin.Context) {
	ws := h.siteService.Workspace()
	archive := ws.ArchivePath()
	if _, err := os.Stat(archive); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no website package has been generated yet"})
		return
	}
	c.FileAttachment(archive, ws.ArchiveName)
}

// Files 工作区静态文件，路径限制在工作区内
func (h *SiteHandler) Files(c *gin.Context) {
	name := path.Clean("/" + c.Param("path"))
	full := filepath.Join(h.siteService.Workspace().Root, filepath.FromSlash(name))

	f, err := os.Open(full)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file %s not found", name)})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file %s not found", name)})
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (h *SiteHandler) Reset(c *gin.Context) {
	if err := h.siteService.Reset(); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *SiteHandler) Hints(c *gin.Context) {
	var req model.HintsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.siteService.Hints(req.Prompt))
}
