package handler

import (
	"net/http"

	"webweaver/internal/service"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	siteService *service.SiteService
}

func NewHistoryHandler(siteService *service.SiteService) *HistoryHandler {
	return &HistoryHandler{siteService: siteService}
}

func (h *HistoryHandler) List(c *gin.Context) {
	items, err := h.siteService.History()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	index, err := parseIndex(c.Param("index"), false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	record, err := h.siteService.Record(index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"index":  index,
		"record": record,
	})
}

// Preview format=html 时直接返回文档
func (h *HistoryHandler) Preview(c *gin.Context) {
	index, err := parseIndex(c.Param("index"), true)
	if err != nil {
		abortWithError(c, err)
		return
	}
	preview, err := h.siteService.Preview(index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(preview.Content))
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *HistoryHandler) Delete(c *gin.Context) {
	index, err := parseIndex(c.Param("index"), false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.siteService.DeleteRecord(index); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": index})
}
