package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"webweaver/internal/service"
	"webweaver/internal/storage"
	"webweaver/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errInvalidIndex = errors.New("invalid history index")

// statusFor 业务错误到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, errInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAgentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logger.Fields{
			"path":   c.FullPath(),
			"status": status,
		}).Errorf("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseIndex allowLatest 时接受 "latest"
func parseIndex(raw string, allowLatest bool) (int, error) {
	if allowLatest && strings.EqualFold(raw, "latest") {
		return service.LatestIndex, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, errInvalidIndex
	}
	return i, nil
}
