package tools

import (
	"encoding/json"
	"fmt"

	"webweaver/internal/metrics"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// parseArgs 解析工具参数，失败时返回给模型看的错误文本
func parseArgs(toolName, argumentsInJSON string, v interface{}) (string, bool) {
	if err := json.Unmarshal([]byte(argumentsInJSON), v); err != nil {
		observe(toolName, outcomeError)
		return errorResult(toolName, fmt.Errorf("failed to parse arguments: %w", err)), false
	}
	return "", true
}

// errorResult 工具失败转成普通结果，避免 Graph 中断
func errorResult(toolName string, err error) string {
	data, _ := json.Marshal(map[string]interface{}{
		"success":   false,
		"tool_name": toolName,
		"error":     err.Error(),
	})
	return string(data)
}

func observe(toolName, outcome string) {
	metrics.ToolInvocations.WithLabelValues(toolName, outcome).Inc()
}
