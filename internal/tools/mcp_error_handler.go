package tools

import (
	"context"
	"encoding/json"

	"webweaver/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCPErrorResult MCP 工具错误结果的统一格式
type MCPErrorResult struct {
	Success        bool        `json:"success"`
	Error          bool        `json:"error"`
	ErrorMessage   string      `json:"error_message"`
	ToolName       string      `json:"tool_name"`
	OriginalResult interface{} `json:"original_result,omitempty"`
}

// CreateMCPErrorHandler 把 MCP 工具的执行错误转换为普通结果，避免 Graph 执行中断
func CreateMCPErrorHandler() func(ctx context.Context, name string, result *mcp.CallToolResult) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, name string, result *mcp.CallToolResult) (*mcp.CallToolResult, error) {
		if result == nil || !result.IsError {
			if result != nil {
				observe(name, outcomeOK)
			}
			return result, nil
		}

		observe(name, outcomeError)
		logger.Warnf("mcp tool %s returned an error result", name)

		errorJSON, err := json.Marshal(MCPErrorResult{
			Success:        false,
			Error:          true,
			ErrorMessage:   extractErrorMessage(result),
			ToolName:       name,
			OriginalResult: result,
		})
		if err != nil {
			logger.Errorf("marshal mcp error result: %v", err)
			errorJSON, _ = json.Marshal(MCPErrorResult{
				Error:        true,
				ErrorMessage: "tool failed and the error could not be serialized",
				ToolName:     name,
			})
		}

		// IsError 必须为 false
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: string(errorJSON),
				},
			},
			IsError: false,
		}, nil
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if result == nil {
		return "unknown error"
	}
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			if c.Text != "" {
				return c.Text
			}
		case *mcp.TextContent:
			if c != nil && c.Text != "" {
				return c.Text
			}
		}
	}
	return "mcp tool execution failed"
}

// IsMCPErrorResult 判断工具输出是否为转换后的错误结果
func IsMCPErrorResult(resultText string) (bool, *MCPErrorResult) {
	var errorResult MCPErrorResult
	if err := json.Unmarshal([]byte(resultText), &errorResult); err != nil {
		return false, nil
	}
	if errorResult.Error && !errorResult.Success {
		return true, &errorResult
	}
	return false, nil
}
