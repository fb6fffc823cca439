package tools

import (
	"context"

	"webweaver/internal/config"

	"github.com/cloudwego/eino/components/tool"
)

// GetTools 组装 Agent 可用的全部工具
func GetTools(ctx context.Context, cfg *config.Config, analyzer SiteAnalyzer, mcpSet *MCPSet) []tool.BaseTool {
	tools := []tool.BaseTool{
		&DomainTool{},
		NewAnalyseWebsitesTool(analyzer, cfg.Crawl),
		&SEOTagsTool{},
	}
	if mcpSet != nil {
		tools = append(tools, mcpSet.Tools...)
	}
	return tools
}
