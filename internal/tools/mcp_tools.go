package tools

import (
	"context"
	"fmt"
	"time"

	"webweaver/internal/config"
	"webweaver/pkg/logger"

	einoMcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultMCPTimeout = 30 * time.Second

// MCPSet 已连接的 MCP 服务及其工具
type MCPSet struct {
	Tools   []tool.BaseTool
	clients []*client.Client
}

// Close 关闭全部 MCP 连接
func (s *MCPSet) Close() {
	if s == nil {
		return
	}
	for _, cli := range s.clients {
		if err := cli.Close(); err != nil {
			logger.Warnf("close mcp client: %v", err)
		}
	}
}

type toolsResult struct {
	tools []tool.BaseTool
	err   error
}

// LoadMCPTools 逐个连接配置中启用的 SSE MCP 服务，失败的服务只记录日志后跳过
func LoadMCPTools(ctx context.Context, cfg config.MCPConfig) *MCPSet {
	set := &MCPSet{}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMCPTimeout
	}

	for _, server := range cfg.Servers {
		if !server.Enabled || server.URL == "" {
			continue
		}
		cli, tools, err := loadMCPServer(ctx, server, timeout)
		if err != nil {
			logger.WithFields(logger.Fields{
				"server": server.Name,
				"error":  err,
			}).Warn("mcp tools not available")
			continue
		}
		logger.Infof("mcp server %s loaded %d tools", server.Name, len(tools))
		set.clients = append(set.clients, cli)
		set.Tools = append(set.Tools, tools...)
	}
	return set
}

func loadMCPServer(parent context.Context, server config.MCPServerConfig, timeout time.Duration) (*client.Client, []tool.BaseTool, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cli, err := client.NewSSEMCPClient(server.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create mcp client: %w", err)
	}
	defer func() {
		if err != nil {
			_ = cli.Close()
		}
	}()

	// SSE 长连接跟随 Close 结束，不能绑定加载超时
	startChan := make(chan error, 1)
	go func() {
		startChan <- cli.Start(context.WithoutCancel(parent))
	}()

	select {
	case err = <-startChan:
		if err != nil {
			err = fmt.Errorf("start mcp client: %w", err)
			return nil, nil, err
		}
	case <-ctx.Done():
		err = fmt.Errorf("timeout starting mcp client")
		return nil, nil, err
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "webweaver-" + server.Name,
		Version: "1.0.0",
	}

	initChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				initChan <- fmt.Errorf("panic during initialization: %v", r)
			}
		}()
		_, err := cli.Initialize(ctx, initRequest)
		initChan <- err
	}()

	select {
	case err = <-initChan:
		if err != nil {
			err = fmt.Errorf("initialize mcp connection: %w", err)
			return nil, nil, err
		}
	case <-ctx.Done():
		err = fmt.Errorf("timeout initializing mcp connection")
		return nil, nil, err
	}

	toolsChan := make(chan toolsResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				toolsChan <- toolsResult{err: fmt.Errorf("panic during tools retrieval: %v", r)}
			}
		}()
		mcpTools, err := einoMcp.GetTools(ctx, &einoMcp.Config{
			Cli:                   cli,
			ToolCallResultHandler: CreateMCPErrorHandler(),
		})
		toolsChan <- toolsResult{tools: mcpTools, err: err}
	}()

	select {
	case res := <-toolsChan:
		if res.err != nil {
			err = fmt.Errorf("list mcp tools: %w", res.err)
			return nil, nil, err
		}
		return cli, wrapMCPTools(res.tools), nil
	case <-ctx.Done():
		err = fmt.Errorf("timeout listing mcp tools")
		return nil, nil, err
	}
}

// mcpTool 调用失败（连接断开、超时）转成结果文本，避免 Graph 中断
type mcpTool struct {
	tool.InvokableTool
	name string
}

func wrapMCPTools(tools []tool.BaseTool) []tool.BaseTool {
	wrapped := make([]tool.BaseTool, 0, len(tools))
	for _, t := range tools {
		invokable, ok := t.(tool.InvokableTool)
		if !ok {
			wrapped = append(wrapped, t)
			continue
		}
		name := ""
		if info, err := t.Info(context.Background()); err == nil && info != nil {
			name = info.Name
		}
		wrapped = append(wrapped, &mcpTool{InvokableTool: invokable, name: name})
	}
	return wrapped
}

func (t *mcpTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	result, err := t.InvokableTool.InvokableRun(ctx, argumentsInJSON, opts...)
	if err != nil {
		logger.WithFields(logger.Fields{
			"tool":  t.name,
			"error": err,
		}).Warn("mcp tool call failed")
		observe(t.name, outcomeError)
		return errorResult(t.name, err), nil
	}
	observe(t.name, outcomeOK)
	return result, nil
}
