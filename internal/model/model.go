package model

import (
	"context"
	"fmt"
	"net/http"

	"webweaver/internal/config"
	"webweaver/internal/utils"
	"webweaver/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// NewChatModel 按 provider 创建对话模型，并绑定工具
func NewChatModel(ctx context.Context, cfg *config.Config, tools []tool.BaseTool) (einoModel.ChatModel, error) {
	var (
		chatModel einoModel.ChatModel
		err       error
	)

	switch cfg.Model.Provider {
	case config.ProviderDoubao:
		chatModel, err = createDoubaoModel(ctx, cfg.Doubao)
	case config.ProviderOpenAI:
		chatModel, err = newOpenAIChatModel(ctx, cfg.OpenAI)
	case config.ProviderQwen:
		chatModel, err = createQwenModel(ctx, cfg.Qwen)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Model.Provider, err)
	}

	if len(tools) > 0 {
		if err := bindToolsToModel(ctx, chatModel, tools); err != nil {
			return nil, err
		}
	}
	return chatModel, nil
}

func maskKey(key string) string {
	if len(key) > 6 {
		return key[:6] + "..."
	}
	return "***"
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.ChatModel, error) {
	logger.WithFields(logger.Fields{
		"model":   cfg.Model,
		"api_key": maskKey(cfg.APIKey),
	}).Info("using doubao model")

	arkCfg := &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.MaxTokens > 0 {
		arkCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		arkCfg.Temperature = &cfg.Temperature
	}
	return ark.NewChatModel(ctx, arkCfg)
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig) (einoModel.ChatModel, error) {
	logger.WithFields(logger.Fields{
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
		"api_key":  maskKey(cfg.APIKey),
		"debug":    cfg.DebugRequest,
	}).Info("using qwen model")

	httpClient := utils.NewHTTPClient(cfg.Timeout)
	httpClient.Transport = NewQwenDebugTransport(httpClient.Transport, cfg.DebugRequest)

	return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
	})
}

var _ http.RoundTripper = (*QwenDebugTransport)(nil)

func bindToolsToModel(ctx context.Context, chatModel einoModel.ChatModel, tools []tool.BaseTool) error {
	toolsInfo := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return fmt.Errorf("read tool info: %w", err)
		}
		toolsInfo = append(toolsInfo, info)
	}

	if err := chatModel.BindTools(toolsInfo); err != nil {
		return fmt.Errorf("bind tools: %w", err)
	}
	logger.Infof("bound %d tools to chat model", len(toolsInfo))
	return nil
}
